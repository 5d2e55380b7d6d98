package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/corebanking/internal/domain"
)

func TestCustomerRepositoryCreate(t *testing.T) {
	mockPool := newMockPool(t)
	customer := &domain.Customer{ID: uuid.New(), Name: "Ada", Address: "1 Loop Rd", CreatedAt: time.Now()}

	mockPool.ExpectExec("INSERT INTO customers").
		WithArgs(pgxmock.AnyArg(), "Ada", "1 Loop Rd", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := NewCustomerRepository(mockPool)
	require.NoError(t, repo.Create(context.Background(), customer))
	assertExpectations(t, mockPool)
}

func TestCustomerRepositoryGetByIDNotFound(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectQuery("SELECT id, name, address, created_at FROM customers").
		WithArgs(pgxmock.AnyArg()).
		WillReturnError(pgx.ErrNoRows)

	repo := NewCustomerRepository(mockPool)
	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)
	assertExpectations(t, mockPool)
}

func TestCustomerRepositoryCount(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectQuery("SELECT COUNT").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(7)))

	repo := NewCustomerRepository(mockPool)
	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}

func TestAccountRepositoryCreateUnknownCustomer(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectExec("INSERT INTO accounts").
		WithArgs(
			pgxmock.AnyArg(), pgxmock.AnyArg(), "01J0000000000000000000000",
			pgxmock.AnyArg(), pgxmock.AnyArg(), int64(0), pgxmock.AnyArg(), pgxmock.AnyArg(),
		).
		WillReturnError(pgError(pgErrForeignKeyViolation, constraintAccountCustomer))

	repo := NewAccountRepository(mockPool)
	err := repo.Create(context.Background(), &domain.Account{
		ID:         uuid.New(),
		CustomerID: uuid.New(),
		Number:     "01J0000000000000000000000",
		Balance:    decimal.NewFromInt(10),
	})
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)
}

func TestAccountRepositoryGetByNumberNotFound(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectQuery("FROM accounts WHERE number").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	repo := NewAccountRepository(mockPool)
	_, err := repo.GetByNumber(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestAccountRepositoryCountByCustomer(t *testing.T) {
	mockPool := newMockPool(t)
	customerID := uuid.New()
	mockPool.ExpectQuery("WHERE customer_id").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(3)))

	repo := NewAccountRepository(mockPool)
	n, err := repo.Count(context.Background(), &customerID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assertExpectations(t, mockPool)
}

func TestAccountRepositoryUpdateBalance(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectBegin()
	mockPool.ExpectExec("UPDATE accounts SET balance").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mockPool.ExpectExec("UPDATE accounts SET balance").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mockPool.ExpectRollback()

	ctx := context.Background()
	tx, err := newTxManagerWithPool(mockPool).Begin(ctx)
	require.NoError(t, err)

	repo := NewAccountRepository(mockPool)
	require.NoError(t, repo.UpdateBalance(ctx, tx, uuid.New(), decimal.NewFromInt(50), time.Now()))

	err = repo.UpdateBalance(ctx, tx, uuid.New(), decimal.NewFromInt(50), time.Now())
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	require.NoError(t, tx.Rollback(ctx))
	assertExpectations(t, mockPool)
}

func TestAccountRepositoryLockTimeout(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectBegin()
	mockPool.ExpectQuery("FOR UPDATE").
		WithArgs(pgxmock.AnyArg()).
		WillReturnError(pgError(pgErrLockNotAvailable, ""))

	ctx := context.Background()
	tx, err := newTxManagerWithPool(mockPool).Begin(ctx)
	require.NoError(t, err)

	repo := NewAccountRepository(mockPool)
	_, err = repo.GetByIDsForUpdate(ctx, tx, []uuid.UUID{uuid.New(), uuid.New()})
	assert.Equal(t, domain.KindTimeout, domain.KindOf(err))
}

type foreignTx struct{}

func (foreignTx) Commit(context.Context) error   { return nil }
func (foreignTx) Rollback(context.Context) error { return nil }

func TestRepositoriesRejectForeignTx(t *testing.T) {
	mockPool := newMockPool(t)
	ctx := context.Background()

	err := NewAccountRepository(mockPool).UpdateBalance(ctx, foreignTx{}, uuid.New(), decimal.NewFromInt(1), time.Now())
	assert.Equal(t, domain.KindPersistence, domain.KindOf(err))

	err = NewTransactionRepository(mockPool).Create(ctx, foreignTx{}, &domain.Transaction{ID: uuid.New()})
	assert.Equal(t, domain.KindPersistence, domain.KindOf(err))
}

func TestTransactionRepositoryCreate(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectBegin()
	mockPool.ExpectExec("INSERT INTO transactions").
		WithArgs(
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), "withdraw",
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectCommit()

	ctx := context.Background()
	tx, err := newTxManagerWithPool(mockPool).Begin(ctx)
	require.NoError(t, err)

	transferID := uuid.New()
	err = NewTransactionRepository(mockPool).Create(ctx, tx, &domain.Transaction{
		ID:           uuid.New(),
		AccountID:    uuid.New(),
		TransferID:   &transferID,
		Kind:         domain.TransactionWithdraw,
		Amount:       decimal.NewFromInt(5),
		BalanceAfter: decimal.NewFromInt(95),
		CreatedAt:    time.Now(),
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))
	assertExpectations(t, mockPool)
}

func TestLedgerRepositoryAccountFlowNotFound(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	mockPool.ExpectQuery("LEFT JOIN transactions").
		WithArgs(pgxmock.AnyArg()).
		WillReturnError(pgx.ErrNoRows)
	mockPool.ExpectRollback()
	// BeginTxFunc rolls back again on its way out; a closed tx reports ErrTxClosed.
	mockPool.ExpectRollback().WillReturnError(pgx.ErrTxClosed)

	_, err := NewLedgerRepository(mockPool).AccountFlow(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	assertExpectations(t, mockPool)
}

func TestLedgerRepositoryAccountFlow(t *testing.T) {
	mockPool := newMockPool(t)
	accountID := uuid.New()

	mockPool.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	mockPool.ExpectQuery("LEFT JOIN transactions").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "balance", "opening_balance", "deposits", "withdrawals"}).
			AddRow(
				uuidToPg(accountID),
				decimalToNumeric(decimal.RequireFromString("70.5")),
				decimalToNumeric(decimal.NewFromInt(100)),
				decimalToNumeric(decimal.RequireFromString("0.5")),
				decimalToNumeric(decimal.NewFromInt(30)),
			))
	mockPool.ExpectCommit()
	mockPool.ExpectRollback().WillReturnError(pgx.ErrTxClosed)

	flow, err := NewLedgerRepository(mockPool).AccountFlow(context.Background(), accountID)
	require.NoError(t, err)
	assert.Equal(t, accountID, flow.AccountID)
	assert.True(t, decimal.RequireFromString("70.5").Equal(flow.Balance))
	assert.True(t, decimal.NewFromInt(100).Equal(flow.OpeningBalance))
	assert.True(t, decimal.RequireFromString("0.5").Equal(flow.Deposits))
	assert.True(t, decimal.NewFromInt(30).Equal(flow.Withdrawals))
	assertExpectations(t, mockPool)
}

func TestLedgerRepositoryTotals(t *testing.T) {
	mockPool := newMockPool(t)

	mockPool.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	mockPool.ExpectQuery("total_balance").
		WillReturnRows(pgxmock.NewRows([]string{
			"accounts", "negative_accounts", "total_balance",
			"total_opening_balance", "total_deposits", "total_withdrawals",
		}).AddRow(
			int64(2),
			int64(0),
			decimalToNumeric(decimal.RequireFromString("150.1")),
			decimalToNumeric(decimal.NewFromInt(150)),
			decimalToNumeric(decimal.RequireFromString("30.1")),
			decimalToNumeric(decimal.NewFromInt(30)),
		))
	mockPool.ExpectCommit()
	mockPool.ExpectRollback().WillReturnError(pgx.ErrTxClosed)

	totals, err := NewLedgerRepository(mockPool).Totals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), totals.Accounts)
	assert.Equal(t, int64(0), totals.NegativeAccounts)
	assert.True(t, decimal.RequireFromString("150.1").Equal(totals.Balance))
	assert.True(t, decimal.NewFromInt(150).Equal(totals.OpeningBalance))
	assert.True(t, decimal.RequireFromString("30.1").Equal(totals.Deposits))
	assert.True(t, decimal.NewFromInt(30).Equal(totals.Withdrawals))
	assertExpectations(t, mockPool)
}
