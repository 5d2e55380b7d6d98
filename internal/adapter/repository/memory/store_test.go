package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/corebanking/internal/adapter/repository/storetest"
	"github.com/iho/corebanking/internal/domain"
)

func TestStoreSuite(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storetest.Harness {
		store := NewStore()
		return storetest.Harness{
			TxManager:    store,
			Customers:    store.Customers(),
			Accounts:     store.Accounts(),
			Transactions: store.Transactions(),
			Ledger:       store.Ledger(),
		}
	})
}

func seedAccount(t *testing.T, store *Store, balance string) *domain.Account {
	t.Helper()
	ctx := context.Background()

	customer := &domain.Customer{ID: uuid.New(), Name: "Grace", CreatedAt: time.Now()}
	require.NoError(t, store.Customers().Create(ctx, customer))

	account := &domain.Account{
		ID:             uuid.New(),
		CustomerID:     customer.ID,
		Number:         uuid.NewString(),
		Balance:        decimal.RequireFromString(balance),
		OpeningBalance: decimal.RequireFromString(balance),
	}
	require.NoError(t, store.Accounts().Create(ctx, account))
	return account
}

func TestLockWaitHonorsDeadline(t *testing.T) {
	store := NewStore()
	account := seedAccount(t, store, "10")
	ctx := context.Background()

	holder, err := store.Begin(ctx)
	require.NoError(t, err)
	_, err = store.Accounts().GetByIDsForUpdate(ctx, holder, []uuid.UUID{account.ID})
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()

	waiter, err := store.Begin(ctx)
	require.NoError(t, err)
	_, err = store.Accounts().GetByIDsForUpdate(waitCtx, waiter, []uuid.UUID{account.ID})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	require.NoError(t, waiter.Rollback(ctx))

	require.NoError(t, holder.Rollback(ctx))

	again, err := store.Begin(ctx)
	require.NoError(t, err)
	locked, err := store.Accounts().GetByIDsForUpdate(ctx, again, []uuid.UUID{account.ID})
	require.NoError(t, err)
	assert.Len(t, locked, 1)
	require.NoError(t, again.Rollback(ctx))
}

func TestRollbackDiscardsStagedWrites(t *testing.T) {
	store := NewStore()
	account := seedAccount(t, store, "10")
	ctx := context.Background()

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	_, err = store.Accounts().GetByIDsForUpdate(ctx, tx, []uuid.UUID{account.ID})
	require.NoError(t, err)
	require.NoError(t, store.Accounts().UpdateBalance(ctx, tx, account.ID, decimal.NewFromInt(99), time.Now()))
	require.NoError(t, store.Transactions().Create(ctx, tx, &domain.Transaction{
		ID:        uuid.New(),
		AccountID: account.ID,
		Kind:      domain.TransactionDeposit,
		Amount:    decimal.NewFromInt(89),
	}))

	got, err := store.Accounts().GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(10)), "staged balance leaked before commit")

	require.NoError(t, tx.Rollback(ctx))

	got, err = store.Accounts().GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(10)))

	log, err := store.Transactions().ListByAccount(ctx, account.ID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, log)
}

func TestCommitPublishesAndRollbackAfterCommitIsNoop(t *testing.T) {
	store := NewStore()
	account := seedAccount(t, store, "10")
	ctx := context.Background()

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	_, err = store.Accounts().GetByIDsForUpdate(ctx, tx, []uuid.UUID{account.ID})
	require.NoError(t, err)
	require.NoError(t, store.Accounts().UpdateBalance(ctx, tx, account.ID, decimal.NewFromInt(4), time.Now()))
	require.NoError(t, tx.Commit(ctx))
	require.NoError(t, tx.Rollback(ctx))

	got, err := store.Accounts().GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(4)))
	assert.Equal(t, int64(1), got.Version)

	assert.Equal(t, domain.KindPersistence, domain.KindOf(tx.Commit(ctx)))
}

func TestCommitRejectsNegativeBalance(t *testing.T) {
	store := NewStore()
	account := seedAccount(t, store, "1")
	ctx := context.Background()

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	_, err = store.Accounts().GetByIDsForUpdate(ctx, tx, []uuid.UUID{account.ID})
	require.NoError(t, err)
	require.NoError(t, store.Accounts().UpdateBalance(ctx, tx, account.ID, decimal.NewFromInt(-1), time.Now()))

	assert.ErrorIs(t, tx.Commit(ctx), domain.ErrInsufficientFunds)

	got, err := store.Accounts().GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(1)))
}

func TestUpdateRequiresLock(t *testing.T) {
	store := NewStore()
	account := seedAccount(t, store, "1")
	ctx := context.Background()

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	err = store.Accounts().UpdateBalance(ctx, tx, account.ID, decimal.NewFromInt(5), time.Now())
	assert.ErrorIs(t, err, errNotLocked)
}

func TestForeignTxRejected(t *testing.T) {
	store := NewStore()
	other := NewStore()
	ctx := context.Background()

	tx, err := other.Begin(ctx)
	require.NoError(t, err)

	_, err = store.Accounts().GetByIDsForUpdate(ctx, tx, []uuid.UUID{uuid.New()})
	assert.ErrorIs(t, err, errForeignTx)
}

func TestAccountCreateConstraints(t *testing.T) {
	store := NewStore()
	account := seedAccount(t, store, "0")
	ctx := context.Background()

	dup := account.Clone()
	dup.ID = uuid.New()
	assert.Equal(t, domain.KindConflict, domain.KindOf(store.Accounts().Create(ctx, dup)))

	orphan := &domain.Account{ID: uuid.New(), CustomerID: uuid.New(), Number: "orphan"}
	assert.ErrorIs(t, store.Accounts().Create(ctx, orphan), domain.ErrCustomerNotFound)
}

func TestListPaging(t *testing.T) {
	store := NewStore()
	first := seedAccount(t, store, "1")
	seedAccount(t, store, "2")
	third := seedAccount(t, store, "3")
	ctx := context.Background()

	page, err := store.Accounts().List(ctx, domain.AccountFilter{Limit: 1, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, third.ID, page[0].ID)

	owned, err := store.Accounts().List(ctx, domain.AccountFilter{CustomerID: &first.CustomerID, Limit: 10})
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, first.ID, owned[0].ID)

	n, err := store.Accounts().Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	empty, err := store.Accounts().List(ctx, domain.AccountFilter{Limit: 10, Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, empty)
}
