// Package storetest runs the ledger guarantees against any store
// implementation. Each store package calls Run from its own tests.
package storetest

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/corebanking/internal/domain"
	"github.com/iho/corebanking/internal/infrastructure/idgen"
	"github.com/iho/corebanking/internal/usecase"
)

// Harness is the set of repositories a store provides.
type Harness struct {
	TxManager    usecase.TxManager
	Customers    usecase.CustomerRepository
	Accounts     usecase.AccountRepository
	Transactions usecase.TransactionRepository
	Ledger       usecase.LedgerRepository
}

// Run executes the suite. newHarness is called once per subtest.
func Run(t *testing.T, newHarness func(t *testing.T) Harness) {
	tests := []struct {
		name string
		fn   func(t *testing.T, f *fixture)
	}{
		{"Scenario", testScenario},
		{"ConcurrentWithdrawals", testConcurrentWithdrawals},
		{"OppositeTransfers", testOppositeTransfers},
		{"ObserverSeesWholeTransfers", testObserverSeesWholeTransfers},
		{"TransferConservesMoney", testTransferConservesMoney},
		{"SelfTransferRejected", testSelfTransferRejected},
		{"UnknownAccounts", testUnknownAccounts},
		{"FailedOperationLeavesNoRecord", testFailedOperationLeavesNoRecord},
		{"HistoryNewestFirst", testHistoryNewestFirst},
		{"RoundTrip", testRoundTrip},
		{"Reconciliation", testReconciliation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newFixture(newHarness(t)))
		})
	}
}

type fixture struct {
	ledger    *usecase.LedgerUseCase
	accounts  *usecase.AccountUseCase
	customers *usecase.CustomerUseCase
	history   *usecase.TransactionUseCase
	recon     *usecase.ReconciliationUseCase
}

func newFixture(h Harness) *fixture {
	ids := idgen.NewUUIDGenerator()

	return &fixture{
		ledger:    usecase.NewLedgerUseCase(h.TxManager, h.Accounts, h.Transactions, ids),
		accounts:  usecase.NewAccountUseCase(h.Accounts, h.Customers, ids, idgen.NewULIDNumberGenerator()),
		customers: usecase.NewCustomerUseCase(h.Customers, ids),
		history:   usecase.NewTransactionUseCase(h.Accounts, h.Transactions),
		recon:     usecase.NewReconciliationUseCase(h.Ledger),
	}
}

func (f *fixture) open(t *testing.T, opening string) *domain.Account {
	t.Helper()
	ctx := context.Background()

	customer, err := f.customers.CreateCustomer(ctx, usecase.CreateCustomerInput{Name: "Suite Customer", Address: "1 Test Street"})
	require.NoError(t, err)

	account, err := f.accounts.CreateAccount(ctx, usecase.CreateAccountInput{
		CustomerID:     customer.ID,
		OpeningBalance: dec(opening),
	})
	require.NoError(t, err)

	return account
}

func (f *fixture) balance(t *testing.T, account *domain.Account) decimal.Decimal {
	t.Helper()

	got, err := f.accounts.GetAccount(context.Background(), account.ID)
	require.NoError(t, err)
	return got.Balance
}

func (f *fixture) transactions(t *testing.T, account *domain.Account) []*domain.Transaction {
	t.Helper()

	items, err := f.history.ListAccountTransactions(context.Background(), usecase.ListAccountTransactionsInput{
		AccountID: account.ID,
		Limit:     domain.MaxPageSize,
	})
	require.NoError(t, err)
	return items
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertBalance(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "balance: want %s, got %s", want, got)
}

func testScenario(t *testing.T, f *fixture) {
	ctx := context.Background()
	a := f.open(t, "1000")
	b := f.open(t, "2000")

	updated, err := f.ledger.Deposit(ctx, a.ID, dec("50000"))
	require.NoError(t, err)
	assertBalance(t, "51000", updated.Balance)

	_, err = f.ledger.Withdraw(ctx, b.ID, dec("50000"))
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assertBalance(t, "2000", f.balance(t, b))

	_, err = f.ledger.Withdraw(ctx, b.ID, dec("5000"))
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assertBalance(t, "2000", f.balance(t, b))

	updated, err = f.ledger.Withdraw(ctx, b.ID, dec("1999"))
	require.NoError(t, err)
	assertBalance(t, "1", updated.Balance)

	_, err = f.ledger.Transfer(ctx, usecase.TransferInput{FromAccountID: a.ID, ToAccountNumber: b.Number, Amount: dec("100000")})
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	receipt, err := f.ledger.Transfer(ctx, usecase.TransferInput{FromAccountID: a.ID, ToAccountNumber: b.Number, Amount: dec("51000")})
	require.NoError(t, err)
	assertBalance(t, "0", receipt.From.Balance)
	assertBalance(t, "51001", receipt.To.Balance)

	assertBalance(t, "0", f.balance(t, a))
	assertBalance(t, "51001", f.balance(t, b))
}

func testConcurrentWithdrawals(t *testing.T, f *fixture) {
	const (
		workers = 20
		opening = "1000"
		amount  = "150"
	)
	account := f.open(t, opening)

	var (
		wg        sync.WaitGroup
		successes atomic.Int64
		rejected  atomic.Int64
		other     atomic.Int64
	)

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.ledger.Withdraw(context.Background(), account.ID, dec(amount))
			switch domain.KindOf(err) {
			case domain.KindUnknown:
				successes.Add(1)
			case domain.KindInsufficientFunds:
				rejected.Add(1)
			default:
				other.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(6), successes.Load())
	assert.Equal(t, int64(workers-6), rejected.Load())
	assert.Zero(t, other.Load())
	assertBalance(t, "100", f.balance(t, account))
	assert.Len(t, f.transactions(t, account), 6)
}

func testOppositeTransfers(t *testing.T, f *fixture) {
	const workers = 40
	a := f.open(t, "1000")
	b := f.open(t, "1000")

	var (
		wg     sync.WaitGroup
		failed atomic.Int64
	)

	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			input := usecase.TransferInput{FromAccountID: a.ID, ToAccountNumber: b.Number, Amount: dec("10")}
			if i%2 == 1 {
				input = usecase.TransferInput{FromAccountID: b.ID, ToAccountNumber: a.Number, Amount: dec("10")}
			}

			if _, err := f.ledger.Transfer(ctx, input); err != nil {
				failed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Zero(t, failed.Load())
	assertBalance(t, "1000", f.balance(t, a))
	assertBalance(t, "1000", f.balance(t, b))
}

func testObserverSeesWholeTransfers(t *testing.T, f *fixture) {
	ctx := context.Background()
	a := f.open(t, "500")
	b := f.open(t, "500")

	before, err := f.recon.CheckLedger(ctx)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := range 50 {
			from, to := a, b
			if i%2 == 1 {
				from, to = b, a
			}
			_, _ = f.ledger.Transfer(ctx, usecase.TransferInput{FromAccountID: from.ID, ToAccountNumber: to.Number, Amount: dec("7")})
		}
	}()

	for observing := true; observing; {
		select {
		case <-done:
			observing = false
		default:
		}

		report, err := f.recon.CheckLedger(ctx)
		require.NoError(t, err)
		require.True(t, report.IsConsistent, "ledger inconsistent mid-transfer: %+v", report)
		require.True(t, before.TotalBalance.Equal(report.TotalBalance), "total moved: %s -> %s", before.TotalBalance, report.TotalBalance)
	}
}

func testTransferConservesMoney(t *testing.T, f *fixture) {
	ctx := context.Background()
	a := f.open(t, "300.25")
	b := f.open(t, "0")

	receipt, err := f.ledger.Transfer(ctx, usecase.TransferInput{FromAccountID: a.ID, ToAccountNumber: b.Number, Amount: dec("100.05")})
	require.NoError(t, err)

	fromDelta := receipt.From.Balance.Sub(a.Balance)
	toDelta := receipt.To.Balance.Sub(b.Balance)
	assert.True(t, fromDelta.Add(toDelta).IsZero())

	require.NotNil(t, receipt.Withdrawal.TransferID)
	require.NotNil(t, receipt.Deposit.TransferID)
	assert.Equal(t, receipt.ID, *receipt.Withdrawal.TransferID)
	assert.Equal(t, receipt.ID, *receipt.Deposit.TransferID)
	assert.True(t, receipt.Withdrawal.CreatedAt.Equal(receipt.Deposit.CreatedAt))
	assert.True(t, receipt.Withdrawal.Amount.Equal(receipt.Deposit.Amount))

	fromLog := f.transactions(t, a)
	toLog := f.transactions(t, b)
	require.Len(t, fromLog, 1)
	require.Len(t, toLog, 1)
	assert.Equal(t, domain.TransactionWithdraw, fromLog[0].Kind)
	assert.Equal(t, domain.TransactionDeposit, toLog[0].Kind)
	assertBalance(t, "200.2", fromLog[0].BalanceAfter)
	assertBalance(t, "100.05", toLog[0].BalanceAfter)
}

func testSelfTransferRejected(t *testing.T, f *fixture) {
	a := f.open(t, "100")

	_, err := f.ledger.Transfer(context.Background(), usecase.TransferInput{FromAccountID: a.ID, ToAccountNumber: a.Number, Amount: dec("10")})
	require.ErrorIs(t, err, domain.ErrSameAccount)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	assertBalance(t, "100", f.balance(t, a))
	assert.Empty(t, f.transactions(t, a))
}

func testUnknownAccounts(t *testing.T, f *fixture) {
	ctx := context.Background()
	a := f.open(t, "100")
	missing := idgen.NewUUIDGenerator().NewID()

	_, err := f.ledger.Deposit(ctx, missing, dec("1"))
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))

	_, err = f.ledger.Transfer(ctx, usecase.TransferInput{FromAccountID: a.ID, ToAccountNumber: "NO-SUCH-ACCOUNT", Amount: dec("1")})
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))

	_, err = f.ledger.Transfer(ctx, usecase.TransferInput{FromAccountID: missing, ToAccountNumber: a.Number, Amount: dec("1")})
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))

	_, err = f.accounts.CreateAccount(ctx, usecase.CreateAccountInput{CustomerID: missing, OpeningBalance: dec("1")})
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)

	assertBalance(t, "100", f.balance(t, a))
	assert.Empty(t, f.transactions(t, a))
}

func testFailedOperationLeavesNoRecord(t *testing.T, f *fixture) {
	ctx := context.Background()
	a := f.open(t, "10")
	b := f.open(t, "10")

	_, err := f.ledger.Withdraw(ctx, a.ID, dec("10.01"))
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	_, err = f.ledger.Transfer(ctx, usecase.TransferInput{FromAccountID: a.ID, ToAccountNumber: b.Number, Amount: dec("11")})
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	_, err = f.ledger.Deposit(ctx, a.ID, dec("0"))
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	assert.Empty(t, f.transactions(t, a))
	assert.Empty(t, f.transactions(t, b))
	assertBalance(t, "10", f.balance(t, a))
	assertBalance(t, "10", f.balance(t, b))
}

func testRoundTrip(t *testing.T, f *fixture) {
	ctx := context.Background()
	a := f.open(t, "0.3")

	amounts := []string{
		"0.1",
		"0.000000000000000001",
		"7",
		"123456789012345678901234567890.123456789012345678",
	}
	for _, amount := range amounts {
		_, err := f.ledger.Deposit(ctx, a.ID, dec(amount))
		require.NoError(t, err)

		updated, err := f.ledger.Withdraw(ctx, a.ID, dec(amount))
		require.NoError(t, err)
		assertBalance(t, "0.3", updated.Balance)
		assertBalance(t, "0.3", f.balance(t, a))
	}

	// Past the supported scale nothing is stored rather than rounded.
	_, err := f.ledger.Deposit(ctx, a.ID, dec("0.0000000000000000000001"))
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	log := f.transactions(t, a)
	require.Len(t, log, 2*len(amounts))
	assertBalance(t, "0.3", log[0].BalanceAfter)

	result, err := f.recon.ReconcileAccount(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, result.IsReconciled, "%+v", result)
}

func testHistoryNewestFirst(t *testing.T, f *fixture) {
	ctx := context.Background()
	a := f.open(t, "0")

	for _, amount := range []string{"1", "2", "3"} {
		_, err := f.ledger.Deposit(ctx, a.ID, dec(amount))
		require.NoError(t, err)
	}
	_, err := f.ledger.Withdraw(ctx, a.ID, dec("4"))
	require.NoError(t, err)

	log := f.transactions(t, a)
	require.Len(t, log, 4)

	assert.Equal(t, domain.TransactionWithdraw, log[0].Kind)
	assertBalance(t, "2", log[0].BalanceAfter)
	assertBalance(t, "3", log[1].Amount)
	assertBalance(t, "6", log[1].BalanceAfter)
	assertBalance(t, "2", log[2].Amount)
	assertBalance(t, "1", log[3].Amount)
	assert.Nil(t, log[3].TransferID)
}

func testReconciliation(t *testing.T, f *fixture) {
	ctx := context.Background()
	a := f.open(t, "250")
	b := f.open(t, "0")

	_, err := f.ledger.Deposit(ctx, a.ID, dec("50"))
	require.NoError(t, err)
	_, err = f.ledger.Transfer(ctx, usecase.TransferInput{FromAccountID: a.ID, ToAccountNumber: b.Number, Amount: dec("120")})
	require.NoError(t, err)
	_, err = f.ledger.Withdraw(ctx, b.ID, dec("20"))
	require.NoError(t, err)

	for _, acc := range []*domain.Account{a, b} {
		result, err := f.recon.ReconcileAccount(ctx, acc.ID)
		require.NoError(t, err)
		assert.True(t, result.IsReconciled, "account %s: %+v", acc.ID, result)
		assert.True(t, result.Difference.IsZero())
	}

	result, err := f.recon.ReconcileAccount(ctx, a.ID)
	require.NoError(t, err)
	assertBalance(t, "180", result.RecordedBalance)

	report, err := f.recon.CheckLedger(ctx)
	require.NoError(t, err)
	assert.True(t, report.IsConsistent)
	assert.Zero(t, report.NegativeAccounts)

	_, err = f.recon.ReconcileAccount(ctx, idgen.NewUUIDGenerator().NewID())
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}
