package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountFlow is a consistent snapshot of an account balance next to the
// transaction totals that should explain it.
type AccountFlow struct {
	AccountID      uuid.UUID
	Balance        decimal.Decimal
	OpeningBalance decimal.Decimal
	Deposits       decimal.Decimal
	Withdrawals    decimal.Decimal
}

// ExpectedBalance is the balance implied by the transaction log.
func (f AccountFlow) ExpectedBalance() decimal.Decimal {
	return f.OpeningBalance.Add(f.Deposits).Sub(f.Withdrawals)
}

// Reconciled reports whether the stored balance matches the log.
func (f AccountFlow) Reconciled() bool {
	return f.Balance.Equal(f.ExpectedBalance())
}

// LedgerTotals aggregates every account and transaction in the store.
type LedgerTotals struct {
	Accounts         int64
	NegativeAccounts int64
	Balance          decimal.Decimal
	OpeningBalance   decimal.Decimal
	Deposits         decimal.Decimal
	Withdrawals      decimal.Decimal
}

// ExpectedBalance is the total balance implied by the transaction log.
func (t LedgerTotals) ExpectedBalance() decimal.Decimal {
	return t.OpeningBalance.Add(t.Deposits).Sub(t.Withdrawals)
}

// Consistent reports whether balances match the log and none is negative.
func (t LedgerTotals) Consistent() bool {
	return t.NegativeAccounts == 0 && t.Balance.Equal(t.ExpectedBalance())
}
