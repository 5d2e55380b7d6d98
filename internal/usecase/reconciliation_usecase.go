package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReconciliationUseCase checks stored balances against the transaction log.
type ReconciliationUseCase struct {
	ledgerRepo LedgerRepository
	now        func() time.Time
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(ledgerRepo LedgerRepository) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		ledgerRepo: ledgerRepo,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// ReconciliationResult represents the result of a reconciliation check
type ReconciliationResult struct {
	AccountID         uuid.UUID
	RecordedBalance   decimal.Decimal
	CalculatedBalance decimal.Decimal
	Difference        decimal.Decimal
	IsReconciled      bool
	LastChecked       time.Time
}

// ReconcileAccount compares an account balance with
// opening balance + deposits - withdrawals.
func (uc *ReconciliationUseCase) ReconcileAccount(ctx context.Context, accountID uuid.UUID) (*ReconciliationResult, error) {
	flow, err := uc.ledgerRepo.AccountFlow(ctx, accountID)
	if err != nil {
		return nil, err
	}

	expected := flow.ExpectedBalance()

	return &ReconciliationResult{
		AccountID:         accountID,
		RecordedBalance:   flow.Balance,
		CalculatedBalance: expected,
		Difference:        flow.Balance.Sub(expected),
		IsReconciled:      flow.Reconciled(),
		LastChecked:       uc.now(),
	}, nil
}

// LedgerReport summarizes a ledger-wide consistency check.
type LedgerReport struct {
	Accounts         int64
	NegativeAccounts int64
	TotalBalance     decimal.Decimal
	ExpectedBalance  decimal.Decimal
	TotalDeposits    decimal.Decimal
	TotalWithdrawals decimal.Decimal
	IsConsistent     bool
	GeneratedAt      time.Time
}

// CheckLedger verifies that all balances together match the transaction log
// and that no account is negative.
func (uc *ReconciliationUseCase) CheckLedger(ctx context.Context) (*LedgerReport, error) {
	totals, err := uc.ledgerRepo.Totals(ctx)
	if err != nil {
		return nil, err
	}

	return &LedgerReport{
		Accounts:         totals.Accounts,
		NegativeAccounts: totals.NegativeAccounts,
		TotalBalance:     totals.Balance,
		ExpectedBalance:  totals.ExpectedBalance(),
		TotalDeposits:    totals.Deposits,
		TotalWithdrawals: totals.Withdrawals,
		IsConsistent:     totals.Consistent(),
		GeneratedAt:      uc.now(),
	}, nil
}
