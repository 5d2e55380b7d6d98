package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iho/corebanking/internal/domain"
)

type fakeLedgerRepository struct {
	flow   *domain.AccountFlow
	totals *domain.LedgerTotals
	err    error
}

func (f *fakeLedgerRepository) AccountFlow(_ context.Context, _ uuid.UUID) (*domain.AccountFlow, error) {
	return f.flow, f.err
}

func (f *fakeLedgerRepository) Totals(_ context.Context) (*domain.LedgerTotals, error) {
	return f.totals, f.err
}

func TestReconciliationUseCase_ReconcileAccount(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name           string
		repo           *fakeLedgerRepository
		wantReconciled bool
		wantDifference string
		expectedErr    error
	}{
		{
			name: "balance matches log",
			repo: &fakeLedgerRepository{flow: &domain.AccountFlow{
				AccountID:      id,
				Balance:        decimal.NewFromInt(0),
				OpeningBalance: decimal.NewFromInt(1000),
				Deposits:       decimal.NewFromInt(50000),
				Withdrawals:    decimal.NewFromInt(51000),
			}},
			wantReconciled: true,
			wantDifference: "0",
		},
		{
			name: "drift detected",
			repo: &fakeLedgerRepository{flow: &domain.AccountFlow{
				AccountID:      id,
				Balance:        decimal.NewFromInt(15),
				OpeningBalance: decimal.NewFromInt(10),
			}},
			wantReconciled: false,
			wantDifference: "5",
		},
		{
			name:        "missing account",
			repo:        &fakeLedgerRepository{err: domain.ErrAccountNotFound},
			expectedErr: domain.ErrAccountNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewReconciliationUseCase(tt.repo).ReconcileAccount(context.Background(), id)

			if tt.expectedErr != nil {
				if !errors.Is(err, tt.expectedErr) {
					t.Fatalf("expected error %v, got %v", tt.expectedErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.IsReconciled != tt.wantReconciled {
				t.Fatalf("IsReconciled = %v, want %v", got.IsReconciled, tt.wantReconciled)
			}
			if !got.Difference.Equal(decimal.RequireFromString(tt.wantDifference)) {
				t.Fatalf("Difference = %s, want %s", got.Difference, tt.wantDifference)
			}
		})
	}
}

func TestReconciliationUseCase_CheckLedger(t *testing.T) {
	repo := &fakeLedgerRepository{totals: &domain.LedgerTotals{
		Accounts:       2,
		Balance:        decimal.NewFromInt(51001),
		OpeningBalance: decimal.NewFromInt(3000),
		Deposits:       decimal.NewFromInt(101000),
		Withdrawals:    decimal.NewFromInt(52999),
	}}

	report, err := NewReconciliationUseCase(repo).CheckLedger(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.IsConsistent {
		t.Fatalf("expected consistent ledger, expected balance %s", report.ExpectedBalance)
	}

	repo.err = errors.New("db down")
	if _, err := NewReconciliationUseCase(repo).CheckLedger(context.Background()); err == nil {
		t.Fatal("expected repository error to surface")
	}
}
