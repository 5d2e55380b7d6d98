package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestAccountFlow_Reconciled(t *testing.T) {
	flow := AccountFlow{
		Balance:        decimal.NewFromInt(51001),
		OpeningBalance: decimal.NewFromInt(2000),
		Deposits:       decimal.NewFromInt(51000),
		Withdrawals:    decimal.NewFromInt(1999),
	}
	if !flow.Reconciled() {
		t.Fatalf("expected reconciled flow, expected balance %s", flow.ExpectedBalance())
	}

	flow.Balance = decimal.NewFromInt(51000)
	if flow.Reconciled() {
		t.Fatal("expected drift to be detected")
	}
}

func TestLedgerTotals_Consistent(t *testing.T) {
	totals := LedgerTotals{
		Accounts:       2,
		Balance:        decimal.NewFromInt(3000),
		OpeningBalance: decimal.NewFromInt(3000),
		Deposits:       decimal.NewFromInt(500),
		Withdrawals:    decimal.NewFromInt(500),
	}
	if !totals.Consistent() {
		t.Fatal("expected consistent totals")
	}

	totals.NegativeAccounts = 1
	if totals.Consistent() {
		t.Fatal("negative accounts must make the ledger inconsistent")
	}
}
