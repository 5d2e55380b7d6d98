package dto

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iho/corebanking/internal/domain"
	"github.com/iho/corebanking/internal/usecase"
)

func TestAccountFromDomain(t *testing.T) {
	now := time.Now()
	account := &domain.Account{
		ID:             uuid.New(),
		CustomerID:     uuid.New(),
		Number:         "01HZX3M9Q4T7A8B2C5D6E7F8G9",
		Balance:        decimal.RequireFromString("123.45"),
		OpeningBalance: decimal.RequireFromString("100"),
		Version:        2,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	resp := AccountFromDomain(account)
	if resp.ID != account.ID.String() || resp.CustomerID != account.CustomerID.String() || resp.Version != 2 {
		t.Fatalf("unexpected account response: %+v", resp)
	}

	body, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(body), `"balance":"123.45"`) {
		t.Fatalf("expected balance rendered as string, got %s", body)
	}
}

func TestTransactionFromDomain(t *testing.T) {
	transferID := uuid.New()
	tr := &domain.Transaction{
		ID:           uuid.New(),
		AccountID:    uuid.New(),
		TransferID:   &transferID,
		Kind:         domain.TransactionWithdraw,
		Amount:       decimal.NewFromInt(5),
		BalanceAfter: decimal.NewFromInt(1),
	}

	resp := TransactionFromDomain(tr)
	if resp.TransferID == nil || *resp.TransferID != transferID.String() || resp.Kind != "withdraw" {
		t.Fatalf("unexpected transaction response: %+v", resp)
	}

	tr.TransferID = nil
	body, err := json.Marshal(TransactionFromDomain(tr))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(body), "transferId") {
		t.Fatalf("expected transferId omitted for single-account operations, got %s", body)
	}
}

func TestListFromPage(t *testing.T) {
	page := &usecase.Page[*domain.Customer]{
		Items:  []*domain.Customer{{ID: uuid.New(), Name: "Ada"}, {ID: uuid.New(), Name: "Grace"}},
		Total:  7,
		Limit:  2,
		Offset: 4,
	}

	resp := ListFromPage(page, CustomerFromDomain)
	if len(resp.Items) != 2 || resp.Total != 7 || resp.Limit != 2 || resp.Offset != 4 {
		t.Fatalf("unexpected list response: %+v", resp)
	}
	if resp.Items[1].Name != "Grace" {
		t.Fatalf("expected items in page order, got %+v", resp.Items)
	}
}

func TestLedgerReportFromDomain(t *testing.T) {
	resp := LedgerReportFromDomain(&usecase.LedgerReport{IsConsistent: false, NegativeAccounts: 1})
	if resp.Status != "inconsistent" || resp.Consistent {
		t.Fatalf("unexpected report: %+v", resp)
	}

	resp = LedgerReportFromDomain(&usecase.LedgerReport{IsConsistent: true})
	if resp.Status != "consistent" {
		t.Fatalf("unexpected report: %+v", resp)
	}
}
