package dto

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iho/corebanking/internal/domain"
)

func TestCreateAccountRequest_ToUseCaseInput(t *testing.T) {
	customerID := uuid.New()
	req := &CreateAccountRequest{
		CustomerID:     customerID.String(),
		OpeningBalance: decimal.RequireFromString("250.50"),
	}

	got, err := req.ToUseCaseInput()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.CustomerID != customerID || !got.OpeningBalance.Equal(decimal.RequireFromString("250.5")) {
		t.Fatalf("ToUseCaseInput() = %+v", got)
	}
}

func TestCreateAccountRequest_InvalidCustomerID(t *testing.T) {
	req := &CreateAccountRequest{CustomerID: "not-a-uuid"}

	if _, err := req.ToUseCaseInput(); !errors.Is(err, domain.ErrInvalidIDFormat) {
		t.Fatalf("expected ErrInvalidIDFormat, got %v", err)
	}
}

func TestAmountRequest_AcceptsStringsAndNumbers(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"amount":"0.1"}`, "0.1"},
		{`{"amount":0.1}`, "0.1"},
		{`{"amount":"12345678901234567890.123456789"}`, "12345678901234567890.123456789"},
		{`{}`, "0"},
	}

	for _, tt := range tests {
		var req AmountRequest
		if err := json.Unmarshal([]byte(tt.body), &req); err != nil {
			t.Fatalf("unmarshal %s: %v", tt.body, err)
		}
		if !req.Amount.Equal(decimal.RequireFromString(tt.want)) {
			t.Fatalf("body %s: expected %s, got %s", tt.body, tt.want, req.Amount)
		}
	}
}

func TestAmountRequest_RejectsGarbage(t *testing.T) {
	var req AmountRequest
	if err := json.Unmarshal([]byte(`{"amount":"ten"}`), &req); err == nil {
		t.Fatalf("expected error for non-numeric amount")
	}
}

func TestTransferRequest_Decode(t *testing.T) {
	var req TransferRequest
	if err := json.Unmarshal([]byte(`{"toAccountNumber":"01HZX","amount":"51000"}`), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if req.ToAccountNumber != "01HZX" || !req.Amount.Equal(decimal.NewFromInt(51000)) {
		t.Fatalf("unexpected request %+v", req)
	}
}
