package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iho/corebanking/internal/adapter/http/dto"
	"github.com/iho/corebanking/internal/domain"
	"github.com/iho/corebanking/internal/usecase"
)

// LedgerService defines the balance-moving operations.
type LedgerService interface {
	Deposit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) (*domain.Account, error)
	Withdraw(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) (*domain.Account, error)
	Transfer(ctx context.Context, input usecase.TransferInput) (*domain.TransferReceipt, error)
}

// LedgerHandler handles deposit, withdraw and transfer requests.
type LedgerHandler struct {
	ledgerUC LedgerService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerUC LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerUC: ledgerUC}
}

// Deposit credits the account in the path.
func (h *LedgerHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, h.ledgerUC.Deposit)
}

// Withdraw debits the account in the path.
func (h *LedgerHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, h.ledgerUC.Withdraw)
}

func (h *LedgerHandler) move(
	w http.ResponseWriter,
	r *http.Request,
	op func(context.Context, uuid.UUID, decimal.Decimal) (*domain.Account, error),
) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req dto.AmountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	account, err := op(r.Context(), id, req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// Transfer moves money from the account in the path to toAccountNumber.
func (h *LedgerHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req dto.TransferRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	receipt, err := h.ledgerUC.Transfer(r.Context(), usecase.TransferInput{
		FromAccountID:   id,
		ToAccountNumber: req.ToAccountNumber,
		Amount:          req.Amount,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransferFromDomain(receipt))
}
