package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/iho/corebanking/internal/adapter/http/dto"
	"github.com/iho/corebanking/internal/usecase"
)

// ReconciliationService checks balances against the transaction log.
type ReconciliationService interface {
	ReconcileAccount(ctx context.Context, accountID uuid.UUID) (*usecase.ReconciliationResult, error)
	CheckLedger(ctx context.Context) (*usecase.LedgerReport, error)
}

// ReconciliationHandler handles reconciliation requests.
type ReconciliationHandler struct {
	reconciliationUC ReconciliationService
}

// NewReconciliationHandler creates a new ReconciliationHandler.
func NewReconciliationHandler(reconciliationUC ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{reconciliationUC: reconciliationUC}
}

// Account reconciles a single account.
func (h *ReconciliationHandler) Account(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	result, err := h.reconciliationUC.ReconcileAccount(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationFromResult(result))
}

// Ledger checks the whole ledger. An inconsistent ledger is still a 200;
// the body carries the verdict.
func (h *ReconciliationHandler) Ledger(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconciliationUC.CheckLedger(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.LedgerReportFromDomain(report))
}
