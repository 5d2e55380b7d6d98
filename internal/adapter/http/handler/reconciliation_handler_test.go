package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/corebanking/internal/adapter/http/dto"
	"github.com/iho/corebanking/internal/domain"
	"github.com/iho/corebanking/internal/usecase"
)

type reconciliationServiceStub struct {
	accountFn func(ctx context.Context, id uuid.UUID) (*usecase.ReconciliationResult, error)
	ledgerFn  func(ctx context.Context) (*usecase.LedgerReport, error)
}

func (s *reconciliationServiceStub) ReconcileAccount(ctx context.Context, id uuid.UUID) (*usecase.ReconciliationResult, error) {
	return s.accountFn(ctx, id)
}

func (s *reconciliationServiceStub) CheckLedger(ctx context.Context) (*usecase.LedgerReport, error) {
	return s.ledgerFn(ctx)
}

func TestReconciliationHandler_Account(t *testing.T) {
	id := uuid.New()
	h := NewReconciliationHandler(&reconciliationServiceStub{
		accountFn: func(_ context.Context, got uuid.UUID) (*usecase.ReconciliationResult, error) {
			return &usecase.ReconciliationResult{
				AccountID:         got,
				RecordedBalance:   decimal.NewFromInt(70),
				CalculatedBalance: decimal.NewFromInt(70),
				Difference:        decimal.Zero,
				IsReconciled:      true,
			}, nil
		},
	})

	req := setChiURLParam(httptest.NewRequest(http.MethodGet, "/accounts/"+id.String()+"/reconciliation", nil), "id", id.String())
	rec := httptest.NewRecorder()
	h.Account(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.ReconciliationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, id.String(), resp.AccountID)
	assert.True(t, resp.IsReconciled)
}

func TestReconciliationHandler_Account_NotFound(t *testing.T) {
	id := uuid.New()
	h := NewReconciliationHandler(&reconciliationServiceStub{
		accountFn: func(context.Context, uuid.UUID) (*usecase.ReconciliationResult, error) {
			return nil, domain.ErrAccountNotFound
		},
	})

	req := setChiURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", id.String())
	rec := httptest.NewRecorder()
	h.Account(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReconciliationHandler_Ledger_Inconsistent(t *testing.T) {
	h := NewReconciliationHandler(&reconciliationServiceStub{
		ledgerFn: func(context.Context) (*usecase.LedgerReport, error) {
			return &usecase.LedgerReport{
				Accounts:         2,
				NegativeAccounts: 1,
				TotalBalance:     decimal.NewFromInt(10),
				ExpectedBalance:  decimal.NewFromInt(10),
				IsConsistent:     false,
			}, nil
		},
	})

	rec := httptest.NewRecorder()
	h.Ledger(rec, httptest.NewRequest(http.MethodGet, "/ledger/consistency", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.LedgerReportResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "inconsistent", resp.Status)
	assert.Equal(t, int64(1), resp.NegativeAccounts)
}
