package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/iho/corebanking/internal/adapter/http/dto"
	"github.com/iho/corebanking/internal/domain"
	"github.com/iho/corebanking/internal/usecase"
)

// AccountService defines the behavior needed by AccountHandler.
type AccountService interface {
	CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error)
	GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetAccountByNumber(ctx context.Context, number string) (*domain.Account, error)
	ListAccounts(ctx context.Context, input usecase.ListAccountsInput) (*usecase.Page[*domain.Account], error)
}

// TransactionService lists an account's history.
type TransactionService interface {
	ListAccountTransactions(ctx context.Context, input usecase.ListAccountTransactionsInput) ([]*domain.Transaction, error)
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	accountUC     AccountService
	transactionUC TransactionService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUC AccountService, transactionUC TransactionService) *AccountHandler {
	return &AccountHandler{
		accountUC:     accountUC,
		transactionUC: transactionUC,
	}
}

// Create opens a new account.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeDomainError(w, err)
		return
	}

	account, err := h.accountUC.CreateAccount(r.Context(), input)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// Get retrieves an account by ID.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	account, err := h.accountUC.GetAccount(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// GetByNumber retrieves an account by its external number.
func (h *AccountHandler) GetByNumber(w http.ResponseWriter, r *http.Request) {
	account, err := h.accountUC.GetAccountByNumber(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// List lists accounts, optionally filtered by ?customerId=.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	input := usecase.ListAccountsInput{
		Limit:  parseIntQuery(r, "limit", domain.DefaultPageSize),
		Offset: parseIntQuery(r, "offset", 0),
	}

	if raw := r.URL.Query().Get("customerId"); raw != "" {
		customerID, err := domain.ParseID(raw)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		input.CustomerID = &customerID
	}

	page, err := h.accountUC.ListAccounts(r.Context(), input)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListFromPage(page, dto.AccountFromDomain))
}

// Transactions lists the account's transactions, newest first.
func (h *AccountHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	limit, offset := domain.ValidatePagination(
		parseIntQuery(r, "limit", domain.DefaultPageSize),
		parseIntQuery(r, "offset", 0),
	)

	transactions, err := h.transactionUC.ListAccountTransactions(r.Context(), usecase.ListAccountTransactionsInput{
		AccountID: id,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionsFromDomain(transactions, limit, offset))
}
