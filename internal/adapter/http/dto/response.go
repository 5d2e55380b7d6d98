package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/corebanking/internal/domain"
	"github.com/iho/corebanking/internal/usecase"
)

// CustomerResponse represents a customer in API responses.
type CustomerResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"createdAt"`
}

// CustomerFromDomain converts domain customer to response.
func CustomerFromDomain(c *domain.Customer) *CustomerResponse {
	return &CustomerResponse{
		ID:        c.ID.String(),
		Name:      c.Name,
		Address:   c.Address,
		CreatedAt: c.CreatedAt,
	}
}

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID             string          `json:"id"`
	CustomerID     string          `json:"customerId"`
	Number         string          `json:"number"`
	Balance        decimal.Decimal `json:"balance"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	Version        int64           `json:"version"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:             a.ID.String(),
		CustomerID:     a.CustomerID.String(),
		Number:         a.Number,
		Balance:        a.Balance,
		OpeningBalance: a.OpeningBalance,
		Version:        a.Version,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

// TransactionResponse represents a transaction record in API responses.
type TransactionResponse struct {
	ID           string          `json:"id"`
	AccountID    string          `json:"accountId"`
	TransferID   *string         `json:"transferId,omitempty"`
	Kind         string          `json:"kind"`
	Amount       decimal.Decimal `json:"amount"`
	BalanceAfter decimal.Decimal `json:"balanceAfter"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// TransactionFromDomain converts domain transaction to response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	resp := &TransactionResponse{
		ID:           t.ID.String(),
		AccountID:    t.AccountID.String(),
		Kind:         string(t.Kind),
		Amount:       t.Amount,
		BalanceAfter: t.BalanceAfter,
		CreatedAt:    t.CreatedAt,
	}
	if t.TransferID != nil {
		id := t.TransferID.String()
		resp.TransferID = &id
	}
	return resp
}

// TransferResponse is the receipt of a completed transfer.
type TransferResponse struct {
	ID         string               `json:"id"`
	Amount     decimal.Decimal      `json:"amount"`
	From       *AccountResponse     `json:"from"`
	To         *AccountResponse     `json:"to"`
	Withdrawal *TransactionResponse `json:"withdrawal"`
	Deposit    *TransactionResponse `json:"deposit"`
	CreatedAt  time.Time            `json:"createdAt"`
}

// TransferFromDomain converts a transfer receipt to response.
func TransferFromDomain(r *domain.TransferReceipt) *TransferResponse {
	return &TransferResponse{
		ID:         r.ID.String(),
		Amount:     r.Amount,
		From:       AccountFromDomain(r.From),
		To:         AccountFromDomain(r.To),
		Withdrawal: TransactionFromDomain(r.Withdrawal),
		Deposit:    TransactionFromDomain(r.Deposit),
		CreatedAt:  r.CreatedAt,
	}
}

// ListResponse is a page of items.
type ListResponse[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

// ListFromPage converts a use case page using convert for each item.
func ListFromPage[D, T any](page *usecase.Page[D], convert func(D) T) ListResponse[T] {
	items := make([]T, len(page.Items))
	for i, item := range page.Items {
		items[i] = convert(item)
	}
	return ListResponse[T]{
		Items:  items,
		Total:  page.Total,
		Limit:  page.Limit,
		Offset: page.Offset,
	}
}

// TransactionsResponse is a page of an account's transaction history.
type TransactionsResponse struct {
	Items  []*TransactionResponse `json:"items"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
}

// TransactionsFromDomain converts domain transactions to responses.
func TransactionsFromDomain(transactions []*domain.Transaction, limit, offset int) TransactionsResponse {
	items := make([]*TransactionResponse, len(transactions))
	for i, t := range transactions {
		items[i] = TransactionFromDomain(t)
	}
	return TransactionsResponse{Items: items, Limit: limit, Offset: offset}
}

// ReconciliationResponse reports whether an account matches its history.
type ReconciliationResponse struct {
	AccountID         string          `json:"accountId"`
	RecordedBalance   decimal.Decimal `json:"recordedBalance"`
	CalculatedBalance decimal.Decimal `json:"calculatedBalance"`
	Difference        decimal.Decimal `json:"difference"`
	IsReconciled      bool            `json:"isReconciled"`
	LastChecked       time.Time       `json:"lastChecked"`
}

// ReconciliationFromResult converts a reconciliation result to response.
func ReconciliationFromResult(r *usecase.ReconciliationResult) *ReconciliationResponse {
	return &ReconciliationResponse{
		AccountID:         r.AccountID.String(),
		RecordedBalance:   r.RecordedBalance,
		CalculatedBalance: r.CalculatedBalance,
		Difference:        r.Difference,
		IsReconciled:      r.IsReconciled,
		LastChecked:       r.LastChecked,
	}
}

// LedgerReportResponse summarizes a ledger-wide consistency check.
type LedgerReportResponse struct {
	Status           string          `json:"status"`
	Consistent       bool            `json:"consistent"`
	Accounts         int64           `json:"accounts"`
	NegativeAccounts int64           `json:"negativeAccounts"`
	TotalBalance     decimal.Decimal `json:"totalBalance"`
	ExpectedBalance  decimal.Decimal `json:"expectedBalance"`
	TotalDeposits    decimal.Decimal `json:"totalDeposits"`
	TotalWithdrawals decimal.Decimal `json:"totalWithdrawals"`
	GeneratedAt      time.Time       `json:"generatedAt"`
}

// LedgerReportFromDomain converts a ledger report to response.
func LedgerReportFromDomain(r *usecase.LedgerReport) *LedgerReportResponse {
	status := "consistent"
	if !r.IsConsistent {
		status = "inconsistent"
	}

	return &LedgerReportResponse{
		Status:           status,
		Consistent:       r.IsConsistent,
		Accounts:         r.Accounts,
		NegativeAccounts: r.NegativeAccounts,
		TotalBalance:     r.TotalBalance,
		ExpectedBalance:  r.ExpectedBalance,
		TotalDeposits:    r.TotalDeposits,
		TotalWithdrawals: r.TotalWithdrawals,
		GeneratedAt:      r.GeneratedAt,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
