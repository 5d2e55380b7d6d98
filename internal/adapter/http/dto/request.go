package dto

import (
	"github.com/shopspring/decimal"

	"github.com/iho/corebanking/internal/domain"
	"github.com/iho/corebanking/internal/usecase"
)

// CreateCustomerRequest represents a request to create a customer.
type CreateCustomerRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateCustomerRequest) ToUseCaseInput() usecase.CreateCustomerInput {
	return usecase.CreateCustomerInput{
		Name:    r.Name,
		Address: r.Address,
	}
}

// CreateAccountRequest represents a request to open an account.
type CreateAccountRequest struct {
	CustomerID     string          `json:"customerId"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput() (usecase.CreateAccountInput, error) {
	customerID, err := domain.ParseID(r.CustomerID)
	if err != nil {
		return usecase.CreateAccountInput{}, err
	}

	return usecase.CreateAccountInput{
		CustomerID:     customerID,
		OpeningBalance: r.OpeningBalance,
	}, nil
}

// AmountRequest is the body of deposit and withdraw requests. Amount may be
// a JSON string or number and is parsed exactly.
type AmountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// TransferRequest represents a request to move money to another account.
type TransferRequest struct {
	ToAccountNumber string          `json:"toAccountNumber"`
	Amount          decimal.Decimal `json:"amount"`
}
