package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iho/corebanking/internal/domain"
)

// AccountUseCase handles account business logic.
type AccountUseCase struct {
	accountRepo  AccountRepository
	customerRepo CustomerRepository
	idGen        IDGenerator
	numbers      AccountNumberGenerator
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(
	accountRepo AccountRepository,
	customerRepo CustomerRepository,
	idGen IDGenerator,
	numbers AccountNumberGenerator,
) *AccountUseCase {
	return &AccountUseCase{
		accountRepo:  accountRepo,
		customerRepo: customerRepo,
		idGen:        idGen,
		numbers:      numbers,
	}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	CustomerID     uuid.UUID
	OpeningBalance decimal.Decimal
}

// CreateAccount opens an account for an existing customer.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	if err := domain.ValidateOpeningBalance(input.OpeningBalance); err != nil {
		return nil, err
	}

	if _, err := uc.customerRepo.GetByID(ctx, input.CustomerID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	account := &domain.Account{
		ID:             uc.idGen.NewID(),
		CustomerID:     input.CustomerID,
		Number:         uc.numbers.Generate(),
		Balance:        input.OpeningBalance,
		OpeningBalance: input.OpeningBalance,
		Version:        0,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := uc.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	return account, nil
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, id)
}

// GetAccountByNumber retrieves an account by its external number.
func (uc *AccountUseCase) GetAccountByNumber(ctx context.Context, number string) (*domain.Account, error) {
	if err := domain.ValidateAccountNumber(number); err != nil {
		return nil, err
	}
	return uc.accountRepo.GetByNumber(ctx, number)
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	CustomerID *uuid.UUID
	Limit      int
	Offset     int
}

// ListAccounts lists accounts with pagination, optionally for one customer.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) (*Page[*domain.Account], error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)

	accounts, err := uc.accountRepo.List(ctx, domain.AccountFilter{
		CustomerID: input.CustomerID,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return nil, err
	}

	total, err := uc.accountRepo.Count(ctx, input.CustomerID)
	if err != nil {
		return nil, err
	}

	return &Page[*domain.Account]{Items: accounts, Total: total, Limit: limit, Offset: offset}, nil
}
