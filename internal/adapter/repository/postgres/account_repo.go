package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iho/corebanking/internal/domain"
	"github.com/iho/corebanking/internal/infrastructure/postgres/generated"
	"github.com/iho/corebanking/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	queries *generated.Queries
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool Pool) *AccountRepository {
	return &AccountRepository{queries: generated.New(pool)}
}

// Create inserts a new account.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	err := r.queries.CreateAccount(ctx, generated.CreateAccountParams{
		ID:             uuidToPg(account.ID),
		CustomerID:     uuidToPg(account.CustomerID),
		Number:         account.Number,
		Balance:        decimalToNumeric(account.Balance),
		OpeningBalance: decimalToNumeric(account.OpeningBalance),
		Version:        account.Version,
		CreatedAt:      timeToPgTimestamptz(account.CreatedAt),
		UpdatedAt:      timeToPgTimestamptz(account.UpdatedAt),
	})
	return translateError("create account", err, nil)
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	row, err := r.queries.GetAccountByID(ctx, uuidToPg(id))
	if err != nil {
		return nil, translateError("get account", err, domain.ErrAccountNotFound)
	}

	return r.convert("get account", row)
}

// GetByNumber retrieves an account by its external number.
func (r *AccountRepository) GetByNumber(ctx context.Context, number string) (*domain.Account, error) {
	row, err := r.queries.GetAccountByNumber(ctx, number)
	if err != nil {
		return nil, translateError("get account by number", err, domain.ErrAccountNotFound)
	}

	return r.convert("get account by number", row)
}

// GetByIDsForUpdate locks the accounts with SELECT ... ORDER BY id FOR UPDATE.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Tx, ids []uuid.UUID) ([]*domain.Account, error) {
	q, err := queriesFor(tx)
	if err != nil {
		return nil, domain.Persistence("lock accounts", err)
	}

	rows, err := q.GetAccountsByIDsForUpdate(ctx, uuidsToPg(ids))
	if err != nil {
		return nil, translateError("lock accounts", err, nil)
	}

	accounts := make([]*domain.Account, 0, len(rows))
	for _, row := range rows {
		account, err := r.convert("lock accounts", row)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, nil
}

// UpdateBalance sets the balance and bumps the version.
func (r *AccountRepository) UpdateBalance(
	ctx context.Context,
	tx usecase.Tx,
	id uuid.UUID,
	balance decimal.Decimal,
	updatedAt time.Time,
) error {
	q, err := queriesFor(tx)
	if err != nil {
		return domain.Persistence("update balance", err)
	}

	n, err := q.UpdateAccountBalance(ctx, generated.UpdateAccountBalanceParams{
		ID:        uuidToPg(id),
		Balance:   decimalToNumeric(balance),
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})
	if err != nil {
		return translateError("update balance", err, nil)
	}

	if n == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

// List returns accounts, optionally for one customer.
func (r *AccountRepository) List(ctx context.Context, filter domain.AccountFilter) ([]*domain.Account, error) {
	var (
		rows []generated.Account
		err  error
	)

	if filter.CustomerID != nil {
		rows, err = r.queries.ListAccountsByCustomer(ctx, generated.ListAccountsByCustomerParams{
			CustomerID: uuidToPg(*filter.CustomerID),
			Limit:      int32(filter.Limit),
			Offset:     int32(filter.Offset),
		})
	} else {
		rows, err = r.queries.ListAccounts(ctx, generated.ListAccountsParams{
			Limit:  int32(filter.Limit),
			Offset: int32(filter.Offset),
		})
	}
	if err != nil {
		return nil, translateError("list accounts", err, nil)
	}

	accounts := make([]*domain.Account, 0, len(rows))
	for _, row := range rows {
		account, err := r.convert("list accounts", row)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, nil
}

// Count returns the number of accounts, optionally for one customer.
func (r *AccountRepository) Count(ctx context.Context, customerID *uuid.UUID) (int64, error) {
	var (
		n   int64
		err error
	)

	if customerID != nil {
		n, err = r.queries.CountAccountsByCustomer(ctx, uuidToPg(*customerID))
	} else {
		n, err = r.queries.CountAccounts(ctx)
	}

	return n, translateError("count accounts", err, nil)
}

func (r *AccountRepository) convert(op string, row generated.Account) (*domain.Account, error) {
	account, err := toDomainAccount(row)
	if err != nil {
		return nil, domain.Persistence(op, err)
	}
	return account, nil
}
