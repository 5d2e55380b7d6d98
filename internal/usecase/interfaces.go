package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iho/corebanking/internal/domain"
)

// CustomerRepository defines data access for customers.
type CustomerRepository interface {
	Create(ctx context.Context, customer *domain.Customer) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Customer, error)
	Count(ctx context.Context) (int64, error)
}

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetByNumber(ctx context.Context, number string) (*domain.Account, error)
	// GetByIDsForUpdate locks the rows in ascending id order and returns the
	// accounts that exist. Locks are held until tx ends.
	GetByIDsForUpdate(ctx context.Context, tx Tx, ids []uuid.UUID) ([]*domain.Account, error)
	UpdateBalance(ctx context.Context, tx Tx, id uuid.UUID, balance decimal.Decimal, updatedAt time.Time) error
	List(ctx context.Context, filter domain.AccountFilter) ([]*domain.Account, error)
	Count(ctx context.Context, customerID *uuid.UUID) (int64, error)
}

// TransactionRepository is the append-only transaction log.
type TransactionRepository interface {
	Create(ctx context.Context, tx Tx, transaction *domain.Transaction) error
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*domain.Transaction, error)
}

// LedgerRepository defines data access for ledger-wide checks.
type LedgerRepository interface {
	AccountFlow(ctx context.Context, accountID uuid.UUID) (*domain.AccountFlow, error)
	Totals(ctx context.Context) (*domain.LedgerTotals, error)
}

// Tx represents a store transaction.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TxManager handles transaction lifecycle.
type TxManager interface {
	Begin(ctx context.Context) (Tx, error)
}

// IDGenerator generates time-ordered unique IDs.
type IDGenerator interface {
	NewID() uuid.UUID
}

// AccountNumberGenerator issues unique external account numbers.
type AccountNumberGenerator interface {
	Generate() string
}

// AccountResolver maps an account number to the account id.
type AccountResolver interface {
	ResolveAccountNumber(ctx context.Context, number string) (uuid.UUID, error)
}

// OperationRecorder observes ledger operation outcomes.
type OperationRecorder interface {
	RecordOperation(operation, outcome string, amount decimal.Decimal, elapsed time.Duration)
}

// Cache defines caching operations.
type Cache interface {
	// Get returns ok=false on a miss.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// Claim reserves key for an in-flight request. If the key is already taken
	// it returns claimed=false and the stored response, which is nil while the
	// first request is still processing.
	Claim(ctx context.Context, key string, ttl time.Duration) (claimed bool, stored []byte, err error)
	// Complete stores the final response for key.
	Complete(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release forgets key so the request can be retried.
	Release(ctx context.Context, key string) error
}
