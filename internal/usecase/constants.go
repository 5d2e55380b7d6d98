package usecase

import "time"

const (
	// DefaultTransactionTimeout bounds a ledger operation, lock waits included.
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// AccountNumberCacheTTL is how long a number to id mapping is cached.
	AccountNumberCacheTTL = 10 * time.Minute
)

// Ledger operation names used in logs and metrics.
const (
	OperationDeposit  = "deposit"
	OperationWithdraw = "withdraw"
	OperationTransfer = "transfer"
)
