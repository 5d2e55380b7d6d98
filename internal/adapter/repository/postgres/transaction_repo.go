package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/iho/corebanking/internal/domain"
	"github.com/iho/corebanking/internal/infrastructure/postgres/generated"
	"github.com/iho/corebanking/internal/usecase"
)

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	queries *generated.Queries
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool Pool) *TransactionRepository {
	return &TransactionRepository{queries: generated.New(pool)}
}

// Create appends a transaction inside tx.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Tx, t *domain.Transaction) error {
	q, err := queriesFor(tx)
	if err != nil {
		return domain.Persistence("record transaction", err)
	}

	err = q.CreateTransaction(ctx, generated.CreateTransactionParams{
		ID:           uuidToPg(t.ID),
		AccountID:    uuidToPg(t.AccountID),
		TransferID:   optionalUUIDToPg(t.TransferID),
		Kind:         string(t.Kind),
		Amount:       decimalToNumeric(t.Amount),
		BalanceAfter: decimalToNumeric(t.BalanceAfter),
		CreatedAt:    timeToPgTimestamptz(t.CreatedAt),
	})
	return translateError("record transaction", err, nil)
}

// ListByAccount returns the account's transactions, newest first.
func (r *TransactionRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*domain.Transaction, error) {
	rows, err := r.queries.ListTransactionsByAccount(ctx, generated.ListTransactionsByAccountParams{
		AccountID: uuidToPg(accountID),
		Limit:     int32(limit),
		Offset:    int32(offset),
	})
	if err != nil {
		return nil, translateError("list transactions", err, nil)
	}

	transactions := make([]*domain.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := toDomainTransaction(row)
		if err != nil {
			return nil, domain.Persistence("list transactions", err)
		}
		transactions = append(transactions, t)
	}

	return transactions, nil
}
