package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/iho/corebanking/internal/domain"
)

// TransactionUseCase reads the transaction log.
type TransactionUseCase struct {
	accountRepo     AccountRepository
	transactionRepo TransactionRepository
}

// NewTransactionUseCase creates a new TransactionUseCase.
func NewTransactionUseCase(accountRepo AccountRepository, transactionRepo TransactionRepository) *TransactionUseCase {
	return &TransactionUseCase{
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
	}
}

// ListAccountTransactionsInput represents input for an account history query.
type ListAccountTransactionsInput struct {
	AccountID uuid.UUID
	Limit     int
	Offset    int
}

// ListAccountTransactions returns an account's transactions, newest first.
func (uc *TransactionUseCase) ListAccountTransactions(ctx context.Context, input ListAccountTransactionsInput) ([]*domain.Transaction, error) {
	if _, err := uc.accountRepo.GetByID(ctx, input.AccountID); err != nil {
		return nil, err
	}

	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.transactionRepo.ListByAccount(ctx, input.AccountID, limit, offset)
}
