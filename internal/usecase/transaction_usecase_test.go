package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/mock/gomock"

	"github.com/iho/corebanking/internal/domain"
	"github.com/iho/corebanking/internal/usecase"
	"github.com/iho/corebanking/internal/usecase/mocks"
)

func TestTransactionUseCase_ListAccountTransactions(t *testing.T) {
	accountID := uuid.New()

	t.Run("lists history", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		accounts := mocks.NewMockAccountRepository(ctrl)
		transactions := mocks.NewMockTransactionRepository(ctrl)

		accounts.EXPECT().GetByID(gomock.Any(), accountID).Return(&domain.Account{ID: accountID}, nil)
		transactions.EXPECT().ListByAccount(gomock.Any(), accountID, 25, 50).
			Return([]*domain.Transaction{{AccountID: accountID, Kind: domain.TransactionDeposit}}, nil)

		got, err := usecase.NewTransactionUseCase(accounts, transactions).ListAccountTransactions(context.Background(),
			usecase.ListAccountTransactionsInput{AccountID: accountID, Limit: 25, Offset: 50})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("expected 1 transaction, got %d", len(got))
		}
	})

	t.Run("unknown account", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		accounts := mocks.NewMockAccountRepository(ctrl)
		transactions := mocks.NewMockTransactionRepository(ctrl)

		accounts.EXPECT().GetByID(gomock.Any(), accountID).Return(nil, domain.ErrAccountNotFound)

		_, err := usecase.NewTransactionUseCase(accounts, transactions).ListAccountTransactions(context.Background(),
			usecase.ListAccountTransactionsInput{AccountID: accountID})
		if !errors.Is(err, domain.ErrAccountNotFound) {
			t.Fatalf("expected ErrAccountNotFound, got %v", err)
		}
	})
}
