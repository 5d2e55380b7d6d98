package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/iho/corebanking/internal/domain"
	"github.com/iho/corebanking/internal/usecase"
	"github.com/iho/corebanking/internal/usecase/mocks"
)

type accountMocks struct {
	accounts  *mocks.MockAccountRepository
	customers *mocks.MockCustomerRepository
	idGen     *mocks.MockIDGenerator
	numbers   *mocks.MockAccountNumberGenerator
}

func newAccountUseCase(t *testing.T) (*usecase.AccountUseCase, accountMocks) {
	ctrl := gomock.NewController(t)
	m := accountMocks{
		accounts:  mocks.NewMockAccountRepository(ctrl),
		customers: mocks.NewMockCustomerRepository(ctrl),
		idGen:     mocks.NewMockIDGenerator(ctrl),
		numbers:   mocks.NewMockAccountNumberGenerator(ctrl),
	}
	return usecase.NewAccountUseCase(m.accounts, m.customers, m.idGen, m.numbers), m
}

func TestAccountUseCase_CreateAccount(t *testing.T) {
	customerID := uuid.New()
	accountID := uuid.Must(uuid.NewV7())

	tests := []struct {
		name        string
		input       usecase.CreateAccountInput
		setupMocks  func(accountMocks)
		expectError error
	}{
		{
			name:  "opens with opening balance",
			input: usecase.CreateAccountInput{CustomerID: customerID, OpeningBalance: decimal.NewFromInt(1000)},
			setupMocks: func(m accountMocks) {
				m.customers.EXPECT().GetByID(gomock.Any(), customerID).Return(&domain.Customer{ID: customerID}, nil)
				m.idGen.EXPECT().NewID().Return(accountID)
				m.numbers.EXPECT().Generate().Return("01J9ZACCOUNT")
				m.accounts.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name:        "negative opening balance",
			input:       usecase.CreateAccountInput{CustomerID: customerID, OpeningBalance: decimal.NewFromInt(-1)},
			setupMocks:  func(accountMocks) {},
			expectError: domain.ErrNegativeOpeningBalance,
		},
		{
			name:  "orphan account rejected",
			input: usecase.CreateAccountInput{CustomerID: customerID},
			setupMocks: func(m accountMocks) {
				m.customers.EXPECT().GetByID(gomock.Any(), customerID).Return(nil, domain.ErrCustomerNotFound)
			},
			expectError: domain.ErrCustomerNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, m := newAccountUseCase(t)
			tt.setupMocks(m)

			acc, err := uc.CreateAccount(context.Background(), tt.input)
			if tt.expectError != nil {
				if !errors.Is(err, tt.expectError) {
					t.Fatalf("expected %v, got %v", tt.expectError, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if acc.ID != accountID || acc.Number != "01J9ZACCOUNT" || acc.CustomerID != customerID {
				t.Errorf("unexpected account %+v", acc)
			}
			if !acc.Balance.Equal(tt.input.OpeningBalance) || !acc.OpeningBalance.Equal(tt.input.OpeningBalance) {
				t.Errorf("expected balance and opening balance %s, got %s / %s", tt.input.OpeningBalance, acc.Balance, acc.OpeningBalance)
			}
		})
	}
}

func TestAccountUseCase_ListAccounts(t *testing.T) {
	uc, m := newAccountUseCase(t)
	customerID := uuid.New()

	m.accounts.EXPECT().
		List(gomock.Any(), domain.AccountFilter{CustomerID: &customerID, Limit: domain.MaxPageSize, Offset: 5}).
		Return([]*domain.Account{{ID: uuid.New(), CustomerID: customerID}}, nil)
	m.accounts.EXPECT().Count(gomock.Any(), &customerID).Return(int64(6), nil)

	page, err := uc.ListAccounts(context.Background(), usecase.ListAccountsInput{CustomerID: &customerID, Limit: 1000, Offset: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Total != 6 || len(page.Items) != 1 || page.Limit != domain.MaxPageSize {
		t.Errorf("unexpected page %+v", page)
	}
}

func TestAccountUseCase_GetAccountByNumber(t *testing.T) {
	uc, m := newAccountUseCase(t)

	if _, err := uc.GetAccountByNumber(context.Background(), ""); !errors.Is(err, domain.ErrInvalidAccountNumber) {
		t.Fatalf("expected ErrInvalidAccountNumber, got %v", err)
	}

	m.accounts.EXPECT().GetByNumber(gomock.Any(), "X-1").Return(nil, domain.ErrAccountNotFound)
	if _, err := uc.GetAccountByNumber(context.Background(), "X-1"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}
