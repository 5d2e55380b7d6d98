package mysql

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iho/corebanking/internal/domain"
)

type customerModel struct {
	ID        string    `gorm:"primaryKey;type:char(36)"`
	Name      string    `gorm:"type:varchar(200);not null"`
	Address   string    `gorm:"type:varchar(500);not null;default:''"`
	CreatedAt time.Time `gorm:"type:datetime(6);not null;index:idx_customers_created_at,priority:1"`
}

func (*customerModel) TableName() string {
	return "customers"
}

type accountModel struct {
	ID             string          `gorm:"primaryKey;type:char(36)"`
	CustomerID     string          `gorm:"type:char(36);not null;index:idx_accounts_customer_id"`
	Number         string          `gorm:"type:varchar(64);not null;uniqueIndex"`
	Balance        decimal.Decimal `gorm:"type:decimal(65,18);not null"`
	OpeningBalance decimal.Decimal `gorm:"type:decimal(65,18);not null"`
	Version        int64           `gorm:"not null;default:0"`
	CreatedAt      time.Time       `gorm:"type:datetime(6);not null"`
	UpdatedAt      time.Time       `gorm:"type:datetime(6);not null"`
}

func (*accountModel) TableName() string {
	return "accounts"
}

type transactionModel struct {
	ID           string          `gorm:"primaryKey;type:char(36)"`
	AccountID    string          `gorm:"type:char(36);not null;index:idx_transactions_account_id"`
	TransferID   *string         `gorm:"type:char(36);index"`
	Kind         string          `gorm:"type:varchar(16);not null"`
	Amount       decimal.Decimal `gorm:"type:decimal(65,18);not null"`
	BalanceAfter decimal.Decimal `gorm:"type:decimal(65,18);not null"`
	CreatedAt    time.Time       `gorm:"type:datetime(6);not null"`
}

func (*transactionModel) TableName() string {
	return "transactions"
}

func fromDomainCustomer(c *domain.Customer) *customerModel {
	return &customerModel{
		ID:        c.ID.String(),
		Name:      c.Name,
		Address:   c.Address,
		CreatedAt: c.CreatedAt,
	}
}

func (m *customerModel) toDomain() (*domain.Customer, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, err
	}

	return &domain.Customer{
		ID:        id,
		Name:      m.Name,
		Address:   m.Address,
		CreatedAt: m.CreatedAt,
	}, nil
}

func fromDomainAccount(a *domain.Account) *accountModel {
	return &accountModel{
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

func (m *accountModel) toDomain() (*domain.Account, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, err
	}

	customerID, err := uuid.Parse(m.CustomerID)
	if err != nil {
		return nil, err
	}

	return &domain.Account{
		ID:             id,
		CustomerID:     customerID,
		Number:         m.Number,
		Balance:        m.Balance,
		OpeningBalance: m.OpeningBalance,
		Version:        m.Version,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}, nil
}

func fromDomainTransaction(t *domain.Transaction) *transactionModel {
	m := &transactionModel{
		ID:           t.ID.String(),
		AccountID:    t.AccountID.String(),
		Kind:         string(t.Kind),
		Amount:       t.Amount,
		BalanceAfter: t.BalanceAfter,
		CreatedAt:    t.CreatedAt,
	}
	if t.TransferID != nil {
		s := t.TransferID.String()
		m.TransferID = &s
	}
	return m
}

func (m *transactionModel) toDomain() (*domain.Transaction, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, err
	}

	accountID, err := uuid.Parse(m.AccountID)
	if err != nil {
		return nil, err
	}

	kind, err := domain.ParseTransactionKind(m.Kind)
	if err != nil {
		return nil, err
	}

	t := &domain.Transaction{
		ID:           id,
		AccountID:    accountID,
		Kind:         kind,
		Amount:       m.Amount,
		BalanceAfter: m.BalanceAfter,
		CreatedAt:    m.CreatedAt,
	}

	if m.TransferID != nil {
		transferID, err := uuid.Parse(*m.TransferID)
		if err != nil {
			return nil, err
		}
		t.TransferID = &transferID
	}

	return t, nil
}
