package mysql

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/iho/corebanking/internal/domain"
	"github.com/iho/corebanking/internal/usecase"
)

// CustomerRepository implements usecase.CustomerRepository.
type CustomerRepository struct {
	db *gorm.DB
}

// Create inserts a new customer.
func (r *CustomerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	err := r.db.WithContext(ctx).Create(fromDomainCustomer(customer)).Error
	return translateError("create customer", err, nil)
}

// GetByID retrieves a customer by ID.
func (r *CustomerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	var m customerModel
	if err := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&m).Error; err != nil {
		return nil, translateError("get customer", err, domain.ErrCustomerNotFound)
	}

	c, err := m.toDomain()
	if err != nil {
		return nil, domain.Persistence("get customer", err)
	}
	return c, nil
}

// List returns customers ordered by creation time.
func (r *CustomerRepository) List(ctx context.Context, limit, offset int) ([]*domain.Customer, error) {
	var rows []customerModel
	err := r.db.WithContext(ctx).
		Order("created_at, id").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, translateError("list customers", err, nil)
	}

	customers := make([]*domain.Customer, 0, len(rows))
	for i := range rows {
		c, err := rows[i].toDomain()
		if err != nil {
			return nil, domain.Persistence("list customers", err)
		}
		customers = append(customers, c)
	}
	return customers, nil
}

// Count returns the number of customers.
func (r *CustomerRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&customerModel{}).Count(&n).Error
	return n, translateError("count customers", err, nil)
}

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	db *gorm.DB
}

// Create inserts a new account for an existing customer.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&customerModel{}).Where("id = ?", account.CustomerID.String()).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return domain.ErrCustomerNotFound
		}
		return tx.Create(fromDomainAccount(account)).Error
	})
	return translateError("create account", err, nil)
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return r.first(ctx, "get account", "id = ?", id.String())
}

// GetByNumber retrieves an account by its external number.
func (r *AccountRepository) GetByNumber(ctx context.Context, number string) (*domain.Account, error) {
	return r.first(ctx, "get account by number", "number = ?", number)
}

func (r *AccountRepository) first(ctx context.Context, op, query string, arg any) (*domain.Account, error) {
	var m accountModel
	if err := r.db.WithContext(ctx).Where(query, arg).First(&m).Error; err != nil {
		return nil, translateError(op, err, domain.ErrAccountNotFound)
	}

	account, err := m.toDomain()
	if err != nil {
		return nil, domain.Persistence(op, err)
	}
	return account, nil
}

// GetByIDsForUpdate locks the accounts with SELECT ... ORDER BY id FOR UPDATE.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Tx, ids []uuid.UUID) ([]*domain.Account, error) {
	db, err := dbFor(ctx, tx)
	if err != nil {
		return nil, domain.Persistence("lock accounts", err)
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}

	var rows []accountModel
	err = db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", keys).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, translateError("lock accounts", err, nil)
	}

	return toDomainAccounts("lock accounts", rows)
}

// UpdateBalance sets the balance and bumps the version.
func (r *AccountRepository) UpdateBalance(
	ctx context.Context,
	tx usecase.Tx,
	id uuid.UUID,
	balance decimal.Decimal,
	updatedAt time.Time,
) error {
	db, err := dbFor(ctx, tx)
	if err != nil {
		return domain.Persistence("update balance", err)
	}

	res := db.Model(&accountModel{}).
		Where("id = ?", id.String()).
		Updates(map[string]any{
			"balance":    balance,
			"version":    gorm.Expr("version + 1"),
			"updated_at": updatedAt,
		})
	if res.Error != nil {
		return translateError("update balance", res.Error, nil)
	}

	if res.RowsAffected == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// List returns accounts, optionally for one customer.
func (r *AccountRepository) List(ctx context.Context, filter domain.AccountFilter) ([]*domain.Account, error) {
	q := r.db.WithContext(ctx).Model(&accountModel{})
	if filter.CustomerID != nil {
		q = q.Where("customer_id = ?", filter.CustomerID.String())
	}

	var rows []accountModel
	if err := q.Order("created_at, id").Limit(filter.Limit).Offset(filter.Offset).Find(&rows).Error; err != nil {
		return nil, translateError("list accounts", err, nil)
	}

	return toDomainAccounts("list accounts", rows)
}

// Count returns the number of accounts, optionally for one customer.
func (r *AccountRepository) Count(ctx context.Context, customerID *uuid.UUID) (int64, error) {
	q := r.db.WithContext(ctx).Model(&accountModel{})
	if customerID != nil {
		q = q.Where("customer_id = ?", customerID.String())
	}

	var n int64
	err := q.Count(&n).Error
	return n, translateError("count accounts", err, nil)
}

func toDomainAccounts(op string, rows []accountModel) ([]*domain.Account, error) {
	accounts := make([]*domain.Account, 0, len(rows))
	for i := range rows {
		account, err := rows[i].toDomain()
		if err != nil {
			return nil, domain.Persistence(op, err)
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	db *gorm.DB
}

// Create appends a transaction inside tx.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Tx, t *domain.Transaction) error {
	db, err := dbFor(ctx, tx)
	if err != nil {
		return domain.Persistence("record transaction", err)
	}

	err = db.Create(fromDomainTransaction(t)).Error
	return translateError("record transaction", err, nil)
}

// ListByAccount returns the account's transactions, newest first.
func (r *TransactionRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*domain.Transaction, error) {
	var rows []transactionModel
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID.String()).
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, translateError("list transactions", err, nil)
	}

	transactions := make([]*domain.Transaction, 0, len(rows))
	for i := range rows {
		t, err := rows[i].toDomain()
		if err != nil {
			return nil, domain.Persistence("list transactions", err)
		}
		transactions = append(transactions, t)
	}
	return transactions, nil
}

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	db *gorm.DB
}

const accountFlowQuery = `
SELECT a.id, a.balance, a.opening_balance,
    COALESCE(SUM(CASE WHEN t.kind = 'deposit' THEN t.amount END), 0) AS deposits,
    COALESCE(SUM(CASE WHEN t.kind = 'withdraw' THEN t.amount END), 0) AS withdrawals
FROM accounts a
LEFT JOIN transactions t ON t.account_id = a.id
WHERE a.id = ?
GROUP BY a.id, a.balance, a.opening_balance`

const ledgerTotalsQuery = `
SELECT
    (SELECT COUNT(*) FROM accounts) AS accounts,
    (SELECT COUNT(*) FROM accounts WHERE balance < 0) AS negative_accounts,
    (SELECT COALESCE(SUM(balance), 0) FROM accounts) AS total_balance,
    (SELECT COALESCE(SUM(opening_balance), 0) FROM accounts) AS total_opening_balance,
    (SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE kind = 'deposit') AS total_deposits,
    (SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE kind = 'withdraw') AS total_withdrawals`

type flowRow struct {
	ID             string
	Balance        decimal.Decimal
	OpeningBalance decimal.Decimal
	Deposits       decimal.Decimal
	Withdrawals    decimal.Decimal
}

type totalsRow struct {
	Accounts            int64
	NegativeAccounts    int64
	TotalBalance        decimal.Decimal
	TotalOpeningBalance decimal.Decimal
	TotalDeposits       decimal.Decimal
	TotalWithdrawals    decimal.Decimal
}

// AccountFlow returns the balance of one account next to its log totals.
func (r *LedgerRepository) AccountFlow(ctx context.Context, accountID uuid.UUID) (*domain.AccountFlow, error) {
	var row flowRow
	err := r.snapshot(ctx, func(tx *gorm.DB) error {
		res := tx.Raw(accountFlowQuery, accountID.String()).Scan(&row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrAccountNotFound
		}
		return nil
	})
	if err != nil {
		return nil, translateError("account flow", err, nil)
	}

	return &domain.AccountFlow{
		AccountID:      accountID,
		Balance:        row.Balance,
		OpeningBalance: row.OpeningBalance,
		Deposits:       row.Deposits,
		Withdrawals:    row.Withdrawals,
	}, nil
}

// Totals aggregates every account and transaction.
func (r *LedgerRepository) Totals(ctx context.Context) (*domain.LedgerTotals, error) {
	var row totalsRow
	err := r.snapshot(ctx, func(tx *gorm.DB) error {
		return tx.Raw(ledgerTotalsQuery).Scan(&row).Error
	})
	if err != nil {
		return nil, translateError("ledger totals", err, nil)
	}

	return &domain.LedgerTotals{
		Accounts:         row.Accounts,
		NegativeAccounts: row.NegativeAccounts,
		Balance:          row.TotalBalance,
		OpeningBalance:   row.TotalOpeningBalance,
		Deposits:         row.TotalDeposits,
		Withdrawals:      row.TotalWithdrawals,
	}, nil
}

func (r *LedgerRepository) snapshot(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn, &sql.TxOptions{
		Isolation: sql.LevelRepeatableRead,
		ReadOnly:  true,
	})
}
