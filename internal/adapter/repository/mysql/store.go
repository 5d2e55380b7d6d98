// Package mysql is the gorm-backed store. Row locks use SELECT ... FOR
// UPDATE in ascending id order, like the PostgreSQL store.
package mysql

import (
	"context"
	"database/sql"
	"errors"

	"gorm.io/gorm"

	"github.com/iho/corebanking/internal/usecase"
)

var errForeignTx = errors.New("transaction was not started by the mysql store")

// Store owns the gorm handle and hands out repositories.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new Store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the schema.
func (s *Store) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&customerModel{}, &accountModel{}, &transactionModel{})
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Customers returns the customer repository.
func (s *Store) Customers() *CustomerRepository { return &CustomerRepository{db: s.db} }

// Accounts returns the account repository.
func (s *Store) Accounts() *AccountRepository { return &AccountRepository{db: s.db} }

// Transactions returns the transaction repository.
func (s *Store) Transactions() *TransactionRepository { return &TransactionRepository{db: s.db} }

// Ledger returns the ledger repository.
func (s *Store) Ledger() *LedgerRepository { return &LedgerRepository{db: s.db} }

// Begin starts a transaction.
func (s *Store) Begin(ctx context.Context) (usecase.Tx, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, translateError("begin", tx.Error, nil)
	}

	return &Tx{db: tx}, nil
}

// Tx wraps a gorm transaction.
type Tx struct {
	db *gorm.DB
}

// Commit commits the transaction.
func (t *Tx) Commit(context.Context) error {
	return translateError("commit", t.db.Commit().Error, nil)
}

// Rollback rolls back the transaction. Rolling back a finished
// transaction is a no-op.
func (t *Tx) Rollback(context.Context) error {
	err := t.db.Rollback().Error
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

func dbFor(ctx context.Context, tx usecase.Tx) (*gorm.DB, error) {
	t, ok := tx.(*Tx)
	if !ok {
		return nil, errForeignTx
	}
	return t.db.WithContext(ctx), nil
}
