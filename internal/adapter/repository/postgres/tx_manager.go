package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/corebanking/internal/infrastructure/postgres/generated"
	"github.com/iho/corebanking/internal/usecase"
)

var errForeignTx = errors.New("transaction was not started by the postgres store")

// Pool is the part of pgxpool.Pool the repositories use.
type Pool interface {
	generated.DBTX
	Begin(context.Context) (pgx.Tx, error)
	BeginTx(context.Context, pgx.TxOptions) (pgx.Tx, error)
}

// TxManager implements usecase.TxManager.
type TxManager struct {
	pool Pool
}

// NewTxManager creates a new TxManager.
func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return newTxManagerWithPool(pool)
}

func newTxManagerWithPool(pool Pool) *TxManager {
	return &TxManager{pool: pool}
}

// Begin starts a new transaction.
func (m *TxManager) Begin(ctx context.Context) (usecase.Tx, error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return nil, translateError("begin", err, nil)
	}

	return &Tx{tx: tx}, nil
}

// Tx wraps a pgx transaction.
type Tx struct {
	tx pgx.Tx
}

// Commit commits the transaction.
func (t *Tx) Commit(ctx context.Context) error {
	return translateError("commit", t.tx.Commit(ctx), nil)
}

// Rollback rolls back the transaction. Rolling back a finished
// transaction is a no-op.
func (t *Tx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

// PgxTx returns the underlying pgx.Tx.
func (t *Tx) PgxTx() pgx.Tx {
	return t.tx
}

func queriesFor(tx usecase.Tx) (*generated.Queries, error) {
	pgTx, ok := tx.(*Tx)
	if !ok {
		return nil, errForeignTx
	}
	return generated.New(pgTx.PgxTx()), nil
}
