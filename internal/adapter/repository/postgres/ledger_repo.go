package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/corebanking/internal/domain"
	"github.com/iho/corebanking/internal/infrastructure/postgres/generated"
)

// LedgerRepository implements usecase.LedgerRepository. Each read runs in a
// repeatable-read, read-only transaction so balances and log totals come
// from the same snapshot.
type LedgerRepository struct {
	pool Pool
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// AccountFlow returns the balance of one account next to its log totals.
func (r *LedgerRepository) AccountFlow(ctx context.Context, accountID uuid.UUID) (*domain.AccountFlow, error) {
	var row generated.GetAccountFlowRow
	err := r.snapshot(ctx, func(q *generated.Queries) error {
		var err error
		row, err = q.GetAccountFlow(ctx, uuidToPg(accountID))
		return err
	})
	if err != nil {
		return nil, translateError("account flow", err, domain.ErrAccountNotFound)
	}

	values, err := decimals(row.Balance, row.OpeningBalance, row.Deposits, row.Withdrawals)
	if err != nil {
		return nil, domain.Persistence("account flow", err)
	}

	return &domain.AccountFlow{
		AccountID:      uuid.UUID(row.ID.Bytes),
		Balance:        values[0],
		OpeningBalance: values[1],
		Deposits:       values[2],
		Withdrawals:    values[3],
	}, nil
}

// Totals aggregates every account and transaction.
func (r *LedgerRepository) Totals(ctx context.Context) (*domain.LedgerTotals, error) {
	var row generated.GetLedgerTotalsRow
	err := r.snapshot(ctx, func(q *generated.Queries) error {
		var err error
		row, err = q.GetLedgerTotals(ctx)
		return err
	})
	if err != nil {
		return nil, translateError("ledger totals", err, nil)
	}

	values, err := decimals(row.TotalBalance, row.TotalOpeningBalance, row.TotalDeposits, row.TotalWithdrawals)
	if err != nil {
		return nil, domain.Persistence("ledger totals", err)
	}

	return &domain.LedgerTotals{
		Accounts:         row.Accounts,
		NegativeAccounts: row.NegativeAccounts,
		Balance:          values[0],
		OpeningBalance:   values[1],
		Deposits:         values[2],
		Withdrawals:      values[3],
	}, nil
}

func (r *LedgerRepository) snapshot(ctx context.Context, fn func(q *generated.Queries) error) error {
	return pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	}, func(tx pgx.Tx) error {
		return fn(generated.New(tx))
	})
}

func decimals(values ...pgtype.Numeric) ([]decimal.Decimal, error) {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		d, err := numericToDecimal(v)
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}
