package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iho/corebanking/internal/domain"
)

// PostgreSQL error codes the store translates.
const (
	pgErrDeadlock             = "40P01"
	pgErrSerializationFailure = "40001"
	pgErrUniqueViolation      = "23505"
	pgErrForeignKeyViolation  = "23503"
	pgErrCheckViolation       = "23514"
	pgErrLockNotAvailable     = "55P03"
	pgErrQueryCanceled        = "57014"
)

const (
	constraintAccountCustomer    = "accounts_customer_id_fkey"
	constraintTransactionAcct    = "transactions_account_id_fkey"
	constraintBalanceNonNegative = "accounts_balance_non_negative"
)

// translateError maps driver errors onto the domain taxonomy. notFound is
// returned for pgx.ErrNoRows when set.
func translateError(op string, err error, notFound error) error {
	if err == nil {
		return nil
	}

	if notFound != nil && errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrDeadlock, pgErrSerializationFailure, pgErrUniqueViolation:
			return domain.Conflict(op, err)
		case pgErrLockNotAvailable, pgErrQueryCanceled:
			return domain.Timeout(op, err)
		case pgErrForeignKeyViolation:
			switch pgErr.ConstraintName {
			case constraintAccountCustomer:
				return domain.ErrCustomerNotFound
			case constraintTransactionAcct:
				return domain.ErrAccountNotFound
			}
		case pgErrCheckViolation:
			if pgErr.ConstraintName == constraintBalanceNonNegative {
				return domain.ErrInsufficientFunds
			}
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return domain.Timeout(op, err)
	}

	return domain.Persistence(op, err)
}
