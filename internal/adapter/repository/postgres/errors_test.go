package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/iho/corebanking/internal/domain"
)

func pgError(code, constraint string) error {
	return &pgconn.PgError{Code: code, ConstraintName: constraint, Message: "simulated"}
}

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		notFound error
		want     domain.ErrorKind
		target   error
	}{
		{name: "no rows with sentinel", err: pgx.ErrNoRows, notFound: domain.ErrAccountNotFound, want: domain.KindNotFound, target: domain.ErrAccountNotFound},
		{name: "no rows without sentinel", err: pgx.ErrNoRows, want: domain.KindPersistence},
		{name: "deadlock", err: pgError(pgErrDeadlock, ""), want: domain.KindConflict},
		{name: "serialization failure", err: pgError(pgErrSerializationFailure, ""), want: domain.KindConflict},
		{name: "duplicate number", err: pgError(pgErrUniqueViolation, "accounts_number_key"), want: domain.KindConflict},
		{name: "lock timeout", err: pgError(pgErrLockNotAvailable, ""), want: domain.KindTimeout},
		{name: "statement timeout", err: pgError(pgErrQueryCanceled, ""), want: domain.KindTimeout},
		{name: "unknown customer", err: pgError(pgErrForeignKeyViolation, constraintAccountCustomer), want: domain.KindNotFound, target: domain.ErrCustomerNotFound},
		{name: "unknown account", err: pgError(pgErrForeignKeyViolation, constraintTransactionAcct), want: domain.KindNotFound, target: domain.ErrAccountNotFound},
		{name: "other foreign key", err: pgError(pgErrForeignKeyViolation, "other_fkey"), want: domain.KindPersistence},
		{name: "negative balance", err: pgError(pgErrCheckViolation, constraintBalanceNonNegative), want: domain.KindInsufficientFunds},
		{name: "deadline", err: fmt.Errorf("query: %w", context.DeadlineExceeded), want: domain.KindTimeout},
		{name: "connection refused", err: errors.New("dial tcp: connection refused"), want: domain.KindPersistence},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateError("op", tt.err, tt.notFound)
			assert.Equal(t, tt.want, domain.KindOf(got))
			if tt.target != nil {
				assert.ErrorIs(t, got, tt.target)
			}
		})
	}

	assert.NoError(t, translateError("op", nil, domain.ErrAccountNotFound))
}
