package postgres

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/corebanking/internal/domain"
	"github.com/iho/corebanking/internal/infrastructure/postgres/generated"
)

var errNonFiniteNumeric = errors.New("numeric value is not finite")

func uuidToPg(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func optionalUUIDToPg(id *uuid.UUID) pgtype.UUID {
	if id == nil {
		return pgtype.UUID{}
	}
	return uuidToPg(*id)
}

func pgToOptionalUUID(id pgtype.UUID) *uuid.UUID {
	if !id.Valid {
		return nil
	}
	v := uuid.UUID(id.Bytes)
	return &v
}

func uuidsToPg(ids []uuid.UUID) []pgtype.UUID {
	out := make([]pgtype.UUID, len(ids))
	for i, id := range ids {
		out[i] = uuidToPg(id)
	}
	return out
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

func numericToDecimal(n pgtype.Numeric) (decimal.Decimal, error) {
	if !n.Valid {
		return decimal.Zero, nil
	}
	if n.NaN || n.InfinityModifier != pgtype.Finite {
		return decimal.Zero, errNonFiniteNumeric
	}
	return decimal.NewFromBigInt(n.Int, n.Exp), nil
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func toDomainCustomer(row generated.Customer) *domain.Customer {
	return &domain.Customer{
		ID:        uuid.UUID(row.ID.Bytes),
		Name:      row.Name,
		Address:   row.Address,
		CreatedAt: row.CreatedAt.Time,
	}
}

func toDomainAccount(row generated.Account) (*domain.Account, error) {
	balance, err := numericToDecimal(row.Balance)
	if err != nil {
		return nil, err
	}

	opening, err := numericToDecimal(row.OpeningBalance)
	if err != nil {
		return nil, err
	}

	return &domain.Account{
		ID:             uuid.UUID(row.ID.Bytes),
		CustomerID:     uuid.UUID(row.CustomerID.Bytes),
		Number:         row.Number,
		Balance:        balance,
		OpeningBalance: opening,
		Version:        row.Version,
		CreatedAt:      row.CreatedAt.Time,
		UpdatedAt:      row.UpdatedAt.Time,
	}, nil
}

func toDomainTransaction(row generated.Transaction) (*domain.Transaction, error) {
	amount, err := numericToDecimal(row.Amount)
	if err != nil {
		return nil, err
	}

	balanceAfter, err := numericToDecimal(row.BalanceAfter)
	if err != nil {
		return nil, err
	}

	kind, err := domain.ParseTransactionKind(row.Kind)
	if err != nil {
		return nil, err
	}

	return &domain.Transaction{
		ID:           uuid.UUID(row.ID.Bytes),
		AccountID:    uuid.UUID(row.AccountID.Bytes),
		TransferID:   pgToOptionalUUID(row.TransferID),
		Kind:         kind,
		Amount:       amount,
		BalanceAfter: balanceAfter,
		CreatedAt:    row.CreatedAt.Time,
	}, nil
}
