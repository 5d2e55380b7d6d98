package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionKind tells whether a transaction added or removed funds.
type TransactionKind string

const (
	TransactionDeposit  TransactionKind = "deposit"
	TransactionWithdraw TransactionKind = "withdraw"
)

// ParseTransactionKind converts a stored kind back into a TransactionKind.
func ParseTransactionKind(s string) (TransactionKind, error) {
	switch k := TransactionKind(s); k {
	case TransactionDeposit, TransactionWithdraw:
		return k, nil
	default:
		return "", fmt.Errorf("unknown transaction kind %q", s)
	}
}

// Transaction is an immutable record of one balance change.
// Amount is always positive; the direction is carried by Kind.
type Transaction struct {
	ID           uuid.UUID
	AccountID    uuid.UUID
	TransferID   *uuid.UUID
	Kind         TransactionKind
	Amount       decimal.Decimal
	BalanceAfter decimal.Decimal
	CreatedAt    time.Time
}

// SignedAmount returns the balance delta this transaction caused.
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Kind == TransactionWithdraw {
		return t.Amount.Neg()
	}
	return t.Amount
}
