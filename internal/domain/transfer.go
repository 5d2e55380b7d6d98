package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransferReceipt describes a committed transfer: both accounts after the
// move and the withdraw/deposit pair that records it.
type TransferReceipt struct {
	ID         uuid.UUID
	From       *Account
	To         *Account
	Withdrawal *Transaction
	Deposit    *Transaction
	Amount     decimal.Decimal
	CreatedAt  time.Time
}

// ValidateTransfer checks a transfer between two loaded accounts.
func ValidateTransfer(from, to *Account, amount decimal.Decimal) error {
	if err := ValidateAmount(amount); err != nil {
		return err
	}

	if from.ID == to.ID {
		return ErrSameAccount
	}

	return from.ValidateDebit(amount)
}
