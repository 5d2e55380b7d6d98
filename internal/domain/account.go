package domain

import (
	"bytes"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account represents a customer account that holds a balance.
type Account struct {
	ID             uuid.UUID
	CustomerID     uuid.UUID
	Number         string
	Balance        decimal.Decimal
	OpeningBalance decimal.Decimal
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ValidateDebit checks if account can be debited by amount without going negative.
func (a *Account) ValidateDebit(amount decimal.Decimal) error {
	if a.Balance.LessThan(amount) {
		return ErrInsufficientFunds
	}
	return nil
}

// ApplyDebit returns new balance after debit.
func (a *Account) ApplyDebit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Sub(amount)
}

// ApplyCredit returns new balance after credit.
func (a *Account) ApplyCredit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(amount)
}

// Clone returns a copy that can be mutated without touching the original.
func (a *Account) Clone() *Account {
	c := *a
	return &c
}

// AccountFilter narrows account listings.
type AccountFilter struct {
	CustomerID *uuid.UUID
	Limit      int
	Offset     int
}

// SortAccountIDs returns the distinct ids in ascending byte order, which is
// the order every store acquires account locks in.
func SortAccountIDs(ids []uuid.UUID) []uuid.UUID {
	sorted := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		sorted = append(sorted, id)
	}

	slices.SortFunc(sorted, func(a, b uuid.UUID) int {
		return bytes.Compare(a[:], b[:])
	})

	return sorted
}
