package domain

import (
	"errors"
	"fmt"
)

var (
	// Lookup errors
	ErrAccountNotFound  = errors.New("account not found")
	ErrCustomerNotFound = errors.New("customer not found")

	// Ledger errors
	ErrInvalidAmount          = errors.New("amount must be positive")
	ErrSameAccount            = errors.New("cannot transfer to same account")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrNegativeOpeningBalance = errors.New("opening balance cannot be negative")

	// Store errors
	ErrConflict    = errors.New("concurrent modification conflict")
	ErrTimeout     = errors.New("operation timed out")
	ErrPersistence = errors.New("persistence failure")
)

// ErrorKind classifies ledger failures so callers can react without matching messages.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindNotFound
	KindValidation
	KindInsufficientFunds
	KindConflict
	KindTimeout
	KindPersistence
)

var kindNames = map[ErrorKind]string{
	KindUnknown:           "unknown",
	KindNotFound:          "not_found",
	KindValidation:        "validation",
	KindInsufficientFunds: "insufficient_funds",
	KindConflict:          "conflict",
	KindTimeout:           "timeout",
	KindPersistence:       "persistence",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

// KindOf reports the taxonomy kind of err. Nil maps to KindUnknown.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrAccountNotFound), errors.Is(err, ErrCustomerNotFound):
		return KindNotFound
	case errors.Is(err, ErrInsufficientFunds):
		return KindInsufficientFunds
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrTimeout):
		return KindTimeout
	case errors.Is(err, ErrPersistence):
		return KindPersistence
	case isValidation(err):
		return KindValidation
	default:
		return KindUnknown
	}
}

func isValidation(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

var validationErrors = []error{
	ErrInvalidAmount,
	ErrSameAccount,
	ErrNegativeOpeningBalance,
	ErrInvalidCustomerName,
	ErrInvalidAddress,
	ErrInvalidAccountNumber,
	ErrInvalidIDFormat,
}

// Persistence wraps a store failure that has no more specific kind.
func Persistence(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}

// Timeout wraps a deadline or lock wait failure.
func Timeout(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrTimeout, op, err)
}

// Conflict wraps a serialization, deadlock or uniqueness failure.
func Conflict(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrConflict, op, err)
}
