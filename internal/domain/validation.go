package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidCustomerName  = errors.New("invalid customer name")
	ErrInvalidAddress       = errors.New("invalid address")
	ErrInvalidAccountNumber = errors.New("invalid account number")
	ErrInvalidIDFormat      = errors.New("invalid ID format")
)

// Validation constants
const (
	MaxCustomerNameLength  = 200
	MaxAddressLength       = 500
	MaxAccountNumberLength = 64
	MaxAmountScale         = 18
	DefaultPageSize        = 10
	MaxPageSize            = 100
	MaxPageOffset          = math.MaxInt32
)

// ValidateAmount validates a deposit, withdrawal or transfer amount.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	return validateScale(amount)
}

// ValidateOpeningBalance validates the balance an account is created with.
func ValidateOpeningBalance(balance decimal.Decimal) error {
	if balance.IsNegative() {
		return ErrNegativeOpeningBalance
	}
	return validateScale(balance)
}

// validateScale rejects values with significant digits past MaxAmountScale
// decimal places. Trailing zeros are not significant.
func validateScale(d decimal.Decimal) error {
	if !d.Truncate(MaxAmountScale).Equal(d) {
		return fmt.Errorf("%w: more than %d decimal places", ErrInvalidAmount, MaxAmountScale)
	}
	return nil
}

// ValidateCustomerName validates and normalizes a customer name.
func ValidateCustomerName(name string) (string, error) {
	name = strings.TrimSpace(name)

	if name == "" {
		return "", fmt.Errorf("%w: name cannot be empty", ErrInvalidCustomerName)
	}

	if utf8.RuneCountInString(name) > MaxCustomerNameLength {
		return "", fmt.Errorf("%w: name exceeds %d characters", ErrInvalidCustomerName, MaxCustomerNameLength)
	}

	return name, nil
}

// ValidateAddress validates and normalizes an optional address.
func ValidateAddress(address string) (string, error) {
	address = strings.TrimSpace(address)

	if utf8.RuneCountInString(address) > MaxAddressLength {
		return "", fmt.Errorf("%w: address exceeds %d characters", ErrInvalidAddress, MaxAddressLength)
	}

	return address, nil
}

// ValidateAccountNumber validates an externally supplied account number.
func ValidateAccountNumber(number string) error {
	if number == "" || len(number) > MaxAccountNumberLength || strings.TrimSpace(number) != number {
		return ErrInvalidAccountNumber
	}
	return nil
}

// ParseID parses a textual identifier.
func ParseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s", ErrInvalidIDFormat, s)
	}
	return id, nil
}

// ValidatePagination clamps pagination parameters.
func ValidatePagination(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	if offset > MaxPageOffset {
		offset = MaxPageOffset
	}

	return limit, offset
}
