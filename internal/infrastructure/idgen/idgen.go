// Package idgen issues identifiers for customers, accounts and transactions.
package idgen

import (
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// UUIDGenerator issues UUIDv7 identifiers, which sort by creation time.
type UUIDGenerator struct{}

// NewUUIDGenerator creates a new UUIDGenerator.
func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

// NewID returns a new time-ordered UUID.
func (g *UUIDGenerator) NewID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// ULIDNumberGenerator issues account numbers as ULIDs. ulid.Make draws from
// a process-wide monotonic source, so numbers stay unique within a
// millisecond; across processes uniqueness rests on 80 random bits and the
// store's unique index.
type ULIDNumberGenerator struct{}

// NewULIDNumberGenerator creates a new ULIDNumberGenerator.
func NewULIDNumberGenerator() *ULIDNumberGenerator {
	return &ULIDNumberGenerator{}
}

// Generate returns a new account number.
func (g *ULIDNumberGenerator) Generate() string {
	return ulid.Make().String()
}
