package domain

import (
	"time"

	"github.com/google/uuid"
)

// Customer owns one or more accounts.
type Customer struct {
	ID        uuid.UUID
	Name      string
	Address   string
	CreatedAt time.Time
}
