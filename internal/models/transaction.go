package models

import (
	"time"

	"github.com/google/uuid"
)

// History listing directions
const (
	DirectionFrom   = "from"
	DirectionTo     = "to"
	DirectionEither = "either"
)

// Transaction is one committed transfer. Immutable once appended.
type Transaction struct {
	ID            uuid.UUID
	CreatedAt     time.Time
	FromAccountID string
	ToAccountID   string
	Amount        int64
}

// TransferBalances are both balances right after an applied transfer.
type TransferBalances struct {
	FromBalance int64
	ToBalance   int64
}

// TransferResult is what the ledger returns for a committed transfer.
// TransactionID is zero when the audit append failed (logging degraded).
type TransferResult struct {
	TransactionID       uuid.UUID
	Balance             int64
	CounterpartyBalance int64
}

// ValidDirection reports whether dir is a known listing direction.
func ValidDirection(dir string) bool {
	return dir == DirectionFrom || dir == DirectionTo || dir == DirectionEither
}
