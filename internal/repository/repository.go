package repository

import (
	"context"

	"github.com/avolkov/stallpoints/internal/models"
)

// Account store contract
type AccountRepo interface {
	// Get account by id
	// If account not found must return apperrors.ErrAccountNotFound
	Get(ctx context.Context, id string) (models.Account, error)

	// Create account if the id was never seen before. Idempotent: if the
	// account exists already return the stored record unchanged, never
	// overwrite its role or balance. Must be atomic per id: concurrent calls
	// for the same id all observe one winning record.
	CreateIfAbsent(ctx context.Context, id string, role string, balance int64) (models.Account, error)

	// ApplyTransfer is the only operation allowed to move points between
	// accounts. It debits from and credits to in one atomic step, re-checking
	// 'balance >= amount' at the moment of mutation. Either both balances
	// change durably or neither does.
	// Returns apperrors.ErrBalanceInsufficient if the precondition fails,
	// apperrors.ErrAccountNotFound if either account is missing.
	ApplyTransfer(ctx context.Context, fromID string, toID string, amount int64) (models.TransferBalances, error)
}

// Transaction log contract: append-only audit trail of completed transfers
type TransactionRepo interface {
	// Append stores one completed transfer, assigning id and timestamp.
	// Records are immutable once appended.
	Append(ctx context.Context, fromID string, toID string, amount int64) (models.Transaction, error)

	// List returns transfers the account took part in, newest first.
	// dir is one of models.DirectionFrom, DirectionTo, DirectionEither.
	// limit <= 0 means no limit; callers at larger scale should chunk.
	List(ctx context.Context, accountID string, dir string, limit int) ([]models.Transaction, error)
}

type Storage interface {
	Account() AccountRepo
	Transaction() TransactionRepo

	// InTx runs fn with a Storage bound to one database transaction.
	// Commits if fn returns nil, rolls back otherwise.
	InTx(ctx context.Context, fn func(Storage) error) error
}
