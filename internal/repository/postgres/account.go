package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/avolkov/stallpoints/internal/apperrors"
	"github.com/avolkov/stallpoints/internal/models"
)

type AccountRepo struct {
	DB DBTX
}

const getAccount = `-- name: GetAccount
SELECT id, created_at, role, balance FROM accounts
WHERE id = $1
`

func (r *AccountRepo) Get(ctx context.Context, id string) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, getAccount, id)
	account, err := pgx.CollectOneRow(rows, rowToAccount)

	switch {
	case err == nil:
		return account, nil
	case errors.Is(err, pgx.ErrNoRows):
		return account, apperrors.ErrAccountNotFound
	default:
		return account, fmt.Errorf("db error: %w", err)
	}
}

// Insert the account or keep the stored one untouched.
// The trailing select may miss a row committed by a concurrent insert during
// this statement's snapshot, hence the read-back below.
const createAccountIfAbsent = `-- name: CreateAccountIfAbsent
WITH new_account AS (
	INSERT INTO accounts (id, role, balance)
	VALUES ($1, $2, $3)
	ON CONFLICT (id) DO NOTHING
	RETURNING id, created_at, role, balance
)
SELECT id, created_at, role, balance FROM new_account
UNION
SELECT id, created_at, role, balance FROM accounts WHERE id = $1
`

func (r *AccountRepo) CreateIfAbsent(ctx context.Context, id string, role string, balance int64) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, createAccountIfAbsent, id, role, balance)
	account, err := pgx.CollectOneRow(rows, rowToAccount)

	switch {
	case err == nil:
		return account, nil
	case errors.Is(err, pgx.ErrNoRows):
		// Lost the insert race, the winning record is committed by now
		return r.Get(ctx, id)
	default:
		return account, fmt.Errorf("db error: %w", err)
	}
}

const debitAccount = `-- name: DebitAccount
UPDATE accounts SET balance = balance - $2
WHERE id = $1 AND balance >= $2
RETURNING balance
`

const creditAccount = `-- name: CreditAccount
UPDATE accounts SET balance = balance + $2
WHERE id = $1
RETURNING balance
`

// ApplyTransfer moves amount between two accounts in one database
// transaction. The debit condition re-checks the balance at mutation time, so
// concurrent transfers from the same account can't jointly overdraw it.
func (r *AccountRepo) ApplyTransfer(ctx context.Context, fromID string, toID string, amount int64) (models.TransferBalances, error) {
	var balances models.TransferBalances

	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return balances, fmt.Errorf("db tx error: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	debit := func() error {
		err := tx.QueryRow(ctx, debitAccount, fromID, amount).Scan(&balances.FromBalance)
		if errors.Is(err, pgx.ErrNoRows) {
			return r.classifyDebitFailure(ctx, tx, fromID)
		}
		return err
	}
	credit := func() error {
		err := tx.QueryRow(ctx, creditAccount, toID, amount).Scan(&balances.ToBalance)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrAccountNotFound
		}
		return err
	}

	// Lock rows in id order so opposite-direction transfers can't deadlock
	steps := []func() error{debit, credit}
	if toID < fromID {
		steps = []func() error{credit, debit}
	}

	for _, step := range steps {
		if err := step(); err != nil {
			switch {
			case errors.Is(err, apperrors.ErrAccountNotFound),
				errors.Is(err, apperrors.ErrBalanceInsufficient):
				return balances, err
			default:
				return balances, fmt.Errorf("db error: %w", err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return balances, fmt.Errorf("db tx error: %w", err)
	}

	return balances, nil
}

// classifyDebitFailure tells a missing payer apart from an insufficient balance
func (r *AccountRepo) classifyDebitFailure(ctx context.Context, tx pgx.Tx, fromID string) error {
	var exists bool
	err := tx.QueryRow(ctx, `SELECT true FROM accounts WHERE id = $1`, fromID).Scan(&exists)

	switch {
	case err == nil:
		return apperrors.ErrBalanceInsufficient
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.ErrAccountNotFound
	default:
		return err
	}
}

func rowToAccount(row pgx.CollectableRow) (models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.CreatedAt, &a.Role, &a.Balance)
	return a, err
}
