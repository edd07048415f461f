package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/avolkov/stallpoints/internal/apperrors"
	"github.com/avolkov/stallpoints/internal/models"
)

type TransactionRepo struct {
	DB DBTX
}

const appendTransaction = `-- name: AppendTransaction
INSERT INTO transactions (id, from_account_id, to_account_id, amount)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at, from_account_id, to_account_id, amount
`

func (r *TransactionRepo) Append(ctx context.Context, fromID string, toID string, amount int64) (models.Transaction, error) {
	rows, _ := r.DB.Query(ctx, appendTransaction, uuid.New(), fromID, toID, amount)
	transaction, err := pgx.CollectOneRow(rows, rowToTransaction)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return transaction, apperrors.ErrAccountNotFound
		}

		return transaction, fmt.Errorf("db error: %w", err)
	}

	return transaction, nil
}

const listTransactions = `-- name: ListTransactions
SELECT id, created_at, from_account_id, to_account_id, amount FROM transactions
WHERE
	(from_account_id = $1 AND $2 IN ('from', 'either'))
	OR (to_account_id = $1 AND $2 IN ('to', 'either'))
ORDER BY seq DESC
LIMIT $3
`

func (r *TransactionRepo) List(ctx context.Context, accountID string, dir string, limit int) ([]models.Transaction, error) {
	if !models.ValidDirection(dir) {
		return nil, fmt.Errorf("unknown listing direction: %q", dir)
	}

	var sqlLimit *int
	if limit > 0 {
		sqlLimit = &limit
	}

	rows, _ := r.DB.Query(ctx, listTransactions, accountID, dir, sqlLimit)
	transactions, err := pgx.CollectRows(rows, rowToTransaction)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return transactions, nil
}

func rowToTransaction(row pgx.CollectableRow) (models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(&t.ID, &t.CreatedAt, &t.FromAccountID, &t.ToAccountID, &t.Amount)
	return t, err
}
