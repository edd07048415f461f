package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/avolkov/stallpoints/internal/apperrors"
	"github.com/avolkov/stallpoints/internal/models"
	"github.com/avolkov/stallpoints/internal/repository"
	"github.com/avolkov/stallpoints/internal/repository/postgres"
	"github.com/avolkov/stallpoints/internal/testutil"
)

// degradedStorage serves accounts normally but fails every audit append
type degradedStorage struct {
	repository.Storage
}

func (s degradedStorage) Transaction() repository.TransactionRepo {
	return failingTransactionRepo{}
}

type failingTransactionRepo struct{}

func (failingTransactionRepo) Append(ctx context.Context, fromID string, toID string, amount int64) (models.Transaction, error) {
	return models.Transaction{}, errors.New("audit store is down")
}

func (failingTransactionRepo) List(ctx context.Context, accountID string, dir string, limit int) ([]models.Transaction, error) {
	return nil, errors.New("audit store is down")
}

func TestLedgerService_Transfer(t *testing.T) {
	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Every subtest gets a rolled back tx with the same seeded accounts:
	// customer c1 with 500 points, customer c2 with 500, merchant m1 with 0
	withLedger := func(t *testing.T, fn func(storage repository.Storage, service *LedgerService)) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)

			_, err := storage.Account().CreateIfAbsent(t.Context(), "c1", models.RoleCustomer, 500)
			require.NoError(t, err)
			_, err = storage.Account().CreateIfAbsent(t.Context(), "c2", models.RoleCustomer, 500)
			require.NoError(t, err)
			_, err = storage.Account().CreateIfAbsent(t.Context(), "m1", models.RoleMerchant, 0)
			require.NoError(t, err)

			fn(storage, NewService(storage))
		})
	}

	requireUntouched := func(t *testing.T, storage repository.Storage) {
		t.Helper()

		for id, balance := range map[string]int64{"c1": 500, "c2": 500, "m1": 0} {
			account, err := storage.Account().Get(t.Context(), id)
			require.NoError(t, err)
			require.Equalf(t, balance, account.Balance, "balance of %s must stay unchanged", id)
		}

		transactions, err := storage.Transaction().List(t.Context(), "c1", models.DirectionEither, 0)
		require.NoError(t, err)
		require.Empty(t, transactions, "no record may be appended for a failed transfer")
	}

	t.Run("validation failures mutate nothing", func(t *testing.T) {
		tests := []struct {
			name         string
			counterparty string
			amount       int64
			wantErr      error
		}{
			{"zero amount", "m1", 0, apperrors.ErrAmountInvalid},
			{"negative amount", "m1", -20, apperrors.ErrAmountInvalid},
			{"unknown counterparty", "who-dis", 100, apperrors.ErrCounterpartyNotFound},
			{"self transfer", "c1", 100, apperrors.ErrSelfTransfer},
			{"counterparty is a customer", "c2", 100, apperrors.ErrCounterpartyNotMerchant},
			{"insufficient balance", "m1", 600, apperrors.ErrBalanceInsufficient},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				withLedger(t, func(storage repository.Storage, service *LedgerService) {
					_, err := service.Transfer(t.Context(), "c1", tt.counterparty, tt.amount)

					require.ErrorIs(t, err, tt.wantErr)
					requireUntouched(t, storage)
				})
			})
		}
	})

	t.Run("amount check precedes counterparty resolution", func(t *testing.T) {
		withLedger(t, func(storage repository.Storage, service *LedgerService) {
			_, err := service.Transfer(t.Context(), "c1", "who-dis", 0)

			require.ErrorIs(t, err, apperrors.ErrAmountInvalid)
		})
	})

	t.Run("successful transfer", func(t *testing.T) {
		withLedger(t, func(storage repository.Storage, service *LedgerService) {
			result, err := service.Transfer(t.Context(), "c1", "m1", 120)

			require.NoError(t, err)
			require.Equal(t, int64(380), result.Balance)
			require.Equal(t, int64(120), result.CounterpartyBalance)
			require.NotZero(t, result.TransactionID)

			// The audit record lands first in the merchant's incoming history
			received, err := service.ListTransactions(t.Context(), "m1", models.DirectionTo, 0)
			require.NoError(t, err)
			require.Len(t, received, 1)
			require.Equal(t, result.TransactionID, received[0].ID)
			require.Equal(t, "c1", received[0].FromAccountID)
			require.Equal(t, "m1", received[0].ToAccountID)
			require.Equal(t, int64(120), received[0].Amount)
		})
	})

	t.Run("conservation law", func(t *testing.T) {
		withLedger(t, func(storage repository.Storage, service *LedgerService) {
			result, err := service.Transfer(t.Context(), "c1", "m1", 199)

			require.NoError(t, err)
			require.Equal(t, int64(500+0), result.Balance+result.CounterpartyBalance)
		})
	})

	t.Run("failed audit append keeps the transfer committed", func(t *testing.T) {
		withLedger(t, func(storage repository.Storage, service *LedgerService) {
			degraded := NewService(degradedStorage{storage})

			result, err := degraded.Transfer(t.Context(), "c1", "m1", 120)

			require.ErrorIs(t, err, apperrors.ErrLoggingDegraded)
			require.Equal(t, int64(380), result.Balance, "result must carry the committed balances")
			require.Equal(t, int64(120), result.CounterpartyBalance)
			require.Zero(t, result.TransactionID, "no record id exists for an unlogged transfer")

			// Balances are authoritative and stay moved
			account, err := storage.Account().Get(t.Context(), "c1")
			require.NoError(t, err)
			require.Equal(t, int64(380), account.Balance)

			account, err = storage.Account().Get(t.Context(), "m1")
			require.NoError(t, err)
			require.Equal(t, int64(120), account.Balance)
		})
	})
}

func TestLedgerService_GetAccount(t *testing.T) {
	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
		storage := postgres.NewStorage(tx)
		service := NewService(storage)

		created, err := storage.Account().CreateIfAbsent(t.Context(), "c1", models.RoleCustomer, 500)
		require.NoError(t, err)

		account, err := service.GetAccount(t.Context(), "c1")
		require.NoError(t, err)
		require.Equal(t, created, account)

		_, err = service.GetAccount(t.Context(), "never-seen")
		require.ErrorIs(t, err, apperrors.ErrAccountNotFound)
	})
}
