package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/avolkov/stallpoints/internal/apperrors"
	"github.com/avolkov/stallpoints/internal/models"
	"github.com/avolkov/stallpoints/internal/repository"
)

const defaultHistoryLimit = 100

// LedgerService validates and executes point transfers and serves the
// balance and history views.
type LedgerService struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *LedgerService {
	return &LedgerService{storage: storage}
}

// Transfer moves amount from the acting account to the scanned counterparty.
//
// Validation happens in a fixed order and a failed check mutates nothing:
// amount positive, counterparty exists, not a self transfer, counterparty is
// a merchant, balance covers the amount. The balance check here is advisory
// only; the store re-checks it atomically at mutation time, so a concurrent
// transfer surfacing there is reported as apperrors.ErrBalanceInsufficient
// too and is safe to resubmit with refreshed state.
//
// If appending the audit record fails after the balances committed, the
// transfer is still committed. The result then carries both new balances and
// the error wraps apperrors.ErrLoggingDegraded.
func (s *LedgerService) Transfer(ctx context.Context, actingID string, counterpartyID string, amount int64) (models.TransferResult, error) {
	var result models.TransferResult

	if amount <= 0 {
		return result, apperrors.ErrAmountInvalid
	}

	counterparty, err := s.storage.Account().Get(ctx, counterpartyID)
	switch {
	case errors.Is(err, apperrors.ErrAccountNotFound):
		return result, apperrors.ErrCounterpartyNotFound
	case err != nil:
		return result, fmt.Errorf("can't resolve counterparty. Err: %w", err)
	}

	if counterpartyID == actingID {
		return result, apperrors.ErrSelfTransfer
	}

	if counterparty.Role != models.RoleMerchant {
		return result, apperrors.ErrCounterpartyNotMerchant
	}

	acting, err := s.storage.Account().Get(ctx, actingID)
	if err != nil {
		return result, fmt.Errorf("can't resolve acting account. Err: %w", err)
	}

	if acting.Balance < amount {
		return result, apperrors.ErrBalanceInsufficient
	}

	balances, err := s.storage.Account().ApplyTransfer(ctx, actingID, counterpartyID, amount)
	if err != nil {
		return result, fmt.Errorf("transfer failed. Err: %w", err)
	}

	result.Balance = balances.FromBalance
	result.CounterpartyBalance = balances.ToBalance

	transaction, err := s.storage.Transaction().Append(ctx, actingID, counterpartyID, amount)
	if err != nil {
		// Balances are authoritative: never roll a committed transfer back
		// because the audit write failed. Surface the gap to the caller.
		return result, fmt.Errorf("%w: %w", apperrors.ErrLoggingDegraded, err)
	}

	result.TransactionID = transaction.ID

	return result, nil
}

// GetAccount returns the stored account record
func (s *LedgerService) GetAccount(ctx context.Context, accountID string) (models.Account, error) {
	return s.storage.Account().Get(ctx, accountID)
}

// ListTransactions returns the account's transfer history, newest first
func (s *LedgerService) ListTransactions(ctx context.Context, accountID string, dir string, limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	return s.storage.Transaction().List(ctx, accountID, dir, limit)
}
