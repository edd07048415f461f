package handlers

import (
	"context"
	"net/http"

	"github.com/avolkov/stallpoints/internal/handlers/middleware"
	"github.com/avolkov/stallpoints/internal/logger"
	"github.com/avolkov/stallpoints/internal/models"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	ledgerService ledgerService,
	authMiddleware func(http.Handler) http.Handler,
	logger logger.Logger,
) http.Handler {
	withAuth := func(h http.Handler) http.Handler {
		return authMiddleware(h)
	}

	root := http.NewServeMux()
	root.Handle("GET /api/wallet", withAuth(handleWallet()))
	root.Handle("POST /api/wallet/transfer", withAuth(handleTransfer(ledgerService, logger)))
	root.Handle("GET /api/wallet/transactions", withAuth(handleListTransactions(ledgerService, logger)))

	handler := chain(root,
		middleware.LoggerMiddleware(logger),
	)

	return handler
}

type ledgerService interface {
	// Transfer points from the acting account to the scanned counterparty.
	// Returns the result with both new balances; on audit append failure the
	// result is still valid and the error wraps apperrors.ErrLoggingDegraded.
	Transfer(ctx context.Context, actingID string, counterpartyID string, amount int64) (models.TransferResult, error)

	// List transfers the account participated in, newest first
	ListTransactions(ctx context.Context, accountID string, dir string, limit int) ([]models.Transaction, error)
}
