package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/avolkov/stallpoints/internal/apperrors"
	"github.com/avolkov/stallpoints/internal/handlers/accountctx"
	"github.com/avolkov/stallpoints/internal/handlers/render"
	"github.com/avolkov/stallpoints/internal/logger"
	"github.com/avolkov/stallpoints/internal/models"
)

// handleWallet returns the caller's own account: the id to render as a QR
// code, the role and the current balance.
func handleWallet() http.Handler {
	type response struct {
		ID      string `json:"id"`
		Role    string `json:"role"`
		Balance int64  `json:"balance"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account, ok := accountctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, response{
			ID:      account.ID,
			Role:    account.Role,
			Balance: account.Balance,
		})
	})
}

func handleTransfer(ledgerService ledgerService, l logger.Logger) http.Handler {
	type request struct {
		CounterpartyID string `json:"counterparty_id" validate:"required"`
		Amount         int64  `json:"amount" validate:"required,gt=0"`
	}

	type response struct {
		TransactionID       string `json:"transaction_id,omitempty"`
		Balance             int64  `json:"balance"`
		CounterpartyBalance int64  `json:"counterparty_balance"`
		LoggingDegraded     bool   `json:"logging_degraded,omitempty"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account, ok := accountctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		transfer, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		result, err := ledgerService.Transfer(r.Context(), account.ID, transfer.CounterpartyID, transfer.Amount)

		switch {
		case err == nil:
			render.JSON(w, response{
				TransactionID:       result.TransactionID.String(),
				Balance:             result.Balance,
				CounterpartyBalance: result.CounterpartyBalance,
			})
		case errors.Is(err, apperrors.ErrLoggingDegraded):
			// The transfer committed, only the audit record is missing.
			// Success for the caller, alert for the operator.
			l.Error("Transfer committed but not logged",
				"from", account.ID,
				"to", transfer.CounterpartyID,
				"amount", transfer.Amount,
				"error", err,
			)
			render.JSON(w, response{
				Balance:             result.Balance,
				CounterpartyBalance: result.CounterpartyBalance,
				LoggingDegraded:     true,
			})
		case errors.Is(err, apperrors.ErrAmountInvalid):
			render.ServiceError(w, "Amount must be a positive integer", http.StatusUnprocessableEntity)
		case errors.Is(err, apperrors.ErrCounterpartyNotFound):
			render.ServiceError(w, "Counterparty account not found", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrSelfTransfer):
			render.ServiceError(w, "Can't transfer to own account", http.StatusUnprocessableEntity)
		case errors.Is(err, apperrors.ErrCounterpartyNotMerchant):
			render.ServiceError(w, "Counterparty is not a merchant", http.StatusUnprocessableEntity)
		case errors.Is(err, apperrors.ErrBalanceInsufficient):
			render.ServiceError(w, "Insufficient balance", http.StatusPaymentRequired)
		default:
			l.Error("Failed to transfer", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleListTransactions(ledgerService ledgerService, l logger.Logger) http.Handler {
	type transaction struct {
		ID        string    `json:"id"`
		From      string    `json:"from"`
		To        string    `json:"to"`
		Amount    int64     `json:"amount"`
		CreatedAt time.Time `json:"created_at"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account, ok := accountctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		dir := r.URL.Query().Get("direction")
		if dir == "" {
			dir = models.DirectionEither
		}
		if !models.ValidDirection(dir) {
			render.ServiceError(w, "Direction must be 'from', 'to' or 'either'", http.StatusBadRequest)
			return
		}

		limit := 0
		if rawLimit := r.URL.Query().Get("limit"); rawLimit != "" {
			parsed, err := strconv.Atoi(rawLimit)
			if err != nil || parsed <= 0 {
				render.ServiceError(w, "Limit must be a positive integer", http.StatusBadRequest)
				return
			}
			limit = parsed
		}

		records, err := ledgerService.ListTransactions(r.Context(), account.ID, dir, limit)
		if err != nil {
			l.Error("Failed to list transactions", "account", account.ID, "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		transactions := make([]transaction, 0, len(records))
		for _, record := range records {
			transactions = append(transactions, transaction{
				ID:        record.ID.String(),
				From:      record.FromAccountID,
				To:        record.ToAccountID,
				Amount:    record.Amount,
				CreatedAt: record.CreatedAt,
			})
		}

		render.JSON(w, transactions)
	})
}
