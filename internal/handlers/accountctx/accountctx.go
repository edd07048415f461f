package accountctx

import (
	"context"

	"github.com/avolkov/stallpoints/internal/models"
)

type ctxKey string

const accountKey ctxKey = "account"

// Create a new context carrying the caller's account
func New(ctx context.Context, a models.Account) context.Context {
	return context.WithValue(ctx, accountKey, a)
}

// Extract the caller's account from the context
func FromContext(ctx context.Context) (models.Account, bool) {
	a, ok := ctx.Value(accountKey).(models.Account)
	return a, ok
}
