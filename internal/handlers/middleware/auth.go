package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/avolkov/stallpoints/internal/apperrors"
	"github.com/avolkov/stallpoints/internal/handlers/accountctx"
	"github.com/avolkov/stallpoints/internal/handlers/render"
	applogger "github.com/avolkov/stallpoints/internal/logger"
	"github.com/avolkov/stallpoints/internal/models"
)

type identityVerifier interface {
	Verify(tokenString string) (models.Identity, error)
}

type onboardingService interface {
	Onboard(ctx context.Context, identity models.Identity) (models.Account, error)
}

// AuthMiddleware verifies the bearer identity token and resolves the caller's
// account, creating it on first sight. The account lands in the request
// context for the handlers downstream.
func AuthMiddleware(verifier identityVerifier, onboarding onboardingService, l applogger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			identity, err := verifier.Verify(token)
			if err != nil {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			account, err := onboarding.Onboard(r.Context(), identity)
			switch {
			case err == nil:
			case errors.Is(err, apperrors.ErrRoleMismatch):
				render.ServiceError(w, "Role differs from the registered one", http.StatusForbidden)
				return
			case errors.Is(err, apperrors.ErrIdentityRejected):
				render.ServiceError(w, "Identity not allowed", http.StatusForbidden)
				return
			default:
				l.Error("Failed to onboard account", "subject", identity.Subject, "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
				return
			}

			ctx := accountctx.New(r.Context(), account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")

	token, found := strings.CutPrefix(auth, "Bearer ")
	if !found || token == "" {
		return "", false
	}

	return token, true
}
