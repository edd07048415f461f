package e2e

import (
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stretchr/testify/require"

	"github.com/avolkov/stallpoints/internal/handlers"
	"github.com/avolkov/stallpoints/internal/handlers/middleware"
	"github.com/avolkov/stallpoints/internal/logger"
	"github.com/avolkov/stallpoints/internal/models"
	"github.com/avolkov/stallpoints/internal/repository"
	"github.com/avolkov/stallpoints/internal/repository/postgres"
	"github.com/avolkov/stallpoints/internal/service/identity"
	"github.com/avolkov/stallpoints/internal/service/ledger"
	"github.com/avolkov/stallpoints/internal/service/onboarding"
	"github.com/avolkov/stallpoints/internal/testutil"
)

const SecretKey = "test-secret"

type Services struct {
	Storage    repository.Storage
	Ledger     *ledger.LedgerService
	Onboarding *onboarding.Service
	Verifier   *identity.Verifier
}

// Token mints a bearer token for the given identity signed with the test secret
func (s Services) Token(t *testing.T, id models.Identity) string {
	t.Helper()

	token, err := s.Verifier.Issue(id)
	require.NoError(t, err, "failed to issue identity token")

	return token
}

// Create db transaction and run server with that connection (one connection cause one transaction)
// The created transaction passed to inner function: so, you can safely use testutil.InTx with it
func ServeInTx(dbpool *pgxpool.Pool, t *testing.T, fn func(tx pgx.Tx, srvURL string, services Services)) {
	testutil.InTx(dbpool, t, func(tx pgx.Tx) {
		// Initialize repositories on the test transaction
		storage := postgres.NewStorage(tx)

		// Initialize services
		verifier, err := identity.New(identity.Config{SecretKey: SecretKey})
		require.NoError(t, err, "identity verifier should be created without errors")

		onboardingService := onboarding.NewService(onboarding.Config{}, storage)
		ledgerService := ledger.NewService(storage)

		// Complete all together as router
		authMiddleware := middleware.AuthMiddleware(verifier, onboardingService, logger.NewNoOp())
		router := handlers.NewRouter(ledgerService, authMiddleware, logger.NewNoOp())

		// Run http server with the router in transaction
		srv := httptest.NewServer(router)
		defer srv.Close()

		fn(tx, srv.URL, Services{
			Storage:    storage,
			Ledger:     ledgerService,
			Onboarding: onboardingService,
			Verifier:   verifier,
		})
	})
}
