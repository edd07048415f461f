package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/avolkov/stallpoints/internal/db"
	"github.com/avolkov/stallpoints/internal/handlers"
	"github.com/avolkov/stallpoints/internal/handlers/middleware"
	"github.com/avolkov/stallpoints/internal/logger"
	"github.com/avolkov/stallpoints/internal/repository/postgres"
	"github.com/avolkov/stallpoints/internal/service/identity"
	"github.com/avolkov/stallpoints/internal/service/ledger"
	"github.com/avolkov/stallpoints/internal/service/onboarding"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler
	Logger     logger.Logger
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	l, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Initialize services
	verifier, err := identity.New(identity.Config{
		SecretKey:          c.SecretKey,
		AllowedEmailDomain: c.AllowedEmailDomain,
	})
	if err != nil {
		return nil, fmt.Errorf("error while creating identity verifier. Err: %w", err)
	}
	onboardingService := onboarding.NewService(onboarding.Config{
		CustomerStartBalance: c.CustomerStartBalance,
		MerchantEmailPrefix:  c.MerchantEmailPrefix,
	}, storage)
	ledgerService := ledger.NewService(storage)

	// Complete all together as router
	authMiddleware := middleware.AuthMiddleware(verifier, onboardingService, l)
	mux := handlers.NewRouter(ledgerService, authMiddleware, l)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
		Logger:     l,
	}, nil
}

// Run starts the http server and closes it gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			s.Logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown")
		}
		s.Logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	s.Logger.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	if err == http.ErrServerClosed {
		return nil
	}

	return err
}
