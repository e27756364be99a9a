package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	"github.com/neetprep/backend/internal/api"
	"github.com/neetprep/backend/internal/app"
	"github.com/neetprep/backend/internal/infrastructure/config"
	"github.com/neetprep/backend/internal/infrastructure/logging"
	"github.com/neetprep/backend/internal/scheduler"

	_ "github.com/neetprep/backend/docs" // generated swagger docs
)

// @title           NEET Prep API
// @version         1.0
// @description     Mock-test cycles, attempt analytics, personalized tests, payments and daily rituals for NEET aspirants.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization

const (
	jobFollowups     = "followups"
	jobPurgeSessions = "purge-sessions"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	// ── Dependencies ────────────────────────────────────────────────
	ctx := context.Background()
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", zap.Error(err))
		return err
	}
	defer a.Close()

	// ── Scheduled jobs ──────────────────────────────────────────────
	sched := scheduler.New(logger)
	if err := sched.Daily(jobFollowups, cfg.FollowupHour, func(ctx context.Context) error {
		_, err := a.Followups.Run(ctx)
		return err
	}); err != nil {
		return err
	}
	if err := sched.Every(jobPurgeSessions, time.Hour, a.Accounts.PurgeExpiredSessions); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	// ── Routes ──────────────────────────────────────────────────────
	mux := http.NewServeMux()
	api.RegisterRoutes(mux, a.Handler())

	// Swagger UI served at /swagger/
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	// ── Middleware chain: Logging → CORS → mux ──────────────────────
	logged := api.Logging(logger)(api.CORS(cfg.CORSOrigin)(mux))

	// ── Server ──────────────────────────────────────────────────────
	server := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           logged,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			zap.String("address", cfg.ServerAddress),
			zap.String("db_driver", cfg.DBDriver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed to start", zap.Error(err))
			return err
		}
	case sig := <-sigChan:
		logger.Info("shutting down server", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
		return err
	}
	return nil
}
