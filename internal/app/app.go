// Package app wires configuration, storage, delivery and services together
// for the server and the CLI.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/neetprep/backend/internal/api"
	"github.com/neetprep/backend/internal/infrastructure/config"
	"github.com/neetprep/backend/internal/jobs"
	"github.com/neetprep/backend/internal/mailer"
	"github.com/neetprep/backend/internal/payment/razorpay"
	"github.com/neetprep/backend/internal/service"
	"github.com/neetprep/backend/internal/store"
)

// App holds the long-lived dependencies of a process.
type App struct {
	Config  *config.Config
	Catalog *config.Catalog
	Store   *store.SQLStore
	Logger  *zap.Logger

	Dispatcher jobs.Dispatcher
	stopJobs   func()

	Accounts  *service.AccountService
	Bank      *service.BankService
	Cycles    *service.CycleService
	Attempts  *service.AttemptService
	Payments  *service.PaymentService
	Rituals   *service.RitualService
	Followups *service.FollowupService
}

// New opens the database and builds every service. Email goes through the
// Redis queue when REDIS_URL is set, otherwise through an in-process pool.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	catalog, err := config.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}

	db, err := store.Open(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, err
	}

	var sender mailer.Sender = mailer.LogSender{Logger: logger}
	if cfg.ResendAPIKey != "" {
		sender = mailer.NewResendClient(cfg.ResendBaseURL, cfg.ResendAPIKey, cfg.MailFrom)
	} else {
		logger.Warn("RESEND_API_KEY not set, emails are only logged")
	}

	a := &App{Config: cfg, Catalog: catalog, Store: db, Logger: logger}
	if cfg.RedisURL != "" {
		q, err := jobs.NewQueue(cfg.RedisURL, sender, logger)
		if err != nil {
			db.Close()
			return nil, err
		}
		if err := q.Start(); err != nil {
			db.Close()
			return nil, fmt.Errorf("start job queue: %w", err)
		}
		a.Dispatcher, a.stopJobs = q, q.Stop
	} else {
		d := jobs.NewLocalDispatcher(cfg.EmailWorkers, sender, logger)
		a.Dispatcher, a.stopJobs = d, d.Stop
	}

	gateway := razorpay.NewClient(cfg.RazorpayBaseURL, cfg.RazorpayKeyID, cfg.RazorpayKeySecret)

	a.Accounts = service.NewAccountService(db, a.Dispatcher, cfg.AdminEmails, logger)
	a.Bank = service.NewBankService(db, logger)
	a.Cycles = service.NewCycleService(db, catalog, logger)
	a.Attempts = service.NewAttemptService(db, a.Cycles, logger)
	a.Payments = service.NewPaymentService(db, gateway, a.Dispatcher, catalog, logger)
	a.Rituals = service.NewRitualService(db, catalog, cfg.Location, logger)
	a.Followups = service.NewFollowupService(db, a.Dispatcher, cfg.FollowupInactiveDays, logger)
	return a, nil
}

// Handler builds the HTTP handler over the app's services.
func (a *App) Handler() *api.Handler {
	return api.NewHandler(api.Services{
		Accounts: a.Accounts,
		Bank:     a.Bank,
		Attempts: a.Attempts,
		Cycles:   a.Cycles,
		Payments: a.Payments,
		Rituals:  a.Rituals,
		DB:       a.Store,
	}, a.Logger)
}

// Close drains pending email and closes the database.
func (a *App) Close() error {
	a.stopJobs()
	return a.Store.Close()
}
