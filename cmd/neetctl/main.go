// Command neetctl runs maintenance tasks against the NEET prep database:
// question imports, attempt reports, migrations, admin rights and follow-up
// emails.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/neetprep/backend/internal/app"
	"github.com/neetprep/backend/internal/infrastructure/config"
	"github.com/neetprep/backend/internal/infrastructure/logging"
)

var (
	timeout  time.Duration
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:           "neetctl",
	Short:         "Administer the NEET prep backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Operation timeout")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (default: LOG_LEVEL or info)")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(reportsCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(followupsCmd)
	rootCmd.AddCommand(adminCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// withApp loads config, opens the app and runs fn under the --timeout.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}
