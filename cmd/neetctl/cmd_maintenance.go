package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/neetprep/backend/internal/app"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if err := a.Store.Migrate(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema up to date (%s)\n", a.Store.Driver())
			return nil
		})
	},
}

var followupsCmd = &cobra.Command{
	Use:   "followups",
	Short: "Email users who have been inactive for FOLLOWUP_INACTIVE_DAYS",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			n, err := a.Followups.Run(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "queued %d follow-up emails\n", n)
			return nil
		})
	},
}

var revokeAdmin bool

var adminCmd = &cobra.Command{
	Use:   "admin <email>",
	Short: "Grant a registered user rights to manage questions and tests",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			p, err := a.Accounts.SetAdmin(ctx, args[0], !revokeAdmin)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			verb := "granted"
			if revokeAdmin {
				verb = "revoked"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin %s for %s (%s)\n", verb, p.Email, p.ID)
			return nil
		})
	},
}

func init() {
	adminCmd.Flags().BoolVar(&revokeAdmin, "revoke", false, "Remove admin rights instead")
}
