package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the public and admin HTTP API until interrupted. When
OUTBOX_PROCESSOR_ENABLED is set the outbox is drained in-process as well.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.Serve == nil {
			return fmt.Errorf("serve requires a database connection")
		}
		return app.Serve(cmd.Context())
	},
}

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the background worker",
	Long: `Run the outbox processor, the pending-booking sweeper and the
outbox cleanup job until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.Work == nil {
			return fmt.Errorf("worker requires a database connection")
		}
		return app.Work(cmd.Context())
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.Migrate == nil {
			return fmt.Errorf("migrate requires a database connection")
		}
		applied, err := app.Migrate(cmd.Context())
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		if applied == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Database is up to date.")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s).\n", applied)
		return nil
	},
}

var tokenTTL time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token <operator>",
	Short: "Issue an admin API token",
	Long: `Issue a signed bearer token for the admin endpoints. Requires
JWT_SECRET to be configured.

Examples:
  spabook token recepcion
  spabook token gerencia --ttl 720h`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.IssueToken == nil {
			return fmt.Errorf("token signing is not configured, set JWT_SECRET")
		}
		token, err := app.IssueToken(args[0], tokenTTL)
		if err != nil {
			return fmt.Errorf("issue token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(workerCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(tokenCmd)
}
