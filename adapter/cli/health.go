package cli

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/felixgeelhaar/spabook/pkg/observability"
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the service dependencies",
	Long: `Run the registered health checks (database, Redis, broker) and
print their status. Exits non-zero when any dependency is unhealthy.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.Health == nil {
			return fmt.Errorf("app not initialized")
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()
		health := app.Health(ctx)

		out := cmd.OutOrStdout()
		if JSONOutput() {
			if err := PrintJSON(out, health); err != nil {
				return err
			}
		} else {
			names := make([]string, 0, len(health.Checks))
			for name := range health.Checks {
				names = append(names, name)
			}
			sort.Strings(names)
			fmt.Fprintf(out, "status: %s\n", health.Status)
			for _, name := range names {
				check := health.Checks[name]
				fmt.Fprintf(out, "  %-10s %-10s %s\n", name, check.Status, check.Message)
			}
		}

		if health.Status == observability.HealthStatusUnhealthy {
			return fmt.Errorf("unhealthy")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
