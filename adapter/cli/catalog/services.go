package catalog

import (
	"fmt"

	"github.com/felixgeelhaar/spabook/adapter/cli"
	"github.com/felixgeelhaar/spabook/internal/catalog/application/queries"
	"github.com/spf13/cobra"
)

// Cmd lists the bookable services.
var Cmd = &cobra.Command{
	Use:     "services",
	Short:   "List the bookable services",
	Aliases: []string{"catalog"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ListServices == nil {
			return fmt.Errorf("catalog queries require a database connection")
		}

		services, err := app.ListServices.Handle(cmd.Context(), queries.ListServicesQuery{})
		if err != nil {
			return fmt.Errorf("failed to list services: %w", err)
		}

		out := cmd.OutOrStdout()
		if cli.JSONOutput() {
			return cli.PrintJSON(out, services)
		}
		if len(services) == 0 {
			fmt.Fprintln(out, "No services configured.")
			return nil
		}
		for _, s := range services {
			fmt.Fprintf(out, "%s  %-28s %4d min  %s\n",
				s.ID, s.Name, s.DurationMinutes, cli.FormatPrice(s.PriceCents, s.Currency))
		}
		return nil
	},
}
