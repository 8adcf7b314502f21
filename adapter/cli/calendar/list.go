package calendar

import (
	"fmt"

	"github.com/felixgeelhaar/spabook/adapter/cli"
	"github.com/felixgeelhaar/spabook/internal/calendar/application/queries"
	"github.com/spf13/cobra"
)

var listDate string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List closed days and the blocked hours of a day",
	Long: `List every closed day from --date on, followed by the blocked
ranges on --date itself.

Examples:
  spabook calendar list
  spabook calendar list --date 2026-11-03 --json`,
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.BlockedDays == nil || app.BlockedHours == nil {
			return fmt.Errorf("calendar queries require a database connection")
		}

		date, err := cli.ParseDate(listDate)
		if err != nil {
			return err
		}

		days, err := app.BlockedDays.Handle(cmd.Context(), queries.ListBlockedDaysQuery{From: date})
		if err != nil {
			return fmt.Errorf("failed to list blocked days: %w", err)
		}
		hours, err := app.BlockedHours.Handle(cmd.Context(), queries.GetBlockedHoursQuery{Date: date})
		if err != nil {
			return fmt.Errorf("failed to list blocked hours: %w", err)
		}

		out := cmd.OutOrStdout()
		if cli.JSONOutput() {
			return cli.PrintJSON(out, map[string]any{
				"dias_bloqueados":  days,
				"horas_bloqueadas": hours,
			})
		}

		fmt.Fprintf(out, "Closed days from %s\n", date)
		if len(days) == 0 {
			fmt.Fprintln(out, "  none")
		}
		for _, d := range days {
			fmt.Fprintf(out, "  %s  %s\n", d.Date, d.Reason)
		}

		fmt.Fprintf(out, "\nBlocked hours on %s\n", date)
		if len(hours) == 0 {
			fmt.Fprintln(out, "  none")
		}
		for _, h := range hours {
			fmt.Fprintf(out, "  %s-%s  %s  [%s]\n", h.Start, h.End, h.Reason, h.ID)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringVarP(&listDate, "date", "d", "", "first day to show (YYYY-MM-DD, default today)")
}
