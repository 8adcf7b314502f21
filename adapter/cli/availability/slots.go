package availability

import (
	"fmt"

	"github.com/felixgeelhaar/spabook/adapter/cli"
	"github.com/felixgeelhaar/spabook/internal/availability/application/queries"
	"github.com/felixgeelhaar/spabook/internal/availability/domain"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	slotsDate    string
	slotsService string
	slotsAll     bool
)

// Cmd shows the slots of a day.
var Cmd = &cobra.Command{
	Use:   "slots",
	Short: "Show the bookable slots of a day",
	Long: `Show the slots a service can still be booked in on a day.

Examples:
  spabook slots --service <id>
  spabook slots --service <id> --date 2026-11-03 --all`,
	Aliases: []string{"available"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.AvailableSlots == nil {
			return fmt.Errorf("availability queries require a database connection")
		}

		serviceID, err := uuid.Parse(slotsService)
		if err != nil {
			return fmt.Errorf("invalid service ID: %w", err)
		}
		date, err := cli.ParseDate(slotsDate)
		if err != nil {
			return err
		}

		result, err := app.AvailableSlots.Handle(cmd.Context(), queries.AvailableSlotsQuery{
			Date:      date,
			ServiceID: serviceID,
		})
		if err != nil {
			return fmt.Errorf("failed to get available slots: %w", err)
		}

		out := cmd.OutOrStdout()
		if cli.JSONOutput() {
			return cli.PrintJSON(out, result)
		}

		switch result.Outcome {
		case domain.OutcomeDayBlocked:
			fmt.Fprintf(out, "%s is closed.\n", date)
			return nil
		case domain.OutcomeNoSlotsRemaining:
			fmt.Fprintf(out, "No slots left on %s.\n", date)
			if !slotsAll {
				return nil
			}
		}

		fmt.Fprintf(out, "Slots on %s\n", date)
		for _, slot := range result.Slots {
			if slot.Available {
				fmt.Fprintf(out, "  %s-%s\n", slot.Start, slot.End)
				continue
			}
			if slotsAll {
				fmt.Fprintf(out, "  %s-%s  (%s)\n", slot.Start, slot.End, slot.Reason)
			}
		}
		return nil
	},
}

func init() {
	Cmd.Flags().StringVarP(&slotsDate, "date", "d", "", "day (YYYY-MM-DD, default today)")
	Cmd.Flags().StringVarP(&slotsService, "service", "s", "", "service ID")
	Cmd.Flags().BoolVarP(&slotsAll, "all", "a", false, "include unavailable candidates with the reason")
	_ = Cmd.MarkFlagRequired("service")
}
