package booking

import (
	"fmt"

	"github.com/felixgeelhaar/spabook/adapter/cli"
	"github.com/felixgeelhaar/spabook/internal/booking/application/commands"
	"github.com/felixgeelhaar/spabook/internal/booking/domain"
	sharedDomain "github.com/felixgeelhaar/spabook/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	createService   string
	createTherapist string
	createDate      string
	createTime      string
	createName      string
	createEmail     string
	createPhone     string
	createNotes     string
	createKey       string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Reserve a slot",
	Long: `Reserve a slot for a customer. The slot must be one the
availability query currently offers for the service.

Examples:
  spabook booking create --service <id> --date 2026-11-03 --time 10:00 --name "Ana Torres" --phone "+51 999 888 777"`,
	Aliases: []string{"new"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.CreateBooking == nil {
			return fmt.Errorf("booking commands require a database connection")
		}

		serviceID, err := uuid.Parse(createService)
		if err != nil {
			return fmt.Errorf("invalid service ID: %w", err)
		}
		var therapistID *uuid.UUID
		if createTherapist != "" {
			id, err := uuid.Parse(createTherapist)
			if err != nil {
				return fmt.Errorf("invalid therapist ID: %w", err)
			}
			therapistID = &id
		}
		date, err := sharedDomain.ParseDate(createDate)
		if err != nil {
			return fmt.Errorf("invalid date format, use YYYY-MM-DD: %w", err)
		}
		start, err := sharedDomain.ParseClock(createTime)
		if err != nil {
			return fmt.Errorf("invalid time, use HH:MM: %w", err)
		}

		result, err := app.CreateBooking.Handle(cmd.Context(), commands.CreateBookingCommand{
			ServiceID:   serviceID,
			TherapistID: therapistID,
			Date:        date,
			Start:       start,
			Customer: domain.Customer{
				Name:  createName,
				Email: createEmail,
				Phone: createPhone,
				Notes: createNotes,
			},
			IdempotencyKey: createKey,
		})
		if err != nil {
			return fmt.Errorf("failed to create booking: %w", err)
		}

		out := cmd.OutOrStdout()
		if cli.JSONOutput() {
			return cli.PrintJSON(out, map[string]any{
				"id":     result.BookingID,
				"codigo": result.Code,
				"estado": result.Status,
			})
		}
		if result.Replayed {
			fmt.Fprintf(out, "Booking %s already existed for this key (%s)\n", result.Code, result.Status)
			return nil
		}
		fmt.Fprintf(out, "Booked %s %s: code %s (%s)\n", date, start, result.Code, result.Status)
		return nil
	},
}

func init() {
	createCmd.Flags().StringVarP(&createService, "service", "s", "", "service ID")
	createCmd.Flags().StringVar(&createTherapist, "therapist", "", "therapist ID (optional)")
	createCmd.Flags().StringVarP(&createDate, "date", "d", "", "day (YYYY-MM-DD)")
	createCmd.Flags().StringVarP(&createTime, "time", "t", "", "slot start (HH:MM)")
	createCmd.Flags().StringVarP(&createName, "name", "n", "", "customer name")
	createCmd.Flags().StringVar(&createEmail, "email", "", "customer email")
	createCmd.Flags().StringVar(&createPhone, "phone", "", "customer phone")
	createCmd.Flags().StringVar(&createNotes, "notes", "", "notes for the therapist")
	createCmd.Flags().StringVar(&createKey, "idempotency-key", "", "replay-safe request key")
	_ = createCmd.MarkFlagRequired("service")
	_ = createCmd.MarkFlagRequired("date")
	_ = createCmd.MarkFlagRequired("time")
	_ = createCmd.MarkFlagRequired("name")
}
