package booking

import (
	"fmt"

	"github.com/felixgeelhaar/spabook/adapter/cli"
	"github.com/felixgeelhaar/spabook/internal/booking/application/queries"
	"github.com/spf13/cobra"
)

var (
	listDate     string
	creditsEmail string
)

var showCmd = &cobra.Command{
	Use:   "show <code>",
	Short: "Show a booking by its code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.GetBooking == nil {
			return fmt.Errorf("booking queries require a database connection")
		}

		booking, err := app.GetBooking.Handle(cmd.Context(), queries.GetBookingQuery{Code: args[0]})
		if err != nil {
			return fmt.Errorf("failed to get booking: %w", err)
		}

		if cli.JSONOutput() {
			return cli.PrintJSON(cmd.OutOrStdout(), booking)
		}
		printBookingDetail(cmd.OutOrStdout(), booking)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List the bookings of a day",
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ListBookings == nil {
			return fmt.Errorf("booking queries require a database connection")
		}

		date, err := cli.ParseDate(listDate)
		if err != nil {
			return err
		}

		bookings, err := app.ListBookings.Handle(cmd.Context(), queries.ListBookingsQuery{Date: date})
		if err != nil {
			return fmt.Errorf("failed to list bookings: %w", err)
		}

		out := cmd.OutOrStdout()
		if cli.JSONOutput() {
			return cli.PrintJSON(out, bookings)
		}
		if len(bookings) == 0 {
			fmt.Fprintf(out, "No bookings on %s.\n", date)
			return nil
		}
		fmt.Fprintf(out, "Bookings on %s\n", date)
		for _, b := range bookings {
			printBooking(out, b)
		}
		return nil
	},
}

var creditsCmd = &cobra.Command{
	Use:   "credits",
	Short: "List the credits issued to a customer",
	Long: `List credits issued for late cancellations, newest first. Only
usable credits can be redeemed against a new booking.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ListCredits == nil {
			return fmt.Errorf("booking queries require a database connection")
		}

		credits, err := app.ListCredits.Handle(cmd.Context(), queries.ListCreditsQuery{Email: creditsEmail})
		if err != nil {
			return fmt.Errorf("failed to list credits: %w", err)
		}

		out := cmd.OutOrStdout()
		if cli.JSONOutput() {
			return cli.PrintJSON(out, credits)
		}
		if len(credits) == 0 {
			fmt.Fprintf(out, "No credits for %s.\n", creditsEmail)
			return nil
		}
		for _, c := range credits {
			state := "expired"
			switch {
			case c.RedeemedAt != nil:
				state = "redeemed"
			case c.Usable:
				state = "usable"
			}
			fmt.Fprintf(out, "%s  %s  until %s  %s\n",
				c.ID, cli.FormatPrice(c.AmountCents, c.Currency),
				c.ExpiresAt.In(cli.Location()).Format("2006-01-02"), state)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringVarP(&listDate, "date", "d", "", "day (YYYY-MM-DD, default today)")
	creditsCmd.Flags().StringVar(&creditsEmail, "email", "", "customer email")
	_ = creditsCmd.MarkFlagRequired("email")
}
