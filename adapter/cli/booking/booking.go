package booking

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/spabook/adapter/cli"
	"github.com/felixgeelhaar/spabook/internal/booking/application/queries"
	"github.com/spf13/cobra"
)

// Cmd is the booking command group
var Cmd = &cobra.Command{
	Use:     "booking",
	Short:   "Create and manage reservations",
	Aliases: []string{"bookings", "reserva"},
}

func init() {
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(statusCmd)
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(creditsCmd)
}

func printBooking(w io.Writer, b queries.BookingDTO) {
	fmt.Fprintf(w, "%s  %s %s-%s  %-9s  %s\n", b.Code, b.Date, b.Start, b.End, b.Status, b.Name)
}

func printBookingDetail(w io.Writer, b *queries.BookingDTO) {
	fmt.Fprintf(w, "Code:     %s\n", b.Code)
	fmt.Fprintf(w, "Status:   %s\n", b.Status)
	fmt.Fprintf(w, "When:     %s %s-%s\n", b.Date, b.Start, b.End)
	fmt.Fprintf(w, "Service:  %s\n", b.ServiceID)
	fmt.Fprintf(w, "Customer: %s\n", b.Name)
	if b.Email != "" {
		fmt.Fprintf(w, "Email:    %s\n", b.Email)
	}
	if b.Phone != "" {
		fmt.Fprintf(w, "Phone:    %s\n", b.Phone)
	}
	fmt.Fprintf(w, "Price:    %s\n", cli.FormatPrice(b.PriceCents, b.Currency))
	if b.ExpiresAt != nil {
		fmt.Fprintf(w, "Expires:  %s\n", b.ExpiresAt.In(cli.Location()).Format("2006-01-02 15:04"))
	}
	if b.CancelReason != "" {
		fmt.Fprintf(w, "Reason:   %s\n", b.CancelReason)
	}
}
