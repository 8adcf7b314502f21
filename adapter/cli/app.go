package cli

import (
	"context"
	"time"

	availabilityQueries "github.com/felixgeelhaar/spabook/internal/availability/application/queries"
	bookingCommands "github.com/felixgeelhaar/spabook/internal/booking/application/commands"
	bookingQueries "github.com/felixgeelhaar/spabook/internal/booking/application/queries"
	calendarCommands "github.com/felixgeelhaar/spabook/internal/calendar/application/commands"
	calendarQueries "github.com/felixgeelhaar/spabook/internal/calendar/application/queries"
	catalogQueries "github.com/felixgeelhaar/spabook/internal/catalog/application/queries"
	sharedApplication "github.com/felixgeelhaar/spabook/internal/shared/application"
	"github.com/felixgeelhaar/spabook/pkg/observability"
)

// App holds the CLI application dependencies.
type App struct {
	// Location is the spa's local time zone; dates given on the command
	// line are read in it.
	Location *time.Location

	// Catalog and availability
	ListServices   sharedApplication.QueryHandler[catalogQueries.ListServicesQuery, []catalogQueries.ServiceDTO]
	AvailableSlots sharedApplication.QueryHandler[availabilityQueries.AvailableSlotsQuery, availabilityQueries.AvailableSlotsResult]

	// Calendar
	BlockDay     sharedApplication.CommandHandler[calendarCommands.BlockDayCommand, *calendarCommands.BlockDayResult]
	UnblockDay   sharedApplication.VoidHandler[calendarCommands.UnblockDayCommand]
	BlockHours   sharedApplication.CommandHandler[calendarCommands.BlockHoursCommand, *calendarCommands.BlockHoursResult]
	UnblockHours sharedApplication.VoidHandler[calendarCommands.UnblockHoursCommand]
	BlockedDays  sharedApplication.QueryHandler[calendarQueries.ListBlockedDaysQuery, []calendarQueries.BlockedDayDTO]
	BlockedHours sharedApplication.QueryHandler[calendarQueries.GetBlockedHoursQuery, []calendarQueries.BlockedHoursDTO]

	// Bookings
	CreateBooking sharedApplication.CommandHandler[bookingCommands.CreateBookingCommand, *bookingCommands.CreateBookingResult]
	ChangeStatus  sharedApplication.CommandHandler[bookingCommands.ChangeStatusCommand, *bookingCommands.ChangeStatusResult]
	GetBooking    sharedApplication.QueryHandler[bookingQueries.GetBookingQuery, *bookingQueries.BookingDTO]
	ListBookings  sharedApplication.QueryHandler[bookingQueries.ListBookingsQuery, []bookingQueries.BookingDTO]
	ListCredits   sharedApplication.QueryHandler[bookingQueries.ListCreditsQuery, []bookingQueries.CreditDTO]

	// Long-running processes. Any of them may be nil when the binary was
	// started without the backing infrastructure.
	Serve   func(ctx context.Context) error
	Work    func(ctx context.Context) error
	Migrate func(ctx context.Context) (int, error)
	Health  func(ctx context.Context) observability.OverallHealth

	// IssueToken signs an operator token for the admin API.
	IssueToken func(subject string, ttl time.Duration) (string, error)
}

var app *App

// SetApp sets the CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the CLI application instance.
func GetApp() *App {
	return app
}
