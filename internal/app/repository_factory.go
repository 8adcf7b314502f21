package app

import (
	availabilityPersistence "github.com/felixgeelhaar/spabook/internal/availability/infrastructure/persistence"
	bookingPersistence "github.com/felixgeelhaar/spabook/internal/booking/infrastructure/persistence"
	calendarPersistence "github.com/felixgeelhaar/spabook/internal/calendar/infrastructure/persistence"
	catalogPersistence "github.com/felixgeelhaar/spabook/internal/catalog/infrastructure/persistence"
	"github.com/felixgeelhaar/spabook/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/spabook/internal/shared/infrastructure/outbox"
)

// RepositoryFactory creates repositories on a shared connection. The
// repositories speak the dialect of the connection's driver.
type RepositoryFactory struct {
	conn database.Connection
}

// NewRepositoryFactory creates a new repository factory.
func NewRepositoryFactory(conn database.Connection) *RepositoryFactory {
	return &RepositoryFactory{conn: conn}
}

// Driver reports the backend the repositories run on.
func (f *RepositoryFactory) Driver() database.Driver {
	return f.conn.Driver()
}

func (f *RepositoryFactory) Calendar() *calendarPersistence.CalendarRepository {
	return calendarPersistence.NewCalendarRepository(f.conn)
}

func (f *RepositoryFactory) Services() *catalogPersistence.ServiceRepository {
	return catalogPersistence.NewServiceRepository(f.conn)
}

func (f *RepositoryFactory) Bookings() *bookingPersistence.BookingRepository {
	return bookingPersistence.NewBookingRepository(f.conn)
}

// Snapshots reads day snapshots straight from the database.
func (f *RepositoryFactory) Snapshots() *availabilityPersistence.SnapshotRepository {
	return availabilityPersistence.NewSnapshotRepository(f.conn)
}

func (f *RepositoryFactory) Outbox() *outbox.SQLRepository {
	return outbox.NewRepository(f.conn)
}

// UnitOfWork creates a unit of work on the factory's connection.
func (f *RepositoryFactory) UnitOfWork() *database.TxUnitOfWork {
	return database.NewUnitOfWork(f.conn)
}
