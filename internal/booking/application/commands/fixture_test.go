package commands_test

import (
	"context"
	"sync"
	"testing"
	"time"

	availabilityDomain "github.com/felixgeelhaar/spabook/internal/availability/domain"
	availabilityPersistence "github.com/felixgeelhaar/spabook/internal/availability/infrastructure/persistence"
	"github.com/felixgeelhaar/spabook/internal/booking/application/commands"
	"github.com/felixgeelhaar/spabook/internal/booking/domain"
	"github.com/felixgeelhaar/spabook/internal/booking/infrastructure/persistence"
	catalogPersistence "github.com/felixgeelhaar/spabook/internal/catalog/infrastructure/persistence"
	sharedApplication "github.com/felixgeelhaar/spabook/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/spabook/internal/shared/domain"
	"github.com/felixgeelhaar/spabook/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/spabook/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/spabook/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var (
	lima      = time.FixedZone("PET", -5*60*60)
	bookDate  = sharedDomain.MustDate("2025-09-05")
	now       = time.Date(2025, 9, 1, 8, 45, 0, 0, lima)
	massageID = uuid.MustParse(testutil.RelaxingMassageID)
	stonesID  = uuid.MustParse(testutil.HotStonesID)
	reflexID  = uuid.MustParse(testutil.ReflexologyID)
)

// mutableClock lets tests move time between commands.
type mutableClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *mutableClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *mutableClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recordingInvalidator struct {
	mu    sync.Mutex
	dates []sharedDomain.Date
}

func (r *recordingInvalidator) Invalidate(_ context.Context, date sharedDomain.Date) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dates = append(r.dates, date)
}

func (r *recordingInvalidator) Dates() []sharedDomain.Date {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sharedDomain.Date(nil), r.dates...)
}

type bookingFixture struct {
	conn        database.Connection
	repo        *persistence.BookingRepository
	outbox      *outbox.SQLRepository
	uow         *database.TxUnitOfWork
	snapshots   *availabilityPersistence.SnapshotRepository
	clock       *mutableClock
	invalidator *recordingInvalidator
	create      *commands.CreateBookingHandler
	status      *commands.ChangeStatusHandler
}

func newBookingFixture(t *testing.T, policy commands.Policy) *bookingFixture {
	t.Helper()
	conn := testutil.OpenSQLite(t)
	f := &bookingFixture{
		conn:        conn,
		repo:        persistence.NewBookingRepository(conn),
		outbox:      outbox.NewRepository(conn),
		uow:         database.NewUnitOfWork(conn),
		snapshots:   availabilityPersistence.NewSnapshotRepository(conn),
		clock:       &mutableClock{t: now},
		invalidator: &recordingInvalidator{},
	}
	rules := availabilityDomain.Rules{Hours: availabilityDomain.DefaultBusinessHours(), Location: lima}
	f.create = commands.NewCreateBookingHandler(
		f.repo, catalogPersistence.NewServiceRepository(conn), f.snapshots, rules,
		f.outbox, f.uow, f.invalidator, f.clock, policy,
	)
	f.status = commands.NewChangeStatusHandler(f.repo, f.outbox, f.uow, f.invalidator, f.clock, policy, nil, nil)
	return f
}

func bookCmd(service uuid.UUID, start sharedDomain.Clock) commands.CreateBookingCommand {
	return commands.CreateBookingCommand{
		ServiceID: service,
		Date:      bookDate,
		Start:     start,
		Customer:  domain.Customer{Name: "Lucía Quispe", Email: "lucia@example.com", Phone: "+51999888777"},
	}
}

func (f *bookingFixture) routingKeys(t *testing.T) []string {
	t.Helper()
	msgs, err := f.outbox.GetUnpublished(context.Background(), 100)
	require.NoError(t, err)
	keys := make([]string, 0, len(msgs))
	for _, m := range msgs {
		keys = append(keys, m.RoutingKey)
	}
	return keys
}

var _ sharedApplication.Clock = (*mutableClock)(nil)
