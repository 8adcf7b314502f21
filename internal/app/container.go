package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	availabilityQueries "github.com/felixgeelhaar/spabook/internal/availability/application/queries"
	availabilityDomain "github.com/felixgeelhaar/spabook/internal/availability/domain"
	availabilityPersistence "github.com/felixgeelhaar/spabook/internal/availability/infrastructure/persistence"
	bookingCommands "github.com/felixgeelhaar/spabook/internal/booking/application/commands"
	bookingQueries "github.com/felixgeelhaar/spabook/internal/booking/application/queries"
	bookingPersistence "github.com/felixgeelhaar/spabook/internal/booking/infrastructure/persistence"
	calendarCommands "github.com/felixgeelhaar/spabook/internal/calendar/application/commands"
	calendarQueries "github.com/felixgeelhaar/spabook/internal/calendar/application/queries"
	calendarPersistence "github.com/felixgeelhaar/spabook/internal/calendar/infrastructure/persistence"
	catalogQueries "github.com/felixgeelhaar/spabook/internal/catalog/application/queries"
	catalogPersistence "github.com/felixgeelhaar/spabook/internal/catalog/infrastructure/persistence"
	"github.com/felixgeelhaar/spabook/internal/jobs"
	notificationApp "github.com/felixgeelhaar/spabook/internal/notification/application"
	notificationInfra "github.com/felixgeelhaar/spabook/internal/notification/infrastructure"
	sharedApplication "github.com/felixgeelhaar/spabook/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/spabook/internal/shared/domain"
	"github.com/felixgeelhaar/spabook/internal/shared/infrastructure/cache"
	"github.com/felixgeelhaar/spabook/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/spabook/internal/shared/infrastructure/database/postgres" // Register PostgreSQL driver
	_ "github.com/felixgeelhaar/spabook/internal/shared/infrastructure/database/sqlite"   // Register SQLite driver
	"github.com/felixgeelhaar/spabook/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/spabook/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/spabook/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/spabook/pkg/config"
	"github.com/felixgeelhaar/spabook/pkg/observability"
	"github.com/redis/go-redis/v9"
)

// lockWait bounds how long a booking waits for the per-date lock.
const lockWait = 2 * time.Second

// Container holds all application dependencies.
type Container struct {
	Config   *config.Config
	Logger   *slog.Logger
	Location *time.Location
	Clock    sharedApplication.Clock
	Metrics  *observability.InMemoryMetrics
	Health   *observability.HealthRegistry

	// Database
	DBConn     database.Connection
	UnitOfWork sharedApplication.UnitOfWork

	// Redis; nil when REDIS_URL is unset or unreachable in development.
	RedisClient *redis.Client
	Cache       cache.Cache
	Locker      cache.Locker

	// Repositories
	CalendarRepo    *calendarPersistence.CalendarRepository
	ServiceRepo     *catalogPersistence.ServiceRepository
	BookingRepo     *bookingPersistence.BookingRepository
	SnapshotRepo    *availabilityPersistence.SnapshotRepository
	CachedSnapshots *availabilityPersistence.CachedSnapshotRepository
	OutboxRepo      *outbox.SQLRepository

	// Rules
	Rules  availabilityDomain.Rules
	Policy bookingCommands.Policy

	// Events
	EventBus        *eventbus.InProcessEventBus
	EventPublisher  eventbus.Publisher
	OutboxProcessor *outbox.Processor
	Notifier        *notificationApp.BookingNotifier

	// Calendar handlers
	BlockDayHandler        *calendarCommands.BlockDayHandler
	UnblockDayHandler      *calendarCommands.UnblockDayHandler
	BlockHoursHandler      *calendarCommands.BlockHoursHandler
	UnblockHoursHandler    *calendarCommands.UnblockHoursHandler
	ListBlockedDaysHandler *calendarQueries.ListBlockedDaysHandler
	BlockedHoursHandler    *calendarQueries.GetBlockedHoursHandler
	IsDayBlockedHandler    *calendarQueries.IsDayBlockedHandler

	// Catalog and availability handlers
	ListServicesHandler   *catalogQueries.ListServicesHandler
	GetServiceHandler     *catalogQueries.GetServiceHandler
	AvailableSlotsHandler *availabilityQueries.AvailableSlotsHandler

	// Booking handlers
	CreateBookingHandler *bookingCommands.CreateBookingHandler
	ChangeStatusHandler  *bookingCommands.ChangeStatusHandler
	ExpirePendingHandler *bookingCommands.ExpirePendingHandler
	GetBookingHandler    *bookingQueries.GetBookingHandler
	ListBookingsHandler  *bookingQueries.ListBookingsHandler
	ListCreditsHandler   *bookingQueries.ListCreditsHandler

	shutdownTracing func(context.Context) error
	listener        *outbox.Listener
}

// NewContainer creates and wires all dependencies.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}

	c := &Container{
		Config:   cfg,
		Logger:   logger,
		Location: loc,
		Clock:    sharedApplication.SystemClock{},
		Metrics:  observability.NewInMemoryMetrics(),
		Health:   observability.NewHealthRegistry(),
	}

	c.shutdownTracing, err = observability.SetupTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.OTelEnabled,
		ServiceName: "spabook",
		Endpoint:    cfg.OTelEndpoint,
		SampleRatio: cfg.OTelSampleRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("setup tracing: %w", err)
	}

	if err := c.initDatabase(ctx); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.initRedis(ctx); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.initEvents(); err != nil {
		c.Close()
		return nil, err
	}
	c.initHandlers()
	c.initHealth()

	return c, nil
}

func (c *Container) initDatabase(ctx context.Context) error {
	cfg := c.Config
	dbCfg := database.Config{
		Driver:      database.Driver(cfg.DatabaseDriver),
		URL:         cfg.DatabaseURL,
		SQLitePath:  cfg.SQLitePath,
		MaxConns:    cfg.DatabaseMaxConns,
		BusyTimeout: 5 * time.Second,
	}
	if dbCfg.Driver == "" {
		dbCfg.Driver = database.DetectDriver(cfg.DatabaseURL)
	}
	if dbCfg.Driver == database.DriverSQLite && dbCfg.SQLitePath == "" && cfg.DatabaseURL == "" {
		dbCfg.SQLitePath = database.DefaultSQLitePath()
		if err := database.EnsureDirectory(dbCfg.SQLitePath); err != nil {
			return fmt.Errorf("prepare sqlite directory: %w", err)
		}
	}

	conn, err := database.NewConnection(ctx, dbCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	c.DBConn = conn
	c.Logger.Info("connected to database", "driver", conn.Driver().String())

	// SQLite installs are single node; keep them zero-config.
	if conn.Driver() == database.DriverSQLite {
		applied, err := migrations.Run(ctx, conn, c.Logger)
		if err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
		if applied > 0 {
			c.Logger.Info("applied migrations", "count", applied)
		}
	}

	repos := NewRepositoryFactory(conn)
	c.UnitOfWork = repos.UnitOfWork()
	c.CalendarRepo = repos.Calendar()
	c.ServiceRepo = repos.Services()
	c.BookingRepo = repos.Bookings()
	c.SnapshotRepo = repos.Snapshots()
	c.OutboxRepo = repos.Outbox()
	return nil
}

func (c *Container) initRedis(ctx context.Context) error {
	c.Cache = cache.NoopCache{}
	c.Locker = cache.NoopLocker{}

	if c.Config.RedisURL != "" {
		client, err := cache.NewRedisClient(ctx, c.Config.RedisURL)
		if err != nil {
			if !c.Config.IsDevelopment() {
				return fmt.Errorf("failed to connect to Redis: %w", err)
			}
			c.Logger.Warn("Redis not available, availability cache and slot lock disabled", "error", err)
		} else {
			c.RedisClient = client
			c.Cache = cache.NewRedisCache(client)
			c.Locker = cache.NewRedisLocker(client, c.Config.SlotLockTTL, lockWait)
			c.Logger.Info("connected to Redis")
		}
	}

	c.CachedSnapshots = availabilityPersistence.NewCachedSnapshotRepository(
		c.SnapshotRepo, c.Cache, c.Config.AvailabilityCacheTTL, c.Metrics, c.Logger,
	)
	return nil
}

func (c *Container) initEvents() error {
	cfg := c.Config
	c.EventBus = eventbus.NewInProcessEventBus(c.Logger)
	c.EventBus.Registry().WithMetrics(c.Metrics)

	var email notificationApp.EmailSender
	if cfg.EmailEnabled() {
		email = notificationInfra.NewSendGridSender(cfg.SendGridAPIKey, cfg.SendGridFromEmail, cfg.SendGridFromName)
	}
	var sms notificationApp.SMSSender
	if cfg.SMSEnabled() {
		sms = notificationInfra.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber)
	}
	c.Notifier = notificationApp.NewBookingNotifier(email, sms, c.Metrics, c.Logger)

	var publisher eventbus.Publisher
	switch cfg.EventBus {
	case config.EventBusRabbitMQ:
		p, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, "", c.Logger)
		if err != nil {
			if !cfg.IsDevelopment() {
				return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
			}
			c.Logger.Warn("RabbitMQ not available, using noop publisher", "error", err)
			publisher = eventbus.NewNoopPublisher(c.Logger)
		} else {
			publisher = p
		}
	case config.EventBusKafka:
		p, err := eventbus.NewKafkaPublisher(cfg.KafkaBrokers, c.Logger)
		if err != nil {
			if !cfg.IsDevelopment() {
				return fmt.Errorf("failed to create Kafka publisher: %w", err)
			}
			c.Logger.Warn("Kafka not available, using noop publisher", "error", err)
			publisher = eventbus.NewNoopPublisher(c.Logger)
		} else {
			publisher = p
		}
	default:
		// Without a broker the notifier runs next to the outbox processor.
		c.EventBus.RegisterConsumer(c.Notifier)
		publisher = c.EventBus
	}

	if healthy, ok := publisher.(eventbus.HealthReporter); ok {
		c.Health.Register("broker", observability.BrokerHealthChecker(healthy.Healthy))
	}

	breakerCfg := eventbus.DefaultBreakerConfig()
	breakerCfg.OnStateChange = func(state string) {
		c.Metrics.Counter(observability.MetricBreakerState, 1, observability.T("state", state))
	}
	c.EventPublisher = eventbus.NewBreakerPublisher(publisher, breakerCfg, c.Logger)

	c.OutboxProcessor = outbox.NewProcessor(c.OutboxRepo, c.EventPublisher, outbox.ProcessorConfig{
		PollInterval:     cfg.OutboxPollInterval,
		BatchSize:        cfg.OutboxBatchSize,
		MaxRetries:       cfg.OutboxMaxRetries,
		RetryBackoffBase: time.Second,
		RetryBackoffMax:  time.Minute,
	}, c.Logger).WithMetrics(c.Metrics)
	return nil
}

func (c *Container) initHandlers() {
	cfg := c.Config
	c.Rules = availabilityDomain.Rules{
		Hours: availabilityDomain.BusinessHours{
			Open:     sharedDomain.Clock(cfg.BusinessOpen),
			Close:    sharedDomain.Clock(cfg.BusinessClose),
			Step:     cfg.SlotStep,
			LeadTime: cfg.LeadTime,
		},
		Location: c.Location,
	}
	c.Policy = bookingCommands.Policy{
		AutoConfirm:          cfg.BookingAutoConfirm,
		PendingTTL:           cfg.BookingPendingTTL,
		CreditValidityMonths: cfg.CreditValidityMonths,
	}
	inv := c.CachedSnapshots

	c.BlockDayHandler = calendarCommands.NewBlockDayHandler(c.CalendarRepo, c.OutboxRepo, c.UnitOfWork, inv, c.Clock)
	c.UnblockDayHandler = calendarCommands.NewUnblockDayHandler(c.CalendarRepo, c.OutboxRepo, c.UnitOfWork, inv, c.Clock)
	c.BlockHoursHandler = calendarCommands.NewBlockHoursHandler(c.CalendarRepo, c.OutboxRepo, c.UnitOfWork, inv, c.Clock)
	c.UnblockHoursHandler = calendarCommands.NewUnblockHoursHandler(c.CalendarRepo, c.OutboxRepo, c.UnitOfWork, inv, c.Clock)
	c.ListBlockedDaysHandler = calendarQueries.NewListBlockedDaysHandler(c.CalendarRepo)
	c.BlockedHoursHandler = calendarQueries.NewGetBlockedHoursHandler(c.CalendarRepo)
	c.IsDayBlockedHandler = calendarQueries.NewIsDayBlockedHandler(c.CalendarRepo)

	c.ListServicesHandler = catalogQueries.NewListServicesHandler(c.ServiceRepo)
	c.GetServiceHandler = catalogQueries.NewGetServiceHandler(c.ServiceRepo)
	c.AvailableSlotsHandler = availabilityQueries.NewAvailableSlotsHandler(
		c.CachedSnapshots, c.ServiceRepo, c.Rules, c.Clock, c.Metrics,
	)

	c.CreateBookingHandler = bookingCommands.NewCreateBookingHandler(
		c.BookingRepo, c.ServiceRepo, c.SnapshotRepo, c.Rules,
		c.OutboxRepo, c.UnitOfWork, inv, c.Clock, c.Policy,
	).WithLocker(c.Locker).WithMetrics(c.Metrics).WithLogger(c.Logger)
	c.ChangeStatusHandler = bookingCommands.NewChangeStatusHandler(
		c.BookingRepo, c.OutboxRepo, c.UnitOfWork, inv, c.Clock, c.Policy, c.Metrics, c.Logger,
	)
	c.ExpirePendingHandler = bookingCommands.NewExpirePendingHandler(
		c.BookingRepo, c.OutboxRepo, c.UnitOfWork, inv, c.Clock, 0, c.Metrics, c.Logger,
	)
	c.GetBookingHandler = bookingQueries.NewGetBookingHandler(c.BookingRepo)
	c.ListBookingsHandler = bookingQueries.NewListBookingsHandler(c.BookingRepo)
	c.ListCreditsHandler = bookingQueries.NewListCreditsHandler(c.BookingRepo, c.Clock)
}

func (c *Container) initHealth() {
	c.Health.Register("database", observability.DatabaseHealthChecker(c.DBConn.Ping))
	if c.RedisClient != nil {
		client := c.RedisClient
		c.Health.Register("redis", observability.RedisHealthChecker(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}))
	}
}

// StartOutbox starts the outbox processor. On PostgreSQL a LISTEN
// connection wakes it as soon as a transaction commits new messages.
func (c *Container) StartOutbox(ctx context.Context) error {
	if err := c.OutboxProcessor.Start(ctx); err != nil {
		return fmt.Errorf("start outbox processor: %w", err)
	}
	c.Logger.Info("outbox processor started", "bus", c.Config.EventBus)

	if c.DBConn.Driver() != database.DriverPostgres {
		return nil
	}
	listener, err := outbox.NewListener(c.Config.DatabaseURL, c.OutboxProcessor, c.Logger)
	if err != nil {
		c.Logger.Warn("outbox listener unavailable, relying on polling", "error", err)
		return nil
	}
	c.listener = listener
	go listener.Run(ctx)
	return nil
}

// Scheduler builds the maintenance job scheduler.
func (c *Container) Scheduler() (*jobs.Scheduler, error) {
	s := jobs.NewScheduler(c.Location, c.Logger).WithMetrics(c.Metrics)
	if err := s.Add(jobs.PendingSweeper(c.Config.SweeperSchedule, c.ExpirePendingHandler, c.Logger)); err != nil {
		return nil, err
	}
	if err := s.Add(jobs.OutboxCleanup(c.Config.OutboxCleanupSchedule, c.Config.OutboxRetentionDays, c.OutboxRepo, c.Logger)); err != nil {
		return nil, err
	}
	return s, nil
}

// Close cleans up all resources.
func (c *Container) Close() {
	if c.OutboxProcessor != nil {
		c.OutboxProcessor.Stop()
	}

	if c.listener != nil {
		if err := c.listener.Close(); err != nil {
			c.Logger.Warn("error closing outbox listener", "error", err)
		}
	}

	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.EventBus != nil {
		_ = c.EventBus.Close()
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", "error", err)
		} else {
			c.Logger.Info("Redis connection closed")
		}
	}

	if c.DBConn != nil {
		if err := c.DBConn.Close(); err != nil {
			c.Logger.Warn("error closing database connection", "error", err)
		} else {
			c.Logger.Info("database connection closed", "driver", c.DBConn.Driver().String())
		}
	}

	if c.shutdownTracing != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.shutdownTracing(ctx); err != nil {
			c.Logger.Warn("error flushing traces", "error", err)
		}
	}
}
