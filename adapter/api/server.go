// Package api serves the booking HTTP API.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	availabilityQueries "github.com/felixgeelhaar/spabook/internal/availability/application/queries"
	bookingCommands "github.com/felixgeelhaar/spabook/internal/booking/application/commands"
	bookingQueries "github.com/felixgeelhaar/spabook/internal/booking/application/queries"
	calendarCommands "github.com/felixgeelhaar/spabook/internal/calendar/application/commands"
	calendarQueries "github.com/felixgeelhaar/spabook/internal/calendar/application/queries"
	catalogQueries "github.com/felixgeelhaar/spabook/internal/catalog/application/queries"
	sharedApplication "github.com/felixgeelhaar/spabook/internal/shared/application"
	"github.com/felixgeelhaar/spabook/pkg/observability"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Handlers are the application use cases the API exposes.
type Handlers struct {
	AvailableSlots sharedApplication.QueryHandler[availabilityQueries.AvailableSlotsQuery, availabilityQueries.AvailableSlotsResult]
	ListServices   sharedApplication.QueryHandler[catalogQueries.ListServicesQuery, []catalogQueries.ServiceDTO]

	BlockedDays  sharedApplication.QueryHandler[calendarQueries.ListBlockedDaysQuery, []calendarQueries.BlockedDayDTO]
	BlockedHours sharedApplication.QueryHandler[calendarQueries.GetBlockedHoursQuery, []calendarQueries.BlockedHoursDTO]
	BlockDay     sharedApplication.CommandHandler[calendarCommands.BlockDayCommand, *calendarCommands.BlockDayResult]
	UnblockDay   sharedApplication.VoidHandler[calendarCommands.UnblockDayCommand]
	BlockHours   sharedApplication.CommandHandler[calendarCommands.BlockHoursCommand, *calendarCommands.BlockHoursResult]
	UnblockHours sharedApplication.VoidHandler[calendarCommands.UnblockHoursCommand]

	CreateBooking sharedApplication.CommandHandler[bookingCommands.CreateBookingCommand, *bookingCommands.CreateBookingResult]
	ChangeStatus  sharedApplication.CommandHandler[bookingCommands.ChangeStatusCommand, *bookingCommands.ChangeStatusResult]
	GetBooking    sharedApplication.QueryHandler[bookingQueries.GetBookingQuery, *bookingQueries.BookingDTO]
	ListBookings  sharedApplication.QueryHandler[bookingQueries.ListBookingsQuery, []bookingQueries.BookingDTO]
	ListCredits   sharedApplication.QueryHandler[bookingQueries.ListCreditsQuery, []bookingQueries.CreditDTO]
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
	MaxFormBytes   int64

	// Location is the business timezone used to read dates.
	Location    *time.Location
	AdminAPIKey string
}

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:           "0.0.0.0:8080",
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		RequestTimeout: 10 * time.Second,
		MaxFormBytes:   1 << 20,
		Location:       time.UTC,
	}
}

// Dependencies are the collaborators of the server besides the handlers.
type Dependencies struct {
	Tokens         *TokenManager
	BookingLimiter Limiter
	Health         *observability.HealthRegistry
	Metrics        observability.Metrics
}

// Server is the HTTP API server.
type Server struct {
	cfg       ServerConfig
	handlers  Handlers
	deps      Dependencies
	validator *Validator
	logger    *slog.Logger
	router    chi.Router
	server    *http.Server
}

// NewServer builds the router and the underlying http.Server.
func NewServer(cfg ServerConfig, handlers Handlers, deps Dependencies, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.MaxFormBytes <= 0 {
		cfg.MaxFormBytes = 1 << 20
	}
	if deps.Metrics == nil {
		deps.Metrics = observability.NoopMetrics{}
	}
	if deps.Health == nil {
		deps.Health = observability.NewHealthRegistry()
	}

	s := &Server{
		cfg:       cfg,
		handlers:  handlers,
		deps:      deps,
		validator: NewValidator(),
		logger:    logger,
	}
	s.router = s.routes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      otelhttp.NewHandler(s.router, "spabook.http"),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(requestContext)
	r.Use(accessLog(s.logger, s.deps.Metrics))
	if s.cfg.RequestTimeout > 0 {
		r.Use(chiMiddleware.Timeout(s.cfg.RequestTimeout))
	}

	admin := adminAuth(s.cfg.AdminAPIKey, s.deps.Tokens, s.logger)

	r.Get("/healthz", s.handleLiveness)
	r.Get("/readyz", s.handleReadiness)

	r.Get("/services", s.handleListServices)
	r.Get("/available-slots", s.handleAvailableSlots)

	r.Get("/schedule", s.handleScheduleRead)
	r.With(admin).Post("/schedule", s.handleScheduleWrite)
	r.With(admin).Delete("/schedule", s.handleScheduleDelete)

	r.Route("/bookings", func(r chi.Router) {
		create := http.Handler(http.HandlerFunc(s.handleCreateBooking))
		if s.deps.BookingLimiter != nil {
			create = rateLimit(s.deps.BookingLimiter, s.deps.Metrics, s.logger)(create)
		}
		r.Method(http.MethodPost, "/", create)
		r.Get("/{codigo}", s.handleGetBooking)

		r.Group(func(r chi.Router) {
			r.Use(admin)
			r.Get("/", s.handleListBookings)
			r.Post("/{codigo}/status", s.handleChangeStatus)
		})
	})

	r.With(admin).Get("/credits", s.handleListCredits)
	r.With(admin).Get("/metrics", s.handleMetrics)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, s.logger, &APIError{Status: http.StatusNotFound, Code: "not_found", Message: "ruta no encontrada"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, s.logger, &APIError{Status: http.StatusMethodNotAllowed, Code: "method_not_allowed", Message: "método no permitido"})
	})
	return r
}

// Handler returns the routed handler without the tracing wrapper.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("starting API server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")
	return s.server.Shutdown(ctx)
}

func (s *Server) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	writeData(w, http.StatusOK, map[string]string{"status": "ok"})
}

type snapshotter interface {
	Snapshot() observability.Snapshot
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	m, ok := s.deps.Metrics.(snapshotter)
	if !ok {
		writeData(w, http.StatusOK, observability.Snapshot{})
		return
	}
	writeData(w, http.StatusOK, m.Snapshot())
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	health := s.deps.Health.GetOverallHealth(ctx)
	status := http.StatusOK
	if health.Status == observability.HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, Envelope{Success: status == http.StatusOK, Data: health})
}
