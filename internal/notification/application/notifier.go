package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	bookingDomain "github.com/felixgeelhaar/spabook/internal/booking/domain"
	"github.com/felixgeelhaar/spabook/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/spabook/pkg/observability"
)

// BookingNotifier tells customers about their bookings by email and SMS.
type BookingNotifier struct {
	email   EmailSender
	sms     SMSSender
	metrics observability.Metrics
	logger  *slog.Logger
}

// NewBookingNotifier creates a notifier. Nil senders become no-ops.
func NewBookingNotifier(email EmailSender, sms SMSSender, metrics observability.Metrics, logger *slog.Logger) *BookingNotifier {
	if email == nil {
		email = NoopSender{}
	}
	if sms == nil {
		sms = NoopSender{}
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BookingNotifier{email: email, sms: sms, metrics: metrics, logger: logger}
}

func (n *BookingNotifier) EventTypes() []string {
	return []string{
		bookingDomain.RoutingKeyBookingCreated,
		bookingDomain.RoutingKeyBookingCancelled,
		bookingDomain.RoutingKeyCreditIssued,
	}
}

// Handle renders the event and sends it on every channel the customer
// left a contact for. Channel failures are joined into one error.
func (n *BookingNotifier) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	msg, err := render(event)
	if err != nil {
		return err
	}
	if msg == nil {
		return nil
	}

	var errs []error
	if msg.email != "" {
		errs = append(errs, n.send(ctx, "email", event.RoutingKey, func() error {
			return n.email.SendEmail(ctx, Email{
				ToAddress: msg.email,
				ToName:    msg.name,
				Subject:   msg.subject,
				PlainText: msg.body,
				HTML:      "<p>" + strings.ReplaceAll(msg.body, "\n", "<br>") + "</p>",
			})
		}))
	}
	if msg.phone != "" {
		errs = append(errs, n.send(ctx, "sms", event.RoutingKey, func() error {
			return n.sms.SendSMS(ctx, SMS{To: msg.phone, Body: msg.subject + ". " + msg.body})
		}))
	}
	return errors.Join(errs...)
}

func (n *BookingNotifier) send(ctx context.Context, channel, routingKey string, fn func() error) error {
	tags := []observability.Tag{observability.T("channel", channel), observability.T("event", routingKey)}
	if err := fn(); err != nil {
		n.metrics.Counter(observability.MetricNotificationsFailed, 1, tags...)
		n.logger.ErrorContext(ctx, "notification failed", "channel", channel, "routing_key", routingKey, "error", err)
		return fmt.Errorf("%s: %w", channel, err)
	}
	n.metrics.Counter(observability.MetricNotificationsSent, 1, tags...)
	return nil
}

type message struct {
	name    string
	email   string
	phone   string
	subject string
	body    string
}

func render(event *eventbus.ConsumedEvent) (*message, error) {
	switch event.RoutingKey {
	case bookingDomain.RoutingKeyBookingCreated:
		var e struct {
			Code          string    `json:"code"`
			Date          string    `json:"date"`
			Start         string    `json:"start"`
			Status        string    `json:"status"`
			CustomerName  string    `json:"customer_name"`
			CustomerEmail string    `json:"customer_email"`
			CustomerPhone string    `json:"customer_phone"`
			StartsAt      time.Time `json:"starts_at"`
		}
		if err := json.Unmarshal(event.Payload, &e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", event.RoutingKey, err)
		}
		subject := "Reserva confirmada " + e.Code
		if e.Status == string(bookingDomain.StatusPending) {
			subject = "Reserva pendiente " + e.Code
		}
		return &message{
			name:    e.CustomerName,
			email:   e.CustomerEmail,
			phone:   e.CustomerPhone,
			subject: subject,
			body:    fmt.Sprintf("Hola %s, tu cita es el %s a las %s.\nCódigo: %s", e.CustomerName, e.Date, e.Start, e.Code),
		}, nil

	case bookingDomain.RoutingKeyBookingCancelled:
		var e struct {
			Code          string `json:"code"`
			Date          string `json:"date"`
			Start         string `json:"start"`
			Reason        string `json:"reason"`
			CustomerName  string `json:"customer_name"`
			CustomerEmail string `json:"customer_email"`
			CustomerPhone string `json:"customer_phone"`
		}
		if err := json.Unmarshal(event.Payload, &e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", event.RoutingKey, err)
		}
		body := fmt.Sprintf("Hola %s, tu cita del %s a las %s fue cancelada.", e.CustomerName, e.Date, e.Start)
		if e.Reason == bookingDomain.ReasonExpired {
			body = fmt.Sprintf("Hola %s, tu reserva del %s a las %s expiró sin confirmarse.", e.CustomerName, e.Date, e.Start)
		}
		return &message{
			name:    e.CustomerName,
			email:   e.CustomerEmail,
			phone:   e.CustomerPhone,
			subject: "Reserva cancelada " + e.Code,
			body:    body,
		}, nil

	case bookingDomain.RoutingKeyCreditIssued:
		var e struct {
			Code        string    `json:"code"`
			Email       string    `json:"email"`
			Phone       string    `json:"phone"`
			AmountCents int64     `json:"amount_cents"`
			Currency    string    `json:"currency"`
			ExpiresAt   time.Time `json:"expires_at"`
		}
		if err := json.Unmarshal(event.Payload, &e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", event.RoutingKey, err)
		}
		return &message{
			email:   e.Email,
			phone:   e.Phone,
			subject: "Crédito a tu favor",
			body: fmt.Sprintf("Por la reserva %s tienes un crédito de %s %d.%02d válido hasta el %s.",
				e.Code, e.Currency, e.AmountCents/100, e.AmountCents%100, e.ExpiresAt.Format("2006-01-02")),
		}, nil
	}
	return nil, nil
}

var _ eventbus.EventConsumer = (*BookingNotifier)(nil)
