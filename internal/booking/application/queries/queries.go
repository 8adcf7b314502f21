package queries

import (
	"context"
	"strings"
	"time"

	"github.com/felixgeelhaar/spabook/internal/booking/domain"
	sharedApplication "github.com/felixgeelhaar/spabook/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/spabook/internal/shared/domain"
	"github.com/google/uuid"
)

// BookingDTO is the read model of a booking.
type BookingDTO struct {
	ID           uuid.UUID         `json:"id"`
	Code         string            `json:"codigo"`
	ServiceID    uuid.UUID         `json:"servicio_id"`
	TherapistID  *uuid.UUID        `json:"terapeuta_id,omitempty"`
	Date         sharedDomain.Date `json:"fecha"`
	Start        string            `json:"hora_inicio"`
	End          string            `json:"hora_fin"`
	Status       domain.Status     `json:"estado"`
	Name         string            `json:"nombre"`
	Email        string            `json:"email,omitempty"`
	Phone        string            `json:"telefono,omitempty"`
	Notes        string            `json:"notas,omitempty"`
	PriceCents   int64             `json:"precio"`
	Currency     string            `json:"moneda"`
	CancelReason string            `json:"motivo_cancelacion,omitempty"`
	ExpiresAt    *time.Time        `json:"expira_en,omitempty"`
	CreatedAt    time.Time         `json:"creado_en"`
}

// ToBookingDTO maps a booking onto its read model.
func ToBookingDTO(b *domain.Booking) BookingDTO {
	c := b.Customer()
	return BookingDTO{
		ID:           b.ID(),
		Code:         b.Code(),
		ServiceID:    b.ServiceID(),
		TherapistID:  b.TherapistID(),
		Date:         b.Date(),
		Start:        b.Start().String(),
		End:          b.End().String(),
		Status:       b.Status(),
		Name:         c.Name,
		Email:        c.Email,
		Phone:        c.Phone,
		Notes:        c.Notes,
		PriceCents:   b.Price().Amount(),
		Currency:     b.Price().Currency(),
		CancelReason: b.CancelReason(),
		ExpiresAt:    b.ExpiresAt(),
		CreatedAt:    b.CreatedAt(),
	}
}

// CreditDTO is the read model of a credit.
type CreditDTO struct {
	ID          uuid.UUID  `json:"id"`
	BookingID   uuid.UUID  `json:"reserva_id"`
	Email       string     `json:"email,omitempty"`
	AmountCents int64      `json:"monto"`
	Currency    string     `json:"moneda"`
	IssuedAt    time.Time  `json:"emitido_en"`
	ExpiresAt   time.Time  `json:"vence_en"`
	RedeemedAt  *time.Time `json:"canjeado_en,omitempty"`
	Usable      bool       `json:"vigente"`
}

// ToCreditDTO maps a credit onto its read model as of now.
func ToCreditDTO(c *domain.Credit, now time.Time) CreditDTO {
	return CreditDTO{
		ID:          c.ID(),
		BookingID:   c.BookingID(),
		Email:       c.Email(),
		AmountCents: c.Amount().Amount(),
		Currency:    c.Amount().Currency(),
		IssuedAt:    c.IssuedAt(),
		ExpiresAt:   c.ExpiresAt(),
		RedeemedAt:  c.RedeemedAt(),
		Usable:      c.Usable(now),
	}
}

// GetBookingQuery loads a booking by code.
type GetBookingQuery struct {
	Code string
}

// GetBookingHandler handles GetBookingQuery.
type GetBookingHandler struct {
	repo domain.Repository
}

func NewGetBookingHandler(repo domain.Repository) *GetBookingHandler {
	return &GetBookingHandler{repo: repo}
}

func (h *GetBookingHandler) Handle(ctx context.Context, query GetBookingQuery) (*BookingDTO, error) {
	code := strings.ToUpper(strings.TrimSpace(query.Code))
	if !domain.ValidCode(code) {
		return nil, domain.ErrBookingNotFound
	}
	b, err := h.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, domain.ErrBookingNotFound
	}
	dto := ToBookingDTO(b)
	return &dto, nil
}

// ListBookingsQuery lists every booking of a date, cancelled ones included.
type ListBookingsQuery struct {
	Date sharedDomain.Date
}

// ListBookingsHandler handles ListBookingsQuery.
type ListBookingsHandler struct {
	repo domain.Repository
}

func NewListBookingsHandler(repo domain.Repository) *ListBookingsHandler {
	return &ListBookingsHandler{repo: repo}
}

func (h *ListBookingsHandler) Handle(ctx context.Context, query ListBookingsQuery) ([]BookingDTO, error) {
	bookings, err := h.repo.ListByDate(ctx, query.Date)
	if err != nil {
		return nil, err
	}
	dtos := make([]BookingDTO, 0, len(bookings))
	for _, b := range bookings {
		dtos = append(dtos, ToBookingDTO(b))
	}
	return dtos, nil
}

// ListCreditsQuery lists the credits issued to an email.
type ListCreditsQuery struct {
	Email string
}

// ListCreditsHandler handles ListCreditsQuery.
type ListCreditsHandler struct {
	repo  domain.Repository
	clock sharedApplication.Clock
}

func NewListCreditsHandler(repo domain.Repository, clock sharedApplication.Clock) *ListCreditsHandler {
	return &ListCreditsHandler{repo: repo, clock: clock}
}

func (h *ListCreditsHandler) Handle(ctx context.Context, query ListCreditsQuery) ([]CreditDTO, error) {
	credits, err := h.repo.ListCreditsByEmail(ctx, strings.ToLower(strings.TrimSpace(query.Email)))
	if err != nil {
		return nil, err
	}
	now := h.clock.Now()
	dtos := make([]CreditDTO, 0, len(credits))
	for _, c := range credits {
		dtos = append(dtos, ToCreditDTO(c, now))
	}
	return dtos, nil
}
