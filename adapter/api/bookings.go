package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	bookingCommands "github.com/felixgeelhaar/spabook/internal/booking/application/commands"
	bookingQueries "github.com/felixgeelhaar/spabook/internal/booking/application/queries"
	bookingDomain "github.com/felixgeelhaar/spabook/internal/booking/domain"
	sharedDomain "github.com/felixgeelhaar/spabook/internal/shared/domain"
	"github.com/felixgeelhaar/spabook/pkg/observability"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Idempotency headers of POST /bookings.
const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderReplayed       = "Idempotent-Replayed"
)

// bookingForm is the multipart body of POST /bookings.
type bookingForm struct {
	ServiceID   string `form:"servicio_id" validate:"required,uuid"`
	Date        string `form:"fecha" validate:"required,date"`
	Start       string `form:"hora" validate:"required,clock"`
	Name        string `form:"nombre" validate:"required,max=120"`
	Email       string `form:"email" validate:"omitempty,email,max=254"`
	Phone       string `form:"telefono" validate:"omitempty,phone"`
	Notes       string `form:"notas" validate:"max=1000"`
	TherapistID string `form:"terapeuta_id" validate:"omitempty,uuid"`
	Key         string `form:"-" validate:"max=200"`
}

type changeStatusRequest struct {
	Status string `json:"estado" validate:"required"`
	Reason string `json:"motivo" validate:"max=200"`
}

// statusAliases accepts the Spanish names used by the front desk.
var statusAliases = map[string]bookingDomain.Status{
	"confirmada":    bookingDomain.StatusConfirmed,
	"completada":    bookingDomain.StatusCompleted,
	"cancelada":     bookingDomain.StatusCancelled,
	"no_asistio":    bookingDomain.StatusNoShow,
	"no_presentado": bookingDomain.StatusNoShow,
}

func parseStatus(s string) (bookingDomain.Status, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if status, ok := statusAliases[s]; ok {
		return status, nil
	}
	return bookingDomain.ParseStatus(s)
}

// parseForm accepts multipart and urlencoded bodies.
func (s *Server) parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxFormBytes)
	err := r.ParseMultipartForm(s.cfg.MaxFormBytes)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	return err
}

func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(w, r); err != nil {
		writeError(w, r, s.logger, badRequest("formulario inválido", nil))
		return
	}
	form := bookingForm{
		ServiceID:   strings.TrimSpace(r.FormValue("servicio_id")),
		Date:        strings.TrimSpace(r.FormValue("fecha")),
		Start:       strings.TrimSpace(r.FormValue("hora")),
		Name:        strings.TrimSpace(r.FormValue("nombre")),
		Email:       strings.TrimSpace(r.FormValue("email")),
		Phone:       strings.TrimSpace(r.FormValue("telefono")),
		Notes:       strings.TrimSpace(r.FormValue("notas")),
		TherapistID: strings.TrimSpace(r.FormValue("terapeuta_id")),
		Key:         strings.TrimSpace(r.Header.Get(HeaderIdempotencyKey)),
	}
	if err := s.validator.Struct(form); err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	start, _ := sharedDomain.ParseClock(form.Start)
	cmd := bookingCommands.CreateBookingCommand{
		ServiceID: uuid.MustParse(form.ServiceID),
		Date:      sharedDomain.MustDate(form.Date),
		Start:     start,
		Customer: bookingDomain.Customer{
			Name:  form.Name,
			Email: form.Email,
			Phone: form.Phone,
			Notes: form.Notes,
		},
		IdempotencyKey: form.Key,
	}
	if form.TherapistID != "" {
		id := uuid.MustParse(form.TherapistID)
		cmd.TherapistID = &id
	}

	res, err := s.handlers.CreateBooking.Handle(r.Context(), cmd)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
		w.Header().Set(HeaderReplayed, "true")
	}
	writeData(w, status, map[string]any{
		"codigo":     res.Code,
		"estado":     res.Status,
		"reserva_id": res.BookingID,
	})
}

func (s *Server) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := s.handlers.GetBooking.Handle(r.Context(), bookingQueries.GetBookingQuery{
		Code: chi.URLParam(r, "codigo"),
	})
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeData(w, http.StatusOK, booking)
}

func (s *Server) handleListBookings(w http.ResponseWriter, r *http.Request) {
	date, ok := s.dateParam(w, r, "fecha")
	if !ok {
		return
	}
	bookings, err := s.handlers.ListBookings.Handle(r.Context(), bookingQueries.ListBookingsQuery{Date: date})
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeData(w, http.StatusOK, bookings)
}

func (s *Server) handleChangeStatus(w http.ResponseWriter, r *http.Request) {
	var req changeStatusRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	target, err := parseStatus(req.Status)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	res, err := s.handlers.ChangeStatus.Handle(r.Context(), bookingCommands.ChangeStatusCommand{
		Code:   strings.ToUpper(chi.URLParam(r, "codigo")),
		Target: target,
		Reason: req.Reason,
		Actor:  observability.ActorFromContext(r.Context()),
	})
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	body := map[string]any{"codigo": res.Code, "estado": res.Status}
	if res.Credit != nil {
		body["credito"] = bookingQueries.ToCreditDTO(res.Credit, time.Now())
	}
	writeData(w, http.StatusOK, body)
}

func (s *Server) handleListCredits(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		writeError(w, r, s.logger, badRequest("email requerido", map[string]string{"email": "required"}))
		return
	}
	credits, err := s.handlers.ListCredits.Handle(r.Context(), bookingQueries.ListCreditsQuery{Email: email})
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeData(w, http.StatusOK, credits)
}
