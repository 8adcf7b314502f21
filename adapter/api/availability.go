package api

import (
	"net/http"

	availabilityQueries "github.com/felixgeelhaar/spabook/internal/availability/application/queries"
	availabilityDomain "github.com/felixgeelhaar/spabook/internal/availability/domain"
	catalogQueries "github.com/felixgeelhaar/spabook/internal/catalog/application/queries"
	sharedDomain "github.com/felixgeelhaar/spabook/internal/shared/domain"
	"github.com/google/uuid"
)

// Values of the estado field on availability responses.
const (
	EstadoDisponible   = "disponible"
	EstadoDiaBloqueado = "dia_bloqueado"
	EstadoSinHorarios  = "sin_horarios"
)

type availableSlotsRequest struct {
	Date      string `json:"fecha" validate:"required,date"`
	ServiceID string `json:"servicio_id" validate:"required,uuid"`
}

// slotView is one entry of GET /available-slots.
type slotView struct {
	Start     string `json:"hora"`
	End       string `json:"hora_fin"`
	Available bool   `json:"disponible"`
	Reason    string `json:"motivo,omitempty"`
}

func estadoFor(outcome availabilityDomain.Outcome) string {
	switch outcome {
	case availabilityDomain.OutcomeDayBlocked:
		return EstadoDiaBloqueado
	case availabilityDomain.OutcomeNoSlotsRemaining:
		return EstadoSinHorarios
	default:
		return EstadoDisponible
	}
}

func (s *Server) handleAvailableSlots(w http.ResponseWriter, r *http.Request) {
	req := availableSlotsRequest{
		Date:      r.URL.Query().Get("fecha"),
		ServiceID: r.URL.Query().Get("servicio_id"),
	}
	if err := s.validator.Struct(req); err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	result, err := s.handlers.AvailableSlots.Handle(r.Context(), availabilityQueries.AvailableSlotsQuery{
		Date:      sharedDomain.MustDate(req.Date),
		ServiceID: uuid.MustParse(req.ServiceID),
	})
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	slots := make([]slotView, 0, len(result.Slots))
	for _, slot := range result.Slots {
		slots = append(slots, slotView{
			Start:     slot.Start,
			End:       slot.End,
			Available: slot.Available,
			Reason:    string(slot.Reason),
		})
	}
	writeJSON(w, http.StatusOK, Envelope{
		Success: true,
		Data:    slots,
		Estado:  estadoFor(result.Outcome),
	})
}

func (s *Server) handleListServices(w http.ResponseWriter, r *http.Request) {
	services, err := s.handlers.ListServices.Handle(r.Context(), catalogQueries.ListServicesQuery{})
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeData(w, http.StatusOK, services)
}
