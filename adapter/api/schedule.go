package api

import (
	"encoding/json"
	"net/http"

	calendarCommands "github.com/felixgeelhaar/spabook/internal/calendar/application/commands"
	calendarQueries "github.com/felixgeelhaar/spabook/internal/calendar/application/queries"
	sharedDomain "github.com/felixgeelhaar/spabook/internal/shared/domain"
	"github.com/felixgeelhaar/spabook/pkg/observability"
	"github.com/google/uuid"
)

// Schedule actions selected with ?action=.
const (
	actionBlockedDays  = "blocked-days"
	actionBlockedHours = "blocked-hours"
	actionBlockDay     = "block-day"
	actionUnblockDay   = "unblock-day"
	actionBlockHours   = "block-hours"
	actionUnblockHours = "unblock-hours"
)

type blockDayRequest struct {
	Date      string `json:"fecha" validate:"required,date"`
	Reason    string `json:"motivo" validate:"max=200"`
	BlockedBy string `json:"bloqueado_por" validate:"max=100"`
}

type blockHoursRequest struct {
	Date      string `json:"fecha" validate:"required,date"`
	Start     string `json:"hora_inicio" validate:"required,clock"`
	End       string `json:"hora_fin" validate:"required,clock"`
	Reason    string `json:"motivo" validate:"max=200"`
	BlockedBy string `json:"bloqueado_por" validate:"max=100"`
}

func unknownAction(action string) *APIError {
	return badRequest("acción desconocida", map[string]string{"action": action})
}

func (s *Server) handleScheduleRead(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	switch action := q.Get("action"); action {
	case actionBlockedDays:
		var from sharedDomain.Date
		if raw := q.Get("desde"); raw != "" {
			d, err := sharedDomain.ParseDate(raw)
			if err != nil {
				writeError(w, r, s.logger, badRequest("fecha inválida", map[string]string{"desde": "date"}))
				return
			}
			from = d
		}
		days, err := s.handlers.BlockedDays.Handle(r.Context(), calendarQueries.ListBlockedDaysQuery{From: from})
		if err != nil {
			writeError(w, r, s.logger, err)
			return
		}
		writeData(w, http.StatusOK, days)

	case actionBlockedHours:
		date, ok := s.dateParam(w, r, "fecha")
		if !ok {
			return
		}
		ranges, err := s.handlers.BlockedHours.Handle(r.Context(), calendarQueries.GetBlockedHoursQuery{Date: date})
		if err != nil {
			writeError(w, r, s.logger, err)
			return
		}
		writeData(w, http.StatusOK, ranges)

	default:
		writeError(w, r, s.logger, unknownAction(action))
	}
}

func (s *Server) handleScheduleWrite(w http.ResponseWriter, r *http.Request) {
	switch action := r.URL.Query().Get("action"); action {
	case actionBlockDay:
		var req blockDayRequest
		if !s.decodeJSON(w, r, &req) {
			return
		}
		res, err := s.handlers.BlockDay.Handle(r.Context(), calendarCommands.BlockDayCommand{
			Date:      sharedDomain.MustDate(req.Date),
			Reason:    req.Reason,
			BlockedBy: actorOr(r, req.BlockedBy),
		})
		if err != nil {
			writeError(w, r, s.logger, err)
			return
		}
		writeData(w, http.StatusCreated, map[string]any{"id": res.BlockID, "fecha": req.Date})

	case actionBlockHours:
		var req blockHoursRequest
		if !s.decodeJSON(w, r, &req) {
			return
		}
		start, _ := sharedDomain.ParseClock(req.Start)
		end, _ := sharedDomain.ParseClock(req.End)
		res, err := s.handlers.BlockHours.Handle(r.Context(), calendarCommands.BlockHoursCommand{
			Date:      sharedDomain.MustDate(req.Date),
			Start:     start,
			End:       end,
			Reason:    req.Reason,
			BlockedBy: actorOr(r, req.BlockedBy),
		})
		if err != nil {
			writeError(w, r, s.logger, err)
			return
		}
		writeData(w, http.StatusCreated, map[string]any{"id": res.RangeID, "fecha": req.Date})

	default:
		writeError(w, r, s.logger, unknownAction(action))
	}
}

func (s *Server) handleScheduleDelete(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	actor := observability.ActorFromContext(r.Context())

	switch action := q.Get("action"); action {
	case actionUnblockDay:
		date, ok := s.dateParam(w, r, "fecha")
		if !ok {
			return
		}
		err := s.handlers.UnblockDay.Handle(r.Context(), calendarCommands.UnblockDayCommand{Date: date, UnblockedBy: actor})
		if err != nil {
			writeError(w, r, s.logger, err)
			return
		}
		writeData(w, http.StatusOK, map[string]any{"fecha": date})

	case actionUnblockHours:
		id, err := uuid.Parse(q.Get("id"))
		if err != nil {
			writeError(w, r, s.logger, badRequest("id inválido", map[string]string{"id": "uuid"}))
			return
		}
		err = s.handlers.UnblockHours.Handle(r.Context(), calendarCommands.UnblockHoursCommand{RangeID: id, UnblockedBy: actor})
		if err != nil {
			writeError(w, r, s.logger, err)
			return
		}
		writeData(w, http.StatusOK, map[string]any{"id": id})

	default:
		writeError(w, r, s.logger, unknownAction(action))
	}
}

// dateParam reads a required YYYY-MM-DD query parameter, writing a 400
// when it is missing or malformed.
func (s *Server) dateParam(w http.ResponseWriter, r *http.Request, name string) (sharedDomain.Date, bool) {
	date, err := sharedDomain.ParseDate(r.URL.Query().Get(name))
	if err != nil {
		writeError(w, r, s.logger, badRequest("fecha inválida", map[string]string{name: "date"}))
		return sharedDomain.Date{}, false
	}
	return date, true
}

// decodeJSON reads and validates a JSON body into dst.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.cfg.MaxFormBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, r, s.logger, badRequest("JSON inválido", nil))
		return false
	}
	if err := s.validator.Struct(dst); err != nil {
		writeError(w, r, s.logger, err)
		return false
	}
	return true
}

// actorOr prefers an explicit name and falls back to the authenticated actor.
func actorOr(r *http.Request, name string) string {
	if name != "" {
		return name
	}
	return observability.ActorFromContext(r.Context())
}
