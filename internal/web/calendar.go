package web

import (
	"net/http"
	"time"

	"clinicdash/internal/calendar"
	appLog "clinicdash/internal/log"
	"clinicdash/internal/model"
)

// session returns the current (reference date, view mode) pair.
func (s *Server) session() (time.Time, calendar.ViewMode) {
	s.navMu.Lock()
	defer s.navMu.Unlock()
	return s.nav.Reference(), s.nav.Mode()
}

// viewParams resolves ?view= and ?date=, falling back to the session.
func (s *Server) viewParams(r *http.Request) (time.Time, calendar.ViewMode, error) {
	ref, mode := s.session()
	q := r.URL.Query()
	if v := q.Get("view"); v != "" {
		m, err := calendar.ParseViewMode(v)
		if err != nil {
			return time.Time{}, "", err
		}
		mode = m
	}
	if d := q.Get("date"); d != "" {
		t, err := model.ParseDate(d)
		if err != nil {
			return time.Time{}, "", err
		}
		ref = t
	}
	return ref, mode, nil
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, ref time.Time, mode calendar.ViewMode) {
	v, err := s.currentEngine().Render(ref, mode)
	if err != nil {
		appLog.Error("calendar render failed", err, "request_id", requestID(r.Context()))
		writeError(w, http.StatusInternalServerError, "failed to render calendar")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// handleCalendar renders a view without touching the session.
//
// GET /api/calendar?view=week&date=2024-06-10
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	ref, mode, err := s.viewParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.render(w, r, ref, mode)
}

type setViewRequest struct {
	View string `json:"view"`
	Date string `json:"date"`
}

// handleSetView switches the session's mode and optionally jumps to a date.
func (s *Server) handleSetView(w http.ResponseWriter, r *http.Request) {
	var req setViewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.View == "" && req.Date == "" {
		writeError(w, http.StatusBadRequest, "view or date is required")
		return
	}

	var mode calendar.ViewMode
	if req.View != "" {
		m, err := calendar.ParseViewMode(req.View)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		mode = m
	}
	var date time.Time
	if req.Date != "" {
		d, err := model.ParseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		date = d
	}

	s.navMu.Lock()
	if mode != "" {
		if err := s.nav.SetMode(mode); err != nil {
			s.navMu.Unlock()
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if !date.IsZero() {
		s.nav.SetReference(date)
	}
	ref, cur := s.nav.Reference(), s.nav.Mode()
	s.navMu.Unlock()

	s.render(w, r, ref, cur)
}

type advanceRequest struct {
	Direction int `json:"direction"`
}

// handleAdvance steps the session one unit forward or backward.
func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	var req advanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.navMu.Lock()
	s.nav.Advance(req.Direction)
	ref, mode := s.nav.Reference(), s.nav.Mode()
	s.navMu.Unlock()

	s.render(w, r, ref, mode)
}

// handleToday resets the session reference date to today.
func (s *Server) handleToday(w http.ResponseWriter, r *http.Request) {
	s.navMu.Lock()
	s.nav.GoToToday()
	ref, mode := s.nav.Reference(), s.nav.Mode()
	s.navMu.Unlock()

	s.render(w, r, ref, mode)
}

type dayResponse struct {
	Date         string           `json:"date"`
	Weekend      bool             `json:"weekend"`
	Appointments []calendar.Block `json:"appointments"`
}

// handleAppointments lists one day's records in source order.
//
// GET /api/appointments?date=2024-06-10 (default today)
func (s *Server) handleAppointments(w http.ResponseWriter, r *http.Request) {
	day := s.today()
	if d := r.URL.Query().Get("date"); d != "" {
		t, err := model.ParseDate(d)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		day = t
	}

	e := s.currentEngine()
	appts := e.AppointmentsForDay(day)
	resp := dayResponse{
		Date:         model.FormatDate(day),
		Weekend:      e.IsWeekend(day),
		Appointments: make([]calendar.Block, 0, len(appts)),
	}
	for _, a := range appts {
		resp.Appointments = append(resp.Appointments, e.Block(a))
	}
	writeJSON(w, http.StatusOK, resp)
}
