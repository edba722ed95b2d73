package web

import (
	"errors"
	"net/http"
	"slices"

	"clinicdash/internal/model"
	"clinicdash/internal/store"
)

var (
	patientSorts = []string{"", store.SortName, store.SortLastVisit, store.SortUpcoming}
	fileSorts    = []string{"", store.SortDate, store.SortFileName, store.SortFileType}
	fileTypes    = []string{"", store.FileTypeAll, "lab", "prescription", "report", "imaging", "other"}
)

func (s *Server) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Dashboard(s.now()))
}

// handlePatients lists patients.
//
// GET /api/patients?q=chen&sort=lastVisit
func (s *Server) handlePatients(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sort := q.Get("sort")
	if !slices.Contains(patientSorts, sort) {
		writeError(w, http.StatusBadRequest, "unknown sort "+sort)
		return
	}
	writeJSON(w, http.StatusOK, s.store.SearchPatients(store.PatientQuery{Search: q.Get("q"), Sort: sort}))
}

func (s *Server) handlePatient(w http.ResponseWriter, r *http.Request) {
	d, err := s.store.PatientDetail(r.PathValue("id"), s.now())
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "patient not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load patient")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// handleFiles lists patient files.
//
// GET /api/files?q=rodriguez&type=imaging&sort=name
func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	typ, sort := q.Get("type"), q.Get("sort")
	if !slices.Contains(fileTypes, typ) {
		writeError(w, http.StatusBadRequest, "unknown file type "+typ)
		return
	}
	if !slices.Contains(fileSorts, sort) {
		writeError(w, http.StatusBadRequest, "unknown sort "+sort)
		return
	}
	writeJSON(w, http.StatusOK, s.store.SearchFiles(store.FileQuery{Search: q.Get("q"), Type: typ, Sort: sort}))
}

type notificationsResponse struct {
	Notifications []model.Notification `json:"notifications"`
	Unread        int                  `json:"unread"`
}

func (s *Server) handleNotifications(w http.ResponseWriter, _ *http.Request) {
	nts := s.store.Notifications()
	if nts == nil {
		nts = []model.Notification{}
	}
	writeJSON(w, http.StatusOK, notificationsResponse{
		Notifications: nts,
		Unread:        s.store.UnreadNotifications(),
	})
}
