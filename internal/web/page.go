package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"clinicdash/internal/calendar"
	appLog "clinicdash/internal/log"
	"clinicdash/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.New("").Funcs(template.FuncMap{
	"px": func(v float64) string { return fmt.Sprintf("%.1fpx", v) },
}).ParseFS(templateFS, "templates/*.html"))

type pageData struct {
	View  calendar.View
	Today string
}

// handleCalendarPage renders the calendar as plain HTML for snapshot
// capture. The root element carries data-ready="true" once rendered.
//
// GET /calendar?view=month&date=2024-06-10
func (s *Server) handleCalendarPage(w http.ResponseWriter, r *http.Request) {
	ref, mode, err := s.viewParams(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	v, err := s.currentEngine().Render(ref, mode)
	if err != nil {
		http.Error(w, "failed to render calendar", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	data := pageData{View: v, Today: model.FormatDate(s.today())}
	if err := pageTemplates.ExecuteTemplate(&buf, "calendar.html", data); err != nil {
		appLog.Error("calendar page template failed", err, "request_id", requestID(r.Context()))
		http.Error(w, "failed to render calendar", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
