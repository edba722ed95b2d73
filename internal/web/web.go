package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"clinicdash/internal/calendar"
	"clinicdash/internal/config"
	appLog "clinicdash/internal/log"
	"clinicdash/internal/model"
	"clinicdash/internal/store"
)

// Refresher triggers an immediate data refresh.
type Refresher interface {
	RunOnce(ctx context.Context) error
}

// Options wires optional collaborators into a Server.
type Options struct {
	// ConfigPath is where PUT /api/settings persists changes. Empty keeps
	// changes in memory only.
	ConfigPath string

	// Refresher backs POST /api/refresh; nil disables the endpoint.
	Refresher Refresher

	// OnSettings is called with the new configuration after a successful
	// settings update.
	OnSettings func(*config.Config)

	// Now defaults to time.Now.
	Now func() time.Time
}

// Server serves the dashboard JSON API and the server-rendered calendar
// page. It owns the single interactive calendar session.
type Server struct {
	store   *store.Store
	opts    Options
	mux     *http.ServeMux
	limiter *rate.Limiter

	cfgMu  sync.RWMutex
	cfg    *config.Config
	engine *calendar.Engine

	navMu sync.Mutex
	nav   *calendar.Navigator
}

// NewServer builds a Server over st. It fails when cfg names an unknown
// timezone.
func NewServer(cfg *config.Config, st *store.Store, opts Options) (*Server, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	calOpts, err := CalendarOptions(cfg, opts.Now)
	if err != nil {
		return nil, err
	}

	s := &Server{
		store:   st,
		opts:    opts,
		mux:     http.NewServeMux(),
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit.RPS), cfg.RateLimit.Burst),
		cfg:     cfg,
		engine:  calendar.NewEngine(st, calOpts),
	}
	s.nav = calendar.NewNavigator(calOpts.Now(), calendar.ViewMode(cfg.DefaultView), calOpts.Now)
	s.registerRoutes()
	return s, nil
}

// CalendarOptions maps configuration onto engine options. Now reports the
// current instant in the configured timezone so "today" follows the clinic,
// not the host.
func CalendarOptions(cfg *config.Config, now func() time.Time) (calendar.Options, error) {
	loc, err := cfg.Location()
	if err != nil {
		return calendar.Options{}, fmt.Errorf("timezone %q: %w", cfg.Timezone, err)
	}
	if now == nil {
		now = time.Now
	}
	return calendar.Options{
		Layout: calendar.Layout{
			WindowStart:    cfg.Workday.StartHour,
			WindowEnd:      cfg.Workday.EndHour,
			SlotHeight:     cfg.Layout.SlotHeight,
			MinBlockHeight: cfg.Layout.MinBlockHeight,
		},
		WeekStart:       cfg.WeekStartDay(),
		Weekend:         cfg.WeekendDays(),
		MonthMaxVisible: cfg.Layout.MonthMaxVisible,
		Now:             func() time.Time { return now().In(loc) },
	}, nil
}

// Handler returns the mux wrapped in request ID, rate limit and optional
// basic auth middleware.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled")
		h = s.basicAuthMiddleware(h)
	}
	h = s.rateLimitMiddleware(h)
	return requestIDMiddleware(h)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("GET /api/calendar", s.handleCalendar)
	s.mux.HandleFunc("POST /api/calendar/view", s.handleSetView)
	s.mux.HandleFunc("POST /api/calendar/advance", s.handleAdvance)
	s.mux.HandleFunc("POST /api/calendar/today", s.handleToday)
	s.mux.HandleFunc("GET /api/appointments", s.handleAppointments)

	s.mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	s.mux.HandleFunc("GET /api/patients", s.handlePatients)
	s.mux.HandleFunc("GET /api/patients/{id}", s.handlePatient)
	s.mux.HandleFunc("GET /api/files", s.handleFiles)
	s.mux.HandleFunc("GET /api/notifications", s.handleNotifications)

	s.mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	s.mux.HandleFunc("PUT /api/settings", s.handlePutSettings)
	s.mux.HandleFunc("POST /api/refresh", s.handleRefresh)

	s.mux.HandleFunc("GET /calendar", s.handleCalendarPage)
	s.mux.Handle("GET /{$}", http.RedirectHandler("/calendar", http.StatusFound))
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, h http.Handler) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return ServeListener(ctx, ln, h)
}

// ServeListener is Serve over an already bound listener.
func ServeListener(ctx context.Context, ln net.Listener, h http.Handler) error {
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	appLog.Info("HTTP server stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.opts.Refresher == nil {
		writeError(w, http.StatusNotFound, "refresh is not configured")
		return
	}
	if err := s.opts.Refresher.RunOnce(r.Context()); err != nil {
		appLog.Error("manual refresh failed", err, "request_id", requestID(r.Context()))
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) currentEngine() *calendar.Engine {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.engine
}

// now is the current instant in the display timezone.
func (s *Server) now() time.Time {
	return s.currentEngine().Options().Now()
}

func (s *Server) today() time.Time {
	return model.DateOf(s.now())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

const maxBodyBytes = 1 << 20

// decodeJSON reads a single JSON object, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
