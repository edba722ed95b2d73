package web

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"clinicdash/internal/calendar"
	"clinicdash/internal/config"
	appLog "clinicdash/internal/log"
)

var weekdayNames = []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// settingsResponse is the calendar-facing slice of the configuration.
type settingsResponse struct {
	Timezone    string               `json:"timezone"`
	WeekStart   string               `json:"week_start"`
	Weekend     []string             `json:"weekend"`
	Workday     config.WorkdayConfig `json:"workday"`
	Layout      config.LayoutConfig  `json:"layout"`
	DefaultView string               `json:"default_view"`
}

// settingsRequest is a partial update; nil fields are left unchanged.
type settingsRequest struct {
	WeekStart       *string   `json:"week_start"`
	Weekend         *[]string `json:"weekend"`
	StartHour       *int      `json:"start_hour"`
	EndHour         *int      `json:"end_hour"`
	SlotHeight      *float64  `json:"slot_height"`
	MinBlockHeight  *float64  `json:"min_block_height"`
	MonthMaxVisible *int      `json:"month_max_visible"`
	DefaultView     *string   `json:"default_view"`
}

func settingsOf(cfg *config.Config) settingsResponse {
	return settingsResponse{
		Timezone:    cfg.Timezone,
		WeekStart:   cfg.WeekStart,
		Weekend:     slices.Clone(cfg.Weekend),
		Workday:     cfg.Workday,
		Layout:      cfg.Layout,
		DefaultView: cfg.DefaultView,
	}
}

func (s *Server) handleGetSettings(w http.ResponseWriter, _ *http.Request) {
	s.cfgMu.RLock()
	resp := settingsOf(s.cfg)
	s.cfgMu.RUnlock()
	writeJSON(w, http.StatusOK, resp)
}

// handlePutSettings validates a partial update, persists it and rebuilds
// the engine. Invalid values are rejected rather than normalized away.
func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.cfgMu.Lock()
	next := *s.cfg
	next.Weekend = slices.Clone(s.cfg.Weekend)
	if err := req.apply(&next); err != nil {
		s.cfgMu.Unlock()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	next.Normalize()

	calOpts, err := CalendarOptions(&next, s.opts.Now)
	if err != nil {
		s.cfgMu.Unlock()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if s.opts.ConfigPath != "" {
		if err := s.persist(req, &next); err != nil {
			s.cfgMu.Unlock()
			appLog.Error("settings save failed", err, "request_id", requestID(r.Context()))
			writeError(w, http.StatusInternalServerError, "failed to save settings")
			return
		}
	}
	s.cfg = &next
	s.engine = calendar.NewEngine(s.store, calOpts)
	resp := settingsOf(&next)
	s.cfgMu.Unlock()

	appLog.Info("settings updated", "week_start", next.WeekStart, "workday_start", next.Workday.StartHour,
		"workday_end", next.Workday.EndHour, "weekend", strings.Join(next.Weekend, ","))
	if s.opts.OnSettings != nil {
		s.opts.OnSettings(&next)
	}
	writeJSON(w, http.StatusOK, resp)
}

// persist writes the updated calendar fields onto the config as stored in
// ConfigPath. The running config also carries -listen and CLINICDASH_*
// overrides, which must stay out of the file.
func (s *Server) persist(req settingsRequest, updated *config.Config) error {
	onDisk, err := config.Load(s.opts.ConfigPath)
	if err != nil {
		return err
	}
	req.copyFields(onDisk, updated)
	return config.Save(s.opts.ConfigPath, onDisk)
}

// copyFields copies the fields named in req from src to dst.
func (req settingsRequest) copyFields(dst, src *config.Config) {
	if req.WeekStart != nil {
		dst.WeekStart = src.WeekStart
	}
	if req.Weekend != nil {
		dst.Weekend = slices.Clone(src.Weekend)
	}
	if req.StartHour != nil || req.EndHour != nil {
		dst.Workday = src.Workday
	}
	if req.SlotHeight != nil {
		dst.Layout.SlotHeight = src.Layout.SlotHeight
	}
	if req.MinBlockHeight != nil {
		dst.Layout.MinBlockHeight = src.Layout.MinBlockHeight
	}
	if req.MonthMaxVisible != nil {
		dst.Layout.MonthMaxVisible = src.Layout.MonthMaxVisible
	}
	if req.DefaultView != nil {
		dst.DefaultView = src.DefaultView
	}
}

func (req settingsRequest) apply(cfg *config.Config) error {
	if req.WeekStart != nil {
		ws := strings.ToLower(strings.TrimSpace(*req.WeekStart))
		if ws != "monday" && ws != "sunday" {
			return fmt.Errorf("week_start must be monday or sunday, got %q", *req.WeekStart)
		}
		cfg.WeekStart = ws
	}
	if req.Weekend != nil {
		days := make([]string, 0, len(*req.Weekend))
		for _, d := range *req.Weekend {
			d = strings.ToLower(strings.TrimSpace(d))
			if !slices.Contains(weekdayNames, d) {
				return fmt.Errorf("unknown weekday %q", d)
			}
			days = append(days, d)
		}
		cfg.Weekend = days
	}

	if req.StartHour != nil {
		cfg.Workday.StartHour = *req.StartHour
	}
	if req.EndHour != nil {
		cfg.Workday.EndHour = *req.EndHour
	}
	if wd := cfg.Workday; wd.StartHour < 0 || wd.EndHour > 24 || wd.EndHour <= wd.StartHour {
		return fmt.Errorf("workday %d-%d is not a valid window", wd.StartHour, wd.EndHour)
	}

	if req.SlotHeight != nil {
		if *req.SlotHeight <= 0 {
			return errors.New("slot_height must be positive")
		}
		cfg.Layout.SlotHeight = *req.SlotHeight
	}
	if req.MinBlockHeight != nil {
		if *req.MinBlockHeight < 0 {
			return errors.New("min_block_height must not be negative")
		}
		cfg.Layout.MinBlockHeight = *req.MinBlockHeight
	}
	if req.MonthMaxVisible != nil {
		if *req.MonthMaxVisible <= 0 {
			return errors.New("month_max_visible must be positive")
		}
		cfg.Layout.MonthMaxVisible = *req.MonthMaxVisible
	}
	if req.DefaultView != nil {
		if _, err := calendar.ParseViewMode(*req.DefaultView); err != nil {
			return err
		}
		cfg.DefaultView = *req.DefaultView
	}
	return nil
}
