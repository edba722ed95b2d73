package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ICSConfig describes a single external calendar subscription whose events
// are shown as reserved blocks.
type ICSConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for de-dup and logging.
	ID string `yaml:"id" json:"id"`
	// Name is shown as the block's provider label.
	Name string `yaml:"name" json:"name"`
}

// SourceID returns ID, falling back to Name and then URL.
func (c ICSConfig) SourceID() string {
	switch {
	case c.ID != "":
		return c.ID
	case c.Name != "":
		return c.Name
	default:
		return c.URL
	}
}

// WorkdayConfig is the bookable window shown in day and week views.
// EndHour is exclusive: 8..16 yields eight one-hour slots.
type WorkdayConfig struct {
	StartHour int `yaml:"start_hour" json:"start_hour"`
	EndHour   int `yaml:"end_hour" json:"end_hour"`
}

// LayoutConfig controls pixel geometry of the time grid and month cells.
type LayoutConfig struct {
	SlotHeight      float64 `yaml:"slot_height" json:"slot_height"`
	MinBlockHeight  float64 `yaml:"min_block_height" json:"min_block_height"`
	MonthMaxVisible int     `yaml:"month_max_visible" json:"month_max_visible"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the dashboard.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"-"`
}

// RateLimitConfig bounds API request throughput.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps" json:"rps"`
	Burst int     `yaml:"burst" json:"burst"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the dashboard API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone used to decide "today" and to place
	// external calendar events (e.g. "America/New_York").
	Timezone string `yaml:"timezone" json:"timezone"`

	// WeekStart controls which weekday starts the week view.
	// Supported values: "monday" (default), "sunday".
	WeekStart string `yaml:"week_start" json:"week_start"`

	// Weekend lists weekdays without office hours (lowercase English names).
	Weekend []string `yaml:"weekend" json:"weekend"`

	Workday WorkdayConfig `yaml:"workday" json:"workday"`
	Layout  LayoutConfig  `yaml:"layout" json:"layout"`

	// DefaultView is the initial calendar mode: day, week, month or year.
	DefaultView string `yaml:"default_view" json:"default_view"`

	// FixturePath points at the YAML dataset. Empty uses the embedded sample.
	FixturePath string `yaml:"fixture" json:"fixture"`

	// RefreshCron is a cron-style schedule for reloading the fixture and
	// external calendars (e.g. "*/15 * * * *").
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// HorizonDays / BackfillDays bound recurrence expansion of external
	// calendars around today.
	HorizonDays  int `yaml:"horizon_days" json:"horizon_days"`
	BackfillDays int `yaml:"backfill_days" json:"backfill_days"`

	// ICS is the list of subscribed external calendars.
	ICS []ICSConfig `yaml:"ics" json:"ics"`

	// CacheDir stores conditional-fetch metadata for ICS feeds.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	LogLevel  string          `yaml:"log_level" json:"log_level"`
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

var defaultWeekend = []string{"saturday", "sunday"}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:      "127.0.0.1:8080",
		Timezone:    "UTC",
		WeekStart:   "monday",
		Weekend:     append([]string(nil), defaultWeekend...),
		Workday:     WorkdayConfig{StartHour: 8, EndHour: 16},
		Layout:      LayoutConfig{SlotHeight: 80, MinBlockHeight: 24, MonthMaxVisible: 3},
		DefaultView: "week",
		RefreshCron: "*/15 * * * *",
		HorizonDays: 90,
		// One week back keeps the previous week view populated.
		BackfillDays: 7,
		ICS:          []ICSConfig{},
		CacheDir:     "./var/ics-cache",
		LogLevel:     "info",
		RateLimit:    RateLimitConfig{RPS: 20, Burst: 40},
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()

	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	c.WeekStart = strings.ToLower(strings.TrimSpace(c.WeekStart))
	switch c.WeekStart {
	case "monday", "sunday":
		// ok
	default:
		// Unknown value; fall back to monday to avoid surprising layouts.
		c.WeekStart = "monday"
	}

	if c.Weekend == nil {
		c.Weekend = append([]string(nil), defaultWeekend...)
	}
	weekend := c.Weekend[:0]
	for _, d := range c.Weekend {
		d = strings.ToLower(strings.TrimSpace(d))
		if _, ok := weekdays[d]; ok {
			weekend = append(weekend, d)
		}
	}
	c.Weekend = weekend

	if c.Workday.StartHour < 0 || c.Workday.StartHour > 23 ||
		c.Workday.EndHour <= c.Workday.StartHour || c.Workday.EndHour > 24 {
		c.Workday = def.Workday
	}
	if c.Layout.SlotHeight <= 0 {
		c.Layout.SlotHeight = def.Layout.SlotHeight
	}
	if c.Layout.MinBlockHeight < 0 {
		c.Layout.MinBlockHeight = def.Layout.MinBlockHeight
	}
	if c.Layout.MonthMaxVisible <= 0 {
		c.Layout.MonthMaxVisible = def.Layout.MonthMaxVisible
	}

	switch c.DefaultView {
	case "day", "week", "month", "year":
	default:
		c.DefaultView = def.DefaultView
	}

	if c.RefreshCron == "" {
		c.RefreshCron = def.RefreshCron
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = def.HorizonDays
	}
	if c.BackfillDays < 0 {
		c.BackfillDays = 0
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
	if c.CacheDir == "" {
		c.CacheDir = def.CacheDir
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.RateLimit.RPS <= 0 {
		c.RateLimit.RPS = def.RateLimit.RPS
	}
	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = def.RateLimit.Burst
	}
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// WeekStartDay returns WeekStart as a time.Weekday.
func (c *Config) WeekStartDay() time.Weekday {
	if c.WeekStart == "sunday" {
		return time.Sunday
	}
	return time.Monday
}

// WeekendDays returns Weekend as time.Weekday values.
func (c *Config) WeekendDays() []time.Weekday {
	out := make([]time.Weekday, 0, len(c.Weekend))
	for _, d := range c.Weekend {
		if wd, ok := weekdays[d]; ok {
			out = append(out, wd)
		}
	}
	return out
}

// Location resolves Timezone, returning an error for unknown zones.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// Load reads the YAML config at path and normalizes it. A missing file is
// replaced by DefaultConfig, which is also written to path (0600); if that
// write fails the defaults are returned together with the error.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// first run
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes cfg as YAML to path through a temp file and rename. The
// parent directory is created 0700 and the file ends up 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".clinicdash-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// Save writes c to path; see the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
