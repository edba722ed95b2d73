package refresh

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"clinicdash/internal/config"
	"clinicdash/internal/fixture"
	"clinicdash/internal/ics"
	appLog "clinicdash/internal/log"
	"clinicdash/internal/store"
)

// Options is the part of the configuration a refresh run reads.
type Options struct {
	// FixturePath is re-read on every run when set.
	FixturePath string

	Feeds    []config.ICSConfig
	Window   ics.Window
	Location *time.Location

	HorizonDays  int
	BackfillDays int

	// Now defaults to time.Now.
	Now func() time.Time
}

// OptionsFromConfig derives refresh options from cfg.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	loc, err := cfg.Location()
	if err != nil {
		return Options{}, fmt.Errorf("refresh: timezone %q: %w", cfg.Timezone, err)
	}
	return Options{
		FixturePath:  cfg.FixturePath,
		Feeds:        slices.Clone(cfg.ICS),
		Window:       ics.Window{StartHour: cfg.Workday.StartHour, EndHour: cfg.Workday.EndHour},
		Location:     loc,
		HorizonDays:  cfg.HorizonDays,
		BackfillDays: cfg.BackfillDays,
	}, nil
}

// Syncer keeps the store in step with the fixture file and the external
// calendars. Runs are serialized.
type Syncer struct {
	store   *store.Store
	fetcher *ics.Fetcher

	runMu sync.Mutex

	mu   sync.Mutex
	opts Options
	last Status
}

// Status describes the most recent run.
type Status struct {
	RunID    string    `json:"run_id"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
	Blocks   int       `json:"blocks"`
	Errors   []string  `json:"errors,omitempty"`
}

func New(st *store.Store, fetcher *ics.Fetcher, opts Options) *Syncer {
	return &Syncer{store: st, fetcher: fetcher, opts: opts}
}

// SetOptions replaces the options used by subsequent runs.
func (s *Syncer) SetOptions(opts Options) {
	s.mu.Lock()
	s.opts = opts
	s.mu.Unlock()
}

// LastStatus returns the outcome of the most recent run.
func (s *Syncer) LastStatus() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// RunOnce reloads the fixture when configured, then fetches and expands
// every feed into reserved blocks. A failing feed keeps its previous blocks;
// the returned error joins every failure.
func (s *Syncer) RunOnce(ctx context.Context) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	s.mu.Lock()
	opts := s.opts
	s.mu.Unlock()

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	st := Status{RunID: uuid.NewString(), Started: now()}
	appLog.Info("refresh start", "run", st.RunID, "feeds", len(opts.Feeds))

	var errs []error
	if opts.FixturePath != "" {
		data, err := fixture.Load(opts.FixturePath)
		if err != nil {
			appLog.Error("refresh fixture reload failed, keeping previous data", err, "run", st.RunID)
			errs = append(errs, err)
		} else {
			s.store.ReplaceFixture(data)
		}
	}

	today := st.Started.In(loc)
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, loc)
	window := ics.ExpandConfig{
		Location:   loc,
		RangeStart: today.AddDate(0, 0, -opts.BackfillDays),
		RangeEnd:   today.AddDate(0, 0, opts.HorizonDays+1),
	}

	active := make(map[string]bool, len(opts.Feeds))
	for _, fc := range opts.Feeds {
		id := fc.SourceID()
		active[id] = true
		n, err := s.syncFeed(ctx, fc, window, opts.Window)
		if err != nil {
			appLog.Error("refresh feed failed, keeping previous blocks", err, "run", st.RunID, "feed", id)
			errs = append(errs, fmt.Errorf("feed %s: %w", id, err))
			continue
		}
		st.Blocks += n
	}
	for _, id := range s.store.ExternalSources() {
		if !active[id] {
			s.store.RemoveExternalSource(id)
			appLog.Info("refresh dropped unconfigured feed", "run", st.RunID, "feed", id)
		}
	}

	st.Finished = now()
	for _, err := range errs {
		st.Errors = append(st.Errors, err.Error())
	}
	s.mu.Lock()
	s.last = st
	s.mu.Unlock()

	appLog.Info("refresh done", "run", st.RunID, "blocks", st.Blocks, "errors", len(errs),
		"elapsed", st.Finished.Sub(st.Started).String())
	return errors.Join(errs...)
}

func (s *Syncer) syncFeed(ctx context.Context, fc config.ICSConfig, window ics.ExpandConfig, w ics.Window) (int, error) {
	feed := ics.Feed{ID: fc.SourceID(), Name: fc.Name, URL: fc.URL}
	res, err := s.fetcher.Fetch(ctx, feed)
	if err != nil {
		return 0, err
	}
	events, err := ics.ParseICS(feed, res.Body)
	if err != nil {
		return 0, err
	}
	exp, err := ics.Expand(events, window)
	if err != nil {
		return 0, err
	}
	provider := fc.Name
	if provider == "" {
		provider = feed.ID
	}
	blocks := ics.ToBlocks(exp.Occurrences, provider, w)
	s.store.SetExternalBlocks(feed.ID, blocks)
	return len(blocks), nil
}

// Start schedules RunOnce on spec, evaluated in the display timezone, until
// ctx is cancelled. It does not run immediately.
func (s *Syncer) Start(ctx context.Context, spec string) error {
	s.mu.Lock()
	loc := s.opts.Location
	s.mu.Unlock()
	if loc == nil {
		loc = time.UTC
	}

	logger := cronLogger{}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := c.AddFunc(spec, func() { _ = s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("refresh: schedule %q: %w", spec, err)
	}
	c.Start()
	appLog.Info("refresh scheduled", "spec", spec, "tz", loc.String())

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
		appLog.Info("refresh scheduler stopped")
	}()
	return nil
}

// cronLogger routes cron's own messages through the app logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	appLog.Debug("cron "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	appLog.Error("cron "+msg, err, keysAndValues...)
}
