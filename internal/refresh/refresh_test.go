package refresh

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinicdash/internal/config"
	"clinicdash/internal/fixture"
	"clinicdash/internal/ics"
	"clinicdash/internal/model"
	"clinicdash/internal/store"
)

const leaveFeed = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//clinicdash//test//EN
BEGIN:VEVENT
UID:leave-1
DTSTAMP:20240601T000000Z
DTSTART:20240612T130000Z
DTEND:20240612T150000Z
SUMMARY:Dr. Smith out
END:VEVENT
BEGIN:VEVENT
UID:far-future
DTSTAMP:20240601T000000Z
DTSTART:20250612T130000Z
DTEND:20250612T150000Z
SUMMARY:Outside horizon
END:VEVENT
END:VCALENDAR
`

const reloadedFixture = `
appointments:
  - id: r1
    patient_id: reserved
    date: "2024-06-05"
    time: "09:00"
    duration: 30
    type: consultation
    status: scheduled
    notes: Staff training
`

type feedServer struct {
	*httptest.Server
	failing atomic.Bool
}

func newFeedServer(t *testing.T) *feedServer {
	t.Helper()
	fs := &feedServer{}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fs.failing.Load() {
			http.Error(w, "down", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(leaveFeed))
	}))
	t.Cleanup(fs.Close)
	return fs
}

func newSyncer(t *testing.T, st *store.Store, opts Options) *Syncer {
	t.Helper()
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Date(2024, 6, 5, 7, 0, 0, 0, time.UTC) }
	}
	if opts.Window == (ics.Window{}) {
		opts.Window = ics.Window{StartHour: 8, EndHour: 16}
	}
	if opts.HorizonDays == 0 {
		opts.HorizonDays = 90
	}
	return New(st, ics.NewFetcher(t.TempDir(), nil), opts)
}

func reserved(appts []model.Appointment, source string) []model.Appointment {
	var out []model.Appointment
	for _, a := range appts {
		if a.Source == source {
			out = append(out, a)
		}
	}
	return out
}

func TestRunOnceImportsFeedBlocks(t *testing.T) {
	srv := newFeedServer(t)
	data, err := fixture.Default()
	require.NoError(t, err)
	st := store.New(data)

	s := newSyncer(t, st, Options{
		Feeds: []config.ICSConfig{{ID: "leave", Name: "Dr. Smith", URL: srv.URL}},
	})
	require.NoError(t, s.RunOnce(context.Background()))

	blocks := reserved(st.Appointments(), "leave")
	require.Len(t, blocks, 1, "events beyond the horizon are not expanded")
	b := blocks[0]
	assert.True(t, b.IsReserved())
	assert.Equal(t, "2024-06-12", b.DateKey())
	assert.Equal(t, model.Clock{Hour: 13}, b.Start)
	assert.Equal(t, 120, b.Duration)
	assert.Equal(t, "Dr. Smith out", b.Notes)
	assert.Equal(t, "Dr. Smith", b.Provider)

	last := s.LastStatus()
	assert.NotEmpty(t, last.RunID)
	assert.Equal(t, 1, last.Blocks)
	assert.Empty(t, last.Errors)
}

func TestRunOnceKeepsBlocksWhenFeedFails(t *testing.T) {
	good := newFeedServer(t)
	st := store.New(nil)
	s := newSyncer(t, st, Options{
		Feeds: []config.ICSConfig{{ID: "leave", URL: good.URL}},
	})
	require.NoError(t, s.RunOnce(context.Background()))
	require.Len(t, reserved(st.Appointments(), "leave"), 1)

	// A fresh fetcher has no disk cache, so the outage is a real failure.
	s.fetcher = ics.NewFetcher(t.TempDir(), nil)
	good.failing.Store(true)
	err := s.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feed leave")
	assert.Len(t, reserved(st.Appointments(), "leave"), 1)
	assert.Len(t, s.LastStatus().Errors, 1)
}

func TestRunOnceDropsRemovedFeeds(t *testing.T) {
	srv := newFeedServer(t)
	st := store.New(nil)
	s := newSyncer(t, st, Options{
		Feeds: []config.ICSConfig{{ID: "leave", URL: srv.URL}},
	})
	require.NoError(t, s.RunOnce(context.Background()))
	require.Equal(t, []string{"leave"}, st.ExternalSources())

	opts := s.opts
	opts.Feeds = nil
	s.SetOptions(opts)
	require.NoError(t, s.RunOnce(context.Background()))
	assert.Empty(t, st.ExternalSources())
	assert.Empty(t, st.Appointments())
}

func TestRunOnceReloadsFixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.yaml")
	require.NoError(t, os.WriteFile(path, []byte(reloadedFixture), 0o600))

	data, err := fixture.Default()
	require.NoError(t, err)
	st := store.New(data)
	s := newSyncer(t, st, Options{FixturePath: path})

	require.NoError(t, s.RunOnce(context.Background()))
	appts := st.Appointments()
	require.Len(t, appts, 1)
	assert.Equal(t, "r1", appts[0].ID)

	// A broken file leaves the last good dataset in place.
	require.NoError(t, os.WriteFile(path, []byte("appointments: [{id: x}]"), 0o600))
	assert.Error(t, s.RunOnce(context.Background()))
	assert.Len(t, st.Appointments(), 1)
}

func TestStartRejectsBadSpec(t *testing.T) {
	s := newSyncer(t, store.New(nil), Options{})
	assert.Error(t, s.Start(context.Background(), "not a cron"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	assert.NoError(t, s.Start(ctx, "@every 1h"))
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Timezone = "America/New_York"
	cfg.ICS = []config.ICSConfig{{URL: "https://example.com/a.ics"}}

	opts, err := OptionsFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", opts.Location.String())
	assert.Equal(t, ics.Window{StartHour: 8, EndHour: 16}, opts.Window)
	assert.Len(t, opts.Feeds, 1)

	cfg.Timezone = "Mars/Olympus"
	_, err = OptionsFromConfig(cfg)
	assert.Error(t, err)
}
