package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clinicdash/internal/calendar"
	"clinicdash/internal/capture"
	"clinicdash/internal/config"
	"clinicdash/internal/fixture"
	"clinicdash/internal/ics"
	appLog "clinicdash/internal/log"
	"clinicdash/internal/model"
	"clinicdash/internal/refresh"
	"clinicdash/internal/store"
	"clinicdash/internal/web"
)

const version = "0.1.0"

type flagConfig struct {
	configPath string
	envFile    string
	listen     string
	once       bool
	view       string
	date       string
	snapshot   string
	chromePath string
}

func main() {
	flags := parseFlags()

	if err := config.LoadDotEnv(flags.envFile); err != nil {
		appLog.Error("failed to load env file", err, "path", flags.envFile)
		os.Exit(1)
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		if conf == nil {
			appLog.Error("failed to load config", err, "config_path", flags.configPath)
			os.Exit(1)
		}
		appLog.Warn("could not write default config", "config_path", flags.configPath, "error", err)
	}
	conf.ApplyEnv()
	conf.Normalize()
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))

	appLog.Info("clinicdash starting", "version", version)
	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"week_start", conf.WeekStart,
		"workday", fmt.Sprintf("%02d-%02d", conf.Workday.StartHour, conf.Workday.EndHour),
		"default_view", conf.DefaultView,
		"fixture", conf.FixturePath,
		"refresh", conf.RefreshCron,
		"ics_count", len(conf.ICS),
		"basic_auth", conf.BasicAuth != nil,
		"once", flags.once,
		"snapshot", flags.snapshot,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, conf, flags); err != nil {
		appLog.Error("clinicdash failed", err)
		appLog.Sync()
		os.Exit(1)
	}
	appLog.Info("clinicdash exiting")
	appLog.Sync()
}

func run(ctx context.Context, conf *config.Config, flags flagConfig) error {
	data, err := loadFixture(conf.FixturePath)
	if err != nil {
		return err
	}
	st := store.New(data)

	refreshOpts, err := refresh.OptionsFromConfig(conf)
	if err != nil {
		return err
	}
	syncer := refresh.New(st, ics.NewFetcher(conf.CacheDir, nil), refreshOpts)
	if err := syncer.RunOnce(ctx); err != nil {
		// Partial failures keep whatever data loaded; keep going.
		appLog.Warn("initial refresh incomplete", "error", err)
	}

	switch {
	case flags.once:
		return printView(conf, st, flags.view, flags.date)
	case flags.snapshot != "":
		return snapshot(ctx, conf, st, flags)
	}

	if err := syncer.Start(ctx, conf.RefreshCron); err != nil {
		return err
	}

	srv, err := web.NewServer(conf, st, web.Options{
		ConfigPath: flags.configPath,
		Refresher:  syncer,
		OnSettings: func(c *config.Config) {
			opts, err := refresh.OptionsFromConfig(c)
			if err != nil {
				appLog.Error("settings produced invalid refresh options", err)
				return
			}
			syncer.SetOptions(opts)
		},
	})
	if err != nil {
		return err
	}
	return web.Serve(ctx, conf.Listen, srv.Handler())
}

func loadFixture(path string) (*fixture.Data, error) {
	if path == "" {
		appLog.Info("using embedded sample fixture")
		return fixture.Default()
	}
	data, err := fixture.Load(path)
	if err != nil {
		return nil, fmt.Errorf("fixture %s: %w", path, err)
	}
	return data, nil
}

// printView renders one calendar view and writes it to stdout as JSON.
func printView(conf *config.Config, st *store.Store, view, date string) error {
	calOpts, err := web.CalendarOptions(conf, nil)
	if err != nil {
		return err
	}
	if view == "" {
		view = conf.DefaultView
	}
	mode, err := calendar.ParseViewMode(view)
	if err != nil {
		return err
	}
	ref := model.DateOf(calOpts.Now())
	if date != "" {
		if ref, err = model.ParseDate(date); err != nil {
			return err
		}
	}

	v, err := calendar.NewEngine(st, calOpts).Render(ref, mode)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// snapshot serves the calendar page on a loopback port and captures it
// with headless Chromium.
func snapshot(ctx context.Context, conf *config.Config, st *store.Store, flags flagConfig) error {
	local := *conf
	local.BasicAuth = nil
	local.RateLimit = config.RateLimitConfig{RPS: 1000, Burst: 1000}

	srv, err := web.NewServer(&local, st, web.Options{})
	if err != nil {
		return err
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return err
	}

	serveCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	serveErr := make(chan error, 1)
	go func() { serveErr <- web.ServeListener(serveCtx, ln, srv.Handler()) }()

	u, err := capture.CalendarURL("http://"+ln.Addr().String(), flags.view, flags.date)
	if err != nil {
		return err
	}
	capErr := capture.CaptureCalendarPNG(ctx, capture.Options{
		URL:        u,
		OutputPath: flags.snapshot,
		Timeout:    45 * time.Second,
		ExecPath:   flags.chromePath,
	})

	cancel()
	return errors.Join(capErr, <-serveErr)
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "./config.yaml", "Path to config file (created with defaults if missing)")
	flag.StringVar(&cfg.envFile, "env", ".env", "Optional .env file with CLINICDASH_* overrides")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Refresh once, print the calendar view as JSON and exit")
	flag.StringVar(&cfg.view, "view", "", "View for -once/-snapshot: day, week, month or year")
	flag.StringVar(&cfg.date, "date", "", "Reference date for -once/-snapshot (YYYY-MM-DD, default today)")
	flag.StringVar(&cfg.snapshot, "snapshot", "", "Write a PNG of the calendar page to this path and exit")
	flag.StringVar(&cfg.chromePath, "chrome", "", "Chromium binary for -snapshot (default: search PATH)")

	flag.Parse()

	return cfg
}
