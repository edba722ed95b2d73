package capture

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"

	appLog "clinicdash/internal/log"
)

// Default capture parameters; they suit the week view at the default
// layout (eight 80px slots plus headers).
const (
	DefaultWidth   = 1440
	DefaultHeight  = 900
	DefaultTimeout = 30 * time.Second
)

// ReadySelector matches the /calendar root once it has rendered.
const ReadySelector = `[data-ready="true"]`

// Options defines one Chromium screenshot.
type Options struct {
	// URL to capture, e.g. "http://127.0.0.1:8080/calendar?view=week".
	URL string

	// OutputPath receives the PNG.
	OutputPath string

	// Width and Height are the viewport in pixels; zero uses the defaults.
	Width  int
	Height int

	// Timeout bounds the whole capture; zero uses DefaultTimeout.
	Timeout time.Duration

	// ExecPath selects the Chromium binary; empty lets chromedp search.
	ExecPath string
}

func (o *Options) normalize() error {
	if o.URL == "" {
		return errors.New("capture: URL is required")
	}
	if o.OutputPath == "" {
		return errors.New("capture: OutputPath is required")
	}
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return nil
}

// CalendarURL builds the /calendar page address under base for the given
// view and date; empty values are left to the server's session.
func CalendarURL(base, view, date string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("capture: base url: %w", err)
	}
	u = u.JoinPath("calendar")
	q := url.Values{}
	if view != "" {
		q.Set("view", view)
	}
	if date != "" {
		q.Set("date", date)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// CaptureCalendarPNG drives headless Chromium to opts.URL, waits for
// ReadySelector to be visible and writes a full-page PNG to
// opts.OutputPath.
func CaptureCalendarPNG(parent context.Context, opts Options) error {
	if err := opts.normalize(); err != nil {
		return err
	}

	allocOpts := chromedp.DefaultExecAllocatorOptions[:]
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, allocOpts...)
	defer allocCancel()

	ctx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()
	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var png []byte
	start := time.Now()
	err := chromedp.Run(ctx,
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.Navigate(opts.URL),
		chromedp.WaitVisible(ReadySelector, chromedp.ByQuery),
		chromedp.FullScreenshot(&png, 100),
	)
	if err != nil {
		return fmt.Errorf("capture: chromedp run failed: %w", err)
	}

	if dir := filepath.Dir(opts.OutputPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("capture: %w", err)
		}
	}
	if err := os.WriteFile(opts.OutputPath, png, 0o644); err != nil {
		return fmt.Errorf("capture: failed to write PNG: %w", err)
	}

	appLog.Info("calendar snapshot written", "path", opts.OutputPath, "bytes", len(png),
		"elapsed", time.Since(start).String())
	return nil
}
