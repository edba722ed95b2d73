package calendar

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"clinicdash/internal/model"
)

// ViewMode is the calendar granularity.
type ViewMode string

const (
	ViewDay   ViewMode = "day"
	ViewWeek  ViewMode = "week"
	ViewMonth ViewMode = "month"
	ViewYear  ViewMode = "year"
)

var ErrUnknownView = errors.New("calendar: unknown view mode")

func ParseViewMode(s string) (ViewMode, error) {
	switch m := ViewMode(s); m {
	case ViewDay, ViewWeek, ViewMonth, ViewYear:
		return m, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownView, s)
}

// Source provides the appointment records the engine buckets. The engine
// treats the returned slice as read-only.
type Source interface {
	Appointments() []model.Appointment
}

// Options configures an Engine.
type Options struct {
	Layout Layout

	// WeekStart is the first column of the week view.
	WeekStart time.Weekday

	// Weekend days have no office hours in day and week views.
	Weekend []time.Weekday

	// MonthMaxVisible caps the appointments listed in one month cell; the
	// rest are summarized by MonthCell.More.
	MonthMaxVisible int

	// Now decides which cell is "today". Defaults to time.Now.
	Now func() time.Time
}

// DefaultOptions is a Monday-start week with Saturday/Sunday weekends.
func DefaultOptions() Options {
	return Options{
		Layout:          DefaultLayout,
		WeekStart:       time.Monday,
		Weekend:         []time.Weekday{time.Saturday, time.Sunday},
		MonthMaxVisible: 3,
		Now:             time.Now,
	}
}

// Engine buckets appointments into calendar cells and positions them for
// display. It holds no mutable state; every call recomputes from Source.
type Engine struct {
	src  Source
	opts Options
}

func NewEngine(src Source, opts Options) *Engine {
	if opts.Layout.SlotHeight <= 0 {
		opts.Layout = DefaultLayout
	}
	if opts.MonthMaxVisible <= 0 {
		opts.MonthMaxVisible = 3
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{src: src, opts: opts}
}

func (e *Engine) Options() Options {
	return e.opts
}

// AppointmentsForDay returns every record whose YYYY-MM-DD date equals d's,
// in source order. Absence of matches yields an empty slice.
func (e *Engine) AppointmentsForDay(d time.Time) []model.Appointment {
	key := model.FormatDate(model.DateOf(d))
	out := []model.Appointment{}
	for _, a := range e.src.Appointments() {
		if a.DateKey() == key {
			out = append(out, a)
		}
	}
	return out
}

// IsWeekend reports whether d falls on a configured weekend day.
func (e *Engine) IsWeekend(d time.Time) bool {
	return slices.Contains(e.opts.Weekend, d.Weekday())
}

// WeekStart returns the first day of the week containing ref.
func (e *Engine) WeekStart(ref time.Time) time.Time {
	d := model.DateOf(ref)
	back := (int(d.Weekday()) - int(e.opts.WeekStart) + 7) % 7
	return d.AddDate(0, 0, -back)
}

// Buckets lists the dates displayed for ref in the given mode. Year mode
// yields the first day of each month.
func (e *Engine) Buckets(ref time.Time, mode ViewMode) ([]time.Time, error) {
	d := model.DateOf(ref)
	switch mode {
	case ViewDay:
		return []time.Time{d}, nil
	case ViewWeek:
		return daysFrom(e.WeekStart(d), 7), nil
	case ViewMonth:
		start, n := e.monthGridSpan(d.Year(), d.Month())
		return daysFrom(start, n), nil
	case ViewYear:
		out := make([]time.Time, 0, 12)
		for m := time.January; m <= time.December; m++ {
			out = append(out, time.Date(d.Year(), m, 1, 0, 0, 0, 0, time.UTC))
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownView, mode)
}

// monthGridSpan returns the first date and length of the month grid, padded
// to whole weeks on both sides.
func (e *Engine) monthGridSpan(year int, month time.Month) (time.Time, int) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(year, month, model.DaysIn(year, month), 0, 0, 0, 0, time.UTC)

	lead := (int(first.Weekday()) - int(e.opts.WeekStart) + 7) % 7
	weekEnd := (int(e.opts.WeekStart) + 6) % 7
	trail := (weekEnd - int(last.Weekday()) + 7) % 7

	return first.AddDate(0, 0, -lead), lead + last.Day() + trail
}

func daysFrom(start time.Time, n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.AddDate(0, 0, i)
	}
	return out
}

// index groups appointments by date key, keeping source order per day.
func (e *Engine) index() map[string][]model.Appointment {
	idx := make(map[string][]model.Appointment)
	for _, a := range e.src.Appointments() {
		k := a.DateKey()
		idx[k] = append(idx[k], a)
	}
	return idx
}

func (e *Engine) today() time.Time {
	return model.DateOf(e.opts.Now())
}

// Block builds the positioned presentation of one appointment.
func (e *Engine) Block(a model.Appointment) Block {
	top, height := e.opts.Layout.Offset(a.Start, a.Duration)
	b := Block{
		ID:         a.ID,
		Start:      a.Start,
		End:        a.End(),
		Duration:   a.Duration,
		Type:       string(a.Type),
		TypeLabel:  TypeLabel(a.Type),
		Status:     string(a.Status),
		Style:      StatusStyle(a.Status),
		Provider:   a.Provider,
		Notes:      a.Notes,
		Top:        top,
		Height:     height,
		OutOfHours: e.opts.Layout.OutOfHours(a.Start, a.Duration),
	}

	if a.IsReserved() {
		b.Reserved = true
		b.Label = a.Notes
		if b.Label == "" {
			b.Label = ReservedLabel
		}
		b.Style = ReservedStyle
		b.TypeLabel = ReservedLabel
		return b
	}

	b.PatientID = a.PatientID
	b.Link = "/patients/" + a.PatientID
	if a.Patient != nil {
		b.PatientName = a.Patient.FullName()
		b.Initials = a.Patient.Initials()
		b.Label = b.PatientName
	} else {
		b.Label = a.PatientID
	}
	return b
}
