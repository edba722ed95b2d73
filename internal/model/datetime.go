package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical date format used by fixtures, URLs and
// calendar bucketing.
const DateLayout = "2006-01-02"

// Clock is a wall-clock time of day without a timezone.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses an "HH:MM" 24-hour time.
func ParseClock(s string) (Clock, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(hh) == 0 || len(hh) > 2 || len(mm) != 2 {
		return Clock{}, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return Clock{}, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return Clock{}, fmt.Errorf("invalid minute in %q", s)
	}
	return Clock{Hour: h, Minute: m}, nil
}

// ClockFromMinutes converts minutes past midnight into a Clock.
func ClockFromMinutes(n int) Clock {
	return Clock{Hour: n / 60, Minute: n % 60}
}

// Minutes returns minutes past midnight.
func (c Clock) Minutes() int {
	return c.Hour*60 + c.Minute
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

func (c Clock) Before(o Clock) bool {
	return c.Minutes() < o.Minutes()
}

// MarshalText renders the clock as HH:MM so JSON payloads keep the fixture
// representation.
func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Clock) UnmarshalText(b []byte) error {
	v, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// ParseDate parses a YYYY-MM-DD civil date into midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// DateOf strips the time of day from t, keeping the calendar date as seen
// in t's own location.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// FormatDate formats a date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// SameDate reports whether a and b fall on the same calendar date.
func SameDate(a, b time.Time) bool {
	return FormatDate(a) == FormatDate(b)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
