package calendar

import (
	"time"

	"clinicdash/internal/model"
)

// Navigator owns the (reference date, view mode) pair of one interactive
// session. It is not safe for concurrent use.
type Navigator struct {
	ref  time.Time
	mode ViewMode
	now  func() time.Time

	// anchor is the day-of-month the user last landed on explicitly. Month
	// and year steps clamp to the month length but aim for anchor, so a
	// step forward and back returns to the same date.
	anchor int
}

func NewNavigator(ref time.Time, mode ViewMode, now func() time.Time) *Navigator {
	if now == nil {
		now = time.Now
	}
	if _, err := ParseViewMode(string(mode)); err != nil {
		mode = ViewWeek
	}
	n := &Navigator{mode: mode, now: now}
	n.SetReference(ref)
	return n
}

func (n *Navigator) Reference() time.Time { return n.ref }
func (n *Navigator) Mode() ViewMode       { return n.mode }

// SetMode switches granularity; the reference date is unchanged.
func (n *Navigator) SetMode(mode ViewMode) error {
	m, err := ParseViewMode(string(mode))
	if err != nil {
		return err
	}
	n.mode = m
	return nil
}

// SetReference jumps to d.
func (n *Navigator) SetReference(d time.Time) {
	n.ref = model.DateOf(d)
	n.anchor = n.ref.Day()
}

// Advance steps one unit of the current granularity forward (direction > 0)
// or backward (direction < 0). Zero is a no-op. Month and year steps aim
// for the anchor day, not ref.Day(), so Jan 31 -> Feb 29 -> Mar 31.
func (n *Navigator) Advance(direction int) {
	switch {
	case direction > 0:
		direction = 1
	case direction < 0:
		direction = -1
	default:
		return
	}

	n.ref = Step(n.ref, n.mode, direction, n.anchor)
	if n.mode == ViewDay || n.mode == ViewWeek {
		n.anchor = n.ref.Day()
	}
}

// GoToToday resets the reference date to the current date, independent of
// view mode.
func (n *Navigator) GoToToday() {
	n.SetReference(n.now())
}

// Step moves ref by steps units of mode. Month and year steps land on
// anchorDay, clamped to the target month's length.
func Step(ref time.Time, mode ViewMode, steps int, anchorDay int) time.Time {
	ref = model.DateOf(ref)
	switch mode {
	case ViewDay:
		return ref.AddDate(0, 0, steps)
	case ViewWeek:
		return ref.AddDate(0, 0, 7*steps)
	case ViewMonth:
		return addMonths(ref, steps, anchorDay)
	case ViewYear:
		return addMonths(ref, 12*steps, anchorDay)
	}
	return ref
}

func addMonths(ref time.Time, months, anchorDay int) time.Time {
	total := int(ref.Month()) - 1 + months
	year := ref.Year() + floorDiv(total, 12)
	month := time.Month(total-floorDiv(total, 12)*12 + 1)

	if anchorDay <= 0 {
		anchorDay = ref.Day()
	}
	day := min(anchorDay, model.DaysIn(year, month))
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
