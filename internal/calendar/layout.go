package calendar

import (
	"math"

	"clinicdash/internal/model"
)

// Layout is the pixel geometry of the day/week time grid.
type Layout struct {
	// WindowStart / WindowEnd bound the bookable window in whole hours;
	// WindowEnd is exclusive.
	WindowStart int
	WindowEnd   int

	// SlotHeight is the pixel height of one hour.
	SlotHeight float64

	// MinBlockHeight keeps short appointments visible and clickable.
	MinBlockHeight float64
}

// DefaultLayout is an 8-slot workday (08:00-16:00) at 80px per hour.
var DefaultLayout = Layout{
	WindowStart:    8,
	WindowEnd:      16,
	SlotHeight:     80,
	MinBlockHeight: 24,
}

// Offset returns the vertical position and height of a block starting at
// start and lasting duration minutes:
//
//	top    = (hour - WindowStart) * SlotHeight + (minute/60) * SlotHeight
//	height = max((duration/60) * SlotHeight, MinBlockHeight)
//
// Times before WindowStart yield a negative top; they are not clamped.
func (l Layout) Offset(start model.Clock, duration int) (top, height float64) {
	top = float64(start.Hour-l.WindowStart)*l.SlotHeight + float64(start.Minute)/60*l.SlotHeight
	height = math.Max(float64(duration)/60*l.SlotHeight, l.MinBlockHeight)
	return top, height
}

// OutOfHours reports whether a block starting at start for duration minutes
// leaves the bookable window on either side.
func (l Layout) OutOfHours(start model.Clock, duration int) bool {
	begin := start.Minutes()
	return begin < l.WindowStart*60 || begin+duration > l.WindowEnd*60
}

// Slots returns one label per hour of the window.
func (l Layout) Slots() []model.Clock {
	if l.WindowEnd <= l.WindowStart {
		return nil
	}
	out := make([]model.Clock, 0, l.WindowEnd-l.WindowStart)
	for h := l.WindowStart; h < l.WindowEnd; h++ {
		out = append(out, model.Clock{Hour: h})
	}
	return out
}

// GridHeight is the total pixel height of the time grid.
func (l Layout) GridHeight() float64 {
	return float64(l.WindowEnd-l.WindowStart) * l.SlotHeight
}
