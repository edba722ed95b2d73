package ics

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	appLog "clinicdash/internal/log"
	"clinicdash/internal/model"
)

const defaultMaxOccurrences = 5000

// ExpandConfig bounds recurrence expansion.
type ExpandConfig struct {
	// Location is the display timezone occurrences are converted into.
	Location *time.Location

	// RangeStart / RangeEnd select occurrences overlapping the window.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrences caps a single recurring event.
	MaxOccurrences int
}

// ExpandResult lists occurrences and the UIDs that hit the cap.
type ExpandResult struct {
	Occurrences []model.Occurrence
	Truncated   []string
}

// Expand turns parsed events into concrete occurrences: single events,
// RRULE series minus EXDATEs, and RECURRENCE-ID overrides replacing the
// instance they name. Output follows the input order of base events.
func Expand(events []Event, cfg ExpandConfig) (ExpandResult, error) {
	var res ExpandResult
	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return res, errors.New("ics: expand range ends before it starts")
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.MaxOccurrences <= 0 {
		cfg.MaxOccurrences = defaultMaxOccurrences
	}

	overrides := make(map[string][]Event)
	for _, ev := range events {
		if ev.IsOverride() {
			overrides[ev.UID] = append(overrides[ev.UID], ev)
		}
	}

	res.Occurrences = []model.Occurrence{}
	for _, ev := range events {
		if ev.IsOverride() {
			continue
		}
		var occ []model.Occurrence
		if ev.RRule == "" {
			occ = expandSingle(ev, overrides[ev.UID], cfg)
		} else {
			var capped bool
			occ, capped = expandSeries(ev, overrides[ev.UID], cfg)
			if capped {
				res.Truncated = append(res.Truncated, ev.UID)
				appLog.Warn("ics expansion truncated", "uid", ev.UID, "cap", cfg.MaxOccurrences)
			}
		}
		res.Occurrences = append(res.Occurrences, occ...)
	}
	return res, nil
}

func expandSingle(ev Event, overrides []Event, cfg ExpandConfig) []model.Occurrence {
	if o, ok := overrideFor(overrides, ev.Start); ok {
		ev = o
	}
	if !overlaps(ev.Start, ev.End, cfg.RangeStart, cfg.RangeEnd) {
		return nil
	}
	return []model.Occurrence{occurrence(ev, ev.Start, ev.End, cfg.Location)}
}

func expandSeries(ev Event, overrides []Event, cfg ExpandConfig) ([]model.Occurrence, bool) {
	r, err := rrule.StrToRRule(ev.RRule)
	if err != nil {
		appLog.Error("ics rrule parse failed", err, "uid", ev.UID, "rrule", ev.RRule)
		return nil, false
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	// Widen the lower bound by the event length so instances already in
	// progress at RangeStart are kept.
	dur := ev.End.Sub(ev.Start)
	loc := ev.Start.Location()
	starts := set.Between(cfg.RangeStart.Add(-dur).In(loc), cfg.RangeEnd.In(loc), true)

	capped := false
	if len(starts) > cfg.MaxOccurrences {
		starts = starts[:cfg.MaxOccurrences]
		capped = true
	}

	out := make([]model.Occurrence, 0, len(starts))
	for _, s := range starts {
		inst, start, end := ev, s, s.Add(dur)
		if ev.AllDay {
			start = time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, s.Location())
			end = start.Add(dur)
		}
		if o, ok := overrideFor(overrides, start); ok {
			inst, start, end = o, o.Start, o.End
		}
		if !overlaps(start, end, cfg.RangeStart, cfg.RangeEnd) {
			continue
		}
		out = append(out, occurrence(inst, start, end, cfg.Location))
	}
	return out, capped
}

// overrideFor finds the override whose RECURRENCE-ID names start.
func overrideFor(overrides []Event, start time.Time) (Event, bool) {
	for _, o := range overrides {
		if o.RecurrenceID.Equal(start) {
			return o, true
		}
	}
	return Event{}, false
}

// occurrence converts to the display timezone. All-day events keep their
// calendar dates rather than shifting with the offset.
func occurrence(ev Event, start, end time.Time, loc *time.Location) model.Occurrence {
	if ev.AllDay {
		start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
		end = time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, loc)
		if !end.After(start) {
			end = start.AddDate(0, 0, 1)
		}
	} else {
		start, end = start.In(loc), end.In(loc)
	}
	return model.Occurrence{
		SourceID:    ev.Feed.ID,
		UID:         ev.UID,
		InstanceKey: start.Format(time.RFC3339),
		Summary:     ev.Summary,
		Location:    ev.Location,
		AllDay:      ev.AllDay,
		Start:       start,
		End:         end,
	}
}

// overlaps treats both ranges as half-open; a zero-length event counts
// when its instant falls inside the window.
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	if !aEnd.After(aStart) {
		return !aStart.Before(bStart) && aStart.Before(bEnd)
	}
	return aStart.Before(bEnd) && aEnd.After(bStart)
}
