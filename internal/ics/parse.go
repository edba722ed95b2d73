package ics

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "clinicdash/internal/log"
)

// Event is one VEVENT as read from a feed, before recurrence expansion.
type Event struct {
	Feed Feed

	UID      string
	Sequence int

	Summary  string
	Location string

	Start  time.Time
	End    time.Time
	AllDay bool

	RRule   string
	ExDates []time.Time

	// RecurrenceID is set on VEVENTs that replace one instance of a
	// recurring event.
	RecurrenceID *time.Time
}

// IsOverride reports whether the event replaces a single recurring instance.
func (e Event) IsOverride() bool {
	return e.RecurrenceID != nil
}

// ParseICS reads every VEVENT in body. A malformed VEVENT is logged and
// skipped; only an unreadable calendar fails the whole payload.
func ParseICS(feed Feed, body []byte) ([]Event, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.New("ics: empty body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err, "feed", feed.ID, "url", redactURL(feed.URL))
		return nil, err
	}

	events := make([]Event, 0, len(cal.Events()))
	for _, ve := range cal.Events() {
		ev, err := parseEvent(feed, ve)
		if err != nil {
			appLog.Error("ics vevent skipped", err, "feed", feed.ID)
			continue
		}
		events = append(events, ev)
	}

	appLog.Debug("ics parse completed", "feed", feed.ID, "events", len(events))
	return events, nil
}

func parseEvent(feed Feed, ve *ical.VEvent) (Event, error) {
	ev := Event{Feed: feed}

	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || uid.Value == "" {
		return ev, errors.New("ics: missing UID")
	}
	ev.UID = uid.Value

	if p := ve.GetProperty(ical.ComponentPropertySequence); p != nil {
		if n, err := strconv.Atoi(strings.TrimSpace(p.Value)); err == nil {
			ev.Sequence = n
		}
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		ev.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		ev.Location = p.Value
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return ev, errors.New("ics: missing DTSTART")
	}
	start, err := ve.GetStartAt()
	if err != nil {
		return ev, err
	}
	ev.Start = start
	ev.AllDay = isDateValue(dtStart)

	// DTEND is optional: all-day events default to one day, timed events
	// to zero length.
	if end, err := ve.GetEndAt(); err == nil && end.After(start) {
		ev.End = end
	} else if ev.AllDay {
		ev.End = start.AddDate(0, 0, 1)
	} else {
		ev.End = start
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		ev.RRule = p.Value
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		loc := propLocation(p, start.Location())
		for _, part := range strings.Split(p.Value, ",") {
			if t, err := parseICSTime(part, loc); err == nil {
				ev.ExDates = append(ev.ExDates, t)
			}
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertyRecurrenceId); p != nil {
		if t, err := parseICSTime(p.Value, propLocation(p, start.Location())); err == nil {
			ev.RecurrenceID = &t
		}
	}

	return ev, nil
}

// isDateValue detects VALUE=DATE or a bare YYYYMMDD value.
func isDateValue(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

// propLocation resolves a TZID parameter, falling back to def.
func propLocation(p *ical.IANAProperty, def *time.Location) *time.Location {
	if tz, ok := p.ICalParameters["TZID"]; ok && len(tz) > 0 {
		if loc, err := time.LoadLocation(tz[0]); err == nil {
			return loc
		}
	}
	return def
}

// parseICSTime parses the DATE, DATE-TIME and UTC DATE-TIME forms used by
// EXDATE and RECURRENCE-ID. Non-UTC values are read in loc.
func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return time.Time{}, errors.New("ics: empty time value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, loc)
	default:
		return time.ParseInLocation("20060102", v, loc)
	}
}
