package ics

import (
	"time"

	"clinicdash/internal/model"
)

// Window is the bookable part of the day in whole hours, end exclusive.
type Window struct {
	StartHour int
	EndHour   int
}

// ToBlocks converts occurrences into reserved appointments. A timed event
// yields one block per calendar day it touches, clipped to that day; an
// all-day event covers the whole window on each of its days.
func ToBlocks(occs []model.Occurrence, provider string, w Window) []model.Appointment {
	out := []model.Appointment{}
	for _, o := range occs {
		if o.AllDay {
			for d := dayStart(o.Start); d.Before(o.End); d = d.AddDate(0, 0, 1) {
				out = append(out, block(o, provider, d, model.Clock{Hour: w.StartHour}, (w.EndHour-w.StartHour)*60))
			}
			continue
		}

		if !o.End.After(o.Start) {
			out = append(out, block(o, provider, o.Start, clockOf(o.Start), 0))
			continue
		}
		for seg := o.Start; seg.Before(o.End); {
			next := dayStart(seg).AddDate(0, 0, 1)
			end := o.End
			if next.Before(end) {
				end = next
			}
			out = append(out, block(o, provider, seg, clockOf(seg), int(end.Sub(seg)/time.Minute)))
			seg = next
		}
	}
	return out
}

func block(o model.Occurrence, provider string, day time.Time, start model.Clock, minutes int) model.Appointment {
	date := model.DateOf(day)
	return model.Appointment{
		ID:        "ics:" + o.SourceID + ":" + o.UID + "@" + o.InstanceKey + ":" + model.FormatDate(date),
		PatientID: model.ReservedPatientID,
		Date:      date,
		Start:     start,
		Duration:  minutes,
		Status:    model.StatusScheduled,
		Notes:     o.Summary,
		Provider:  provider,
		Source:    o.SourceID,
	}
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func clockOf(t time.Time) model.Clock {
	return model.Clock{Hour: t.Hour(), Minute: t.Minute()}
}
