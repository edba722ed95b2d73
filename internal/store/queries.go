package store

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"clinicdash/internal/model"
)

// Patient list sort keys.
const (
	SortName      = "name"
	SortLastVisit = "lastVisit"
	SortUpcoming  = "upcoming"
)

// File list sort keys and the catch-all type filter.
const (
	SortDate     = "date"
	SortFileName = "name"
	SortFileType = "type"
	FileTypeAll  = "all"
)

// PatientQuery filters and orders the patients page.
type PatientQuery struct {
	Search string
	Sort   string // name (default) | lastVisit | upcoming
}

// SearchPatients matches Search case-insensitively against first name,
// last name, email and conditions.
func (s *Store) SearchPatients(q PatientQuery) []model.Patient {
	needle := strings.ToLower(strings.TrimSpace(q.Search))
	out := []model.Patient{}
	for _, p := range s.Patients() {
		if needle == "" || patientMatches(p, needle) {
			out = append(out, p)
		}
	}

	switch q.Sort {
	case SortLastVisit:
		// Most recent first; patients never seen go last.
		slices.SortStableFunc(out, func(a, b model.Patient) int {
			return compareOptDate(b.LastVisit, a.LastVisit, false)
		})
	case SortUpcoming:
		// Soonest first; patients with nothing booked go last.
		slices.SortStableFunc(out, func(a, b model.Patient) int {
			return compareOptDate(a.NextAppointment, b.NextAppointment, true)
		})
	default:
		slices.SortStableFunc(out, func(a, b model.Patient) int {
			return cmp.Compare(
				strings.ToLower(a.LastName+" "+a.FirstName),
				strings.ToLower(b.LastName+" "+b.FirstName),
			)
		})
	}
	return out
}

func patientMatches(p model.Patient, needle string) bool {
	if strings.Contains(strings.ToLower(p.FirstName), needle) ||
		strings.Contains(strings.ToLower(p.LastName), needle) ||
		strings.Contains(strings.ToLower(p.Email), needle) {
		return true
	}
	return slices.ContainsFunc(p.Conditions, func(c string) bool {
		return strings.Contains(strings.ToLower(c), needle)
	})
}

// compareOptDate orders optional dates; nil sorts after every date when
// nilLast is true, before every date otherwise.
func compareOptDate(a, b *time.Time, nilLast bool) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		if nilLast {
			return 1
		}
		return -1
	case b == nil:
		if nilLast {
			return -1
		}
		return 1
	}
	return a.Compare(*b)
}

// FileQuery filters and orders the files page.
type FileQuery struct {
	Search string
	Type   string // all (default) | lab | prescription | report | imaging | other
	Sort   string // date (default) | name | type
}

// FileEntry is a file enriched with its patient for display.
type FileEntry struct {
	model.PatientFile
	Patient *model.Patient `json:"patient,omitempty"`
}

// SearchFiles matches Search against the file name and the owning
// patient's first and last name.
func (s *Store) SearchFiles(q FileQuery) []FileEntry {
	data := s.snapshot()
	patients := make(map[string]*model.Patient, len(data.Patients))
	for i := range data.Patients {
		patients[data.Patients[i].ID] = &data.Patients[i]
	}

	needle := strings.ToLower(strings.TrimSpace(q.Search))
	out := []FileEntry{}
	for _, f := range data.Files {
		e := FileEntry{PatientFile: f, Patient: patients[f.PatientID]}
		if q.Type != "" && q.Type != FileTypeAll && f.Type != q.Type {
			continue
		}
		if needle != "" && !fileMatches(e, needle) {
			continue
		}
		out = append(out, e)
	}

	switch q.Sort {
	case SortFileName:
		slices.SortStableFunc(out, func(a, b FileEntry) int {
			return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		})
	case SortFileType:
		slices.SortStableFunc(out, func(a, b FileEntry) int { return cmp.Compare(a.Type, b.Type) })
	default:
		slices.SortStableFunc(out, func(a, b FileEntry) int { return b.UploadedAt.Compare(a.UploadedAt) })
	}
	return out
}

func fileMatches(e FileEntry, needle string) bool {
	if strings.Contains(strings.ToLower(e.Name), needle) {
		return true
	}
	if e.Patient == nil {
		return false
	}
	return strings.Contains(strings.ToLower(e.Patient.FirstName), needle) ||
		strings.Contains(strings.ToLower(e.Patient.LastName), needle)
}

// UnreadNotifications counts notifications not yet read.
func (s *Store) UnreadNotifications() int {
	n := 0
	for _, nt := range s.Notifications() {
		if !nt.Read {
			n++
		}
	}
	return n
}

// sortByTime orders appointments by start time, stable on ties.
func sortByTime(appts []model.Appointment) {
	slices.SortStableFunc(appts, func(a, b model.Appointment) int {
		return cmp.Compare(a.Start.Minutes(), b.Start.Minutes())
	})
}
