package store

import (
	"slices"
	"time"

	"clinicdash/internal/fixture"
	"clinicdash/internal/model"
)

// PatientDetail aggregates everything shown on one patient's page.
type PatientDetail struct {
	Patient       model.Patient         `json:"patient"`
	Age           int                   `json:"age"`
	Notes         []model.ClinicalNote  `json:"notes"`
	Prescriptions []model.Prescription  `json:"prescriptions"`
	Active        []model.Prescription  `json:"active"`
	Labs          []model.LabResult     `json:"labs"`
	Files         []model.PatientFile   `json:"files"`
	Timeline      []model.TimelineEvent `json:"timeline"`
	Appointments  []model.Appointment   `json:"appointments"`
	CarePlan      *model.CarePlan       `json:"care_plan,omitempty"`

	// CurrentEncounter is the first scheduled or in-progress appointment.
	CurrentEncounter *model.Appointment `json:"current_encounter,omitempty"`
}

// PatientDetail resolves the patient and every related record from one
// dataset snapshot.
func (s *Store) PatientDetail(id string, now time.Time) (PatientDetail, error) {
	return patientDetail(s.snapshot(), id, now)
}

func patientDetail(data *fixture.Data, id string, now time.Time) (PatientDetail, error) {
	i := slices.IndexFunc(data.Patients, func(p model.Patient) bool { return p.ID == id })
	if i < 0 {
		return PatientDetail{}, ErrNotFound
	}
	p := data.Patients[i]

	d := PatientDetail{
		Patient:       p,
		Age:           p.Age(now),
		Notes:         filterByPatient(data.Notes, id, func(n model.ClinicalNote) string { return n.PatientID }),
		Prescriptions: filterByPatient(data.Prescriptions, id, func(r model.Prescription) string { return r.PatientID }),
		Labs:          filterByPatient(data.Labs, id, func(l model.LabResult) string { return l.PatientID }),
		Files:         filterByPatient(data.Files, id, func(f model.PatientFile) string { return f.PatientID }),
		Timeline:      filterByPatient(data.Timeline, id, func(t model.TimelineEvent) string { return t.PatientID }),
		Appointments:  filterByPatient(data.Appointments, id, func(a model.Appointment) string { return a.PatientID }),
		Active:        []model.Prescription{},
	}

	for _, rx := range d.Prescriptions {
		if rx.Active() {
			d.Active = append(d.Active, rx)
		}
	}
	for i := range data.CarePlans {
		if data.CarePlans[i].PatientID == id {
			cp := data.CarePlans[i]
			d.CarePlan = &cp
			break
		}
	}
	for i := range d.Appointments {
		st := d.Appointments[i].Status
		if st == model.StatusScheduled || st == model.StatusInProgress {
			a := d.Appointments[i]
			d.CurrentEncounter = &a
			break
		}
	}
	return d, nil
}

func filterByPatient[T any](items []T, id string, owner func(T) string) []T {
	out := []T{}
	for _, it := range items {
		if owner(it) == id {
			out = append(out, it)
		}
	}
	return out
}
