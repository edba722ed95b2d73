package model

import (
	"strings"
	"time"
)

// ReservedPatientID is the patient reference carried by reserved/blocked
// slots. Records with this reference are not patient appointments.
const ReservedPatientID = "reserved"

// Appointment is a single scheduled slot on the clinic calendar.
type Appointment struct {
	ID        string `json:"id"`
	PatientID string `json:"patient_id"`

	// Patient is joined at load time. It is nil for reserved blocks.
	Patient *Patient `json:"patient,omitempty"`

	// Date is a civil date (midnight UTC); only Y/M/D are meaningful.
	Date     time.Time `json:"date"`
	Start    Clock     `json:"start"`
	Duration int       `json:"duration"` // minutes

	Type     AppointmentType `json:"type"`
	Status   Status          `json:"status"`
	Notes    string          `json:"notes"`
	Provider string          `json:"provider"`

	// Source is "fixture" for fixture records, otherwise the ID of the
	// external calendar feed the block was imported from.
	Source string `json:"source"`
}

// IsReserved reports whether the record is a non-patient blocked slot.
func (a Appointment) IsReserved() bool {
	return a.PatientID == ReservedPatientID
}

// DateKey returns the appointment date as YYYY-MM-DD.
func (a Appointment) DateKey() string {
	return FormatDate(a.Date)
}

// End returns the clock time at which the appointment ends. Minutes past
// midnight are not wrapped.
func (a Appointment) End() Clock {
	return ClockFromMinutes(a.Start.Minutes() + a.Duration)
}

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Patient is a patient profile. LastVisit and NextAppointment are
// denormalized and may be nil.
type Patient struct {
	ID          string    `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	DateOfBirth time.Time `json:"date_of_birth"`
	Gender      Gender    `json:"gender"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Address     string    `json:"address"`
	Avatar      string    `json:"avatar"`
	Conditions  []string  `json:"conditions"`
	Allergies   []string  `json:"allergies"`

	LastVisit       *time.Time `json:"last_visit,omitempty"`
	NextAppointment *time.Time `json:"next_appointment,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (p Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Initials returns the upper-cased first letters of first and last name.
func (p Patient) Initials() string {
	var b strings.Builder
	for _, s := range []string{p.FirstName, p.LastName} {
		for _, r := range s {
			b.WriteString(strings.ToUpper(string(r)))
			break
		}
	}
	return b.String()
}

// Age returns the number of full years between DateOfBirth and now.
func (p Patient) Age(now time.Time) int {
	if p.DateOfBirth.IsZero() {
		return 0
	}
	years := now.Year() - p.DateOfBirth.Year()
	if now.Month() < p.DateOfBirth.Month() ||
		(now.Month() == p.DateOfBirth.Month() && now.Day() < p.DateOfBirth.Day()) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

// Occurrence is a single concrete instance of an external calendar event
// after recurrence expansion and timezone normalization.
type Occurrence struct {
	SourceID string `json:"source_id"`
	UID      string `json:"uid"`

	// InstanceKey identifies one occurrence of a recurring event; it is
	// derived from the local start time.
	InstanceKey string `json:"instance_key"`

	Summary  string `json:"summary"`
	Location string `json:"location"`

	AllDay bool `json:"all_day"`

	// Start / End are in the configured display timezone.
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}
