package fixture

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	appLog "clinicdash/internal/log"
	"clinicdash/internal/model"
)

// SourceFixture is the Appointment.Source value of fixture records.
const SourceFixture = "fixture"

//go:embed sample.yaml
var sample []byte

// Data is the fully typed, joined clinic dataset.
type Data struct {
	Patients      []model.Patient
	Appointments  []model.Appointment
	Notes         []model.ClinicalNote
	Prescriptions []model.Prescription
	Labs          []model.LabResult
	Files         []model.PatientFile
	Timeline      []model.TimelineEvent
	CarePlans     []model.CarePlan
	Notifications []model.Notification
}

// Default returns the embedded sample dataset.
func Default() (*Data, error) {
	return Parse(sample)
}

// Load reads and parses the fixture at path.
func Load(path string) (*Data, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fixture: read %s: %w", path, err)
	}
	data, err := Parse(body)
	if err != nil {
		return nil, fmt.Errorf("fixture: %s: %w", path, err)
	}
	return data, nil
}

// Parse converts a YAML fixture into typed records.
//
// Malformed dates, times, enumeration values, non-positive durations,
// duplicate IDs and appointments that reference unknown patients are all
// reported; the returned error joins every problem found and no partial
// dataset is returned.
func Parse(body []byte) (*Data, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.New("empty fixture")
	}

	var doc rawDocument
	dec := yaml.NewDecoder(bytes.NewReader(body))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}

	p := &parser{}
	out := &Data{}

	patientSeen := map[string]bool{}
	for _, rp := range doc.Patients {
		p.unique("patient", rp.ID, patientSeen)
		out.Patients = append(out.Patients, p.patient(rp))
	}

	// Join target: pointers into out.Patients stay valid because the slice
	// is not appended to after this point.
	byID := make(map[string]*model.Patient, len(out.Patients))
	for i := range out.Patients {
		byID[out.Patients[i].ID] = &out.Patients[i]
	}

	apptSeen := map[string]bool{}
	for _, ra := range doc.Appointments {
		p.unique("appointment", ra.ID, apptSeen)
		a := p.appointment(ra)
		if !a.IsReserved() {
			pt, ok := byID[a.PatientID]
			if !ok {
				p.fail("appointment", ra.ID, "unknown patient %q", ra.PatientID)
			}
			a.Patient = pt
		}
		out.Appointments = append(out.Appointments, a)
	}

	for _, r := range doc.Notes {
		p.ownedBy("note", r.ID, r.PatientID, byID)
		out.Notes = append(out.Notes, model.ClinicalNote{
			ID:        r.ID,
			PatientID: r.PatientID,
			Date:      p.date("note", r.ID, "date", r.Date),
			Title:     r.Title,
			Content:   r.Content,
			Author:    r.Author,
			Type:      p.oneOf("note", r.ID, "type", r.Type, "progress", "encounter", "procedure", "general"),
		})
	}

	for _, r := range doc.Prescriptions {
		p.ownedBy("prescription", r.ID, r.PatientID, byID)
		out.Prescriptions = append(out.Prescriptions, model.Prescription{
			ID:           r.ID,
			PatientID:    r.PatientID,
			Medication:   r.Medication,
			Dosage:       r.Dosage,
			Frequency:    r.Frequency,
			StartDate:    p.date("prescription", r.ID, "start_date", r.StartDate),
			EndDate:      p.optDate("prescription", r.ID, "end_date", r.EndDate),
			PrescribedBy: r.PrescribedBy,
			Status:       p.oneOf("prescription", r.ID, "status", r.Status, "active", "completed", "discontinued"),
			Notes:        r.Notes,
		})
	}

	for _, r := range doc.Labs {
		p.ownedBy("lab", r.ID, r.PatientID, byID)
		interp := ""
		if r.Interpretation != "" {
			interp = p.oneOf("lab", r.ID, "interpretation", r.Interpretation, "normal", "abnormal", "critical")
		}
		out.Labs = append(out.Labs, model.LabResult{
			ID:             r.ID,
			PatientID:      r.PatientID,
			TestName:       r.TestName,
			Date:           p.date("lab", r.ID, "date", r.Date),
			Status:         p.oneOf("lab", r.ID, "status", r.Status, "pending", "completed", "reviewed"),
			Results:        r.Results,
			NormalRange:    r.NormalRange,
			Interpretation: interp,
			OrderedBy:      r.OrderedBy,
		})
	}

	for _, r := range doc.Files {
		p.ownedBy("file", r.ID, r.PatientID, byID)
		out.Files = append(out.Files, model.PatientFile{
			ID:         r.ID,
			PatientID:  r.PatientID,
			Name:       r.Name,
			Type:       p.oneOf("file", r.ID, "type", r.Type, "lab", "prescription", "report", "imaging", "other"),
			UploadedAt: p.timestamp("file", r.ID, "uploaded_at", r.UploadedAt),
			UploadedBy: r.UploadedBy,
			Size:       r.Size,
			URL:        r.URL,
		})
	}

	for _, r := range doc.Timeline {
		p.ownedBy("timeline", r.ID, r.PatientID, byID)
		out.Timeline = append(out.Timeline, model.TimelineEvent{
			ID:          r.ID,
			PatientID:   r.PatientID,
			Date:        p.date("timeline", r.ID, "date", r.Date),
			Type:        p.oneOf("timeline", r.ID, "type", r.Type, "visit", "note", "file", "prescription", "lab"),
			Title:       r.Title,
			Description: r.Description,
			Metadata:    r.Metadata,
		})
	}

	for _, r := range doc.CarePlans {
		p.ownedBy("care plan", r.ID, r.PatientID, byID)
		cp := model.CarePlan{
			ID:              r.ID,
			PatientID:       r.PatientID,
			Goals:           r.Goals,
			Treatments:      r.Treatments,
			Recommendations: r.Recommendations,
			CreatedAt:       p.timestamp("care plan", r.ID, "created_at", r.CreatedAt),
			UpdatedAt:       p.timestamp("care plan", r.ID, "updated_at", r.UpdatedAt),
		}
		for _, f := range r.FollowUps {
			cp.FollowUps = append(cp.FollowUps, model.FollowUp{
				Date:   p.date("care plan", r.ID, "follow_ups.date", f.Date),
				Reason: f.Reason,
			})
		}
		out.CarePlans = append(out.CarePlans, cp)
	}

	for _, r := range doc.Notifications {
		out.Notifications = append(out.Notifications, model.Notification{
			ID:        r.ID,
			Type:      p.oneOf("notification", r.ID, "type", r.Type, "appointment", "file", "lab", "message", "reminder"),
			Title:     r.Title,
			Message:   r.Message,
			Date:      p.timestamp("notification", r.ID, "date", r.Date),
			Read:      r.Read,
			ActionURL: r.ActionURL,
		})
	}

	if err := errors.Join(p.errs...); err != nil {
		appLog.Error("fixture rejected", err, "problems", len(p.errs))
		return nil, err
	}

	appLog.Info("fixture parsed",
		"patients", len(out.Patients),
		"appointments", len(out.Appointments),
		"files", len(out.Files),
		"notifications", len(out.Notifications),
	)
	return out, nil
}

// parser accumulates conversion errors instead of stopping at the first one,
// so a broken fixture is reported in a single pass.
type parser struct {
	errs []error
}

func (p *parser) fail(kind, id, format string, args ...any) {
	p.errs = append(p.errs, fmt.Errorf("%s %q: %s", kind, id, fmt.Sprintf(format, args...)))
}

func (p *parser) unique(kind, id string, seen map[string]bool) {
	if id == "" {
		p.fail(kind, id, "missing id")
		return
	}
	if seen[id] {
		p.fail(kind, id, "duplicate id")
	}
	seen[id] = true
}

func (p *parser) ownedBy(kind, id, patientID string, byID map[string]*model.Patient) {
	if _, ok := byID[patientID]; !ok {
		p.fail(kind, id, "unknown patient %q", patientID)
	}
}

func (p *parser) date(kind, id, field, v string) time.Time {
	t, err := model.ParseDate(v)
	if err != nil {
		p.fail(kind, id, "%s: %v", field, err)
	}
	return t
}

func (p *parser) optDate(kind, id, field, v string) *time.Time {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	t := p.date(kind, id, field, v)
	return &t
}

var timestampLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04", model.DateLayout}

// timestamp accepts RFC3339, naive ISO date-times and plain dates.
func (p *parser) timestamp(kind, id, field, v string) time.Time {
	v = strings.TrimSpace(v)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			return t
		}
	}
	p.fail(kind, id, "%s: invalid timestamp %q", field, v)
	return time.Time{}
}

func (p *parser) oneOf(kind, id, field, v string, allowed ...string) string {
	if !slices.Contains(allowed, v) {
		p.fail(kind, id, "%s: %q not one of %s", field, v, strings.Join(allowed, ", "))
	}
	return v
}

func (p *parser) patient(r rawPatient) model.Patient {
	gender, err := model.ParseGender(r.Gender)
	if err != nil {
		p.fail("patient", r.ID, "%v", err)
	}
	return model.Patient{
		ID:              r.ID,
		FirstName:       r.FirstName,
		LastName:        r.LastName,
		DateOfBirth:     p.date("patient", r.ID, "date_of_birth", r.DateOfBirth),
		Gender:          gender,
		Email:           r.Email,
		Phone:           r.Phone,
		Address:         r.Address,
		Avatar:          r.Avatar,
		Conditions:      r.Conditions,
		Allergies:       r.Allergies,
		LastVisit:       p.optDate("patient", r.ID, "last_visit", r.LastVisit),
		NextAppointment: p.optDate("patient", r.ID, "next_appointment", r.NextAppointment),
		CreatedAt:       p.timestamp("patient", r.ID, "created_at", r.CreatedAt),
	}
}

func (p *parser) appointment(r rawAppointment) model.Appointment {
	start, err := model.ParseClock(r.Time)
	if err != nil {
		p.fail("appointment", r.ID, "%v", err)
	}
	status, err := model.ParseStatus(r.Status)
	if err != nil {
		p.fail("appointment", r.ID, "%v", err)
	}
	typ, err := model.ParseAppointmentType(r.Type)
	if err != nil {
		p.fail("appointment", r.ID, "%v", err)
	}
	if r.Duration <= 0 {
		p.fail("appointment", r.ID, "duration must be positive, got %d", r.Duration)
	}
	return model.Appointment{
		ID:        r.ID,
		PatientID: r.PatientID,
		Date:      p.date("appointment", r.ID, "date", r.Date),
		Start:     start,
		Duration:  r.Duration,
		Type:      typ,
		Status:    status,
		Notes:     r.Notes,
		Provider:  r.Provider,
		Source:    SourceFixture,
	}
}
