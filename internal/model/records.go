package model

import "time"

// Clinical and administrative records shown on the patient detail, files
// and dashboard pages. Enumerated fields are validated at the fixture
// boundary; see internal/fixture.

type ClinicalNote struct {
	ID        string    `json:"id"`
	PatientID string    `json:"patient_id"`
	Date      time.Time `json:"date"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Author    string    `json:"author"`
	Type      string    `json:"type"` // progress | encounter | procedure | general
}

type Prescription struct {
	ID           string     `json:"id"`
	PatientID    string     `json:"patient_id"`
	Medication   string     `json:"medication"`
	Dosage       string     `json:"dosage"`
	Frequency    string     `json:"frequency"`
	StartDate    time.Time  `json:"start_date"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	PrescribedBy string     `json:"prescribed_by"`
	Status       string     `json:"status"` // active | completed | discontinued
	Notes        string     `json:"notes"`
}

func (p Prescription) Active() bool {
	return p.Status == "active"
}

type LabResult struct {
	ID             string    `json:"id"`
	PatientID      string    `json:"patient_id"`
	TestName       string    `json:"test_name"`
	Date           time.Time `json:"date"`
	Status         string    `json:"status"` // pending | completed | reviewed
	Results        string    `json:"results"`
	NormalRange    string    `json:"normal_range"`
	Interpretation string    `json:"interpretation"` // normal | abnormal | critical, optional
	OrderedBy      string    `json:"ordered_by"`
}

type PatientFile struct {
	ID         string    `json:"id"`
	PatientID  string    `json:"patient_id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"` // lab | prescription | report | imaging | other
	UploadedAt time.Time `json:"uploaded_at"`
	UploadedBy string    `json:"uploaded_by"`
	Size       string    `json:"size"`
	URL        string    `json:"url"`
}

type TimelineEvent struct {
	ID          string            `json:"id"`
	PatientID   string            `json:"patient_id"`
	Date        time.Time         `json:"date"`
	Type        string            `json:"type"` // visit | note | file | prescription | lab
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type FollowUp struct {
	Date   time.Time `json:"date"`
	Reason string    `json:"reason"`
}

type CarePlan struct {
	ID              string     `json:"id"`
	PatientID       string     `json:"patient_id"`
	Goals           []string   `json:"goals"`
	Treatments      []string   `json:"treatments"`
	Recommendations []string   `json:"recommendations"`
	FollowUps       []FollowUp `json:"follow_ups"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type Notification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"` // appointment | file | lab | message | reminder
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Date      time.Time `json:"date"`
	Read      bool      `json:"read"`
	ActionURL string    `json:"action_url"`
}
