package fixture

// Raw YAML shapes. Every date/time/enum field is kept as a string here and
// converted by Parse so that malformed values are reported, not dropped.

type rawDocument struct {
	Patients      []rawPatient      `yaml:"patients"`
	Appointments  []rawAppointment  `yaml:"appointments"`
	Notes         []rawNote         `yaml:"notes"`
	Prescriptions []rawPrescription `yaml:"prescriptions"`
	Labs          []rawLab          `yaml:"labs"`
	Files         []rawFile         `yaml:"files"`
	Timeline      []rawTimeline     `yaml:"timeline"`
	CarePlans     []rawCarePlan     `yaml:"care_plans"`
	Notifications []rawNotification `yaml:"notifications"`
}

type rawPatient struct {
	ID              string   `yaml:"id"`
	FirstName       string   `yaml:"first_name"`
	LastName        string   `yaml:"last_name"`
	DateOfBirth     string   `yaml:"date_of_birth"`
	Gender          string   `yaml:"gender"`
	Email           string   `yaml:"email"`
	Phone           string   `yaml:"phone"`
	Address         string   `yaml:"address"`
	Avatar          string   `yaml:"avatar"`
	Conditions      []string `yaml:"conditions"`
	Allergies       []string `yaml:"allergies"`
	LastVisit       string   `yaml:"last_visit"`
	NextAppointment string   `yaml:"next_appointment"`
	CreatedAt       string   `yaml:"created_at"`
}

type rawAppointment struct {
	ID        string `yaml:"id"`
	PatientID string `yaml:"patient_id"`
	Date      string `yaml:"date"`
	Time      string `yaml:"time"`
	Duration  int    `yaml:"duration"`
	Type      string `yaml:"type"`
	Status    string `yaml:"status"`
	Notes     string `yaml:"notes"`
	Provider  string `yaml:"provider"`
}

type rawNote struct {
	ID        string `yaml:"id"`
	PatientID string `yaml:"patient_id"`
	Date      string `yaml:"date"`
	Title     string `yaml:"title"`
	Content   string `yaml:"content"`
	Author    string `yaml:"author"`
	Type      string `yaml:"type"`
}

type rawPrescription struct {
	ID           string `yaml:"id"`
	PatientID    string `yaml:"patient_id"`
	Medication   string `yaml:"medication"`
	Dosage       string `yaml:"dosage"`
	Frequency    string `yaml:"frequency"`
	StartDate    string `yaml:"start_date"`
	EndDate      string `yaml:"end_date"`
	PrescribedBy string `yaml:"prescribed_by"`
	Status       string `yaml:"status"`
	Notes        string `yaml:"notes"`
}

type rawLab struct {
	ID             string `yaml:"id"`
	PatientID      string `yaml:"patient_id"`
	TestName       string `yaml:"test_name"`
	Date           string `yaml:"date"`
	Status         string `yaml:"status"`
	Results        string `yaml:"results"`
	NormalRange    string `yaml:"normal_range"`
	Interpretation string `yaml:"interpretation"`
	OrderedBy      string `yaml:"ordered_by"`
}

type rawFile struct {
	ID         string `yaml:"id"`
	PatientID  string `yaml:"patient_id"`
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	UploadedAt string `yaml:"uploaded_at"`
	UploadedBy string `yaml:"uploaded_by"`
	Size       string `yaml:"size"`
	URL        string `yaml:"url"`
}

type rawTimeline struct {
	ID          string            `yaml:"id"`
	PatientID   string            `yaml:"patient_id"`
	Date        string            `yaml:"date"`
	Type        string            `yaml:"type"`
	Title       string            `yaml:"title"`
	Description string            `yaml:"description"`
	Metadata    map[string]string `yaml:"metadata"`
}

type rawFollowUp struct {
	Date   string `yaml:"date"`
	Reason string `yaml:"reason"`
}

type rawCarePlan struct {
	ID              string        `yaml:"id"`
	PatientID       string        `yaml:"patient_id"`
	Goals           []string      `yaml:"goals"`
	Treatments      []string      `yaml:"treatments"`
	Recommendations []string      `yaml:"recommendations"`
	FollowUps       []rawFollowUp `yaml:"follow_ups"`
	CreatedAt       string        `yaml:"created_at"`
	UpdatedAt       string        `yaml:"updated_at"`
}

type rawNotification struct {
	ID        string `yaml:"id"`
	Type      string `yaml:"type"`
	Title     string `yaml:"title"`
	Message   string `yaml:"message"`
	Date      string `yaml:"date"`
	Read      bool   `yaml:"read"`
	ActionURL string `yaml:"action_url"`
}
