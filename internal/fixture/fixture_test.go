package fixture

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinicdash/internal/model"
)

func TestDefaultSampleParses(t *testing.T) {
	data, err := Default()
	require.NoError(t, err)

	assert.Len(t, data.Patients, 6)
	assert.Len(t, data.Appointments, 12)
	assert.NotEmpty(t, data.Notifications)

	for _, a := range data.Appointments {
		assert.Equal(t, SourceFixture, a.Source)
		if a.IsReserved() {
			assert.Nil(t, a.Patient, a.ID)
			continue
		}
		require.NotNil(t, a.Patient, a.ID)
		assert.Equal(t, a.PatientID, a.Patient.ID)
	}
}

func TestParseJoinsAndTypes(t *testing.T) {
	body := []byte(`
patients:
  - {id: p1, first_name: Ada, last_name: Park, date_of_birth: "1980-02-29", gender: female, created_at: "2024-01-01"}
appointments:
  - {id: a1, patient_id: p1, date: "2024-06-10", time: "08:00", duration: 30, type: consultation, status: scheduled}
  - {id: a2, patient_id: reserved, date: "2024-06-10", time: "12:00", duration: 60, type: procedure, status: scheduled, notes: Lunch}
`)
	data, err := Parse(body)
	require.NoError(t, err)
	require.Len(t, data.Appointments, 2)

	a := data.Appointments[0]
	assert.Equal(t, "2024-06-10", a.DateKey())
	assert.Equal(t, model.Clock{Hour: 8}, a.Start)
	assert.Equal(t, model.StatusScheduled, a.Status)
	require.NotNil(t, a.Patient)
	assert.Equal(t, "Ada Park", a.Patient.FullName())
	assert.Same(t, &data.Patients[0], a.Patient)

	assert.True(t, data.Appointments[1].IsReserved())
	assert.Nil(t, data.Appointments[1].Patient)
}

func TestParseReportsEveryProblem(t *testing.T) {
	body := []byte(`
patients:
  - {id: p1, first_name: Ada, last_name: Park, date_of_birth: "1980-02-30", gender: female, created_at: "2024-01-01"}
appointments:
  - {id: a1, patient_id: p1, date: "2024/06/10", time: "08:00", duration: 30, type: consultation, status: scheduled}
  - {id: a2, patient_id: p1, date: "2024-06-10", time: "8am", duration: 30, type: consultation, status: scheduled}
  - {id: a3, patient_id: p1, date: "2024-06-10", time: "09:00", duration: 0, type: surgery, status: cancelled}
  - {id: a3, patient_id: ghost, date: "2024-06-10", time: "09:00", duration: 30, type: consultation, status: scheduled}
files:
  - {id: f1, patient_id: p1, name: x.pdf, type: spreadsheet, uploaded_at: "yesterday"}
`)
	data, err := Parse(body)
	require.Error(t, err)
	assert.Nil(t, data)

	msg := err.Error()
	for _, want := range []string{
		`patient "p1": date_of_birth`,
		`appointment "a1": date`,
		`appointment "a2": invalid time "8am"`,
		`appointment "a3": duration must be positive`,
		`unknown appointment type "surgery"`,
		`unknown appointment status "cancelled"`,
		`appointment "a3": duplicate id`,
		`unknown patient "ghost"`,
		`file "f1": type: "spreadsheet" not one of`,
		`file "f1": uploaded_at: invalid timestamp`,
	} {
		assert.Contains(t, msg, want)
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("patients: []\nappointmnets: []\n"))
	assert.Error(t, err)
}

func TestParseRejectsEmptyBody(t *testing.T) {
	_, err := Parse([]byte("  \n"))
	assert.Error(t, err)
}

func TestLoadFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clinic.yaml")
	require.NoError(t, os.WriteFile(path, sample, 0o600))

	data, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, data.Patients, 6)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
