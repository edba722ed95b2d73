package model

import "fmt"

type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusCanceled   Status = "canceled"
	StatusNoShow     Status = "no-show"
)

var statuses = []Status{StatusScheduled, StatusInProgress, StatusCompleted, StatusCanceled, StatusNoShow}

func ParseStatus(s string) (Status, error) {
	for _, v := range statuses {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown appointment status %q", s)
}

type AppointmentType string

const (
	TypeConsultation AppointmentType = "consultation"
	TypeFollowUp     AppointmentType = "follow-up"
	TypeProcedure    AppointmentType = "procedure"
	TypeCheckUp      AppointmentType = "check-up"
)

var appointmentTypes = []AppointmentType{TypeConsultation, TypeFollowUp, TypeProcedure, TypeCheckUp}

func ParseAppointmentType(s string) (AppointmentType, error) {
	for _, v := range appointmentTypes {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown appointment type %q", s)
}

func ParseGender(s string) (Gender, error) {
	switch Gender(s) {
	case GenderMale, GenderFemale, GenderOther:
		return Gender(s), nil
	}
	return "", fmt.Errorf("unknown gender %q", s)
}
