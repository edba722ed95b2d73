package calendar

import "clinicdash/internal/model"

// StyleUnknown is returned for values outside the known enumerations.
const StyleUnknown = "unknown"

var statusStyles = map[model.Status]string{
	model.StatusScheduled:  "status-scheduled",
	model.StatusInProgress: "status-in-progress",
	model.StatusCompleted:  "status-completed",
	model.StatusCanceled:   "status-canceled",
	model.StatusNoShow:     "status-no-show",
}

var typeLabels = map[model.AppointmentType]string{
	model.TypeConsultation: "Consultation",
	model.TypeFollowUp:     "Follow-up",
	model.TypeProcedure:    "Procedure",
	model.TypeCheckUp:      "Check-up",
}

// StatusStyle returns the presentation class for an appointment status.
func StatusStyle(s model.Status) string {
	if v, ok := statusStyles[s]; ok {
		return v
	}
	return StyleUnknown
}

// TypeLabel returns the display label for an appointment type.
func TypeLabel(t model.AppointmentType) string {
	if v, ok := typeLabels[t]; ok {
		return v
	}
	return StyleUnknown
}
