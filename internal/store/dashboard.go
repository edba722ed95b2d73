package store

import (
	"time"

	"clinicdash/internal/model"
)

const (
	dashboardUpcoming      = 3
	dashboardRecent        = 4
	dashboardNotifications = 4
)

// Dashboard is the landing page summary at a given instant.
type Dashboard struct {
	Date           time.Time            `json:"date"`
	Today          []model.Appointment  `json:"today"`
	CompletedToday int                  `json:"completed_today"`
	Upcoming       []model.Appointment  `json:"upcoming"`
	RecentPatients []model.Patient      `json:"recent_patients"`
	TotalPatients  int                  `json:"total_patients"`
	Notifications  []model.Notification `json:"notifications"`
	UnreadCount    int                  `json:"unread_count"`
}

// Dashboard builds the summary for now's calendar date. Reserved blocks are
// left out of every list and count.
func (s *Store) Dashboard(now time.Time) Dashboard {
	today := model.DateOf(now)
	todayKey := model.FormatDate(today)

	d := Dashboard{
		Date:           today,
		Today:          []model.Appointment{},
		Upcoming:       []model.Appointment{},
		RecentPatients: s.SearchPatients(PatientQuery{Sort: SortLastVisit}),
		TotalPatients:  len(s.Patients()),
		UnreadCount:    s.UnreadNotifications(),
	}

	for _, a := range s.Appointments() {
		if a.IsReserved() {
			continue
		}
		key := a.DateKey()
		switch {
		case key == todayKey:
			d.Today = append(d.Today, a)
			if a.Status == model.StatusCompleted {
				d.CompletedToday++
			}
		case key > todayKey && len(d.Upcoming) < dashboardUpcoming:
			d.Upcoming = append(d.Upcoming, a)
		}
	}
	sortByTime(d.Today)

	if len(d.RecentPatients) > dashboardRecent {
		d.RecentPatients = d.RecentPatients[:dashboardRecent]
	}

	nts := s.Notifications()
	d.Notifications = nts[:min(len(nts), dashboardNotifications)]
	return d
}
