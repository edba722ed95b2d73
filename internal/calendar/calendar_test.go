package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinicdash/internal/model"
)

type sliceSource []model.Appointment

func (s sliceSource) Appointments() []model.Appointment { return s }

func day(s string) time.Time {
	d, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func appt(id, patientID, date, clock string, duration int) model.Appointment {
	c, err := model.ParseClock(clock)
	if err != nil {
		panic(err)
	}
	a := model.Appointment{
		ID:        id,
		PatientID: patientID,
		Date:      day(date),
		Start:     c,
		Duration:  duration,
		Type:      model.TypeConsultation,
		Status:    model.StatusScheduled,
	}
	if patientID != model.ReservedPatientID {
		a.Patient = &model.Patient{ID: patientID, FirstName: "Pat", LastName: patientID}
	}
	return a
}

func fixedNow(s string) func() time.Time {
	return func() time.Time { return day(s).Add(10 * time.Hour) }
}

func newEngine(src Source) *Engine {
	opts := DefaultOptions()
	opts.Now = fixedNow("2024-06-12")
	return NewEngine(src, opts)
}

func TestAppointmentsForDayMatchesExactDateInSourceOrder(t *testing.T) {
	src := sliceSource{
		appt("a", "p1", "2024-06-10", "14:00", 30),
		appt("b", "p2", "2024-06-11", "09:00", 30),
		appt("c", "p3", "2024-06-10", "08:00", 30),
	}
	e := newEngine(src)

	got := e.AppointmentsForDay(day("2024-06-10"))
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID, "no implicit sort by time")
	assert.Equal(t, "c", got[1].ID)

	assert.Empty(t, e.AppointmentsForDay(day("2024-06-09")))
	assert.NotNil(t, e.AppointmentsForDay(day("2024-06-09")))
}

func TestAppointmentsForDayUsesCallerCalendarDate(t *testing.T) {
	e := newEngine(sliceSource{appt("a", "p1", "2024-06-10", "09:00", 30)})
	tokyo := time.FixedZone("JST", 9*60*60)

	// 2024-06-10 01:00 in Tokyo is still the 9th in UTC.
	got := e.AppointmentsForDay(time.Date(2024, 6, 10, 1, 0, 0, 0, tokyo))
	assert.Len(t, got, 1)
}

func TestLayoutOffset(t *testing.T) {
	l := DefaultLayout

	top, height := l.Offset(model.Clock{Hour: 8}, 60)
	assert.Equal(t, 0.0, top)
	assert.Equal(t, l.SlotHeight, height)

	top, height = l.Offset(model.Clock{Hour: 9}, 30)
	assert.Equal(t, l.SlotHeight, top)
	assert.Equal(t, max(l.SlotHeight/2, l.MinBlockHeight), height)

	top, _ = l.Offset(model.Clock{Hour: 10, Minute: 15}, 30)
	assert.Equal(t, 2.25*l.SlotHeight, top)

	_, height = l.Offset(model.Clock{Hour: 9}, 5)
	assert.Equal(t, l.MinBlockHeight, height, "short blocks clamp to the floor")

	top, _ = l.Offset(model.Clock{Hour: 7, Minute: 30}, 30)
	assert.Equal(t, -0.5*l.SlotHeight, top, "before the window is not clamped")
}

func TestLayoutOutOfHoursAndSlots(t *testing.T) {
	l := DefaultLayout
	assert.False(t, l.OutOfHours(model.Clock{Hour: 8}, 60))
	assert.False(t, l.OutOfHours(model.Clock{Hour: 15}, 60))
	assert.True(t, l.OutOfHours(model.Clock{Hour: 15, Minute: 30}, 60))
	assert.True(t, l.OutOfHours(model.Clock{Hour: 7, Minute: 45}, 30))

	slots := l.Slots()
	require.Len(t, slots, 8)
	assert.Equal(t, "08:00", slots[0].String())
	assert.Equal(t, "15:00", slots[7].String())
	assert.Equal(t, 640.0, l.GridHeight())
}

func TestWeekAlwaysSevenBuckets(t *testing.T) {
	e := newEngine(sliceSource{})
	for _, ref := range []string{"2024-01-01", "2024-02-29", "2024-12-31", "2023-12-31", "2025-03-01"} {
		b, err := e.Buckets(day(ref), ViewWeek)
		require.NoError(t, err)
		require.Len(t, b, 7, ref)
		assert.Equal(t, time.Monday, b[0].Weekday(), ref)
		for i := 1; i < 7; i++ {
			assert.Equal(t, 24*time.Hour, b[i].Sub(b[i-1]))
		}
	}
}

func TestWeekStartSunday(t *testing.T) {
	opts := DefaultOptions()
	opts.WeekStart = time.Sunday
	e := NewEngine(sliceSource{}, opts)

	b, err := e.Buckets(day("2024-06-12"), ViewWeek)
	require.NoError(t, err)
	assert.Equal(t, "2024-06-09", model.FormatDate(b[0]))
	assert.Equal(t, "2024-06-15", model.FormatDate(b[6]))

	// A Sunday reference starts its own week.
	b, err = e.Buckets(day("2024-06-09"), ViewWeek)
	require.NoError(t, err)
	assert.Equal(t, "2024-06-09", model.FormatDate(b[0]))
}

func TestMonthBucketsArePaddedWeeks(t *testing.T) {
	for _, ws := range []time.Weekday{time.Monday, time.Sunday} {
		opts := DefaultOptions()
		opts.WeekStart = ws
		e := NewEngine(sliceSource{}, opts)

		for y := 2023; y <= 2025; y++ {
			for m := time.January; m <= time.December; m++ {
				ref := time.Date(y, m, 15, 0, 0, 0, 0, time.UTC)
				b, err := e.Buckets(ref, ViewMonth)
				require.NoError(t, err)
				assert.Zero(t, len(b)%7, "%s %d", m, y)
				assert.Equal(t, ws, b[0].Weekday())
				assert.False(t, b[0].After(time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)))
				assert.Equal(t, 1, countFirstOfMonth(b, m))
			}
		}
	}
}

func countFirstOfMonth(b []time.Time, m time.Month) int {
	n := 0
	for _, d := range b {
		if d.Day() == 1 && d.Month() == m {
			n++
		}
	}
	return n
}

func TestMonthGridFebruary2021FitsFourWeeks(t *testing.T) {
	// Feb 2021 starts on a Monday and has 28 days.
	e := newEngine(sliceSource{})
	v, err := e.Render(day("2021-02-10"), ViewMonth)
	require.NoError(t, err)
	require.NotNil(t, v.Month)
	assert.Equal(t, 4, v.Month.Weeks)
	assert.Len(t, v.Month.Cells, 28)
	for _, c := range v.Month.Cells {
		assert.True(t, c.InMonth)
	}
}

func TestYearBuckets(t *testing.T) {
	e := newEngine(sliceSource{})
	b, err := e.Buckets(day("2024-06-12"), ViewYear)
	require.NoError(t, err)
	require.Len(t, b, 12)
	assert.Equal(t, "2024-01-01", model.FormatDate(b[0]))
	assert.Equal(t, "2024-12-01", model.FormatDate(b[11]))
}

func TestUnknownViewMode(t *testing.T) {
	e := newEngine(sliceSource{})
	_, err := e.Buckets(day("2024-06-12"), ViewMode("decade"))
	assert.ErrorIs(t, err, ErrUnknownView)

	_, err = ParseViewMode("decade")
	assert.ErrorIs(t, err, ErrUnknownView)

	m, err := ParseViewMode("month")
	require.NoError(t, err)
	assert.Equal(t, ViewMonth, m)
}

func TestDayViewSingleShortAppointment(t *testing.T) {
	e := newEngine(sliceSource{appt("a1", "p1", "2024-06-10", "08:00", 30)})

	v, err := e.Render(day("2024-06-10"), ViewDay)
	require.NoError(t, err)
	require.NotNil(t, v.Grid)
	require.Len(t, v.Grid.Columns, 1)

	blocks := v.Grid.Columns[0].Blocks
	require.Len(t, blocks, 1)
	l := e.Options().Layout
	assert.Equal(t, 0.0, blocks[0].Top)
	assert.Equal(t, max(l.SlotHeight/2, l.MinBlockHeight), blocks[0].Height)
	assert.Equal(t, "Monday, June 10, 2024", v.Title)

	// A floor above the proportional height wins.
	opts := e.Options()
	opts.Layout.MinBlockHeight = 48
	e2 := NewEngine(sliceSource{appt("a1", "p1", "2024-06-10", "08:00", 30)}, opts)
	v, err = e2.Render(day("2024-06-10"), ViewDay)
	require.NoError(t, err)
	assert.Equal(t, 48.0, v.Grid.Columns[0].Blocks[0].Height)
}

// countingSource records how many snapshots a render takes.
type countingSource struct {
	appts []model.Appointment
	calls int
}

func (c *countingSource) Appointments() []model.Appointment {
	c.calls++
	return c.appts
}

func TestRenderTakesOneSnapshotPerView(t *testing.T) {
	src := &countingSource{appts: []model.Appointment{
		appt("a", "p1", "2024-06-10", "08:00", 30),
		appt("b", "p2", "2024-06-14", "10:00", 60),
	}}
	e := newEngine(src)

	for _, mode := range []ViewMode{ViewDay, ViewWeek, ViewMonth, ViewYear} {
		src.calls = 0
		_, err := e.Render(day("2024-06-12"), mode)
		require.NoError(t, err)
		assert.Equal(t, 1, src.calls, "%s view", mode)
	}

	src.calls = 0
	v, err := e.Render(day("2024-06-12"), ViewWeek)
	require.NoError(t, err)
	require.Len(t, v.Grid.Columns, 7)
	assert.Len(t, v.Grid.Columns[0].Blocks, 1)
	assert.Len(t, v.Grid.Columns[4].Blocks, 1)
}

func TestWeekendSuppressionInDayAndWeek(t *testing.T) {
	src := sliceSource{
		appt("fri", "p1", "2024-06-14", "09:00", 30),
		appt("sat", "p2", "2024-06-15", "10:00", 30),
	}
	e := newEngine(src)

	v, err := e.Render(day("2024-06-12"), ViewWeek)
	require.NoError(t, err)
	require.Len(t, v.Grid.Columns, 7)

	fri, sat := v.Grid.Columns[4], v.Grid.Columns[5]
	assert.False(t, fri.Weekend)
	assert.Len(t, fri.Blocks, 1)
	assert.True(t, sat.Weekend)
	assert.Empty(t, sat.Blocks)
	assert.Equal(t, 1, sat.Suppressed)
	assert.True(t, v.Grid.Columns[2].Today)
	assert.Equal(t, "Jun 10 - Jun 16, 2024", v.Title)

	v, err = e.Render(day("2024-06-15"), ViewDay)
	require.NoError(t, err)
	assert.Empty(t, v.Grid.Columns[0].Blocks)

	// The record is still there for other consumers.
	assert.Len(t, e.AppointmentsForDay(day("2024-06-15")), 1)

	// Month view does not suppress.
	v, err = e.Render(day("2024-06-15"), ViewMonth)
	require.NoError(t, err)
	for _, c := range v.Month.Cells {
		if c.DateKey == "2024-06-15" {
			assert.Equal(t, 1, c.Total)
			assert.True(t, c.Weekend)
		}
	}
}

func TestReservedBlockHasNoPatientLink(t *testing.T) {
	r := appt("r1", model.ReservedPatientID, "2024-06-10", "12:00", 60)
	r.Notes = "Lunch / admin"
	e := newEngine(sliceSource{r, appt("a1", "p1", "2024-06-10", "09:00", 30)})

	v, err := e.Render(day("2024-06-10"), ViewDay)
	require.NoError(t, err)
	blocks := v.Grid.Columns[0].Blocks
	require.Len(t, blocks, 2)

	assert.True(t, blocks[0].Reserved)
	assert.Empty(t, blocks[0].Link)
	assert.Empty(t, blocks[0].PatientID)
	assert.Equal(t, "Lunch / admin", blocks[0].Label)
	assert.Equal(t, ReservedStyle, blocks[0].Style)

	assert.False(t, blocks[1].Reserved)
	assert.Equal(t, "/patients/p1", blocks[1].Link)
	assert.Equal(t, "Pat p1", blocks[1].Label)

	noNote := e.Block(appt("r2", model.ReservedPatientID, "2024-06-10", "12:00", 60))
	assert.Equal(t, ReservedLabel, noNote.Label)
}

func TestMonthMoreBadgeCountsRealAppointmentsOnly(t *testing.T) {
	src := sliceSource{
		appt("a1", "p1", "2024-06-10", "08:00", 30),
		appt("r1", model.ReservedPatientID, "2024-06-10", "09:00", 30),
		appt("a2", "p2", "2024-06-10", "10:00", 30),
		appt("r2", model.ReservedPatientID, "2024-06-10", "11:00", 30),
		appt("a3", "p3", "2024-06-10", "12:00", 30),
		appt("a4", "p4", "2024-06-10", "13:00", 30),
		appt("a5", "p5", "2024-06-11", "13:00", 30),
		appt("r3", model.ReservedPatientID, "2024-06-12", "13:00", 30),
	}
	e := newEngine(src)

	v, err := e.Render(day("2024-06-01"), ViewMonth)
	require.NoError(t, err)
	require.NotNil(t, v.Month)
	assert.Equal(t, "June 2024", v.Title)

	cells := map[string]MonthCell{}
	for _, c := range v.Month.Cells {
		cells[c.DateKey] = c
	}

	c := cells["2024-06-10"]
	assert.Equal(t, 4, c.Total)
	assert.Len(t, c.Appointments, 3)
	assert.Equal(t, 1, c.More)
	assert.Len(t, c.Reserved, 2)
	for _, b := range c.Appointments {
		assert.False(t, b.Reserved)
	}

	assert.Equal(t, 0, cells["2024-06-11"].More)
	assert.Equal(t, 1, cells["2024-06-11"].Total)

	onlyReserved := cells["2024-06-12"]
	assert.Equal(t, 0, onlyReserved.Total)
	assert.Equal(t, 0, onlyReserved.More)
	assert.Len(t, onlyReserved.Reserved, 1)
	assert.True(t, onlyReserved.Today)

	// Leading days from May are present and grayed.
	assert.False(t, cells["2024-05-27"].InMonth)
	assert.Equal(t, "2024-05-27", v.StartKey)
	assert.Equal(t, "2024-06-30", v.EndKey)
}

func TestYearViewPresence(t *testing.T) {
	src := sliceSource{
		appt("a1", "p1", "2024-03-05", "09:00", 30),
		appt("r1", model.ReservedPatientID, "2024-07-04", "08:00", 480),
	}
	e := newEngine(src)

	v, err := e.Render(day("2024-06-12"), ViewYear)
	require.NoError(t, err)
	require.NotNil(t, v.Year)
	require.Len(t, v.Year.Months, 12)
	assert.Equal(t, "2024", v.Title)
	assert.Equal(t, "2024-12-31", v.EndKey)

	find := func(m time.Month, key string) MiniCell {
		for _, c := range v.Year.Months[m-1].Cells {
			if c.DateKey == key && c.InMonth {
				return c
			}
		}
		t.Fatalf("cell %s not found in %s", key, m)
		return MiniCell{}
	}

	mar := find(time.March, "2024-03-05")
	assert.True(t, mar.HasAppointments)
	assert.False(t, mar.Blocked)

	jul := find(time.July, "2024-07-04")
	assert.False(t, jul.HasAppointments)
	assert.True(t, jul.Blocked)

	for _, mm := range v.Year.Months {
		assert.Zero(t, len(mm.Cells)%7, mm.Name)
	}
}

func TestNavigatorRoundTrip(t *testing.T) {
	refs := []string{
		"2024-01-31", "2024-02-29", "2024-03-31", "2024-06-10",
		"2023-12-31", "2024-12-31", "2025-01-01", "2024-05-31",
	}
	modes := []ViewMode{ViewDay, ViewWeek, ViewMonth, ViewYear}

	for _, ref := range refs {
		for _, mode := range modes {
			n := NewNavigator(day(ref), mode, nil)
			n.Advance(+1)
			assert.NotEqual(t, ref, model.FormatDate(n.Reference()), "%s %s", mode, ref)
			n.Advance(-1)
			assert.Equal(t, ref, model.FormatDate(n.Reference()), "%s %s", mode, ref)

			n.Advance(-1)
			n.Advance(+1)
			assert.Equal(t, ref, model.FormatDate(n.Reference()), "%s %s backward", mode, ref)
		}
	}
}

func TestNavigatorStepsOneUnit(t *testing.T) {
	tests := []struct {
		mode ViewMode
		ref  string
		want string
	}{
		{ViewDay, "2024-06-10", "2024-06-11"},
		{ViewWeek, "2024-06-10", "2024-06-17"},
		{ViewMonth, "2024-06-10", "2024-07-10"},
		{ViewMonth, "2024-01-31", "2024-02-29"},
		{ViewMonth, "2024-12-15", "2025-01-15"},
		{ViewYear, "2024-02-29", "2025-02-28"},
	}
	for _, tt := range tests {
		n := NewNavigator(day(tt.ref), tt.mode, nil)
		n.Advance(5) // any positive direction is one step
		assert.Equal(t, tt.want, model.FormatDate(n.Reference()), "%s from %s", tt.mode, tt.ref)
	}

	n := NewNavigator(day("2024-01-15"), ViewMonth, nil)
	n.Advance(-1)
	assert.Equal(t, "2023-12-15", model.FormatDate(n.Reference()))
	n.Advance(0)
	assert.Equal(t, "2023-12-15", model.FormatDate(n.Reference()))
}

func TestNavigatorAnchorSurvivesShortMonths(t *testing.T) {
	n := NewNavigator(day("2024-01-31"), ViewMonth, nil)
	n.Advance(1)
	assert.Equal(t, "2024-02-29", model.FormatDate(n.Reference()))
	n.Advance(1)
	assert.Equal(t, "2024-03-31", model.FormatDate(n.Reference()))

	// A day step sets a new anchor.
	require.NoError(t, n.SetMode(ViewDay))
	n.Advance(-1)
	require.NoError(t, n.SetMode(ViewMonth))
	n.Advance(1)
	assert.Equal(t, "2024-04-30", model.FormatDate(n.Reference()))
}

func TestNavigatorTodayAndMode(t *testing.T) {
	n := NewNavigator(day("2020-01-01"), ViewYear, fixedNow("2024-06-12"))
	n.GoToToday()
	assert.Equal(t, "2024-06-12", model.FormatDate(n.Reference()))
	assert.Equal(t, ViewYear, n.Mode(), "today keeps the mode")

	assert.Error(t, n.SetMode("decade"))
	assert.Equal(t, ViewYear, n.Mode())

	assert.Equal(t, ViewWeek, NewNavigator(day("2024-01-01"), "bogus", nil).Mode())
}

func TestStyles(t *testing.T) {
	assert.Equal(t, "status-no-show", StatusStyle(model.StatusNoShow))
	assert.Equal(t, StyleUnknown, StatusStyle(model.Status("paused")))
	assert.Equal(t, "Follow-up", TypeLabel(model.TypeFollowUp))
	assert.Equal(t, StyleUnknown, TypeLabel(model.AppointmentType("surgery")))
}
