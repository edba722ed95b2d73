package calendar

import (
	"fmt"
	"time"

	"clinicdash/internal/model"
)

const (
	ReservedLabel = "Reserved"
	ReservedStyle = "reserved"
)

// Block is one appointment positioned for display. Reserved blocks carry
// no patient reference or link.
type Block struct {
	ID          string      `json:"id"`
	PatientID   string      `json:"patient_id,omitempty"`
	PatientName string      `json:"patient_name,omitempty"`
	Initials    string      `json:"initials,omitempty"`
	Label       string      `json:"label"`
	Link        string      `json:"link,omitempty"`
	Reserved    bool        `json:"reserved"`
	Start       model.Clock `json:"start"`
	End         model.Clock `json:"end"`
	Duration    int         `json:"duration"`
	Type        string      `json:"type,omitempty"`
	TypeLabel   string      `json:"type_label"`
	Status      string      `json:"status"`
	Style       string      `json:"style"`
	Provider    string      `json:"provider,omitempty"`
	Notes       string      `json:"notes,omitempty"`
	Top         float64     `json:"top"`
	Height      float64     `json:"height"`
	OutOfHours  bool        `json:"out_of_hours,omitempty"`
}

// Column is one day of the day/week time grid.
type Column struct {
	Date    time.Time `json:"-"`
	DateKey string    `json:"date"`
	Weekday string    `json:"weekday"`
	Today   bool      `json:"today"`

	// Weekend columns have no office hours; their records are suppressed
	// from Blocks and only counted.
	Weekend    bool    `json:"weekend"`
	Suppressed int     `json:"suppressed,omitempty"`
	Blocks     []Block `json:"blocks"`
}

// TimeGrid is the day and week view body.
type TimeGrid struct {
	Slots      []model.Clock `json:"slots"`
	SlotHeight float64       `json:"slot_height"`
	Height     float64       `json:"height"`
	Columns    []Column      `json:"columns"`
}

// MonthCell is one day of the month grid.
type MonthCell struct {
	Date    time.Time `json:"-"`
	DateKey string    `json:"date"`
	Day     int       `json:"day"`
	InMonth bool      `json:"in_month"`
	Today   bool      `json:"today"`
	Weekend bool      `json:"weekend"`

	// Appointments lists at most MonthMaxVisible patient appointments.
	Appointments []Block `json:"appointments"`
	Reserved     []Block `json:"reserved"`

	// Total counts patient appointments; More is the "+N more" badge.
	// Reserved blocks count toward neither.
	Total int `json:"total"`
	More  int `json:"more"`
}

type MonthGrid struct {
	Year  int         `json:"year"`
	Month time.Month  `json:"month"`
	Weeks int         `json:"weeks"`
	Cells []MonthCell `json:"cells"`
}

// MiniCell is a year-view day: presence only.
type MiniCell struct {
	DateKey         string `json:"date"`
	Day             int    `json:"day"`
	InMonth         bool   `json:"in_month"`
	Today           bool   `json:"today"`
	HasAppointments bool   `json:"has_appointments"`
	Blocked         bool   `json:"blocked"`
}

type MiniMonth struct {
	Month time.Month `json:"month"`
	Name  string     `json:"name"`
	Cells []MiniCell `json:"cells"`
}

type YearGrid struct {
	Year   int         `json:"year"`
	Months []MiniMonth `json:"months"`
}

// View is the full render result for one (reference date, mode) pair.
// Exactly one of Grid, Month and Year is set.
type View struct {
	Mode      ViewMode  `json:"mode"`
	Reference time.Time `json:"-"`
	RefKey    string    `json:"reference"`
	Title     string    `json:"title"`
	StartKey  string    `json:"start"`
	EndKey    string    `json:"end"`

	Grid  *TimeGrid  `json:"grid,omitempty"`
	Month *MonthGrid `json:"month,omitempty"`
	Year  *YearGrid  `json:"year,omitempty"`
}

// Render computes the view for ref in the given mode.
func (e *Engine) Render(ref time.Time, mode ViewMode) (View, error) {
	d := model.DateOf(ref)
	v := View{Mode: mode, Reference: d, RefKey: model.FormatDate(d)}

	buckets, err := e.Buckets(d, mode)
	if err != nil {
		return View{}, err
	}

	switch mode {
	case ViewDay, ViewWeek:
		v.Grid = e.timeGrid(buckets)
	case ViewMonth:
		v.Month = e.monthGrid(d.Year(), d.Month(), buckets)
	case ViewYear:
		v.Year = e.yearGrid(d.Year())
	}

	start, end := buckets[0], buckets[len(buckets)-1]
	if mode == ViewYear {
		end = time.Date(d.Year(), time.December, 31, 0, 0, 0, 0, time.UTC)
	}
	v.StartKey = model.FormatDate(start)
	v.EndKey = model.FormatDate(end)
	v.Title = title(mode, d, start, end)
	return v, nil
}

func title(mode ViewMode, ref, start, end time.Time) string {
	switch mode {
	case ViewDay:
		return ref.Format("Monday, January 2, 2006")
	case ViewWeek:
		return fmt.Sprintf("%s - %s", start.Format("Jan 2"), end.Format("Jan 2, 2006"))
	case ViewMonth:
		return ref.Format("January 2006")
	default:
		return ref.Format("2006")
	}
}

func (e *Engine) timeGrid(days []time.Time) *TimeGrid {
	today := e.today()
	idx := e.index()
	g := &TimeGrid{
		Slots:      e.opts.Layout.Slots(),
		SlotHeight: e.opts.Layout.SlotHeight,
		Height:     e.opts.Layout.GridHeight(),
		Columns:    make([]Column, 0, len(days)),
	}

	for _, d := range days {
		col := Column{
			Date:    d,
			DateKey: model.FormatDate(d),
			Weekday: d.Weekday().String(),
			Today:   d.Equal(today),
			Weekend: e.IsWeekend(d),
			Blocks:  []Block{},
		}
		appts := idx[col.DateKey]
		if col.Weekend {
			col.Suppressed = len(appts)
		} else {
			for _, a := range appts {
				col.Blocks = append(col.Blocks, e.Block(a))
			}
		}
		g.Columns = append(g.Columns, col)
	}
	return g
}

func (e *Engine) monthGrid(year int, month time.Month, days []time.Time) *MonthGrid {
	today := e.today()
	idx := e.index()
	g := &MonthGrid{
		Year:  year,
		Month: month,
		Weeks: len(days) / 7,
		Cells: make([]MonthCell, 0, len(days)),
	}

	for _, d := range days {
		key := model.FormatDate(d)
		cell := MonthCell{
			Date:         d,
			DateKey:      key,
			Day:          d.Day(),
			InMonth:      d.Month() == month,
			Today:        d.Equal(today),
			Weekend:      e.IsWeekend(d),
			Appointments: []Block{},
			Reserved:     []Block{},
		}
		for _, a := range idx[key] {
			if a.IsReserved() {
				cell.Reserved = append(cell.Reserved, e.Block(a))
				continue
			}
			cell.Total++
			if len(cell.Appointments) < e.opts.MonthMaxVisible {
				cell.Appointments = append(cell.Appointments, e.Block(a))
			}
		}
		cell.More = cell.Total - len(cell.Appointments)
		g.Cells = append(g.Cells, cell)
	}
	return g
}

func (e *Engine) yearGrid(year int) *YearGrid {
	today := e.today()
	idx := e.index()
	g := &YearGrid{Year: year, Months: make([]MiniMonth, 0, 12)}

	for m := time.January; m <= time.December; m++ {
		start, n := e.monthGridSpan(year, m)
		mm := MiniMonth{Month: m, Name: m.String(), Cells: make([]MiniCell, 0, n)}
		for _, d := range daysFrom(start, n) {
			key := model.FormatDate(d)
			c := MiniCell{
				DateKey: key,
				Day:     d.Day(),
				InMonth: d.Month() == m,
				Today:   d.Equal(today),
			}
			for _, a := range idx[key] {
				if a.IsReserved() {
					c.Blocked = true
				} else {
					c.HasAppointments = true
				}
			}
			mm.Cells = append(mm.Cells, c)
		}
		g.Months = append(g.Months, mm)
	}
	return g
}
