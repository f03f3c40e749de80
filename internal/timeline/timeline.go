// Package timeline groups notes into a Year → Month → Week → Day hierarchy.
//
// Notes from the viewer's current day are kept apart in a flat Today bucket.
// Weeks are scoped within a month: a Monday-anchored week whose days straddle
// a month boundary appears once under each month, holding only that month's
// days. Within a day, notes keep the order they were given in.
package timeline

import (
	"cmp"
	"slices"
	"time"

	"github.com/hpungsan/tracky/internal/calendar"
	"github.com/hpungsan/tracky/internal/note"
)

// Expander reports whether the viewer has opened a day.
type Expander interface {
	IsExpanded(key calendar.DayKey) bool
}

// Timeline is a read-only snapshot produced by Group.
type Timeline struct {
	// Date is the viewer's current local day
	Date calendar.LocalDate `json:"today_date"`

	// Location is the IANA name of the viewer's timezone
	Location string `json:"location"`

	// Today holds notes created on Date, in input order
	Today []note.Note `json:"today"`

	// Years is sorted most recent first
	Years []*YearNode `json:"years"`
}

// YearNode is the top level of the hierarchy.
type YearNode struct {
	Year   int          `json:"year"`
	Open   bool         `json:"open"`
	Months []*MonthNode `json:"months"`
}

// MonthNode groups the weeks of one calendar month.
type MonthNode struct {
	Year  int         `json:"year"`
	Month time.Month  `json:"month"`
	Open  bool        `json:"open"`
	Weeks []*WeekNode `json:"weeks"`
}

// Index returns the zero-based month index (January = 0).
func (m *MonthNode) Index() int {
	return int(m.Month) - 1
}

// Name returns the English month name.
func (m *MonthNode) Name() string {
	return m.Month.String()
}

// WeekNode holds the days of one month that share a Monday.
type WeekNode struct {
	Key     calendar.WeekKey   `json:"key"`
	Monday  calendar.LocalDate `json:"monday"`
	ISOWeek int                `json:"iso_week"`
	Open    bool               `json:"open"`
	Days    []*DayNode         `json:"days"`
}

// DayNode holds the notes of one local calendar day.
type DayNode struct {
	Key   calendar.DayKey    `json:"key"`
	Date  calendar.LocalDate `json:"date"`
	Open  bool               `json:"open"`
	Notes []note.Note        `json:"notes"`
}

// Weekday returns the day of the week of the node's date.
func (d *DayNode) Weekday() time.Weekday {
	return d.Date.Weekday()
}

type monthID struct {
	year  int
	month time.Month
}

type weekID struct {
	month monthID
	key   calendar.WeekKey
}

// Group partitions notes by local calendar day in loc relative to now.
//
// Year, Month and Week nodes covering now start open. Day nodes start open
// only when state reports them expanded; a nil state expands nothing.
func Group(notes []note.Note, now time.Time, loc *time.Location, state Expander) *Timeline {
	if loc == nil {
		loc = time.UTC
	}
	today := calendar.DayStart(now, loc)
	currentMonday := calendar.MondayOfWeek(today)

	tl := &Timeline{
		Date:     today,
		Location: loc.String(),
		Today:    []note.Note{},
		Years:    []*YearNode{},
	}

	years := make(map[int]*YearNode)
	months := make(map[monthID]*MonthNode)
	weeks := make(map[weekID]*WeekNode)
	days := make(map[calendar.DayKey]*DayNode)

	for _, n := range notes {
		day := calendar.DayStart(n.CreatedAt, loc)
		if day == today {
			tl.Today = append(tl.Today, n)
			continue
		}

		dayKey := day.Key()
		if d, ok := days[dayKey]; ok {
			d.Notes = append(d.Notes, n)
			continue
		}

		y, ok := years[day.Year]
		if !ok {
			y = &YearNode{Year: day.Year, Open: day.Year == today.Year}
			years[day.Year] = y
			tl.Years = append(tl.Years, y)
		}

		mid := monthID{year: day.Year, month: day.Month}
		m, ok := months[mid]
		if !ok {
			m = &MonthNode{
				Year:  day.Year,
				Month: day.Month,
				Open:  day.Year == today.Year && day.Month == today.Month,
			}
			months[mid] = m
			y.Months = append(y.Months, m)
		}

		monday := calendar.MondayOfWeek(day)
		wid := weekID{month: mid, key: calendar.WeekKey(monday.Key())}
		w, ok := weeks[wid]
		if !ok {
			w = &WeekNode{
				Key:     wid.key,
				Monday:  monday,
				ISOWeek: calendar.ISOWeekNumber(monday),
				Open:    monday == currentMonday,
			}
			weeks[wid] = w
			m.Weeks = append(m.Weeks, w)
		}

		d := &DayNode{
			Key:   dayKey,
			Date:  day,
			Open:  state != nil && state.IsExpanded(dayKey),
			Notes: []note.Note{n},
		}
		days[dayKey] = d
		w.Days = append(w.Days, d)
	}

	sortTree(tl.Years)
	return tl
}

// sortTree orders every level most recent first.
func sortTree(years []*YearNode) {
	slices.SortFunc(years, func(a, b *YearNode) int {
		return cmp.Compare(b.Year, a.Year)
	})
	for _, y := range years {
		slices.SortFunc(y.Months, func(a, b *MonthNode) int {
			return cmp.Compare(b.Month, a.Month)
		})
		for _, m := range y.Months {
			slices.SortFunc(m.Weeks, func(a, b *WeekNode) int {
				return cmp.Compare(b.Key, a.Key)
			})
			for _, w := range m.Weeks {
				slices.SortFunc(w.Days, func(a, b *DayNode) int {
					return cmp.Compare(b.Key, a.Key)
				})
			}
		}
	}
}

// Count returns the number of notes in the Today bucket and the tree.
func (t *Timeline) Count() int {
	count := len(t.Today)
	t.Walk(func(d *DayNode) {
		count += len(d.Notes)
	})
	return count
}

// Empty reports whether the timeline holds no notes at all.
func (t *Timeline) Empty() bool {
	return len(t.Today) == 0 && len(t.Years) == 0
}

// Walk calls fn for every Day node in display order.
func (t *Timeline) Walk(fn func(*DayNode)) {
	for _, y := range t.Years {
		for _, m := range y.Months {
			for _, w := range m.Weeks {
				for _, d := range w.Days {
					fn(d)
				}
			}
		}
	}
}

// Day returns the Day node for key, or nil if no note falls on that day.
func (t *Timeline) Day(key calendar.DayKey) *DayNode {
	var found *DayNode
	t.Walk(func(d *DayNode) {
		if d.Key == key {
			found = d
		}
	})
	return found
}
