// Package calendar implements local-time calendar math for grouping notes.
//
// Every function takes the viewer's location explicitly. Day arithmetic is
// done on civil dates (year, month, day) rather than on instants, so a
// daylight-saving transition can never move a date to a neighbouring day.
package calendar

import (
	"fmt"
	"time"
)

// DayKey identifies a local calendar day, formatted YYYY-MM-DD.
type DayKey string

// WeekKey is the DayKey of the Monday that starts a week.
type WeekKey string

// dayKeyLayout is the reference layout for DayKey strings.
const dayKeyLayout = "2006-01-02"

// LocalDate is a calendar day with no time-of-day and no offset.
type LocalDate struct {
	Year  int
	Month time.Month
	Day   int
}

// Date returns the LocalDate for year, month and day, normalizing
// out-of-range values the way time.Date does (e.g. January 32 → February 1).
func Date(year int, month time.Month, day int) LocalDate {
	return fromCivil(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DayStart truncates an instant to its calendar day in loc.
// A nil loc is treated as UTC.
func DayStart(t time.Time, loc *time.Location) LocalDate {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return LocalDate{Year: y, Month: m, Day: d}
}

// SameLocalDay reports whether a and b fall on the same calendar day in loc.
func SameLocalDay(a, b time.Time, loc *time.Location) bool {
	return DayStart(a, loc) == DayStart(b, loc)
}

// MondayOfWeek returns the Monday on or before d.
// Sunday is the last day of a week, so it maps six days back.
func MondayOfWeek(d LocalDate) LocalDate {
	wd := d.Weekday()
	if wd == time.Sunday {
		return d.AddDays(-6)
	}
	return d.AddDays(-(int(wd) - int(time.Monday)))
}

// WeekKeyOf returns the WeekKey of the week containing d.
func WeekKeyOf(d LocalDate) WeekKey {
	return WeekKey(MondayOfWeek(d).Key())
}

// ISOWeekNumber returns the ISO-8601 week number of d.
//
// The date is shifted to the Thursday of its Monday-start week; the week
// number is counted within that Thursday's year. The result is for display
// only and is never used as a grouping key.
func ISOWeekNumber(d LocalDate) int {
	thursday := MondayOfWeek(d).AddDays(3)
	jan1 := LocalDate{Year: thursday.Year, Month: time.January, Day: 1}
	days := thursday.YearDay() - jan1.YearDay() + 1
	return (days + 6) / 7
}

// ParseDayKey parses a YYYY-MM-DD string into a LocalDate.
func ParseDayKey(s string) (LocalDate, error) {
	if len(s) != len(dayKeyLayout) {
		return LocalDate{}, fmt.Errorf("invalid day key %q: want YYYY-MM-DD", s)
	}
	t, err := time.Parse(dayKeyLayout, s)
	if err != nil {
		return LocalDate{}, fmt.Errorf("invalid day key %q: %w", s, err)
	}
	return fromCivil(t), nil
}

// Key formats d as a zero-padded YYYY-MM-DD DayKey.
// Keys sort lexicographically in date order for years 0 through 9999.
func (d LocalDate) Key() DayKey {
	return DayKey(fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day))
}

// String returns the DayKey form of d.
func (d LocalDate) String() string {
	return string(d.Key())
}

// AddDays returns d shifted by n calendar days.
func (d LocalDate) AddDays(n int) LocalDate {
	return fromCivil(d.civil().AddDate(0, 0, n))
}

// Weekday returns the day of the week of d.
func (d LocalDate) Weekday() time.Weekday {
	return d.civil().Weekday()
}

// YearDay returns the day of the year of d, in [1, 366].
func (d LocalDate) YearDay() int {
	return d.civil().YearDay()
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to,
// or after o.
func (d LocalDate) Compare(o LocalDate) int {
	return d.civil().Compare(o.civil())
}

// Before reports whether d is strictly before o.
func (d LocalDate) Before(o LocalDate) bool {
	return d.Compare(o) < 0
}

// In returns the first instant of d in loc. On days where local midnight
// does not exist because of a DST jump, time.Date normalizes forward.
func (d LocalDate) In(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// IsZero reports whether d is the zero LocalDate.
func (d LocalDate) IsZero() bool {
	return d == LocalDate{}
}

// MarshalText encodes d as its DayKey.
func (d LocalDate) MarshalText() ([]byte, error) {
	return []byte(d.Key()), nil
}

// UnmarshalText decodes a DayKey into d.
func (d *LocalDate) UnmarshalText(b []byte) error {
	parsed, err := ParseDayKey(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// civil maps d onto UTC midnight, where every day is exactly 24 hours.
func (d LocalDate) civil() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func fromCivil(t time.Time) LocalDate {
	y, m, day := t.Date()
	return LocalDate{Year: y, Month: m, Day: day}
}
