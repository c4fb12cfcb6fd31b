// Package timeutil provides calendar helpers for the campus timezone (Europe/Berlin).
// Appointment dates are plain calendar days; they are stored as midnight UTC so
// that a date never shifts when the server runs in another zone.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"time"
	_ "time/tzdata" // embedded zone database for minimal container images
)

// CampusTZName is the IANA name of the campus timezone.
const CampusTZName = "Europe/Berlin"

// CampusTZ is the campus timezone. Falls back to CET if the zone database
// cannot be loaded.
var CampusTZ = loadCampusTZ()

func loadCampusTZ() *time.Location {
	loc, err := time.LoadLocation(CampusTZName)
	if err != nil {
		return time.FixedZone("CET", 1*60*60)
	}
	return loc
}

// Common date formats.
const (
	// FormatDate is the ISO date format (YYYY-MM-DD) used in datasets and the API.
	FormatDate = "2006-01-02"
	// FormatGermanDate is the German date format (DD.MM.YYYY) used in reports.
	FormatGermanDate = "02.01.2006"
	// FormatDateTime is the standard datetime format.
	FormatDateTime = "2006-01-02 15:04"
)

// Now returns the current time in the campus timezone.
func Now() time.Time {
	return time.Now().In(CampusTZ)
}

// ToCampus converts a time to the campus timezone.
func ToCampus(t time.Time) time.Time {
	return t.In(CampusTZ)
}

// Date creates a calendar day (midnight UTC).
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// CalendarDay returns the campus calendar day of t as midnight UTC.
func CalendarDay(t time.Time) time.Time {
	c := ToCampus(t)
	return Date(c.Year(), c.Month(), c.Day())
}

// Today returns the current campus calendar day as midnight UTC.
func Today() time.Time {
	return CalendarDay(time.Now())
}

// IsSameDay checks if two calendar days are equal. Both values are read in
// their own location, which is what stored appointment dates need.
func IsSameDay(t1, t2 time.Time) bool {
	y1, m1, d1 := t1.Date()
	y2, m2, d2 := t2.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// DaysBetween calculates the number of calendar days from t1 to t2.
// Negative when t2 is before t1.
func DaysBetween(t1, t2 time.Time) int {
	y1, m1, d1 := t1.Date()
	y2, m2, d2 := t2.Date()
	a := Date(y1, m1, d1)
	b := Date(y2, m2, d2)
	return int(b.Sub(a).Hours() / 24)
}

// ParseDate parses a date string (YYYY-MM-DD) into a calendar day.
func ParseDate(value string) (time.Time, error) {
	t, err := time.ParseInLocation(FormatDate, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", value, err)
	}
	return t, nil
}

// FormatISO formats a calendar day as YYYY-MM-DD.
func FormatISO(t time.Time) string {
	return t.Format(FormatDate)
}

// FormatGerman formats a calendar day as DD.MM.YYYY.
func FormatGerman(t time.Time) string {
	return t.Format(FormatGermanDate)
}

// FormatRelative returns a short German description of the distance from ref
// to t in days ("heute", "morgen", "in 5 Tagen", "vor 2 Tagen").
func FormatRelative(t, ref time.Time) string {
	if IsSameDay(t, ref) {
		return "heute"
	}

	days := DaysBetween(ref, t)
	switch {
	case days == 1:
		return "morgen"
	case days == -1:
		return "gestern"
	case days > 1:
		return fmt.Sprintf("in %d Tagen", days)
	default:
		return fmt.Sprintf("vor %d Tagen", -days)
	}
}
