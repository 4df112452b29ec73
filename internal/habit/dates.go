package habit

import (
	"strings"
	"time"
)

// DayFormat is the fixed calendar-day representation used by the ledger.
const DayFormat = "2006-01-02"

// ParseDay parses a YYYY-MM-DD string into a UTC-midnight time.
func ParseDay(s string) (time.Time, error) {
	return time.Parse(DayFormat, s)
}

// FormatDay renders a time as its YYYY-MM-DD calendar day.
func FormatDay(t time.Time) string {
	return t.Format(DayFormat)
}

// Today returns the current UTC calendar day. Callers that know the client's
// local day pass it explicitly instead.
func Today() string {
	return FormatDay(time.Now().UTC())
}

// AddDays shifts a calendar day by n days. Invalid input is returned unchanged.
func AddDays(day string, n int) string {
	t, err := ParseDay(day)
	if err != nil {
		return day
	}
	return FormatDay(t.AddDate(0, 0, n))
}

// WeekdayName returns the lowercase weekday name of a calendar day.
func WeekdayName(day string) string {
	t, err := ParseDay(day)
	if err != nil {
		return ""
	}
	return strings.ToLower(t.Weekday().String())
}
