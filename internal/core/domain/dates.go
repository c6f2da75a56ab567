package domain

import (
	"math"
	"strings"
	"time"
)

// DateLayout is the localized day format tickets carry (dd.MM.yyyy).
const DateLayout = "02.01.2006"

// DateTimeLayout is the localized form with a time of day.
const DateTimeLayout = "02.01.2006, 15:04:05"

// dateLayouts lists the accepted localized forms, most specific first.
// Day and month may be written without leading zeros in every form.
var dateLayouts = []string{
	DateTimeLayout,
	"02.01.2006, 15:04",
	"02.01.2006 15:04:05",
	"02.01.2006 15:04",
	DateLayout,
	"2.1.2006, 15:04:05",
	"2.1.2006, 15:04",
	"2.1.2006 15:04:05",
	"2.1.2006 15:04",
	"2.1.2006",
}

// ParseLocalDate parses a localized ticket date in loc.
// It reports false for empty, "N/A" or otherwise unparseable values.
func ParseLocalDate(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" || value == NotAvailable {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}

	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatLocalDate renders t in the localized ticket format.
func FormatLocalDate(t time.Time) string {
	return t.Format(DateLayout)
}

// FormatLocalDateTime renders t with its time of day, so that processing
// durations survive a round trip.
func FormatLocalDateTime(t time.Time) string {
	return t.Format(DateTimeLayout)
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysBetween returns the fractional number of days from start to end.
func DaysBetween(start, end time.Time) float64 {
	return end.Sub(start).Hours() / 24
}

// RoundOneDecimal rounds v half away from zero to one decimal place.
func RoundOneDecimal(v float64) float64 {
	return math.Round(v*10) / 10
}
