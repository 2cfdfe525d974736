package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/maltehallstrom/boka/internal/constants"
)

// UpcomingDays returns count consecutive date strings (YYYY-MM-DD) starting
// at the day containing now, in now's location.
func UpcomingDays(now time.Time, count int) []string {
	if count <= 0 {
		return nil
	}
	days := make([]string, 0, count)
	for i := 0; i < count; i++ {
		days = append(days, now.AddDate(0, 0, i).Format(constants.DateFormat))
	}
	return days
}

// DayWindow returns the half-open UTC window [midnight, next midnight) for a
// date string. Full-day bookings are committed against exactly this window.
func DayWindow(dateStr string) (time.Time, time.Time, error) {
	day, err := ParseDate(dateStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid date %q: %w", dateStr, err)
	}
	return day, day.AddDate(0, 0, 1), nil
}

// ParseDate parses a YYYY-MM-DD date string as UTC midnight.
func ParseDate(dateStr string) (time.Time, error) {
	return time.ParseInLocation(constants.DateFormat, dateStr, time.UTC)
}

// DateOf returns the calendar date string of an instant, in UTC.
func DateOf(t time.Time) string {
	return t.UTC().Format(constants.DateFormat)
}

// FormatTimeRange renders a start/end pair as the wall-clock label used as a
// slot id ("HH:MM-HH:MM"). Labels are unique within a date for one resource.
func FormatTimeRange(start, end time.Time) string {
	return start.UTC().Format(constants.TimeFormat) + "-" + end.UTC().Format(constants.TimeFormat)
}

// SplitTimeRange splits a slot label into its start and end parts. Unparsable
// labels yield empty strings.
func SplitTimeRange(label string) (string, string) {
	parts := strings.SplitN(label, "-", 2)
	if len(parts) != 2 {
		return "", ""
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
}
