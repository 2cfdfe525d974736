package utils

import (
	"testing"
	"time"
)

func TestUpcomingDays(t *testing.T) {
	now := time.Date(2026, 3, 6, 15, 30, 0, 0, time.UTC)

	days := UpcomingDays(now, 3)
	want := []string{"2026-03-06", "2026-03-07", "2026-03-08"}
	if len(days) != len(want) {
		t.Fatalf("got %d days, want %d", len(days), len(want))
	}
	for i := range want {
		if days[i] != want[i] {
			t.Errorf("days[%d] = %s, want %s", i, days[i], want[i])
		}
	}

	if UpcomingDays(now, 0) != nil {
		t.Error("zero count must yield nil")
	}
}

func TestUpcomingDaysCrossesMonthBoundary(t *testing.T) {
	now := time.Date(2026, 2, 27, 0, 0, 0, 0, time.UTC)
	days := UpcomingDays(now, 3)
	if days[2] != "2026-03-01" {
		t.Errorf("days[2] = %s, want 2026-03-01 (2026 is not a leap year)", days[2])
	}
}

func TestDayWindow(t *testing.T) {
	start, end, err := DayWindow("2026-03-06")
	if err != nil {
		t.Fatalf("DayWindow: %v", err)
	}
	wantStart := time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)
	if !start.Equal(wantStart) {
		t.Errorf("start = %v, want %v", start, wantStart)
	}
	if !end.Equal(wantEnd) {
		t.Errorf("end = %v, want %v", end, wantEnd)
	}

	if _, _, err := DayWindow("06/03/2026"); err == nil {
		t.Error("malformed date must error")
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2026-03-06")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	want := time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("ParseDate = %v, want %v", got, want)
	}
	if _, err := ParseDate("not-a-date"); err == nil {
		t.Error("malformed date must error")
	}
}

func TestFormatTimeRange(t *testing.T) {
	start := time.Date(2026, 3, 6, 6, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	if got := FormatTimeRange(start, end); got != "06:00-07:00" {
		t.Errorf("FormatTimeRange = %q", got)
	}
}

func TestSplitTimeRange(t *testing.T) {
	from, to := SplitTimeRange("06:00-07:00")
	if from != "06:00" || to != "07:00" {
		t.Errorf("SplitTimeRange = %q, %q", from, to)
	}
	from, to = SplitTimeRange("garbage")
	if from != "" || to != "" {
		t.Errorf("unparsable label must yield empty strings, got %q, %q", from, to)
	}
}

func TestDateOf(t *testing.T) {
	// Half past midnight CET is still the previous day in UTC.
	cet := time.FixedZone("CET", 3600)
	instant := time.Date(2026, 3, 6, 0, 30, 0, 0, cet)
	if got := DateOf(instant); got != "2026-03-05" {
		t.Errorf("DateOf = %s, want 2026-03-05", got)
	}
}
