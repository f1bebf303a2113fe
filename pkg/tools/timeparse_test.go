package tools

import (
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	t.Parallel()

	cases := []struct {
		label  string
		hour   int
		minute int
		ok     bool
	}{
		{"14:00", 14, 0, true},
		{"09:30", 9, 30, true},
		{"2:00 PM", 14, 0, true},
		{"2:00PM", 14, 0, true},
		{"12:15 am", 0, 15, true},
		{"12:00 PM", 12, 0, true},
		{"", 0, 0, false},
		{"half past two", 0, 0, false},
		{"25:00", 0, 0, false},
	}
	for _, tc := range cases {
		hour, minute, err := parseClock(tc.label)
		if tc.ok && err != nil {
			t.Errorf("parseClock(%q) unexpected error: %v", tc.label, err)
			continue
		}
		if !tc.ok {
			if err == nil {
				t.Errorf("parseClock(%q) expected error", tc.label)
			}
			continue
		}
		if hour != tc.hour || minute != tc.minute {
			t.Errorf("parseClock(%q) = %d:%02d, want %d:%02d", tc.label, hour, minute, tc.hour, tc.minute)
		}
	}
}

func TestBuildStartUTC(t *testing.T) {
	t.Parallel()

	// 2:00 PM in Kolkata (UTC+5:30) is 08:30 UTC.
	start, err := buildStartUTC("2025-02-21", "2:00 PM", "Asia/Kolkata")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2025, 2, 21, 8, 30, 0, 0, time.UTC)
	if !start.Equal(want) {
		t.Fatalf("start = %v, want %v", start, want)
	}
}

func TestBuildStartUTC_Validation(t *testing.T) {
	t.Parallel()

	if _, err := buildStartUTC("21-02-2025", "14:00", "UTC"); err == nil {
		t.Error("expected error for non YYYY-MM-DD date")
	}
	if _, err := buildStartUTC("2025-02-21", "2pm-ish", "UTC"); err == nil {
		t.Error("expected error for unparseable time")
	}
	if _, err := buildStartUTC("2025-02-21", "14:00", "Mars/Olympus"); err == nil {
		t.Error("expected error for unknown timezone")
	}
}

func TestFormatClock(t *testing.T) {
	t.Parallel()

	cases := []struct {
		hour, minute int
		want         string
	}{
		{0, 5, "12:05 AM"},
		{9, 0, "9:00 AM"},
		{12, 0, "12:00 PM"},
		{14, 30, "2:30 PM"},
		{23, 59, "11:59 PM"},
	}
	for _, tc := range cases {
		ts := time.Date(2025, 2, 21, tc.hour, tc.minute, 0, 0, time.UTC)
		if got := formatClock(ts); got != tc.want {
			t.Errorf("formatClock(%02d:%02d) = %q, want %q", tc.hour, tc.minute, got, tc.want)
		}
	}
}

func TestDisplayLocation_FallsBack(t *testing.T) {
	t.Parallel()

	if loc := displayLocation("Not/AZone"); loc.String() != defaultDisplayZone {
		t.Fatalf("fallback zone = %s, want %s", loc, defaultDisplayZone)
	}
	if loc := displayLocation("Europe/London"); loc.String() != "Europe/London" {
		t.Fatalf("zone = %s, want Europe/London", loc)
	}
}
