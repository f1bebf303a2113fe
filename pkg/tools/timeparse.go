package tools

import (
	"fmt"
	"strings"
	"time"
)

// defaultDisplayZone is the fallback for slot display when the requested
// timezone is missing or invalid.
const defaultDisplayZone = "Asia/Kolkata"

// parseClock parses a spoken-style time label. Accepts 24-hour "14:00" and
// 12-hour "2:00 PM" (with or without the space).
func parseClock(label string) (hour, minute int, err error) {
	cleaned := strings.ToUpper(strings.TrimSpace(label))
	if cleaned == "" {
		return 0, 0, fmt.Errorf("time is empty")
	}

	if strings.Contains(cleaned, "AM") || strings.Contains(cleaned, "PM") {
		cleaned = strings.ReplaceAll(cleaned, " ", "")
		t, err := time.Parse("3:04PM", cleaned)
		if err != nil {
			return 0, 0, fmt.Errorf("time must look like 2:00 PM, got %q", label)
		}
		return t.Hour(), t.Minute(), nil
	}

	t, err := time.Parse("15:04", cleaned)
	if err != nil {
		return 0, 0, fmt.Errorf("time must look like 14:00, got %q", label)
	}
	return t.Hour(), t.Minute(), nil
}

// buildStartUTC combines a YYYY-MM-DD date, a time label, and an IANA timezone
// into an absolute UTC instant. All validation happens here, before any
// network call.
func buildStartUTC(date, timeLabel, timezone string) (time.Time, error) {
	day, err := time.Parse("2006-01-02", strings.TrimSpace(date))
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD, got %q", date)
	}
	hour, minute, err := parseClock(timeLabel)
	if err != nil {
		return time.Time{}, err
	}
	loc, err := time.LoadLocation(strings.TrimSpace(timezone))
	if err != nil {
		return time.Time{}, fmt.Errorf("unknown timezone %q", timezone)
	}
	local := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc)
	return local.UTC(), nil
}

// formatClock renders a 12-hour voice-friendly label like "9:00 AM" or
// "2:30 PM".
func formatClock(t time.Time) string {
	hour, minute := t.Hour(), t.Minute()
	switch {
	case hour == 0:
		return fmt.Sprintf("12:%02d AM", minute)
	case hour < 12:
		return fmt.Sprintf("%d:%02d AM", hour, minute)
	case hour == 12:
		return fmt.Sprintf("12:%02d PM", minute)
	default:
		return fmt.Sprintf("%d:%02d PM", hour-12, minute)
	}
}

// displayLocation resolves a timezone for slot display, falling back to the
// default zone on anything unloadable.
func displayLocation(timezone string) *time.Location {
	timezone = strings.TrimSpace(timezone)
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err == nil {
			return loc
		}
	}
	loc, err := time.LoadLocation(defaultDisplayZone)
	if err != nil {
		return time.UTC
	}
	return loc
}
