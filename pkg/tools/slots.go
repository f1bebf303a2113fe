package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/voicefolio/melvin/pkg/calcom"
	"github.com/voicefolio/melvin/pkg/convo"
	"github.com/voicefolio/melvin/pkg/engine"
)

// slotsErrorTag prefixes every recoverable slot-query failure so the
// engine-facing string is recognizably an error with recovery guidance, not a
// slot listing.
const slotsErrorTag = "Could not fetch slots"

// AvailableSlotsExecutor queries the calendar service for open slots and
// renders them as a voice-friendly per-day listing in the requested timezone.
// Transport and configuration failures come back as tagged guidance strings;
// no error ever propagates to the engine.
type AvailableSlotsExecutor struct {
	Calendar *calcom.Client
}

func (e *AvailableSlotsExecutor) Name() string {
	return ToolAvailableSlots
}

func (e *AvailableSlotsExecutor) Definition() engine.Tool {
	return engine.Tool{
		Name:        ToolAvailableSlots,
		Description: "Fetch available meeting slots for a date range. Use concrete YYYY-MM-DD dates; resolve relative dates with get_current_datetime first.",
		InputSchema: &engine.JSONSchema{
			Type: "object",
			Properties: map[string]*engine.JSONSchema{
				"start_date": {Type: "string", Description: "Start of range, YYYY-MM-DD."},
				"end_date":   {Type: "string", Description: "End of range (inclusive), YYYY-MM-DD."},
				"timezone":   {Type: "string", Description: "IANA timezone to display slot times in. Default Asia/Kolkata."},
			},
			Required: []string{"start_date", "end_date"},
		},
	}
}

func (e *AvailableSlotsExecutor) Execute(ctx context.Context, _ *convo.SessionState, input map[string]any) string {
	startDate := stringArg(input, "start_date")
	endDate := stringArg(input, "end_date")
	for _, date := range []string{startDate, endDate} {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			return fmt.Sprintf("Invalid date %q: dates must be YYYY-MM-DD. Resolve the date first, then try again.", date)
		}
	}

	byDate, err := e.Calendar.AvailableSlots(ctx, startDate, endDate)
	if err != nil {
		return fmt.Sprintf("%s: %v. Apologize once, then offer a fallback: suggest times manually or an email follow-up. Do not retry.", slotsErrorTag, err)
	}
	if len(byDate) == 0 {
		return fmt.Sprintf("No available slots between %s and %s.", startDate, endDate)
	}

	loc := displayLocation(stringArg(input, "timezone"))

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	var lines []string
	for _, date := range dates {
		slots := byDate[date]
		if len(slots) == 0 {
			continue
		}
		labels := make([]string, 0, len(slots))
		for _, slot := range slots {
			labels = append(labels, formatClock(slot.Start.In(loc)))
		}
		lines = append(lines, fmt.Sprintf("On %s available times are: %s.", date, strings.Join(labels, ", ")))
	}
	if len(lines) == 0 {
		return fmt.Sprintf("No available slots between %s and %s.", startDate, endDate)
	}
	return strings.Join(lines, " ")
}
