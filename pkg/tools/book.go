package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/voicefolio/melvin/pkg/calcom"
	"github.com/voicefolio/melvin/pkg/convo"
	"github.com/voicefolio/melvin/pkg/engine"
)

// BookingSuccessMarker appears in every successful booking result. The session
// capture layer keys off it to mark sessions and user profiles as booked.
const BookingSuccessMarker = "Meeting booked successfully"

// BookMeetingExecutor creates the booking. Name and email resolve from
// explicit arguments first, then from the session state; a missing field is
// rejected locally before any network call. A booking attempt is terminal
// either way: success and failure both move the session to the warm close so
// the conversation never loops on a failing booking.
type BookMeetingExecutor struct {
	Calendar *calcom.Client
}

func (e *BookMeetingExecutor) Name() string {
	return ToolBookMeeting
}

func (e *BookMeetingExecutor) Definition() engine.Tool {
	return engine.Tool{
		Name:        ToolBookMeeting,
		Description: "Book the meeting after the visitor picked a slot and confirmed their details once.",
		InputSchema: &engine.JSONSchema{
			Type: "object",
			Properties: map[string]*engine.JSONSchema{
				"attendee_name":  {Type: "string", Description: "Full name of the person booking."},
				"attendee_email": {Type: "string", Description: "Email for the booking confirmation."},
				"date":           {Type: "string", Description: "Date in YYYY-MM-DD format."},
				"time_slot":      {Type: "string", Description: "Time label, e.g. 14:00 or 2:00 PM."},
				"timezone":       {Type: "string", Description: "IANA timezone, e.g. America/New_York. Default UTC."},
				"notes":          {Type: "string", Description: "Optional notes for the meeting."},
			},
			Required: []string{"attendee_name", "attendee_email", "date", "time_slot"},
		},
	}
}

func (e *BookMeetingExecutor) Execute(ctx context.Context, state *convo.SessionState, input map[string]any) string {
	name := stringArg(input, "attendee_name")
	if name == "" {
		name = strings.TrimSpace(state.ContactName)
	}
	email := stringArg(input, "attendee_email")
	if email == "" {
		email = strings.TrimSpace(state.ContactEmail)
	}

	var missing []string
	if name == "" {
		missing = append(missing, "name")
	}
	if email == "" {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		return fmt.Sprintf(
			"Cannot book yet: the visitor's %s is missing. Ask for it directly; never invent contact details.",
			strings.Join(missing, " and "),
		)
	}

	timezone := stringArg(input, "timezone")
	if timezone == "" {
		timezone = "UTC"
	}
	start, err := buildStartUTC(stringArg(input, "date"), stringArg(input, "time_slot"), timezone)
	if err != nil {
		return fmt.Sprintf("Invalid date or time: %v. Re-check the details with the visitor before trying again.", err)
	}

	booking, err := e.Calendar.CreateBooking(ctx, calcom.BookingRequest{
		AttendeeName:  name,
		AttendeeEmail: email,
		Timezone:      timezone,
		Start:         start,
		Notes:         stringArg(input, "notes"),
	})

	// Terminal either way: never re-enter the confirm loop.
	state.Phase = convo.PhaseWarmClose

	if err != nil {
		return fmt.Sprintf("Booking failed: %v. Apologize once and offer a concrete fallback such as an email follow-up. Do not retry.", err)
	}

	state.BookedBefore = true
	return fmt.Sprintf(
		"%s for %s. Confirmation has been sent to %s.",
		BookingSuccessMarker,
		booking.StartTime.Format(time.RFC3339),
		email,
	)
}
