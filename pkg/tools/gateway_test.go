package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/voicefolio/melvin/pkg/calcom"
	"github.com/voicefolio/melvin/pkg/convo"
)

func TestCurrentDatetime(t *testing.T) {
	t.Parallel()

	ex := &CurrentDatetimeExecutor{
		Now: func() time.Time { return time.Date(2025, 2, 20, 14, 0, 0, 0, time.UTC) },
	}
	got := ex.Execute(context.Background(), convo.NewSessionState(), map[string]any{})
	want := "Current date: 2025-02-20 (Thursday). Current time: 14:00 UTC."
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestCurrentDatetime_InvalidTimezoneFallsBack(t *testing.T) {
	t.Parallel()

	ex := &CurrentDatetimeExecutor{
		Now: func() time.Time { return time.Date(2025, 2, 20, 14, 0, 0, 0, time.UTC) },
	}
	got := ex.Execute(context.Background(), convo.NewSessionState(), map[string]any{"timezone": "Nowhere/Nope"})
	if !strings.Contains(got, "UTC") {
		t.Fatalf("expected UTC fallback, got %q", got)
	}
}

func TestSetNameAndEmail_AdvancesFromCollectContact(t *testing.T) {
	t.Parallel()

	state := convo.NewSessionState()
	state.Phase = convo.PhaseBookingCollectContact

	result := SetNameExecutor{}.Execute(context.Background(), state, map[string]any{"name": "Alice"})
	if !strings.Contains(result, "Alice") {
		t.Fatalf("unexpected result %q", result)
	}
	if state.Phase != convo.PhaseBookingCollectContact {
		t.Fatalf("name alone must not advance the phase, got %s", state.Phase)
	}

	result = SetEmailExecutor{}.Execute(context.Background(), state, map[string]any{"email": "alice@example.com"})
	if !strings.Contains(result, "alice@example.com") {
		t.Fatalf("unexpected result %q", result)
	}
	if state.ContactName != "Alice" || state.ContactEmail != "alice@example.com" {
		t.Fatalf("contact fields not recorded: %+v", state)
	}
	if state.Phase != convo.PhaseBookingTimeRange {
		t.Fatalf("phase = %s, want %s", state.Phase, convo.PhaseBookingTimeRange)
	}
}

func TestSetEmail_RejectsIncompleteAddress(t *testing.T) {
	t.Parallel()

	state := convo.NewSessionState()
	result := SetEmailExecutor{}.Execute(context.Background(), state, map[string]any{"email": "alice at example"})
	if state.ContactEmail != "" {
		t.Fatalf("incomplete email must not be recorded, got %q", state.ContactEmail)
	}
	if !strings.Contains(result, "do not guess") {
		t.Fatalf("expected anti-fabrication guidance, got %q", result)
	}
}

func TestAvailableSlots_TimezoneConversion(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","data":{"2025-02-21":[{"start":"2025-02-21T09:00:00Z"},{"start":"2025-02-21T14:00:00Z"}]}}`))
	}))
	defer srv.Close()

	ex := &AvailableSlotsExecutor{Calendar: calcom.NewClient("key", "42", srv.URL, srv.Client())}
	got := ex.Execute(context.Background(), convo.NewSessionState(), map[string]any{
		"start_date": "2025-02-21",
		"end_date":   "2025-02-21",
		"timezone":   "Asia/Kolkata",
	})

	// 09:00 and 14:00 UTC are 2:30 PM and 7:30 PM in Kolkata.
	want := "On 2025-02-21 available times are: 2:30 PM, 7:30 PM."
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestAvailableSlots_TransportErrorBecomesGuidance(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	srv.Close() // connection refused from here on

	ex := &AvailableSlotsExecutor{Calendar: calcom.NewClient("key", "42", srv.URL, http.DefaultClient)}
	got := ex.Execute(context.Background(), convo.NewSessionState(), map[string]any{
		"start_date": "2025-02-21",
		"end_date":   "2025-02-21",
	})
	if !strings.HasPrefix(got, "Could not fetch slots") {
		t.Fatalf("expected tagged error string, got %q", got)
	}
	if !strings.Contains(got, "Apologize once") {
		t.Fatalf("guidance missing recovery instruction: %q", got)
	}
}

func TestAvailableSlots_RejectsMalformedDateLocally(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	ex := &AvailableSlotsExecutor{Calendar: calcom.NewClient("key", "42", srv.URL, srv.Client())}
	got := ex.Execute(context.Background(), convo.NewSessionState(), map[string]any{
		"start_date": "next friday",
		"end_date":   "2025-02-21",
	})
	if !strings.Contains(got, "YYYY-MM-DD") {
		t.Fatalf("expected date validation guidance, got %q", got)
	}
	if calls.Load() != 0 {
		t.Fatal("malformed date must be rejected before any network call")
	}
}

func TestBookMeeting_MissingEmailNamesFieldAndSkipsNetwork(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	state := convo.NewSessionState()
	state.ContactName = "Alice" // email still missing
	ex := &BookMeetingExecutor{Calendar: calcom.NewClient("key", "42", srv.URL, srv.Client())}
	got := ex.Execute(context.Background(), state, map[string]any{
		"date":      "2025-02-21",
		"time_slot": "2:00 PM",
	})
	if !strings.Contains(got, "email") {
		t.Fatalf("guidance must name the missing field, got %q", got)
	}
	if strings.Contains(got, "name is missing") {
		t.Fatalf("name is present and must not be reported missing: %q", got)
	}
	if calls.Load() != 0 {
		t.Fatal("missing contact must be rejected before any network call")
	}
}

func TestBookMeeting_SuccessIsTerminal(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","data":{"startTime":"2025-02-21T08:30:00Z"}}`))
	}))
	defer srv.Close()

	state := convo.NewSessionState()
	state.Phase = convo.PhaseBookingConfirm
	ex := &BookMeetingExecutor{Calendar: calcom.NewClient("key", "42", srv.URL, srv.Client())}
	got := ex.Execute(context.Background(), state, map[string]any{
		"attendee_name":  "Alice",
		"attendee_email": "alice@example.com",
		"date":           "2025-02-21",
		"time_slot":      "2:00 PM",
		"timezone":       "Asia/Kolkata",
	})
	if !strings.Contains(got, BookingSuccessMarker) {
		t.Fatalf("success result missing marker: %q", got)
	}
	if !strings.Contains(got, "alice@example.com") {
		t.Fatalf("success result missing confirmation email: %q", got)
	}
	if state.Phase != convo.PhaseWarmClose {
		t.Fatalf("phase = %s, want %s", state.Phase, convo.PhaseWarmClose)
	}
	if !state.BookedBefore {
		t.Fatal("booking success must latch BookedBefore")
	}
}

func TestBookMeeting_FailureIsAlsoTerminal(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"slot already taken"}`))
	}))
	defer srv.Close()

	state := convo.NewSessionState()
	state.Phase = convo.PhaseBookingConfirm
	ex := &BookMeetingExecutor{Calendar: calcom.NewClient("key", "42", srv.URL, srv.Client())}
	got := ex.Execute(context.Background(), state, map[string]any{
		"attendee_name":  "Alice",
		"attendee_email": "alice@example.com",
		"date":           "2025-02-21",
		"time_slot":      "2:00 PM",
	})
	if !strings.HasPrefix(got, "Booking failed") {
		t.Fatalf("expected failure guidance, got %q", got)
	}
	if state.Phase != convo.PhaseWarmClose {
		t.Fatalf("failed booking must still move to %s, got %s", convo.PhaseWarmClose, state.Phase)
	}
	if state.BookedBefore {
		t.Fatal("failed booking must not latch BookedBefore")
	}
}

func TestBookMeeting_MalformedTimeRejectedLocally(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	state := convo.NewSessionState()
	ex := &BookMeetingExecutor{Calendar: calcom.NewClient("key", "42", srv.URL, srv.Client())}
	got := ex.Execute(context.Background(), state, map[string]any{
		"attendee_name":  "Alice",
		"attendee_email": "alice@example.com",
		"date":           "2025-02-21",
		"time_slot":      "sometime in the afternoon",
	})
	if !strings.HasPrefix(got, "Invalid date or time") {
		t.Fatalf("expected validation guidance, got %q", got)
	}
	if calls.Load() != 0 {
		t.Fatal("validation must happen before any network call")
	}
}

func TestRegistry_UnknownToolReturnsGuidance(t *testing.T) {
	t.Parallel()

	registry := NewRegistry(SetNameExecutor{}, SetEmailExecutor{})
	got := registry.Execute(context.Background(), convo.NewSessionState(), "warp_drive", nil)
	if !strings.Contains(got, "warp_drive") {
		t.Fatalf("expected guidance naming the unknown tool, got %q", got)
	}
}

func TestRegistry_DefinitionsAreStable(t *testing.T) {
	t.Parallel()

	registry := NewRegistry(
		&CurrentDatetimeExecutor{},
		SetNameExecutor{},
		SetEmailExecutor{},
		&AvailableSlotsExecutor{},
		&BookMeetingExecutor{},
	)
	defs := registry.Definitions()
	if len(defs) != 5 {
		t.Fatalf("got %d definitions, want 5", len(defs))
	}
	for i := 1; i < len(defs); i++ {
		if defs[i-1].Name >= defs[i].Name {
			t.Fatalf("definitions not sorted: %s before %s", defs[i-1].Name, defs[i].Name)
		}
	}
}
