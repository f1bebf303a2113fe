package convo

import "testing"

func TestRouteTurn_EndIsAbsorbing(t *testing.T) {
	t.Parallel()

	state := NewSessionState()
	state.ContactName = "Alice"
	RouteTurn(state, "okay bye now")
	if state.Phase != PhaseEnd {
		t.Fatalf("phase = %s, want %s", state.Phase, PhaseEnd)
	}
	if !state.PendingClose {
		t.Fatal("expected pending close latch")
	}

	// No later utterance moves the session out of END or mutates fields.
	for _, utterance := range []string{
		"actually I'd like to book a call",
		"tell me more about the architecture",
		"I'm a founder of a startup hiring engineers",
		"",
	} {
		RouteTurn(state, utterance)
		if state.Phase != PhaseEnd {
			t.Fatalf("after %q: phase = %s, want %s", utterance, state.Phase, PhaseEnd)
		}
		if state.Intent != IntentUnknown {
			t.Fatalf("after %q: intent = %s, want unchanged %s", utterance, state.Intent, IntentUnknown)
		}
		if state.ContactName != "Alice" {
			t.Fatalf("after %q: contact name mutated to %q", utterance, state.ContactName)
		}
	}
}

func TestRouteTurn_BookingPrecedence(t *testing.T) {
	t.Parallel()

	// With a missing contact field, a booking phrase forces contact collection
	// regardless of prior phase.
	for _, prior := range []ConversationPhase{
		PhaseGreeting, PhaseDiscoverIntent, PhaseValueExchange,
		PhaseOptionalDepth, PhaseSoftCTA, PhaseWarmClose, PhaseRecovery,
	} {
		state := NewSessionState()
		state.Phase = prior
		state.ContactName = "Alice" // one field alone is still incomplete
		RouteTurn(state, "I'd like to book a call")
		if state.Phase != PhaseBookingCollectContact {
			t.Fatalf("from %s: phase = %s, want %s", prior, state.Phase, PhaseBookingCollectContact)
		}
	}
}

func TestRouteTurn_BookingWithFullContactSkipsCollection(t *testing.T) {
	t.Parallel()

	state := NewSessionState()
	state.Phase = PhaseValueExchange
	state.ContactName = "Alice"
	state.ContactEmail = "alice@example.com"
	RouteTurn(state, "can we schedule a meeting")
	if state.Phase != PhaseBookingTimeRange {
		t.Fatalf("phase = %s, want %s", state.Phase, PhaseBookingTimeRange)
	}
}

func TestRouteTurn_BookingTrackIsSticky(t *testing.T) {
	t.Parallel()

	for _, phase := range []ConversationPhase{
		PhaseBookingCollectContact, PhaseBookingTimeRange,
		PhaseBookingPickSlot, PhaseBookingConfirm,
	} {
		state := NewSessionState()
		state.Phase = phase
		RouteTurn(state, "what's the weather like where Mihir lives")
		if state.Phase != phase {
			t.Fatalf("phase %s moved to %s on unrelated utterance", phase, state.Phase)
		}
	}
}

func TestRouteTurn_SilenceGoesToRecovery(t *testing.T) {
	t.Parallel()

	state := NewSessionState()
	state.Phase = PhaseValueExchange
	RouteTurn(state, "")
	if state.Phase != PhaseRecovery {
		t.Fatalf("phase = %s, want %s", state.Phase, PhaseRecovery)
	}
}

func TestRouteTurn_DepthRequest(t *testing.T) {
	t.Parallel()

	state := NewSessionState()
	state.Phase = PhaseValueExchange
	RouteTurn(state, "walk me through the architecture")
	if state.Phase != PhaseOptionalDepth {
		t.Fatalf("phase = %s, want %s", state.Phase, PhaseOptionalDepth)
	}
}

func TestRouteTurn_GreetingFlowsToDiscoverIntent(t *testing.T) {
	t.Parallel()

	state := NewSessionState()
	RouteTurn(state, "hello there")
	if state.Phase != PhaseDiscoverIntent {
		t.Fatalf("phase = %s, want %s", state.Phase, PhaseDiscoverIntent)
	}
	// Staying in discover intent until routing moves on.
	RouteTurn(state, "just looking around really")
	if state.Phase != PhaseDiscoverIntent {
		t.Fatalf("phase = %s, want %s", state.Phase, PhaseDiscoverIntent)
	}
}

func TestRouteTurn_SoftCTAOverride(t *testing.T) {
	t.Parallel()

	state := NewSessionState()
	state.Phase = PhaseValueExchange
	state.Intent = IntentHiring
	RouteTurn(state, "this sounds like it could be a good fit")
	if state.Phase != PhaseSoftCTA {
		t.Fatalf("phase = %s, want %s", state.Phase, PhaseSoftCTA)
	}
	if state.CTAOfferCount != 1 {
		t.Fatalf("cta offers = %d, want 1", state.CTAOfferCount)
	}

	// One-shot: a second interest signal does not re-offer.
	state.Phase = PhaseValueExchange
	RouteTurn(state, "really impressive work, good fit")
	if state.Phase == PhaseSoftCTA {
		t.Fatal("soft CTA fired past its one-shot cap")
	}
	if state.CTAOfferCount != 1 {
		t.Fatalf("cta offers = %d, want 1", state.CTAOfferCount)
	}
}

func TestRouteTurn_SoftCTASuppressedForFounder(t *testing.T) {
	t.Parallel()

	state := NewSessionState()
	state.Phase = PhaseValueExchange
	state.Intent = IntentFounder
	RouteTurn(state, "sounds good, how can he help us")
	if state.Phase == PhaseSoftCTA {
		t.Fatal("soft CTA must not fire for founder intent")
	}
	if state.CTAOfferCount != 0 {
		t.Fatalf("cta offers = %d, want 0", state.CTAOfferCount)
	}
}

func TestRouteTurn_SoftCTANeverInDiscoverIntent(t *testing.T) {
	t.Parallel()

	state := NewSessionState()
	state.Phase = PhaseGreeting
	RouteTurn(state, "sounds good so far")
	if state.Phase != PhaseDiscoverIntent {
		t.Fatalf("phase = %s, want %s (CTA must not pre-empt discovery)", state.Phase, PhaseDiscoverIntent)
	}
}

func TestRouteTurn_ShortUtteranceKeepsIntent(t *testing.T) {
	t.Parallel()

	state := NewSessionState()
	state.Phase = PhaseValueExchange
	state.Intent = IntentHiring
	RouteTurn(state, "yeah sure")
	if state.Intent != IntentHiring {
		t.Fatalf("intent = %s, want %s after short utterance", state.Intent, IntentHiring)
	}
}

func TestRouteTurn_LongUtteranceReclassifies(t *testing.T) {
	t.Parallel()

	state := NewSessionState()
	state.Phase = PhaseDiscoverIntent
	state.Intent = IntentHiring
	RouteTurn(state, "I'm a founder building a startup around payments")
	if state.Intent != IntentFounder {
		t.Fatalf("intent = %s, want %s", state.Intent, IntentFounder)
	}
}
