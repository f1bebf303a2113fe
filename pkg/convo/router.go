package convo

import "strings"

const (
	// minIntentWords guards intent classification: short backchannel
	// utterances ("yeah", "okay sure") never overwrite a classified intent.
	minIntentWords = 3

	// maxCTAOffers caps soft call-to-action offers per session.
	maxCTAOffers = 1
)

// RouteTurn applies one finalized utterance to the session state, computing
// the next phase in place. Utterances are processed strictly sequentially
// within a session, so no locking happens here.
//
// Evaluation order: end-signal, absorbing END check, booking precedence,
// sticky booking track, ordinary routing with the soft-CTA override, and
// finally intent reclassification.
func RouteTurn(state *SessionState, utterance string) {
	if state == nil {
		return
	}
	text := strings.TrimSpace(utterance)

	if state.Phase == PhaseEnd {
		return
	}
	if WantsEnd(text) {
		state.Phase = PhaseEnd
		state.PendingClose = true
		return
	}

	switch {
	case WantsBooking(text):
		if state.HasFullContact() {
			state.Phase = PhaseBookingTimeRange
		} else {
			state.Phase = PhaseBookingCollectContact
		}
	case state.Phase.InBookingTrack():
		// Sticky: an unrelated utterance does not abandon booking.
	default:
		next := routeConversational(state, text)
		if next != PhaseDiscoverIntent &&
			state.CTAOfferCount < maxCTAOffers &&
			state.Intent != IntentFounder &&
			IsSoftCTATrigger(text) {
			next = PhaseSoftCTA
			state.CTAOfferCount++
		}
		state.Phase = next
	}

	if wordCount(text) >= minIntentWords {
		state.Intent = ClassifyIntent(text)
	}
}

func routeConversational(state *SessionState, text string) ConversationPhase {
	switch {
	case text == "":
		return PhaseRecovery
	case IsDepthRequest(text):
		return PhaseOptionalDepth
	case state.Phase == PhaseGreeting || state.Phase == PhaseDiscoverIntent:
		return PhaseDiscoverIntent
	default:
		return PhaseValueExchange
	}
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}
