package convo

import (
	"fmt"
	"strings"
)

// voiceContract is embedded in every directive so each turn restates the
// output rules regardless of phase.
const voiceContract = "Speak plain text only, one to three sentences, at most one question, no lists, markdown, or emojis."

type directiveFunc func(*SessionState) string

// directiveTable maps every ConversationPhase to its renderer. checkExhaustive
// in directive_test.go keeps this in sync with Phases.
var directiveTable = map[ConversationPhase]directiveFunc{
	PhaseGreeting:              renderGreeting,
	PhaseDiscoverIntent:        renderDiscoverIntent,
	PhaseValueExchange:         renderValueExchange,
	PhaseOptionalDepth:         renderOptionalDepth,
	PhaseSoftCTA:               renderSoftCTA,
	PhaseBookingCollectContact: renderBookingCollectContact,
	PhaseBookingTimeRange:      renderBookingTimeRange,
	PhaseBookingPickSlot:       renderBookingPickSlot,
	PhaseBookingConfirm:        renderBookingConfirm,
	PhaseWarmClose:             renderWarmClose,
	PhaseRecovery:              renderRecovery,
	PhaseEnd:                   renderEnd,
}

// RenderDirective produces the behavioral directive for the current phase and
// an optional memory-context note. The directive is ephemeral per-turn context
// and is never persisted into the conversation record. An unrecognized phase
// resolves to a generic safe directive rather than failing the turn.
func RenderDirective(state *SessionState) (directive string, memoryNote string) {
	render, ok := directiveTable[state.Phase]
	if !ok {
		return genericDirective(state.Phase), composeMemoryNote(state)
	}
	return render(state), composeMemoryNote(state)
}

func genericDirective(phase ConversationPhase) string {
	return fmt.Sprintf("[phase: %s] %s Answer helpfully about Mihir's work and ask at most one clarifying question.", phase, voiceContract)
}

func renderGreeting(*SessionState) string {
	return "[phase: greeting] " + voiceContract + " Give a brief warm greeting, introduce yourself as Melvin who explains Mihir's work, and ask one simple question about what brought the visitor here."
}

func renderDiscoverIntent(state *SessionState) string {
	if state.Intent == IntentFounder {
		return "[phase: discover_intent] " + voiceContract + " The visitor is a founder. Open with how Mihir fits founder needs: backend and systems ownership, shipping bias, end-to-end problem ownership. Do not ask for their name or email. Ask what they are building only if they have not already said."
	}
	return "[phase: discover_intent] " + voiceContract + " Figure out why the visitor is here (exploring, hiring, or building something). Answer their question briefly, then ask one gentle question to understand their goal. Do not push booking."
}

func renderValueExchange(*SessionState) string {
	return "[phase: value_exchange] " + voiceContract + " Share what Mihir builds and how he thinks, using progressive disclosure: one or two concrete examples, never an info dump. Offer an optional next step naturally."
}

func renderOptionalDepth(*SessionState) string {
	return "[phase: optional_depth] " + voiceContract + " The visitor explicitly asked for depth. Go one level deeper on the topic they named, still concise for voice. Suggest a call with Mihir for anything deeper than voice can carry."
}

func renderSoftCTA(*SessionState) string {
	return "[phase: soft_cta] " + voiceContract + " The visitor showed an interest signal. Offer a short call with Mihir exactly once, low pressure, as an option not a pitch. If they decline, drop it and continue helping."
}

func renderBookingCollectContact(*SessionState) string {
	return "[phase: booking_collect_contact] " + voiceContract + " Collect the visitor's full name and email before any scheduling. Do not call get_available_slots or book_meeting in this phase. Call set_name and set_email only with values the visitor explicitly stated this turn; never infer, guess, or fabricate a name or email. Voice is unreliable for emails, so ask them to type or spell it if unclear."
}

func renderBookingTimeRange(*SessionState) string {
	return "[phase: booking_time_range] " + voiceContract + " Contact details are recorded. Ask what days or date range suit them. For relative dates like tomorrow or next Monday, call get_current_datetime first, then query get_available_slots with concrete YYYY-MM-DD dates."
}

func renderBookingPickSlot(*SessionState) string {
	return "[phase: booking_pick_slot] " + voiceContract + " Read out the available times and ask the visitor to pick one. Offer at most three options per breath."
}

func renderBookingConfirm(state *SessionState) string {
	return fmt.Sprintf("[phase: booking_confirm] %s Confirm date, time, and email (%s) once, then call book_meeting. Do not re-confirm after the tool returns; relay its outcome.", voiceContract, strings.TrimSpace(state.ContactEmail))
}

func renderWarmClose(*SessionState) string {
	return "[phase: warm_close] " + voiceContract + " Wrap up warmly. Summarize in one sentence what happened or what the next step is, thank the visitor, and do not open new topics or re-attempt booking."
}

func renderRecovery(*SessionState) string {
	return "[phase: recovery] " + voiceContract + " The visitor went silent or was not understood. Give one gentle nudge or a simpler restatement with one clear option. Never show frustration."
}

func renderEnd(*SessionState) string {
	return "[phase: end] " + voiceContract + " The conversation is over. Say a brief goodbye only; no questions, no offers, no tools."
}

// composeMemoryNote builds the soft memory context for the turn. An externally
// supplied hint wins; otherwise a note is composed from the hydrated profile
// signals. Every line carries the hedging instruction because profile memory
// may be stale. No signal means no note: context is never fabricated.
func composeMemoryNote(state *SessionState) string {
	const hedge = "mention with uncertainty, never quote verbatim"

	if hint := strings.TrimSpace(state.MemoryHint); hint != "" {
		return fmt.Sprintf("Soft memory context (%s): %s", hedge, hint)
	}

	var parts []string
	if state.Intent != IntentUnknown {
		parts = append(parts, fmt.Sprintf("the visitor previously read as %s (%s)", state.Intent, hedge))
	}
	if state.BookedBefore {
		parts = append(parts, fmt.Sprintf("they seem to have booked a call before (%s)", hedge))
	}
	if company := strings.TrimSpace(state.Company); company != "" {
		parts = append(parts, fmt.Sprintf("they may be from %s (%s)", company, hedge))
	}
	if domain := strings.TrimSpace(state.Domain); domain != "" {
		parts = append(parts, fmt.Sprintf("their domain may be %s (%s)", domain, hedge))
	}
	if len(parts) == 0 {
		return ""
	}
	return "Soft memory context: " + strings.Join(parts, "; ") + "."
}
