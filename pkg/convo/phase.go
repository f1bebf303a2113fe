package convo

// ConversationPhase is the discrete stage a conversation is in. Exactly one
// phase is active per session at any time; PhaseEnd is absorbing.
type ConversationPhase string

const (
	PhaseGreeting              ConversationPhase = "greeting"
	PhaseDiscoverIntent        ConversationPhase = "discover_intent"
	PhaseValueExchange         ConversationPhase = "value_exchange"
	PhaseOptionalDepth         ConversationPhase = "optional_depth"
	PhaseSoftCTA               ConversationPhase = "soft_cta"
	PhaseBookingCollectContact ConversationPhase = "booking_collect_contact"
	PhaseBookingTimeRange      ConversationPhase = "booking_time_range"
	PhaseBookingPickSlot       ConversationPhase = "booking_pick_slot"
	PhaseBookingConfirm        ConversationPhase = "booking_confirm"
	PhaseWarmClose             ConversationPhase = "warm_close"
	PhaseRecovery              ConversationPhase = "recovery"
	PhaseEnd                   ConversationPhase = "end"
)

// Phases lists every declared phase. The directive table is checked against
// this list so a new phase cannot be added without a directive.
var Phases = []ConversationPhase{
	PhaseGreeting,
	PhaseDiscoverIntent,
	PhaseValueExchange,
	PhaseOptionalDepth,
	PhaseSoftCTA,
	PhaseBookingCollectContact,
	PhaseBookingTimeRange,
	PhaseBookingPickSlot,
	PhaseBookingConfirm,
	PhaseWarmClose,
	PhaseRecovery,
	PhaseEnd,
}

// InBookingTrack reports whether p is one of the four booking sub-phases.
// Once entered, the booking track is sticky until an end-signal or a terminal
// booking attempt.
func (p ConversationPhase) InBookingTrack() bool {
	switch p {
	case PhaseBookingCollectContact, PhaseBookingTimeRange, PhaseBookingPickSlot, PhaseBookingConfirm:
		return true
	}
	return false
}

// Terminal reports whether p has no outgoing transitions.
func (p ConversationPhase) Terminal() bool {
	return p == PhaseEnd
}

func (p ConversationPhase) String() string {
	return string(p)
}
