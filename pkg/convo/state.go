package convo

import "strings"

// SessionState is the sole mutable aggregate for one conversation. It is owned
// exclusively by a single session and passed explicitly to the router and the
// tool gateway; there is no ambient or framework-injected copy.
type SessionState struct {
	Phase  ConversationPhase
	Intent IntentCategory

	// Contact fields are written only from explicit user-provided values via
	// the set_name / set_email tools, never inferred.
	ContactName  string
	ContactEmail string

	// BookedBefore is sticky: true once any booking succeeded, in this session
	// or in a prior one when hydrated from the user profile.
	BookedBefore bool

	// CTAOfferCount counts soft call-to-action offers. Current policy allows
	// one per session.
	CTAOfferCount int

	// MemoryHint is externally supplied soft context, opaque free text.
	MemoryHint string

	// Company and Domain are hydrated from the user profile and read-only from
	// the router's perspective.
	Company string
	Domain  string

	// PendingClose latches once an end-signal is detected so the lifecycle
	// controller can deliver the scripted closing and schedule teardown.
	PendingClose bool
}

// NewSessionState returns the initial state for a fresh conversation.
func NewSessionState() *SessionState {
	return &SessionState{
		Phase:  PhaseGreeting,
		Intent: IntentUnknown,
	}
}

// HasFullContact reports whether both contact fields are present. A single
// present field is treated as incomplete for booking purposes.
func (s *SessionState) HasFullContact() bool {
	return strings.TrimSpace(s.ContactName) != "" && strings.TrimSpace(s.ContactEmail) != ""
}
