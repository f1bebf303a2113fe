package session

import (
	"strings"
	"time"

	"github.com/voicefolio/melvin/pkg/tools"
)

// Turn is one entry in the session transcript: a user utterance, an assistant
// reply, or a tool result.
type Turn struct {
	Role  string    `json:"role"`
	Tool  string    `json:"tool,omitempty"`
	Text  string    `json:"text"`
	Phase string    `json:"phase"`
	At    time.Time `json:"at"`
}

// Report is the capture layer's view of a finished session.
type Report struct {
	SessionID string    `json:"session_id"`
	Room      string    `json:"room"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	Duration  float64   `json:"duration_sec"`

	ContactName  string `json:"contact_name,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`
	Intent       string `json:"intent"`
	FinalPhase   string `json:"final_phase"`
	BookingMade  bool   `json:"booking_made"`

	Turns []Turn `json:"turns"`
}

// reportLocked snapshots the transcript and collected state. Caller holds the
// lock.
func (s *Session) reportLocked() Report {
	ended := time.Now().UTC()
	started := s.startedAt
	if started.IsZero() {
		started = ended
	}
	turns := make([]Turn, len(s.turns))
	copy(turns, s.turns)

	// A profile can seed BookedBefore from an earlier visit, so the report
	// flags a booking only when this transcript contains one.
	var bookingMade bool
	for _, turn := range turns {
		if turn.Role == "tool" && strings.Contains(turn.Text, tools.BookingSuccessMarker) {
			bookingMade = true
			break
		}
	}

	return Report{
		SessionID:    s.id,
		Room:         s.room,
		StartedAt:    started,
		EndedAt:      ended,
		Duration:     ended.Sub(started).Seconds(),
		ContactName:  s.state.ContactName,
		ContactEmail: s.state.ContactEmail,
		Intent:       string(s.state.Intent),
		FinalPhase:   s.state.Phase.String(),
		BookingMade:  bookingMade,
		Turns:        turns,
	}
}
