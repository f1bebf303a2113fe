package convo

import "strings"

// Signal detectors are pure predicates over the lowercased utterance. Empty
// text never matches.

var endPhrases = []string{
	"bye",
	"goodbye",
	"hang up",
	"that's all",
	"thats all",
	"that is all",
	"end the call",
	"gotta go",
	"got to go",
	"i have to go",
	"talk later",
	"see you",
	"we're done",
	"we are done",
}

var bookingPhrases = []string{
	"book",
	"schedule",
	"meeting",
	"calendar",
	"appointment",
	"set up a call",
	"set up a time",
	"grab a slot",
	"grab some time",
}

var depthPhrases = []string{
	"tell me more",
	"more detail",
	"more details",
	"go deeper",
	"dive deeper",
	"deep dive",
	"architecture",
	"walk me through",
	"how does it work",
	"how did he build",
	"under the hood",
	"technical details",
}

var softCTAPhrases = []string{
	"fit",
	"hire",
	"collaborate",
	"collaboration",
	"work with",
	"work together",
	"sounds good",
	"sounds great",
	"interested",
	"impressive",
	"how can he help",
	"how could he help",
}

// WantsEnd reports whether the utterance asks to end the conversation.
func WantsEnd(text string) bool {
	return containsAny(text, endPhrases)
}

// WantsBooking reports whether the utterance asks to schedule a meeting.
func WantsBooking(text string) bool {
	return containsAny(text, bookingPhrases)
}

// IsDepthRequest reports whether the utterance asks for more technical detail.
func IsDepthRequest(text string) bool {
	return containsAny(text, depthPhrases)
}

// IsSoftCTATrigger reports whether the utterance carries an interest signal
// that may justify a single low-pressure call offer. The router applies the
// phase/intent/cap gating; this predicate only looks at the text.
func IsSoftCTATrigger(text string) bool {
	return containsAny(text, softCTAPhrases)
}

func containsAny(text string, phrases []string) bool {
	lowered := strings.ToLower(strings.TrimSpace(text))
	if lowered == "" {
		return false
	}
	for _, phrase := range phrases {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}
	return false
}
