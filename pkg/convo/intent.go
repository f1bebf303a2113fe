package convo

import "strings"

// IntentCategory is the coarse visitor intent detected from their utterances.
type IntentCategory string

const (
	IntentUnknown  IntentCategory = "unknown"
	IntentExplorer IntentCategory = "explorer"
	IntentHiring   IntentCategory = "hiring"
	IntentFounder  IntentCategory = "founder"
)

// Hiring is checked before founder; an utterance matching both classifies as
// hiring.
var hiringKeywords = []string{
	"hiring",
	"recruit",
	"recruiter",
	"job opening",
	"open role",
	"open position",
	"backend role",
	"engineer role",
	"engineering role",
	"candidate",
	"interview",
	"resume",
	"cv",
	"full time",
	"full-time",
	"head of engineering",
	"talent",
}

var founderKeywords = []string{
	"founder",
	"co-founder",
	"cofounder",
	"startup",
	"start-up",
	"my company",
	"our company",
	"we're building",
	"we are building",
	"i'm building",
	"i am building",
	"saas",
	"mvp",
	"pre-seed",
	"seed round",
	"bootstrapped",
	"venture",
}

// ClassifyIntent maps an utterance to an IntentCategory by case-insensitive
// substring matching. No founder or hiring signal yields IntentUnknown; the
// router treats a session stuck at unknown past greeting as explorer-style.
func ClassifyIntent(text string) IntentCategory {
	lowered := strings.ToLower(text)
	for _, kw := range hiringKeywords {
		if strings.Contains(lowered, kw) {
			return IntentHiring
		}
	}
	for _, kw := range founderKeywords {
		if strings.Contains(lowered, kw) {
			return IntentFounder
		}
	}
	return IntentUnknown
}
