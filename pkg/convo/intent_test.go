package convo

import "testing"

func TestClassifyIntent(t *testing.T) {
	t.Parallel()

	cases := []struct {
		text string
		want IntentCategory
	}{
		{"We're hiring for a backend engineer role", IntentHiring},
		{"I'm a recruiter looking at your resume", IntentHiring},
		{"I'm a founder of a SaaS startup", IntentFounder},
		{"we are building an mvp for our company", IntentFounder},
		{"just curious what Mihir does", IntentUnknown},
		{"", IntentUnknown},
		// Hiring wins when both signal sets match.
		{"I'm a startup founder and we're hiring", IntentHiring},
	}
	for _, tc := range cases {
		if got := ClassifyIntent(tc.text); got != tc.want {
			t.Errorf("ClassifyIntent(%q) = %s, want %s", tc.text, got, tc.want)
		}
	}
}

func TestClassifyIntent_CaseInsensitive(t *testing.T) {
	t.Parallel()

	if got := ClassifyIntent("WE ARE HIRING"); got != IntentHiring {
		t.Fatalf("got %s, want %s", got, IntentHiring)
	}
}
