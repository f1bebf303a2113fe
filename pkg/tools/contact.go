package tools

import (
	"context"
	"strings"

	"github.com/voicefolio/melvin/pkg/convo"
	"github.com/voicefolio/melvin/pkg/engine"
)

// SetNameExecutor records the visitor's name. The directive layer guarantees
// it is only invoked with a name the visitor explicitly stated.
type SetNameExecutor struct{}

func (SetNameExecutor) Name() string {
	return ToolSetName
}

func (SetNameExecutor) Definition() engine.Tool {
	return engine.Tool{
		Name:        ToolSetName,
		Description: "Record the visitor's full name, exactly as they stated it. Never call with an inferred or guessed name.",
		InputSchema: &engine.JSONSchema{
			Type: "object",
			Properties: map[string]*engine.JSONSchema{
				"name": {Type: "string", Description: "The visitor's full name as they stated it."},
			},
			Required: []string{"name"},
		},
	}
}

func (SetNameExecutor) Execute(_ context.Context, state *convo.SessionState, input map[string]any) string {
	name := stringArg(input, "name")
	if name == "" {
		return "No name was provided. Ask the visitor for their full name directly; do not guess."
	}
	state.ContactName = name
	return "Saved the name " + name + "."
}

// SetEmailExecutor records the visitor's email. Recording an email while
// collecting contact details advances the session into the time-range phase.
type SetEmailExecutor struct{}

func (SetEmailExecutor) Name() string {
	return ToolSetEmail
}

func (SetEmailExecutor) Definition() engine.Tool {
	return engine.Tool{
		Name:        ToolSetEmail,
		Description: "Record the visitor's email address, exactly as they stated or typed it. Never call with an inferred or guessed email.",
		InputSchema: &engine.JSONSchema{
			Type: "object",
			Properties: map[string]*engine.JSONSchema{
				"email": {Type: "string", Description: "The visitor's email address as they stated it."},
			},
			Required: []string{"email"},
		},
	}
}

func (SetEmailExecutor) Execute(_ context.Context, state *convo.SessionState, input map[string]any) string {
	email := stringArg(input, "email")
	if email == "" || !strings.Contains(email, "@") {
		return "That does not look like a complete email address. Ask the visitor to type or spell it out; do not guess."
	}
	state.ContactEmail = email
	if state.Phase == convo.PhaseBookingCollectContact {
		state.Phase = convo.PhaseBookingTimeRange
	}
	return "Saved the email " + email + "."
}
