// Package tools is the gateway between the reasoning engine and the outside
// world. Every operation validates its preconditions against the session state
// before touching the calendar service, and every operation is total from the
// engine's perspective: it always returns a string the engine can speak from,
// never an error.
package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/voicefolio/melvin/pkg/convo"
	"github.com/voicefolio/melvin/pkg/engine"
)

// Tool names exposed to the reasoning engine.
const (
	ToolCurrentDatetime = "get_current_datetime"
	ToolSetName         = "set_name"
	ToolSetEmail        = "set_email"
	ToolAvailableSlots  = "get_available_slots"
	ToolBookMeeting     = "book_meeting"
)

// Executor is one gateway operation. Execute may mutate the session state
// (recording contact fields, forcing phase transitions after a terminal
// booking attempt) and returns the string handed back to the engine.
type Executor interface {
	Name() string
	Definition() engine.Tool
	Execute(ctx context.Context, state *convo.SessionState, input map[string]any) string
}

// Registry holds the gateway operations for one session.
type Registry struct {
	byName map[string]Executor
}

// NewRegistry builds a registry from the given executors. Nil entries are
// skipped.
func NewRegistry(executors ...Executor) *Registry {
	registry := &Registry{byName: make(map[string]Executor, len(executors))}
	for _, ex := range executors {
		if ex == nil {
			continue
		}
		registry.byName[ex.Name()] = ex
	}
	return registry
}

// Definitions returns the tool schemas in stable order for the engine request.
func (r *Registry) Definitions() []engine.Tool {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]engine.Tool, 0, len(names))
	for _, name := range names {
		out = append(out, r.byName[name].Definition())
	}
	return out
}

// Execute runs one operation. An unknown tool name resolves to a guidance
// string so the engine can recover in speech.
func (r *Registry) Execute(ctx context.Context, state *convo.SessionState, name string, input map[string]any) string {
	if r == nil {
		return "No tools are configured right now; continue the conversation without them."
	}
	ex, ok := r.byName[strings.TrimSpace(name)]
	if !ok {
		return fmt.Sprintf("There is no tool named %q. Continue in speech without it.", name)
	}
	if input == nil {
		input = map[string]any{}
	}
	return ex.Execute(ctx, state, input)
}

func stringArg(input map[string]any, key string) string {
	value, _ := input[key].(string)
	return strings.TrimSpace(value)
}
