// Package engine defines the boundary to the external reasoning engine: a
// message list plus tool schemas in, either a text reply or structured tool
// invocations out. The conversation core depends only on this contract.
package engine

import "context"

// Role values for messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one entry in the conversation transcript handed to the engine.
type Message struct {
	Role string
	Text string

	// ToolCalls is set on assistant messages that invoked tools.
	ToolCalls []ToolCall

	// ToolCallID and ToolName are set on tool-result messages.
	ToolCallID string
	ToolName   string
}

// ToolCall is a structured tool invocation produced by the engine.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// Tool describes a callable operation exposed to the engine.
type Tool struct {
	Name        string
	Description string
	InputSchema *JSONSchema
}

// JSONSchema is the subset of JSON Schema needed for tool parameters.
type JSONSchema struct {
	Type        string
	Description string
	Properties  map[string]*JSONSchema
	Required    []string
}

// Request is one reasoning call: system context, transcript, and the tools the
// engine may invoke this turn.
type Request struct {
	System   string
	Messages []Message
	Tools    []Tool
}

// Reply is the engine's output for one call. Either Text is non-empty or
// ToolCalls is non-empty; both empty means the engine had nothing to say.
type Reply struct {
	Text      string
	ToolCalls []ToolCall
}

// Engine is the external reasoning engine. Respond is the only suspension
// point besides calendar-service calls; it must honor ctx cancellation.
type Engine interface {
	Respond(ctx context.Context, req *Request) (*Reply, error)
}
