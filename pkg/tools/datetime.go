package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/voicefolio/melvin/pkg/convo"
	"github.com/voicefolio/melvin/pkg/engine"
)

// CurrentDatetimeExecutor reports the current date and time so the engine can
// resolve relative dates ("tomorrow", "next Monday") into concrete ones before
// calling the booking tools. It never fails: an invalid timezone silently
// falls back to UTC.
type CurrentDatetimeExecutor struct {
	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
}

func (e *CurrentDatetimeExecutor) Name() string {
	return ToolCurrentDatetime
}

func (e *CurrentDatetimeExecutor) Definition() engine.Tool {
	return engine.Tool{
		Name:        ToolCurrentDatetime,
		Description: "Get the current date, weekday, and time. Use before interpreting relative dates like tomorrow or next Monday.",
		InputSchema: &engine.JSONSchema{
			Type: "object",
			Properties: map[string]*engine.JSONSchema{
				"timezone": {Type: "string", Description: "IANA timezone (e.g. Asia/Kolkata). Default UTC."},
			},
		},
	}
}

func (e *CurrentDatetimeExecutor) Execute(_ context.Context, _ *convo.SessionState, input map[string]any) string {
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}

	loc := time.UTC
	if tz := stringArg(input, "timezone"); tz != "" {
		if parsed, err := time.LoadLocation(tz); err == nil {
			loc = parsed
		}
	}

	t := now().In(loc)
	return fmt.Sprintf(
		"Current date: %s (%s). Current time: %s.",
		t.Format("2006-01-02"),
		t.Weekday(),
		t.Format("15:04 MST"),
	)
}
