// Package session drives one conversation: a scripted greeting, a routed
// reasoning turn per utterance, and a scripted close with delayed teardown.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/voicefolio/melvin/pkg/convo"
	"github.com/voicefolio/melvin/pkg/engine"
	"github.com/voicefolio/melvin/pkg/tools"
)

// Status is the lifecycle state of one session.
type Status string

const (
	StatusNotStarted Status = "not-started"
	StatusActive     Status = "active"
	StatusClosing    Status = "closing"
	StatusClosed     Status = "closed"
)

// The greeting and closing lines are scripted and delivered verbatim; the
// engine never paraphrases them.
const (
	greetingLine = "Hey, I'm Melvin, Mihir's assistant. Happy to talk about his work, or help you set up a chat with him. What brings you by?"
	closingLine  = "Thanks for stopping by. I'll let Mihir know you came around. Take care!"
)

var (
	ErrAlreadyStarted = errors.New("session: already started")
	ErrNotStarted     = errors.New("session: not started")
	ErrClosed         = errors.New("session: closed")
)

// Options configures a session.
type Options struct {
	ID     string
	Room   string
	Engine engine.Engine
	Tools  *tools.Registry
	Logger *slog.Logger

	// MaxToolRounds bounds tool-call round trips within a single turn.
	MaxToolRounds int

	// CloseDelay is how long the final reply has to reach the visitor before
	// teardown runs.
	CloseDelay time.Duration

	// OnClosed receives the session report exactly once, after teardown.
	OnClosed func(Report)

	// Profile carries a returning visitor's stored profile, if any.
	Profile *VisitorProfile
}

// VisitorProfile is what the store knows about a returning visitor. It seeds
// the session state so the memory note can surface it with hedging.
type VisitorProfile struct {
	Name         string
	Email        string
	Company      string
	Domain       string
	LastIntent   string
	BookedBefore bool
}

// Session is one live conversation. All methods are safe for concurrent use;
// the teardown timer never races an in-flight turn because both take the same
// lock.
type Session struct {
	id     string
	room   string
	eng    engine.Engine
	tools  *tools.Registry
	logger *slog.Logger

	maxToolRounds int
	closeDelay    time.Duration
	onClosed      func(Report)

	mu         sync.Mutex
	status     Status
	state      *convo.SessionState
	history    []engine.Message
	turns      []Turn
	startedAt  time.Time
	closeTimer *time.Timer
}

// New creates a session in the not-started state.
func New(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxRounds := opts.MaxToolRounds
	if maxRounds <= 0 {
		maxRounds = 6
	}
	closeDelay := opts.CloseDelay
	if closeDelay <= 0 {
		closeDelay = time.Second
	}

	state := convo.NewSessionState()
	if p := opts.Profile; p != nil {
		state.ContactName = p.Name
		state.ContactEmail = p.Email
		state.Company = p.Company
		state.Domain = p.Domain
		state.BookedBefore = p.BookedBefore
		if p.LastIntent != "" {
			state.Intent = convo.IntentCategory(p.LastIntent)
		}
	}

	return &Session{
		id:            opts.ID,
		room:          opts.Room,
		eng:           opts.Engine,
		tools:         opts.Tools,
		logger:        logger.With("session_id", opts.ID),
		maxToolRounds: maxRounds,
		closeDelay:    closeDelay,
		onClosed:      opts.OnClosed,
		status:        StatusNotStarted,
		state:         state,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Status returns the current lifecycle state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Start activates the session and returns the scripted greeting.
func (s *Session) Start() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusNotStarted {
		return "", ErrAlreadyStarted
	}
	s.status = StatusActive
	s.startedAt = time.Now().UTC()
	s.state.Phase = convo.PhaseDiscoverIntent

	s.recordLocked(engine.RoleAssistant, greetingLine)
	s.history = append(s.history, engine.Message{Role: engine.RoleAssistant, Text: greetingLine})

	s.logger.Info("session started", "room", s.room)
	return greetingLine, nil
}

// HandleUtterance runs one conversation turn and returns the reply text.
func (s *Session) HandleUtterance(ctx context.Context, utterance string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.status {
	case StatusNotStarted:
		return "", ErrNotStarted
	case StatusClosed:
		return "", ErrClosed
	}

	convo.RouteTurn(s.state, utterance)
	s.recordLocked(engine.RoleUser, utterance)
	s.history = append(s.history, engine.Message{Role: engine.RoleUser, Text: utterance})

	reply, err := s.runTurnLocked(ctx)
	if err != nil {
		s.logger.Error("turn failed", "error", err, "phase", s.state.Phase)
		// The visitor still gets a reply; the engine failure stays internal.
		reply = "Sorry, I lost my train of thought there. Could you say that again?"
	}

	if s.state.Phase == convo.PhaseEnd {
		reply = strings.TrimSpace(reply)
		if reply == "" {
			reply = closingLine
		} else if !strings.Contains(reply, closingLine) {
			reply = reply + " " + closingLine
		}
		s.scheduleCloseLocked()
	}

	s.recordLocked(engine.RoleAssistant, reply)
	s.history = append(s.history, engine.Message{Role: engine.RoleAssistant, Text: reply})
	return reply, nil
}

// runTurnLocked drives the engine with the phase directive, resolving tool
// calls until the engine answers in text or the round limit is hit.
func (s *Session) runTurnLocked(ctx context.Context) (string, error) {
	if s.eng == nil {
		return "", errors.New("session: no engine configured")
	}

	directive, memoryNote := convo.RenderDirective(s.state)
	system := convo.BuildCoreInstructions() + "\n\n" + directive
	if memoryNote != "" {
		system += "\n\n" + memoryNote
	}

	messages := make([]engine.Message, len(s.history))
	copy(messages, s.history)

	var defs []engine.Tool
	if s.tools != nil {
		defs = s.tools.Definitions()
	}

	for round := 0; round < s.maxToolRounds; round++ {
		reply, err := s.eng.Respond(ctx, &engine.Request{
			System:   system,
			Messages: messages,
			Tools:    defs,
		})
		if err != nil {
			return "", fmt.Errorf("engine respond: %w", err)
		}
		if len(reply.ToolCalls) == 0 {
			return reply.Text, nil
		}

		messages = append(messages, engine.Message{
			Role:      engine.RoleAssistant,
			Text:      reply.Text,
			ToolCalls: reply.ToolCalls,
		})
		for _, call := range reply.ToolCalls {
			result := s.tools.Execute(ctx, s.state, call.Name, call.Args)
			s.logger.Info("tool executed", "tool", call.Name, "phase", s.state.Phase)
			s.recordToolLocked(call.Name, result)
			messages = append(messages, engine.Message{
				Role:       engine.RoleTool,
				Text:       result,
				ToolCallID: call.ID,
				ToolName:   call.Name,
			})
		}
		// A booking attempt may have forced a phase change mid-turn; refresh
		// the directive so the closing rounds speak from the right phase.
		directive, memoryNote = convo.RenderDirective(s.state)
		system = convo.BuildCoreInstructions() + "\n\n" + directive
		if memoryNote != "" {
			system += "\n\n" + memoryNote
		}
	}
	return "", fmt.Errorf("tool rounds exhausted after %d iterations", s.maxToolRounds)
}

// Close tears the session down immediately, cancelling any pending delayed
// teardown. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.status == StatusClosed {
		s.mu.Unlock()
		return
	}
	if s.closeTimer != nil {
		s.closeTimer.Stop()
		s.closeTimer = nil
	}
	s.closeLocked()
	report := s.reportLocked()
	onClosed := s.onClosed
	s.mu.Unlock()

	if onClosed != nil {
		onClosed(report)
	}
}

// scheduleCloseLocked arms the teardown timer. The timer callback takes the
// session lock, so it waits out any in-flight turn.
func (s *Session) scheduleCloseLocked() {
	if s.status != StatusActive {
		return
	}
	s.status = StatusClosing
	s.logger.Info("session closing", "delay", s.closeDelay)

	s.closeTimer = time.AfterFunc(s.closeDelay, func() {
		s.mu.Lock()
		if s.status != StatusClosing {
			s.mu.Unlock()
			return
		}
		s.closeLocked()
		report := s.reportLocked()
		onClosed := s.onClosed
		s.mu.Unlock()

		if onClosed != nil {
			onClosed(report)
		}
	})
}

func (s *Session) closeLocked() {
	s.status = StatusClosed
	s.logger.Info("session closed",
		"turns", len(s.turns),
		"phase", s.state.Phase,
		"booked", s.state.BookedBefore,
	)
}

func (s *Session) recordLocked(role, text string) {
	s.turns = append(s.turns, Turn{
		Role:  role,
		Text:  text,
		Phase: s.state.Phase.String(),
		At:    time.Now().UTC(),
	})
}

func (s *Session) recordToolLocked(name, result string) {
	s.turns = append(s.turns, Turn{
		Role:  engine.RoleTool,
		Tool:  name,
		Text:  result,
		Phase: s.state.Phase.String(),
		At:    time.Now().UTC(),
	})
}
