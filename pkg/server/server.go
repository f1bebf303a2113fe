// Package server exposes the assistant over a websocket endpoint: utterances
// in, replies out, one session per connection.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/voicefolio/melvin/pkg/capture"
	"github.com/voicefolio/melvin/pkg/config"
	"github.com/voicefolio/melvin/pkg/engine"
	"github.com/voicefolio/melvin/pkg/session"
	"github.com/voicefolio/melvin/pkg/tools"
)

// Handler serves /v1/session websocket connections.
type Handler struct {
	Config   config.Config
	Engine   engine.Engine
	Tools    *tools.Registry
	Capturer *capture.Capturer
	Logger   *slog.Logger
}

// NewMux wires the handler and a health endpoint into a mux.
func NewMux(h *Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/v1/session", h)
	return mux
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *Handler) authorized(r *http.Request) bool {
	if h.Config.AuthMode != config.AuthModeRequired {
		return true
	}
	token := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
	if token == "" {
		// Browsers cannot set websocket headers, so a query key is accepted.
		token = strings.TrimSpace(r.URL.Query().Get("api_key"))
	}
	_, ok := h.Config.APIKeys[token]
	return ok
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !h.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	if h.Config.MaxUtteranceBytes > 0 {
		conn.SetReadLimit(h.Config.MaxUtteranceBytes)
	}

	sessionID := strings.ReplaceAll(uuid.New().String(), "-", "")
	visitorIdentity := strings.TrimSpace(r.URL.Query().Get("visitor_id"))
	room := strings.TrimSpace(r.URL.Query().Get("room"))
	if room == "" {
		room = "web"
	}
	logger := h.logger().With("session_id", sessionID, "room", room)

	var profile *session.VisitorProfile
	if h.Capturer != nil && visitorIdentity != "" {
		hydrateCtx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		profile = h.Capturer.HydrateProfile(hydrateCtx, visitorIdentity)
		cancel()
	}

	writer := &frameWriter{conn: conn, timeout: h.Config.WSWriteTimeout}

	sess := session.New(session.Options{
		ID:            sessionID,
		Room:          room,
		Engine:        h.Engine,
		Tools:         h.Tools,
		Logger:        logger,
		MaxToolRounds: h.Config.MaxToolRounds,
		CloseDelay:    h.Config.CloseGracePeriod,
		Profile:       profile,
		OnClosed: func(report session.Report) {
			if h.Capturer != nil {
				// Teardown outlives the request context.
				captureCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				h.Capturer.Capture(captureCtx, report, visitorIdentity)
			}
			_ = writer.write(ServerFrame{Type: ServerTypeClosed, SessionID: sessionID})
			conn.Close()
		},
	})
	defer sess.Close()

	greeting, err := sess.Start()
	if err != nil {
		logger.Error("session start failed", "error", err)
		return
	}
	if err := writer.write(ServerFrame{Type: ServerTypeStarted, SessionID: sessionID, Text: greeting}); err != nil {
		return
	}

	pingStop := make(chan struct{})
	defer close(pingStop)
	go h.pingLoop(writer, pingStop)

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			logger.Info("connection closed", "error", err)
			return
		}
		if messageType != websocket.TextMessage {
			_ = writer.write(ServerFrame{Type: ServerTypeError, Code: "bad_frame", Message: "frames must be JSON text"})
			continue
		}

		frame, err := decodeClientFrame(data)
		if err != nil {
			_ = writer.write(ServerFrame{Type: ServerTypeError, Code: "bad_frame", Message: err.Error()})
			continue
		}

		switch frame.Type {
		case ClientTypeBye:
			return
		case ClientTypeUtterance:
			turnCtx, cancel := context.WithTimeout(r.Context(), h.engineTimeout())
			reply, err := sess.HandleUtterance(turnCtx, frame.Text)
			cancel()
			if err != nil {
				_ = writer.write(ServerFrame{Type: ServerTypeError, Code: "session_closed", Message: err.Error()})
				return
			}
			if err := writer.write(ServerFrame{Type: ServerTypeReply, SessionID: sessionID, Text: reply}); err != nil {
				return
			}
		}
	}
}

func (h *Handler) engineTimeout() time.Duration {
	if h.Config.EngineTimeout > 0 {
		return h.Config.EngineTimeout
	}
	return 60 * time.Second
}

func (h *Handler) pingLoop(writer *frameWriter, stop <-chan struct{}) {
	interval := h.Config.WSPingInterval
	if interval <= 0 {
		interval = 20 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := writer.ping(); err != nil {
				return
			}
		}
	}
}

// frameWriter serializes writes: the read loop, the ping loop and the
// teardown callback all write to the same connection.
type frameWriter struct {
	mu      sync.Mutex
	conn    *websocket.Conn
	timeout time.Duration
}

func (w *frameWriter) write(frame ServerFrame) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timeout > 0 {
		_ = w.conn.SetWriteDeadline(time.Now().Add(w.timeout))
	}
	return w.conn.WriteJSON(frame)
}

func (w *frameWriter) ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	deadline := time.Now().Add(10 * time.Second)
	if w.timeout > 0 {
		deadline = time.Now().Add(w.timeout)
	}
	return w.conn.WriteControl(websocket.PingMessage, nil, deadline)
}
