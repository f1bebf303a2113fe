package server

import (
	"encoding/json"
	"fmt"
)

// Client frame types.
const (
	ClientTypeUtterance = "utterance"
	ClientTypeBye       = "bye"
)

// Server frame types.
const (
	ServerTypeStarted = "session.started"
	ServerTypeReply   = "reply"
	ServerTypeClosed  = "session.closed"
	ServerTypeError   = "error"
)

// ClientFrame is one JSON message from the visitor's client.
type ClientFrame struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ServerFrame is one JSON message to the visitor's client.
type ServerFrame struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	Text      string `json:"text,omitempty"`
	Code      string `json:"code,omitempty"`
	Message   string `json:"message,omitempty"`
}

func decodeClientFrame(data []byte) (ClientFrame, error) {
	var frame ClientFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return ClientFrame{}, fmt.Errorf("invalid frame: %w", err)
	}
	switch frame.Type {
	case ClientTypeUtterance, ClientTypeBye:
		return frame, nil
	default:
		return ClientFrame{}, fmt.Errorf("unknown frame type %q", frame.Type)
	}
}
