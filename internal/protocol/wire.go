// Package protocol defines the JSON payloads exchanged with the
// CommunicationMod HTTP bridge.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Bridge endpoint paths
const (
	PathHealth = "/health"
	PathState  = "/state"
	PathAction = "/action"
	PathReady  = "/ready"
)

// StatusReady is the status value a healthy bridge reports.
const StatusReady = "ready"

// ErrEmptyEnvelope is returned when a state envelope carries no document.
var ErrEmptyEnvelope = errors.New("protocol: state envelope has no document")

// Bridge -> Client payloads

// Health is the GET /health response body.
type Health struct {
	Status            string  `json:"status"`
	HasState          bool    `json:"has_state"`
	LastUpdate        float64 `json:"last_update"`
	ReadySent         bool    `json:"ready_sent"`
	ReadyAcknowledged bool    `json:"ready_acknowledged"`
}

// Ready reports whether the bridge considers itself ready to serve.
func (h *Health) Ready() bool {
	return h.Status == StatusReady
}

// StateEnvelope is the GET /state response body. The bridge stores the game
// snapshot as the raw line it read from CommunicationMod, so State arrives as
// a JSON-encoded string containing the document. Some bridge builds inline
// the object instead; Document handles both.
type StateEnvelope struct {
	State     json.RawMessage `json:"state"`
	Timestamp float64         `json:"timestamp"`
}

// Document returns the snapshot bytes with the string encoding layer
// removed, ready to be parsed as a JSON object.
func (e *StateEnvelope) Document() ([]byte, error) {
	raw := bytes.TrimSpace(e.State)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, ErrEmptyEnvelope
	}
	if raw[0] != '"' {
		return raw, nil
	}
	var doc string
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unwrap state string: %w", err)
	}
	if doc == "" {
		return nil, ErrEmptyEnvelope
	}
	return []byte(doc), nil
}

// Client -> Bridge payloads

// ActionRequest is the POST /action request body. Command holds a
// space-separated CommunicationMod command such as "play 1 0" or "end".
type ActionRequest struct {
	Command string `json:"command"`
}

// ActionResponse is the POST /action response body.
type ActionResponse struct {
	Status  string `json:"status,omitempty"`
	Command string `json:"command,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ReadyResponse is the GET /ready response body.
type ReadyResponse struct {
	Ready bool `json:"ready"`
}
