package protocol

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestHealthReady(t *testing.T) {
	body := []byte(`{"status":"ready","has_state":true,"last_update":1700000000.5,"ready_sent":true,"ready_acknowledged":false}`)

	var h Health
	if err := json.Unmarshal(body, &h); err != nil {
		t.Fatalf("Failed to unmarshal health: %v", err)
	}

	if !h.Ready() {
		t.Errorf("Ready() = false, want true for status %q", h.Status)
	}
	if !h.HasState {
		t.Errorf("HasState = false, want true")
	}
	if h.LastUpdate != 1700000000.5 {
		t.Errorf("LastUpdate = %v, want 1700000000.5", h.LastUpdate)
	}
}

func TestHealthNotReady(t *testing.T) {
	// last_update is null until the first state arrives
	body := []byte(`{"status":"starting","has_state":false,"last_update":null}`)

	var h Health
	if err := json.Unmarshal(body, &h); err != nil {
		t.Fatalf("Failed to unmarshal health: %v", err)
	}

	if h.Ready() {
		t.Errorf("Ready() = true, want false for status %q", h.Status)
	}
	if h.LastUpdate != 0 {
		t.Errorf("LastUpdate = %v, want 0 for null", h.LastUpdate)
	}
}

func TestStateEnvelopeDocumentString(t *testing.T) {
	// The bridge nests the snapshot as a JSON-encoded string
	body := []byte(`{"state":"{\"in_game\":true,\"game_state\":{\"floor\":3}}","timestamp":1700000001.25}`)

	var env StateEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("Failed to unmarshal envelope: %v", err)
	}
	if env.Timestamp != 1700000001.25 {
		t.Errorf("Timestamp = %v, want 1700000001.25", env.Timestamp)
	}

	doc, err := env.Document()
	if err != nil {
		t.Fatalf("Document returned error: %v", err)
	}

	var parsed map[string]any
	if err := json.Unmarshal(doc, &parsed); err != nil {
		t.Fatalf("Document bytes not valid JSON: %v", err)
	}
	if parsed["in_game"] != true {
		t.Errorf("in_game = %v, want true", parsed["in_game"])
	}
}

func TestStateEnvelopeDocumentInline(t *testing.T) {
	body := []byte(`{"state":{"in_game":false},"timestamp":42}`)

	var env StateEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("Failed to unmarshal envelope: %v", err)
	}

	doc, err := env.Document()
	if err != nil {
		t.Fatalf("Document returned error: %v", err)
	}

	var parsed map[string]any
	if err := json.Unmarshal(doc, &parsed); err != nil {
		t.Fatalf("Document bytes not valid JSON: %v", err)
	}
	if parsed["in_game"] != false {
		t.Errorf("in_game = %v, want false", parsed["in_game"])
	}
}

func TestStateEnvelopeDocumentEmpty(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing", `{"timestamp":1}`},
		{"null", `{"state":null,"timestamp":1}`},
		{"empty string", `{"state":"","timestamp":1}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var env StateEnvelope
			if err := json.Unmarshal([]byte(tc.body), &env); err != nil {
				t.Fatalf("Failed to unmarshal envelope: %v", err)
			}
			_, err := env.Document()
			if !errors.Is(err, ErrEmptyEnvelope) {
				t.Errorf("Document error = %v, want ErrEmptyEnvelope", err)
			}
		})
	}
}

func TestStateEnvelopeDocumentBadString(t *testing.T) {
	env := StateEnvelope{State: json.RawMessage(`"unterminated`), Timestamp: 1}
	if _, err := env.Document(); err == nil {
		t.Errorf("Document returned nil error for malformed string encoding")
	}
}

func TestActionRequestRoundTrip(t *testing.T) {
	data, err := json.Marshal(ActionRequest{Command: "play 1 0"})
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}
	if string(data) != `{"command":"play 1 0"}` {
		t.Errorf("Marshal = %s, want {\"command\":\"play 1 0\"}", data)
	}

	var resp ActionResponse
	if err := json.Unmarshal([]byte(`{"status":"sent","command":"play 1 0"}`), &resp); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if resp.Status != "sent" || resp.Command != "play 1 0" {
		t.Errorf("Response = %+v, want status=sent command=play 1 0", resp)
	}
}
