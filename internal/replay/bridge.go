package replay

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"github.com/spirebridge/spirebots/internal/protocol"
)

// Bridge serves recorded fixtures over the bridge HTTP surface. It starts
// with no state, exactly like a bridge whose game has not produced a
// snapshot yet; each Advance exposes the next fixture. Accepted action
// commands are recorded for inspection rather than forwarded anywhere.
type Bridge struct {
	logger zerolog.Logger
	mux    *http.ServeMux

	mu        sync.Mutex
	fixtures  []Fixture
	index     int
	commands  []string
	readySent bool
}

// NewBridge creates a replay bridge over the given fixtures
func NewBridge(fixtures []Fixture, logger zerolog.Logger) *Bridge {
	b := &Bridge{
		logger:   logger,
		fixtures: fixtures,
		index:    -1,
	}
	mux := http.NewServeMux()
	mux.HandleFunc(protocol.PathHealth, b.handleHealth)
	mux.HandleFunc(protocol.PathState, b.handleState)
	mux.HandleFunc(protocol.PathAction, b.handleAction)
	mux.HandleFunc(protocol.PathReady, b.handleReady)
	b.mux = mux
	return b
}

// ServeHTTP implements http.Handler
func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mux.ServeHTTP(w, r)
}

// Advance exposes the next fixture through GET /state. It returns the
// fixture now being served and false once the recording is exhausted.
func (b *Bridge) Advance() (Fixture, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.index+1 >= len(b.fixtures) {
		return Fixture{}, false
	}
	b.index++
	fx := b.fixtures[b.index]
	b.logger.Debug().
		Int("sequence", fx.Sequence).
		Str("screen", fx.ScreenType).
		Msg("serving fixture")
	return fx, true
}

// Remaining returns how many fixtures have not been served yet
func (b *Bridge) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.fixtures) - (b.index + 1)
}

// Commands returns the action commands accepted so far
func (b *Bridge) Commands() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.commands))
	copy(out, b.commands)
	return out
}

func (b *Bridge) handleHealth(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	health := protocol.Health{
		Status:            protocol.StatusReady,
		HasState:          b.index >= 0,
		ReadySent:         true,
		ReadyAcknowledged: b.readySent,
	}
	if b.index >= 0 {
		health.LastUpdate = b.fixtures[b.index].Timestamp
	}
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, health)
}

func (b *Bridge) handleState(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	index := b.index
	var fx Fixture
	if index >= 0 {
		fx = b.fixtures[index]
	}
	b.mu.Unlock()

	if index < 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	// The live bridge stores the snapshot as the raw line it read from
	// CommunicationMod, so the document goes out string-encoded
	writeJSON(w, http.StatusOK, map[string]any{
		"state":     string(fx.State),
		"timestamp": fx.Timestamp,
	})
}

func (b *Bridge) handleAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req protocol.ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, protocol.ActionResponse{Error: "Invalid JSON"})
		return
	}
	if req.Command == "" {
		writeJSON(w, http.StatusBadRequest, protocol.ActionResponse{Error: "Missing command field"})
		return
	}

	b.mu.Lock()
	b.commands = append(b.commands, req.Command)
	b.mu.Unlock()

	b.logger.Debug().Str("command", req.Command).Msg("action accepted")
	writeJSON(w, http.StatusOK, protocol.ActionResponse{Status: "sent", Command: req.Command})
}

func (b *Bridge) handleReady(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.readySent = true
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, protocol.ReadyResponse{Ready: true})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
