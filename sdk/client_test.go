package sdk

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spirebridge/spirebots/internal/protocol"
)

const (
	testDocFloor3 = `{"in_game": true, "ready_for_command": true, "game_state": {"screen_type": "MAP", "floor": 3}}`
	testDocFloor4 = `{"in_game": true, "ready_for_command": true, "game_state": {"screen_type": "EVENT", "floor": 4}}`
)

func TestNewDefaults(t *testing.T) {
	client, err := New(Config{})
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig(), client.cfg)
	assert.Equal(t, "http://127.0.0.1:8080", client.baseURL.String())
	assert.Equal(t, Disconnected, client.Status())
	assert.Nil(t, client.CachedState())

	client, err = New(Config{Port: 9191, MaxConsecutiveFailures: 3})
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9191", client.baseURL.String())
	assert.Equal(t, 3, client.cfg.MaxConsecutiveFailures)
	assert.Equal(t, DefaultConfig().Timeout, client.cfg.Timeout)
}

func TestConnect(t *testing.T) {
	t.Run("bridge ready", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, protocol.PathHealth, r.URL.Path)
			writeHealthResponse(t, w, protocol.StatusReady)
		}))
		t.Cleanup(server.Close)
		client := newTestClient(t, server)

		assert.True(t, client.Connect())
		assert.Equal(t, Connected, client.Status())
		assert.Equal(t, 0, client.ConsecutiveFailures())
	})

	t.Run("bridge not ready", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeHealthResponse(t, w, "starting")
		}))
		t.Cleanup(server.Close)
		client := newTestClient(t, server)

		assert.False(t, client.Connect())
		assert.Equal(t, Disconnected, client.Status())
		assert.Equal(t, 1, client.ConsecutiveFailures())
		assert.ErrorContains(t, client.LastError(), "not ready")
	})

	t.Run("http error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		t.Cleanup(server.Close)
		client := newTestClient(t, server)

		assert.False(t, client.Connect())
		assert.Equal(t, Disconnected, client.Status())
		assert.Equal(t, 1, client.ConsecutiveFailures())
	})

	t.Run("bridge unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		client := newTestClient(t, server)
		server.Close()

		assert.False(t, client.Connect())
		assert.Equal(t, Disconnected, client.Status())
		assert.Equal(t, 1, client.ConsecutiveFailures())
		assert.Error(t, client.LastError())
	})
}

func TestConnectKeepsReadyStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(protocol.PathHealth, func(w http.ResponseWriter, r *http.Request) {
		writeHealthResponse(t, w, protocol.StatusReady)
	})
	mux.HandleFunc(protocol.PathState, func(w http.ResponseWriter, r *http.Request) {
		writeStateResponse(t, w, testDocFloor3, 1)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	client := newTestClient(t, server)

	require.True(t, client.Connect())
	require.NotNil(t, client.GetState())
	require.Equal(t, Ready, client.Status())

	// A re-probe must not downgrade an established session
	assert.True(t, client.Connect())
	assert.Equal(t, Ready, client.Status())
}

func TestGetStateNoContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(server.Close)
	client := newTestClient(t, server)

	assert.Nil(t, client.GetState())
	assert.Nil(t, client.CachedState())
	assert.Equal(t, 0, client.ConsecutiveFailures(), "204 is not a failure")
}

func TestGetStateNoContentKeepsCache(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			writeStateResponse(t, w, testDocFloor3, 1)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(server.Close)
	client := newTestClient(t, server)

	first := client.GetState()
	require.NotNil(t, first)

	assert.Nil(t, client.GetState())
	assert.Same(t, first, client.CachedState())
}

func TestGetStateParsesSnapshot(t *testing.T) {
	t.Run("string-wrapped document", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeStateResponse(t, w, testDocFloor3, 100.5)
		}))
		t.Cleanup(server.Close)
		client := newTestClient(t, server)

		state := client.GetState()
		require.NotNil(t, state)
		assert.Equal(t, 100.5, state.Timestamp())
		assert.True(t, state.InGame())
		assert.Equal(t, ScreenMap, state.ScreenType())

		floor, ok := state.Floor()
		require.True(t, ok)
		assert.Equal(t, 3, floor)
	})

	t.Run("inline document", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			err := json.NewEncoder(w).Encode(map[string]any{
				"state":     json.RawMessage(testDocFloor3),
				"timestamp": 7.0,
			})
			require.NoError(t, err)
		}))
		t.Cleanup(server.Close)
		client := newTestClient(t, server)

		state := client.GetState()
		require.NotNil(t, state)
		assert.Equal(t, 7.0, state.Timestamp())
		assert.True(t, state.InGame())
	})
}

func TestGetStateDeduplication(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			writeStateResponse(t, w, testDocFloor3, 1)
			return
		}
		writeStateResponse(t, w, testDocFloor4, 2)
	}))
	t.Cleanup(server.Close)
	client := newTestClient(t, server)

	first := client.GetState()
	require.NotNil(t, first)

	// Unchanged snapshot: the cached state is handed back, not reparsed
	second := client.GetState()
	require.Same(t, first, second)

	// Fresh snapshot: the cache is replaced wholesale
	third := client.GetState()
	require.NotNil(t, third)
	require.NotSame(t, first, third)
	assert.Equal(t, 2.0, third.Timestamp())

	floor, ok := third.Floor()
	require.True(t, ok)
	assert.Equal(t, 4, floor)
	assert.Same(t, third, client.CachedState())
}

func TestGetStateFailureCounting(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeStateResponse(t, w, testDocFloor3, 1)
	}))
	t.Cleanup(server.Close)
	client := newTestClient(t, server)

	assert.Nil(t, client.GetState())
	assert.Equal(t, 1, client.ConsecutiveFailures())
	assert.Nil(t, client.GetState())
	assert.Equal(t, 2, client.ConsecutiveFailures())

	// Success resets the counter but keeps the last error for inspection
	require.NotNil(t, client.GetState())
	assert.Equal(t, 0, client.ConsecutiveFailures())
	assert.Error(t, client.LastError())
}

func TestGetStateDecodeFailureCounted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("not json"))
	}))
	t.Cleanup(server.Close)
	client := newTestClient(t, server)

	assert.Nil(t, client.GetState())
	assert.Equal(t, 1, client.ConsecutiveFailures())
}

func TestFailureThresholdDisconnects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(protocol.PathHealth, func(w http.ResponseWriter, r *http.Request) {
		writeHealthResponse(t, w, protocol.StatusReady)
	})
	mux.HandleFunc(protocol.PathState, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	client := newTestClientConfig(t, server, Config{MaxConsecutiveFailures: 3})

	require.True(t, client.Connect())
	require.Equal(t, Connected, client.Status())

	client.GetState()
	client.GetState()
	assert.Equal(t, 2, client.ConsecutiveFailures())
	assert.Equal(t, Connected, client.Status(), "below threshold the status holds")

	client.GetState()
	assert.Equal(t, 3, client.ConsecutiveFailures())
	assert.Equal(t, Disconnected, client.Status(), "threshold reached")
}

func TestWaitForReady(t *testing.T) {
	t.Run("state arrives", func(t *testing.T) {
		var calls atomic.Int32
		mux := http.NewServeMux()
		mux.HandleFunc(protocol.PathHealth, func(w http.ResponseWriter, r *http.Request) {
			writeHealthResponse(t, w, protocol.StatusReady)
		})
		mux.HandleFunc(protocol.PathState, func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) <= 2 {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			writeStateResponse(t, w, testDocFloor3, 1)
		})
		server := httptest.NewServer(mux)
		t.Cleanup(server.Close)
		client := newTestClient(t, server)

		require.True(t, client.Connect())
		assert.True(t, client.WaitForReady(2*time.Second))
		assert.Equal(t, Ready, client.Status())
		assert.NotNil(t, client.CachedState())
		assert.Equal(t, 0, client.ConsecutiveFailures())
	})

	t.Run("timeout", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc(protocol.PathHealth, func(w http.ResponseWriter, r *http.Request) {
			writeHealthResponse(t, w, protocol.StatusReady)
		})
		mux.HandleFunc(protocol.PathState, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
		server := httptest.NewServer(mux)
		t.Cleanup(server.Close)
		client := newTestClient(t, server)

		require.True(t, client.Connect())
		assert.False(t, client.WaitForReady(50*time.Millisecond))
		assert.Equal(t, WaitingForState, client.Status())
		assert.ErrorIs(t, client.LastError(), ErrWaitTimeout)
		assert.Equal(t, 0, client.ConsecutiveFailures(), "timing out is not a bridge failure")
	})
}

func TestSendAction(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		var gotCommand atomic.Value
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, protocol.PathAction, r.URL.Path)

			var req protocol.ActionRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			gotCommand.Store(req.Command)

			w.Header().Set("Content-Type", "application/json")
			err := json.NewEncoder(w).Encode(protocol.ActionResponse{Status: "sent", Command: req.Command})
			require.NoError(t, err)
		}))
		t.Cleanup(server.Close)
		client := newTestClient(t, server)

		// A success wipes out earlier transient failures
		client.recordFailure(errors.New("transient"))
		require.Equal(t, 1, client.ConsecutiveFailures())

		require.NoError(t, client.SendAction(PlayCardTarget(1, 0)))
		assert.Equal(t, "play 1 0", gotCommand.Load())
		assert.Equal(t, 0, client.ConsecutiveFailures())
	})

	t.Run("rejected with error body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			err := json.NewEncoder(w).Encode(protocol.ActionResponse{Error: "Missing command field"})
			require.NoError(t, err)
		}))
		t.Cleanup(server.Close)
		client := newTestClient(t, server)

		err := client.SendAction(EndTurn())
		require.Error(t, err)
		assert.ErrorContains(t, err, "Missing command field")
		assert.Equal(t, 1, client.ConsecutiveFailures())
	})

	t.Run("bridge error without body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		t.Cleanup(server.Close)
		client := newTestClient(t, server)

		err := client.SendAction(EndTurn())
		require.Error(t, err)
		assert.ErrorContains(t, err, "status 500")
		assert.Equal(t, 1, client.ConsecutiveFailures())
	})

	t.Run("encode error is not a bridge failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("nothing should reach the bridge")
		}))
		t.Cleanup(server.Close)
		client := newTestClient(t, server)

		err := client.SendAction(Command(""))
		require.ErrorIs(t, err, ErrInvalidAction)
		assert.Equal(t, 0, client.ConsecutiveFailures())
		assert.ErrorIs(t, client.LastError(), ErrInvalidAction)
	})

	t.Run("bridge unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		client := newTestClient(t, server)
		server.Close()

		err := client.SendAction(EndTurn())
		require.Error(t, err)
		assert.Equal(t, 1, client.ConsecutiveFailures())
	})
}

func TestHasNewState(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 3 {
			writeStateResponse(t, w, testDocFloor3, 1)
			return
		}
		writeStateResponse(t, w, testDocFloor4, 2)
	}))
	t.Cleanup(server.Close)
	client := newTestClient(t, server)

	assert.True(t, client.HasNewState(), "anything is new before the first poll")

	first := client.GetState()
	require.NotNil(t, first)

	assert.False(t, client.HasNewState(), "same snapshot marker")
	assert.True(t, client.HasNewState(), "fresh snapshot marker")
	assert.Same(t, first, client.CachedState(), "probing must not touch the cache")
}

func TestHasNewStateFailuresNotCounted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := newTestClient(t, server)
	server.Close()

	assert.False(t, client.HasNewState())
	assert.Equal(t, 0, client.ConsecutiveFailures())
}

func newTestClient(t *testing.T, server *httptest.Server, opts ...Option) *Client {
	return newTestClientConfig(t, server, Config{}, opts...)
}

func newTestClientConfig(t *testing.T, server *httptest.Server, cfg Config, opts ...Option) *Client {
	t.Helper()

	u, err := url.Parse(server.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	cfg.Host = u.Hostname()
	cfg.Port = port
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Second
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 5 * time.Millisecond
	}

	client, err := New(cfg, opts...)
	require.NoError(t, err)
	return client
}

func writeHealthResponse(t *testing.T, w http.ResponseWriter, status string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(protocol.Health{
		Status:     status,
		HasState:   true,
		LastUpdate: 1,
	})
	require.NoError(t, err)
}

// writeStateResponse writes a state envelope the way the bridge does: the
// document is delivered as a JSON-encoded string.
func writeStateResponse(t *testing.T, w http.ResponseWriter, doc string, timestamp float64) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(map[string]any{
		"state":     doc,
		"timestamp": timestamp,
	})
	require.NoError(t, err)
}
