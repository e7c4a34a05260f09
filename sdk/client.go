// Package sdk is a client library for driving Slay the Spire through the
// CommunicationMod HTTP bridge. A Client polls the bridge for game state
// snapshots, deduplicates unchanged snapshots, tracks connection health
// across transient failures, and sends action commands.
package sdk

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"github.com/spirebridge/spirebots/internal/protocol"
)

// ErrWaitTimeout is recorded as the last error when WaitForReady gives up.
// It is not counted toward the disconnect threshold.
var ErrWaitTimeout = errors.New("timed out waiting for game state")

// Config holds the bridge session settings. The zero value of any field is
// replaced with its default by New.
type Config struct {
	// Host is the bridge host (default 127.0.0.1)
	Host string
	// Port is the bridge port (default 8080)
	Port int
	// Timeout bounds each HTTP request (default 5s)
	Timeout time.Duration
	// PollInterval is the pause between polls in WaitForReady and the
	// recommended caller poll cadence (default 50ms)
	PollInterval time.Duration
	// MaxConsecutiveFailures is the failure count that forces the client
	// back to Disconnected (default 10)
	MaxConsecutiveFailures int
	// Debug enables console debug logging when no logger is provided
	Debug bool
}

// DefaultConfig returns the standard local bridge settings
func DefaultConfig() Config {
	return Config{
		Host:                   "127.0.0.1",
		Port:                   8080,
		Timeout:                5 * time.Second,
		PollInterval:           50 * time.Millisecond,
		MaxConsecutiveFailures: 10,
	}
}

// Option configures a Client
type Option func(*Client)

// WithLogger sets a custom logger
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client, overriding Config.Timeout
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithClock sets the clock used for waiting, for tests
func WithClock(clock quartz.Clock) Option {
	return func(c *Client) {
		c.clock = clock
	}
}

// Client is a session handle to a CommunicationMod HTTP bridge. All methods
// are synchronous; the client runs no background goroutines and the caller
// owns the polling cadence. A single mutex guards the cached state, the
// failure counter, the last error and the connection status, so a Client is
// safe to share across goroutines.
type Client struct {
	cfg     Config
	baseURL *url.URL
	http    *http.Client
	logger  zerolog.Logger
	clock   quartz.Clock

	mu       sync.Mutex
	status   ConnectionStatus
	failures int
	lastErr  error
	state    *State
}

// New creates a client for the bridge described by cfg
func New(cfg Config, opts ...Option) (*Client, error) {
	def := DefaultConfig()
	if cfg.Host == "" {
		cfg.Host = def.Host
	}
	if cfg.Port == 0 {
		cfg.Port = def.Port
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.MaxConsecutiveFailures == 0 {
		cfg.MaxConsecutiveFailures = def.MaxConsecutiveFailures
	}

	base, err := url.Parse("http://" + net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)))
	if err != nil {
		return nil, fmt.Errorf("parse bridge address: %w", err)
	}

	c := &Client{
		cfg:     cfg,
		baseURL: base,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  zerolog.Nop(),
		clock:   quartz.NewReal(),
		status:  Disconnected,
	}
	if cfg.Debug {
		c.logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			Level(zerolog.DebugLevel).
			With().
			Timestamp().
			Logger()
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Connect probes the bridge's health endpoint. It returns true when the
// bridge answers and reports itself ready; the status moves from
// Disconnected to Connected on the first success and is never downgraded
// by a successful re-probe. On failure the status is forced to
// Disconnected and the failure is counted.
func (c *Client) Connect() bool {
	c.logger.Debug().Str("bridge", c.baseURL.Host).Msg("probing bridge health")

	var health protocol.Health
	if err := c.getJSON(protocol.PathHealth, &health); err != nil {
		c.recordFailure(fmt.Errorf("health check: %w", err))
		c.setStatus(Disconnected)
		return false
	}
	if !health.Ready() {
		c.recordFailure(fmt.Errorf("bridge not ready (status %q)", health.Status))
		c.setStatus(Disconnected)
		return false
	}

	c.mu.Lock()
	c.failures = 0
	if c.status == Disconnected {
		c.status = Connected
	}
	c.mu.Unlock()

	c.logger.Debug().Bool("has_state", health.HasState).Msg("bridge ready")
	return true
}

// GetState polls the bridge for the latest snapshot. It returns nil when no
// state is available yet (not a failure) or when the request fails (counted
// toward the disconnect threshold). When the bridge's snapshot marker equals
// the cached one, the cached *State is returned without reparsing; otherwise
// the cache is replaced wholesale. A successful poll that yields a snapshot
// moves a Connected or WaitingForState client to Ready.
func (c *Client) GetState() *State {
	env, ok, err := c.fetchState()
	if err != nil {
		c.recordFailure(err)
		return nil
	}
	if !ok {
		c.logger.Debug().Msg("no state available yet")
		return nil
	}

	c.mu.Lock()
	if c.state != nil && c.state.timestamp == env.Timestamp {
		cached := c.state
		c.failures = 0
		if c.status == Connected || c.status == WaitingForState {
			c.status = Ready
		}
		c.mu.Unlock()
		return cached
	}
	c.mu.Unlock()

	doc, err := env.Document()
	if err != nil {
		c.recordFailure(fmt.Errorf("state envelope: %w", err))
		return nil
	}
	next, err := NewState(doc, env.Timestamp)
	if err != nil {
		c.recordFailure(err)
		return nil
	}

	c.mu.Lock()
	c.state = next
	c.failures = 0
	if c.status == Connected || c.status == WaitingForState {
		c.status = Ready
	}
	c.mu.Unlock()

	c.logger.Debug().
		Float64("timestamp", env.Timestamp).
		Str("screen", next.ScreenType()).
		Msg("state updated")
	return next
}

// HasNewState reports whether the bridge holds a snapshot with a different
// marker than the cached one. It never touches the cache, and unlike
// GetState its failures are not counted toward the disconnect threshold:
// this is a cheap probe and GetState remains the authoritative poll path.
func (c *Client) HasNewState() bool {
	env, ok, err := c.fetchState()
	if err != nil || !ok {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == nil || c.state.timestamp != env.Timestamp
}

// WaitForReady polls for game state until the client reaches Ready or the
// timeout elapses. A client entering at Connected is marked WaitingForState
// for the duration of the wait. On timeout it returns false and records
// ErrWaitTimeout as the last error without counting a failure.
func (c *Client) WaitForReady(timeout time.Duration) bool {
	c.mu.Lock()
	if c.status == Connected {
		c.status = WaitingForState
	}
	c.mu.Unlock()

	deadline := make(chan struct{})
	timer := c.clock.AfterFunc(timeout, func() {
		close(deadline)
	})
	defer timer.Stop()

	for {
		if c.GetState() != nil && c.Status() == Ready {
			return true
		}

		tick := make(chan struct{})
		wait := c.clock.AfterFunc(c.cfg.PollInterval, func() {
			close(tick)
		})

		select {
		case <-deadline:
			wait.Stop()
			c.mu.Lock()
			c.lastErr = ErrWaitTimeout
			c.mu.Unlock()
			c.logger.Debug().Dur("timeout", timeout).Msg("gave up waiting for state")
			return false
		case <-tick:
		}
	}
}

// SendAction encodes and posts an action to the bridge. A 200 response means
// the bridge forwarded the command, not that the game applied it; observe
// effects through GetState. Failed sends are not retried. Encoding errors
// are returned without counting a failure, since nothing reached the wire.
func (c *Client) SendAction(action Action) error {
	command, err := action.Encode()
	if err != nil {
		c.mu.Lock()
		c.lastErr = err
		c.mu.Unlock()
		return err
	}

	body, err := json.Marshal(protocol.ActionRequest{Command: command})
	if err != nil {
		return fmt.Errorf("encode action request: %w", err)
	}

	u := c.baseURL.ResolveReference(&url.URL{Path: protocol.PathAction})
	resp, err := c.http.Post(u.String(), "application/json", bytes.NewReader(body))
	if err != nil {
		err = fmt.Errorf("send action: %w", err)
		c.recordFailure(err)
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		var ar protocol.ActionResponse
		_ = json.NewDecoder(resp.Body).Decode(&ar)
		err := fmt.Errorf("action %q rejected (status %d)", command, resp.StatusCode)
		if ar.Error != "" {
			err = fmt.Errorf("action %q rejected (status %d): %s", command, resp.StatusCode, ar.Error)
		}
		c.recordFailure(err)
		return err
	}

	c.recordSuccess()
	c.logger.Debug().Str("command", command).Msg("action sent")
	return nil
}

// Status returns the current connection status
func (c *Client) Status() ConnectionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// ConsecutiveFailures returns the current consecutive-failure count
func (c *Client) ConsecutiveFailures() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failures
}

// LastError returns the most recent error, which may be from an operation
// that has since been followed by successes
func (c *Client) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// CachedState returns the last snapshot without touching the bridge, or nil
func (c *Client) CachedState() *State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Convenience accessors over the cached state. All report not-available
// when no state has been received yet.

// InGame reports whether the cached state shows a run in progress
func (c *Client) InGame() bool {
	return c.CachedState().InGame()
}

// ReadyForCommand reports whether the cached state accepts commands
func (c *Client) ReadyForCommand() bool {
	return c.CachedState().ReadyForCommand()
}

// AvailableCommands returns the command words the cached state offers
func (c *Client) AvailableCommands() []string {
	return c.CachedState().AvailableCommands()
}

// ScreenType returns the cached state's screen type, or ""
func (c *Client) ScreenType() string {
	return c.CachedState().ScreenType()
}

// CurrentHP returns the player's current hit points from the cached state
func (c *Client) CurrentHP() (int, bool) {
	return c.CachedState().CurrentHP()
}

// MaxHP returns the player's maximum hit points from the cached state
func (c *Client) MaxHP() (int, bool) {
	return c.CachedState().MaxHP()
}

// Floor returns the current floor from the cached state
func (c *Client) Floor() (int, bool) {
	return c.CachedState().Floor()
}

// Act returns the current act from the cached state
func (c *Client) Act() (int, bool) {
	return c.CachedState().Act()
}

// Gold returns the player's gold from the cached state
func (c *Client) Gold() (int, bool) {
	return c.CachedState().Gold()
}

func (c *Client) setStatus(status ConnectionStatus) {
	c.mu.Lock()
	c.status = status
	c.mu.Unlock()
}

func (c *Client) recordFailure(err error) {
	c.mu.Lock()
	c.failures++
	c.lastErr = err
	failures := c.failures
	tripped := failures >= c.cfg.MaxConsecutiveFailures && c.status != Disconnected
	if failures >= c.cfg.MaxConsecutiveFailures {
		c.status = Disconnected
	}
	c.mu.Unlock()

	c.logger.Debug().Err(err).Int("consecutive_failures", failures).Msg("bridge request failed")
	if tripped {
		c.logger.Warn().Int("consecutive_failures", failures).Msg("failure threshold reached, marking disconnected")
	}
}

func (c *Client) recordSuccess() {
	c.mu.Lock()
	c.failures = 0
	c.mu.Unlock()
}

func (c *Client) getJSON(path string, dest any) error {
	u := c.baseURL.ResolveReference(&url.URL{Path: path})
	resp, err := c.http.Get(u.String())
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bridge %s returned status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// fetchState performs GET /state. ok is false on 204 No Content.
func (c *Client) fetchState() (protocol.StateEnvelope, bool, error) {
	u := c.baseURL.ResolveReference(&url.URL{Path: protocol.PathState})
	resp, err := c.http.Get(u.String())
	if err != nil {
		return protocol.StateEnvelope{}, false, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusNoContent:
		return protocol.StateEnvelope{}, false, nil
	case http.StatusOK:
	default:
		return protocol.StateEnvelope{}, false, fmt.Errorf("bridge %s returned status %d", protocol.PathState, resp.StatusCode)
	}

	var env protocol.StateEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return protocol.StateEnvelope{}, false, fmt.Errorf("decode response: %w", err)
	}
	return env, true, nil
}
