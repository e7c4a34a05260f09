// Package runner connects an Agent to the bridge and drives the
// poll/decide/act loop for it.
package runner

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"github.com/spirebridge/spirebots/sdk"
	"github.com/spirebridge/spirebots/sdk/config"
)

// DefaultWaitTimeout is how long Run waits for the first game state
const DefaultWaitTimeout = 30 * time.Second

// RunOption configures the runner
type RunOption func(*runConfig)

type runConfig struct {
	logger      zerolog.Logger
	clock       quartz.Clock
	httpClient  *http.Client
	waitTimeout time.Duration
	useEnvCfg   bool
	startAction *sdk.Action
}

// WithLogger sets a custom logger
func WithLogger(logger zerolog.Logger) RunOption {
	return func(cfg *runConfig) {
		cfg.logger = logger
	}
}

// WithClock sets the clock used for pacing, for tests
func WithClock(clock quartz.Clock) RunOption {
	return func(cfg *runConfig) {
		cfg.clock = clock
	}
}

// WithHTTPClient sets a custom HTTP client for the bridge session
func WithHTTPClient(hc *http.Client) RunOption {
	return func(cfg *runConfig) {
		cfg.httpClient = hc
	}
}

// WithWaitTimeout sets how long to wait for the first game state
func WithWaitTimeout(d time.Duration) RunOption {
	return func(cfg *runConfig) {
		cfg.waitTimeout = d
	}
}

// WithoutEnvConfig disables reading SPIREBOTS_* environment variables
func WithoutEnvConfig() RunOption {
	return func(cfg *runConfig) {
		cfg.useEnvCfg = false
	}
}

// WithAutoStart sends the given start action once when the game is sitting
// at the main menu, so the runner can launch a run instead of waiting for
// a human to start one.
func WithAutoStart(action sdk.Action) RunOption {
	return func(cfg *runConfig) {
		cfg.startAction = &action
	}
}

// Run connects an agent to the bridge and plays until the context is
// cancelled or the current run ends.
//
// Parameters:
//   - ctx: Context for cancellation
//   - agent: Decision-making implementation driving the session
//   - cfg: Bridge session settings (zero fields use defaults)
//   - opts: Optional configuration (logger, clock, wait timeout, etc.)
//
// Returns nil when a run that was in progress ends, the context error on
// cancellation, and an error if the bridge cannot be reached or trips the
// disconnect threshold.
func Run(ctx context.Context, agent sdk.Agent, cfg sdk.Config, opts ...RunOption) error {
	// Apply options
	rc := &runConfig{
		logger:      zerolog.New(os.Stderr).With().Timestamp().Logger(),
		clock:       quartz.NewReal(),
		waitTimeout: DefaultWaitTimeout,
		useEnvCfg:   true, // Default to reading env config
	}
	for _, opt := range opts {
		opt(rc)
	}

	// Parse environment config if enabled
	if rc.useEnvCfg {
		envCfg, _ := config.FromEnv()
		if envCfg != nil {
			cfg = applyEnv(cfg, envCfg)
		}
	}

	clientOpts := []sdk.Option{
		sdk.WithLogger(rc.logger),
		sdk.WithClock(rc.clock),
	}
	if rc.httpClient != nil {
		clientOpts = append(clientOpts, sdk.WithHTTPClient(rc.httpClient))
	}

	client, err := sdk.New(cfg, clientOpts...)
	if err != nil {
		return err
	}

	if !client.Connect() {
		return fmt.Errorf("connect to bridge: %w", client.LastError())
	}
	rc.logger.Info().Msg("connected to bridge")

	if !client.WaitForReady(rc.waitTimeout) {
		return fmt.Errorf("wait for game state: %w", client.LastError())
	}
	rc.logger.Info().Msg("game state available")

	return loop(ctx, client, agent, rc, pollInterval(cfg))
}

func loop(ctx context.Context, client *sdk.Client, agent sdk.Agent, rc *runConfig, interval time.Duration) error {
	sawGame := false
	startSent := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		state := client.GetState()
		if client.Status() == sdk.Disconnected {
			return fmt.Errorf("bridge disconnected: %w", client.LastError())
		}

		if state != nil {
			switch {
			case state.InGame():
				sawGame = true
				if state.ReadyForCommand() {
					if action, ok := agent.Act(state); ok {
						if err := client.SendAction(action); err != nil {
							rc.logger.Warn().Err(err).Msg("action rejected")
						}
					}
				}
			case sawGame:
				// A run was in progress and has ended
				rc.logger.Info().Str("screen", state.ScreenType()).Msg("run ended")
				return nil
			case rc.startAction != nil && !startSent && state.HasCommand("start"):
				startSent = true
				rc.logger.Info().Str("command", rc.startAction.String()).Msg("starting new run")
				if err := client.SendAction(*rc.startAction); err != nil {
					rc.logger.Warn().Err(err).Msg("start rejected")
				}
			}
		}

		tick := make(chan struct{})
		timer := rc.clock.AfterFunc(interval, func() {
			close(tick)
		})
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-tick:
		}
	}
}

func applyEnv(cfg sdk.Config, env *config.BotConfig) sdk.Config {
	if env.Host != "" {
		cfg.Host = env.Host
	}
	if env.Port != 0 {
		cfg.Port = env.Port
	}
	if env.Timeout != 0 {
		cfg.Timeout = env.Timeout
	}
	if env.PollInterval != 0 {
		cfg.PollInterval = env.PollInterval
	}
	if env.MaxFailures != 0 {
		cfg.MaxConsecutiveFailures = env.MaxFailures
	}
	if env.Debug {
		cfg.Debug = true
	}
	return cfg
}

func pollInterval(cfg sdk.Config) time.Duration {
	if cfg.PollInterval > 0 {
		return cfg.PollInterval
	}
	return sdk.DefaultConfig().PollInterval
}
