package main

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/spirebridge/spirebots/cmd/spirebots/shared"
	"github.com/spirebridge/spirebots/internal/config"
	"github.com/spirebridge/spirebots/sdk"
	"github.com/spirebridge/spirebots/sdk/runner"

	// Agents
	"github.com/spirebridge/spirebots/sdk/agents/random"
	"github.com/spirebridge/spirebots/sdk/agents/simple"
)

type RunCmd struct {
	Agent    string `arg:"" optional:"" help:"Agent type (simple, random)"`
	Config   string `default:"spirebots.hcl" help:"Path to HCL configuration file"`
	Host     string `help:"Bridge host (overrides config)"`
	Port     int    `help:"Bridge port (overrides config)"`
	Seed     uint64 `help:"Seed for the random agent's decisions"`
	Start    bool   `help:"Start a new run from the main menu"`
	Class    string `help:"Character class for started runs (overrides config)"`
	LogLevel string `default:"info" help:"Log level (debug|info|warn|error)"`
	LogJSON  bool   `help:"Output JSON logs instead of console format"`
}

// agentBuilders maps agent names to their constructors
var agentBuilders = map[string]func(seed uint64) sdk.Agent{
	"simple": func(uint64) sdk.Agent { return simple.New() },
	"random": func(seed uint64) sdk.Agent {
		if seed != 0 {
			return random.NewSeeded(seed)
		}
		return random.New()
	},
}

func (c *RunCmd) Run() error {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Flags win over the config file
	if c.Agent != "" {
		cfg.Runner.Agent = c.Agent
	}
	if c.Host != "" {
		cfg.Bridge.Host = c.Host
	}
	if c.Port != 0 {
		cfg.Bridge.Port = c.Port
	}
	if c.Seed != 0 {
		cfg.Runner.Seed = int(c.Seed)
	}
	if c.Class != "" {
		cfg.Runner.Class = c.Class
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	builder, ok := agentBuilders[cfg.Runner.Agent]
	if !ok {
		return fmt.Errorf("unknown agent: %s (available: simple, random)", cfg.Runner.Agent)
	}
	agent := builder(uint64(cfg.Runner.Seed))

	// Setup logger
	var logger zerolog.Logger
	if c.LogJSON {
		logger = shared.SetupStructuredLogger(c.LogLevel)
	} else {
		logger = shared.SetupLogger(c.LogLevel)
	}

	ctx := shared.SetupSignalHandler(logger)

	opts := []runner.RunOption{
		runner.WithLogger(logger),
		runner.WithWaitTimeout(cfg.WaitTimeout()),
	}
	if c.Start || cfg.Runner.AutoStart {
		opts = append(opts, runner.WithAutoStart(
			sdk.StartGame(cfg.Runner.Class, cfg.Runner.Ascension, cfg.Runner.StartSeed),
		))
	}

	logger.Info().
		Str("agent", cfg.Runner.Agent).
		Str("bridge", fmt.Sprintf("%s:%d", cfg.Bridge.Host, cfg.Bridge.Port)).
		Msg("Starting agent")

	return runner.Run(ctx, agent, cfg.ClientConfig(), opts...)
}
