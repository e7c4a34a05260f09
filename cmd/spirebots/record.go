package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/spirebridge/spirebots/cmd/spirebots/shared"
	"github.com/spirebridge/spirebots/internal/config"
	"github.com/spirebridge/spirebots/internal/fileutil"
	"github.com/spirebridge/spirebots/internal/replay"
	"github.com/spirebridge/spirebots/sdk"
)

type RecordCmd struct {
	Output   string        `arg:"" optional:"" default:"states.jsonl" help:"Fixture file to append snapshots to"`
	Config   string        `default:"spirebots.hcl" help:"Path to HCL configuration file"`
	Host     string        `help:"Bridge host (overrides config)"`
	Port     int           `help:"Bridge port (overrides config)"`
	Interval time.Duration `default:"250ms" help:"How often to poll for new states"`
	Latest   string        `help:"Also mirror the newest snapshot into this file on every update"`
	LogLevel string        `default:"info" help:"Log level (debug|info|warn|error)"`
	LogJSON  bool          `help:"Output JSON logs instead of console format"`
}

func (c *RecordCmd) Run() error {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if c.Host != "" {
		cfg.Bridge.Host = c.Host
	}
	if c.Port != 0 {
		cfg.Bridge.Port = c.Port
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	var logger zerolog.Logger
	if c.LogJSON {
		logger = shared.SetupStructuredLogger(c.LogLevel)
	} else {
		logger = shared.SetupLogger(c.LogLevel)
	}

	writer, err := replay.NewWriter(c.Output)
	if err != nil {
		return fmt.Errorf("open fixture file: %w", err)
	}
	defer writer.Close()

	client, err := sdk.New(cfg.ClientConfig(), sdk.WithLogger(logger))
	if err != nil {
		return err
	}
	if !client.Connect() {
		return fmt.Errorf("connect to bridge: %w", client.LastError())
	}

	logger.Info().
		Str("output", c.Output).
		Dur("interval", c.Interval).
		Msg("Recording game states")

	ctx := shared.SetupSignalHandler(logger)

	ticker := time.NewTicker(c.Interval)
	defer ticker.Stop()

	// GetState returns the same pointer while the bridge reports the same
	// snapshot, so pointer identity is the dedup check
	var last *sdk.State
	for {
		select {
		case <-ctx.Done():
			logger.Info().Int("snapshots", writer.Count()).Msg("Recording stopped")
			return nil
		case <-ticker.C:
		}

		state := client.GetState()
		if client.Status() == sdk.Disconnected {
			return fmt.Errorf("bridge disconnected: %w", client.LastError())
		}
		if state == nil || state == last {
			continue
		}
		last = state

		if err := writer.Append(state.Timestamp(), state.ScreenType(), state.Raw()); err != nil {
			return fmt.Errorf("write fixture: %w", err)
		}
		if c.Latest != "" {
			// Atomic so concurrent readers never see a torn document
			if err := fileutil.WriteFileAtomic(c.Latest, state.Raw(), 0o644); err != nil {
				return fmt.Errorf("write latest snapshot: %w", err)
			}
		}
		logger.Debug().
			Float64("timestamp", state.Timestamp()).
			Str("screen", state.ScreenType()).
			Int("snapshots", writer.Count()).
			Msg("Recorded state")
	}
}
