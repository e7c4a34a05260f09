package main

import (
	"fmt"

	"github.com/spirebridge/spirebots/cmd/spirebots/shared"
	"github.com/spirebridge/spirebots/internal/config"
	"github.com/spirebridge/spirebots/internal/tui"
	"github.com/spirebridge/spirebots/sdk"
)

type WatchCmd struct {
	Config  string `default:"spirebots.hcl" help:"Path to HCL configuration file"`
	Host    string `help:"Bridge host (overrides config)"`
	Port    int    `help:"Bridge port (overrides config)"`
	LogFile string `help:"Write dashboard logs to a file (stderr is unusable in the alt screen)"`
}

func (c *WatchCmd) Run() error {
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

	logger, closeLogs, err := shared.SetupTUILogger(c.LogFile, cfg.GetLogLevel())
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer closeLogs()

	client, err := sdk.New(cfg.ClientConfig())
	if err != nil {
		return err
	}
	if !client.Connect() {
		return fmt.Errorf("connect to bridge: %w", client.LastError())
	}

	return tui.Run(client, logger, cfg.RefreshInterval())
}
