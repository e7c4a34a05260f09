// Package config loads the CLI configuration from an HCL file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/spirebridge/spirebots/sdk"
)

// Config represents the complete CLI configuration
type Config struct {
	Bridge BridgeSettings `hcl:"bridge,block"`
	Runner RunnerSettings `hcl:"runner,block"`
	UI     UISettings     `hcl:"ui,block"`
}

// BridgeSettings contains bridge connection settings
type BridgeSettings struct {
	Host             string `hcl:"host,optional"`
	Port             int    `hcl:"port,optional"`
	RequestTimeoutMS int    `hcl:"request_timeout_ms,optional"`
	PollIntervalMS   int    `hcl:"poll_interval_ms,optional"`
	MaxFailures      int    `hcl:"max_failures,optional"`
}

// RunnerSettings contains agent runner settings
type RunnerSettings struct {
	Agent       string `hcl:"agent,optional"`
	Seed        int    `hcl:"seed,optional"`
	WaitTimeout int    `hcl:"wait_timeout,optional"`
	Class       string `hcl:"class,optional"`
	Ascension   int    `hcl:"ascension,optional"`
	AutoStart   bool   `hcl:"auto_start,optional"`
	StartSeed   string `hcl:"start_seed,optional"`
}

// UISettings contains watch dashboard settings
type UISettings struct {
	LogLevel     string `hcl:"log_level,optional"`
	RefreshMS    int    `hcl:"refresh_ms,optional"`
	ShowRawState bool   `hcl:"show_raw_state,optional"`
	Theme        string `hcl:"theme,optional"`
}

// DefaultConfig returns default CLI configuration
func DefaultConfig() *Config {
	return &Config{
		Bridge: BridgeSettings{
			Host:             "127.0.0.1",
			Port:             8080,
			RequestTimeoutMS: 5000,
			PollIntervalMS:   50,
			MaxFailures:      10,
		},
		Runner: RunnerSettings{
			Agent:       "simple",
			WaitTimeout: 30,
			Class:       "ironclad",
		},
		UI: UISettings{
			LogLevel:  "warn",
			RefreshMS: 250,
			Theme:     "default",
		},
	}
}

// Load loads CLI configuration from an HCL file
func Load(filename string) (*Config, error) {
	// Check if file exists
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	// Apply defaults for missing values
	defaults := DefaultConfig()

	if config.Bridge.Host == "" {
		config.Bridge.Host = defaults.Bridge.Host
	}
	if config.Bridge.Port == 0 {
		config.Bridge.Port = defaults.Bridge.Port
	}
	if config.Bridge.RequestTimeoutMS == 0 {
		config.Bridge.RequestTimeoutMS = defaults.Bridge.RequestTimeoutMS
	}
	if config.Bridge.PollIntervalMS == 0 {
		config.Bridge.PollIntervalMS = defaults.Bridge.PollIntervalMS
	}
	if config.Bridge.MaxFailures == 0 {
		config.Bridge.MaxFailures = defaults.Bridge.MaxFailures
	}

	if config.Runner.Agent == "" {
		config.Runner.Agent = defaults.Runner.Agent
	}
	if config.Runner.WaitTimeout == 0 {
		config.Runner.WaitTimeout = defaults.Runner.WaitTimeout
	}
	if config.Runner.Class == "" {
		config.Runner.Class = defaults.Runner.Class
	}

	if config.UI.LogLevel == "" {
		config.UI.LogLevel = defaults.UI.LogLevel
	}
	if config.UI.RefreshMS == 0 {
		config.UI.RefreshMS = defaults.UI.RefreshMS
	}
	if config.UI.Theme == "" {
		config.UI.Theme = defaults.UI.Theme
	}

	return &config, nil
}

// Validate validates the CLI configuration
func (c *Config) Validate() error {
	if c.Bridge.Host == "" {
		return fmt.Errorf("bridge host is required")
	}

	if c.Bridge.Port <= 0 || c.Bridge.Port > 65535 {
		return fmt.Errorf("bridge port must be between 1 and 65535")
	}

	if c.Bridge.RequestTimeoutMS <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}

	if c.Bridge.PollIntervalMS <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}

	if c.Bridge.MaxFailures <= 0 {
		return fmt.Errorf("max failures must be positive")
	}

	if c.Runner.WaitTimeout <= 0 {
		return fmt.Errorf("wait timeout must be positive")
	}

	if c.Runner.Ascension < 0 || c.Runner.Ascension > 20 {
		return fmt.Errorf("ascension must be between 0 and 20")
	}

	// Validate agent
	validAgents := map[string]bool{
		"simple": true,
		"random": true,
	}
	if !validAgents[c.Runner.Agent] {
		return fmt.Errorf("invalid agent: %s", c.Runner.Agent)
	}

	// Validate character class
	validClasses := map[string]bool{
		"ironclad": true,
		"silent":   true,
		"defect":   true,
		"watcher":  true,
	}
	if !validClasses[c.Runner.Class] {
		return fmt.Errorf("invalid class: %s", c.Runner.Class)
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.UI.LogLevel] {
		return fmt.Errorf("invalid log level: %s", c.UI.LogLevel)
	}

	// Validate theme
	validThemes := map[string]bool{
		"default": true,
		"dark":    true,
		"light":   true,
	}
	if !validThemes[c.UI.Theme] {
		return fmt.Errorf("invalid theme: %s", c.UI.Theme)
	}

	return nil
}

// ClientConfig converts the bridge settings to SDK session settings
func (c *Config) ClientConfig() sdk.Config {
	return sdk.Config{
		Host:                   c.Bridge.Host,
		Port:                   c.Bridge.Port,
		Timeout:                time.Duration(c.Bridge.RequestTimeoutMS) * time.Millisecond,
		PollInterval:           time.Duration(c.Bridge.PollIntervalMS) * time.Millisecond,
		MaxConsecutiveFailures: c.Bridge.MaxFailures,
	}
}

// WaitTimeout returns how long to wait for the first game state
func (c *Config) WaitTimeout() time.Duration {
	return time.Duration(c.Runner.WaitTimeout) * time.Second
}

// RefreshInterval returns the watch dashboard refresh cadence
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.UI.RefreshMS) * time.Millisecond
}

// GetLogLevel returns the log level
func (c *Config) GetLogLevel() string {
	return c.UI.LogLevel
}
