// Package config provides configuration parsing for spirebots SDK clients.
// It defines the standard environment variables used by spawned bots.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Environment variable names read by spawned bots
const (
	// EnvHost specifies the bridge host
	EnvHost = "SPIREBOTS_HOST"

	// EnvPort specifies the bridge port
	EnvPort = "SPIREBOTS_PORT"

	// EnvTimeoutMS specifies the per-request timeout in milliseconds
	EnvTimeoutMS = "SPIREBOTS_TIMEOUT_MS"

	// EnvPollIntervalMS specifies the poll interval in milliseconds
	EnvPollIntervalMS = "SPIREBOTS_POLL_INTERVAL_MS"

	// EnvMaxFailures specifies the consecutive-failure disconnect threshold
	EnvMaxFailures = "SPIREBOTS_MAX_FAILURES"

	// EnvSeed provides a random seed for deterministic agents
	EnvSeed = "SPIREBOTS_SEED"

	// EnvDebug enables debug logging when set to 1/true/yes
	EnvDebug = "SPIREBOTS_DEBUG"
)

// BotConfig holds configuration parsed from environment variables.
// Zero values mean the variable was not set.
type BotConfig struct {
	// Host is the bridge host
	Host string

	// Port is the bridge port
	Port int

	// Timeout bounds each HTTP request
	Timeout time.Duration

	// PollInterval is the pause between state polls
	PollInterval time.Duration

	// MaxFailures is the consecutive-failure disconnect threshold
	MaxFailures int

	// Seed is the random seed for deterministic behavior (0 means not set)
	Seed int64

	// Debug enables debug logging
	Debug bool
}

// FromEnv parses configuration from environment variables.
// Returns an error if a set variable has an invalid value.
func FromEnv() (*BotConfig, error) {
	cfg := &BotConfig{}

	cfg.Host = os.Getenv(EnvHost)

	port, err := intFromEnv(EnvPort)
	if err != nil {
		return nil, err
	}
	cfg.Port = port

	timeoutMS, err := intFromEnv(EnvTimeoutMS)
	if err != nil {
		return nil, err
	}
	cfg.Timeout = time.Duration(timeoutMS) * time.Millisecond

	pollMS, err := intFromEnv(EnvPollIntervalMS)
	if err != nil {
		return nil, err
	}
	cfg.PollInterval = time.Duration(pollMS) * time.Millisecond

	maxFailures, err := intFromEnv(EnvMaxFailures)
	if err != nil {
		return nil, err
	}
	cfg.MaxFailures = maxFailures

	if seedStr := os.Getenv(EnvSeed); seedStr != "" {
		seed, err := strconv.ParseInt(seedStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s value: %w", EnvSeed, err)
		}
		cfg.Seed = seed
	}

	switch os.Getenv(EnvDebug) {
	case "1", "true", "yes":
		cfg.Debug = true
	}

	return cfg, nil
}

// SetEnv appends a key=value pair to an environment slice.
// This is a helper for setting up bot processes.
func SetEnv(env []string, key, value string) []string {
	return append(env, fmt.Sprintf("%s=%s", key, value))
}

func intFromEnv(key string) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return v, nil
}
