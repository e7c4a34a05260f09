package config

import (
	"os"
	"testing"
	"time"
)

func TestFromEnv(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		want    *BotConfig
		wantErr bool
	}{
		{
			name: "all variables set",
			env: map[string]string{
				EnvHost:           "10.0.0.5",
				EnvPort:           "9090",
				EnvTimeoutMS:      "2500",
				EnvPollIntervalMS: "100",
				EnvMaxFailures:    "3",
				EnvSeed:           "12345",
				EnvDebug:          "true",
			},
			want: &BotConfig{
				Host:         "10.0.0.5",
				Port:         9090,
				Timeout:      2500 * time.Millisecond,
				PollInterval: 100 * time.Millisecond,
				MaxFailures:  3,
				Seed:         12345,
				Debug:        true,
			},
		},
		{
			name: "empty environment",
			env:  map[string]string{},
			want: &BotConfig{},
		},
		{
			name: "debug numeric form",
			env: map[string]string{
				EnvDebug: "1",
			},
			want: &BotConfig{Debug: true},
		},
		{
			name: "debug unrecognized value",
			env: map[string]string{
				EnvDebug: "off",
			},
			want: &BotConfig{},
		},
		{
			name: "invalid port",
			env: map[string]string{
				EnvPort: "not-a-number",
			},
			wantErr: true,
		},
		{
			name: "invalid timeout",
			env: map[string]string{
				EnvTimeoutMS: "5s",
			},
			wantErr: true,
		},
		{
			name: "invalid seed",
			env: map[string]string{
				EnvSeed: "not-a-number",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clear environment
			os.Clearenv()

			// Set test environment
			for k, v := range tt.env {
				os.Setenv(k, v)
			}

			got, err := FromEnv()
			if (err != nil) != tt.wantErr {
				t.Errorf("FromEnv() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if err != nil {
				return
			}

			// Compare configs
			if got.Host != tt.want.Host {
				t.Errorf("Host = %v, want %v", got.Host, tt.want.Host)
			}
			if got.Port != tt.want.Port {
				t.Errorf("Port = %v, want %v", got.Port, tt.want.Port)
			}
			if got.Timeout != tt.want.Timeout {
				t.Errorf("Timeout = %v, want %v", got.Timeout, tt.want.Timeout)
			}
			if got.PollInterval != tt.want.PollInterval {
				t.Errorf("PollInterval = %v, want %v", got.PollInterval, tt.want.PollInterval)
			}
			if got.MaxFailures != tt.want.MaxFailures {
				t.Errorf("MaxFailures = %v, want %v", got.MaxFailures, tt.want.MaxFailures)
			}
			if got.Seed != tt.want.Seed {
				t.Errorf("Seed = %v, want %v", got.Seed, tt.want.Seed)
			}
			if got.Debug != tt.want.Debug {
				t.Errorf("Debug = %v, want %v", got.Debug, tt.want.Debug)
			}
		})
	}
}

func TestSetEnv(t *testing.T) {
	env := []string{"EXISTING=value"}
	env = SetEnv(env, "NEW_KEY", "new_value")

	if len(env) != 2 {
		t.Errorf("Expected 2 environment variables, got %d", len(env))
	}
	if env[1] != "NEW_KEY=new_value" {
		t.Errorf("Expected 'NEW_KEY=new_value', got %s", env[1])
	}
}
