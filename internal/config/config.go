// Package config loads the client configuration from YAML with sane
// defaults for local development.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"winspire.app/internal/protocol"
)

type Config struct {
	APIBaseURL string `yaml:"api_base_url"`
	PushURL    string `yaml:"push_url"`
	Platform   string `yaml:"platform"`

	// PendingCap bounds buffered deltas per unknown post id.
	PendingCap int `yaml:"pending_cap"`

	Reconnect ReconnectSpec `yaml:"reconnect"`
	Journal   JournalSpec   `yaml:"journal,omitempty"`
}

type ReconnectSpec struct {
	MinDelayMS int     `yaml:"min_delay_ms"`
	MaxDelayMS int     `yaml:"max_delay_ms"`
	Factor     float64 `yaml:"factor"`
}

type JournalSpec struct {
	// Path of the JSONL+zstd event journal. Empty disables journaling.
	Path string `yaml:"path,omitempty"`
}

func (r ReconnectSpec) MinDelay() time.Duration { return time.Duration(r.MinDelayMS) * time.Millisecond }
func (r ReconnectSpec) MaxDelay() time.Duration { return time.Duration(r.MaxDelayMS) * time.Millisecond }

func Load(path string) (Config, error) {
	cfg := defaults()
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("client.yaml: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("client.yaml: %w", err)
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		APIBaseURL: "http://localhost:5000",
		PushURL:    "ws://localhost:5000/ws",
		Platform:   protocol.PlatformInstagram,
		PendingCap: 32,
		Reconnect: ReconnectSpec{
			MinDelayMS: 500,
			MaxDelayMS: 30000,
			Factor:     2,
		},
	}
}

func (c *Config) Normalize() {
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	c.PushURL = strings.TrimSpace(c.PushURL)
	c.Platform = strings.ToLower(strings.TrimSpace(c.Platform))
	if c.PendingCap <= 0 {
		c.PendingCap = 32
	}
	if c.Reconnect.MinDelayMS <= 0 {
		c.Reconnect.MinDelayMS = 500
	}
	if c.Reconnect.MaxDelayMS < c.Reconnect.MinDelayMS {
		c.Reconnect.MaxDelayMS = 30000
	}
	if c.Reconnect.Factor < 1 {
		c.Reconnect.Factor = 2
	}
}

func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("api_base_url is required")
	}
	if c.PushURL == "" {
		return fmt.Errorf("push_url is required")
	}
	if !strings.HasPrefix(c.PushURL, "ws://") && !strings.HasPrefix(c.PushURL, "wss://") {
		return fmt.Errorf("push_url must be a ws:// or wss:// endpoint, got %q", c.PushURL)
	}
	if !protocol.IsKnownPlatform(c.Platform) {
		return fmt.Errorf("unknown platform %q", c.Platform)
	}
	return nil
}
