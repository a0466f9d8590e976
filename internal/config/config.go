// Package config holds relayctl configuration, loaded from a YAML file in
// the user config directory with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all relayctl configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Query   QueryConfig   `yaml:"query"`
	UI      UIConfig      `yaml:"ui"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the gateway connection.
type ServerConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

// QueryConfig configures message query caps and pagination.
// BulkLimit caps a full search; PreviewLimit caps the compact
// device-scoped preview.
type QueryConfig struct {
	BulkLimit    int `yaml:"bulk_limit"`
	PreviewLimit int `yaml:"preview_limit"`
	PageSize     int `yaml:"page_size"`
}

// UIConfig configures the interactive console.
type UIConfig struct {
	Theme string `yaml:"theme"` // light or dark
}

// LoggingConfig configures file logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	Debug bool   `yaml:"debug"` // enables log files under the config dir
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL: "http://localhost:8080",
			Timeout: "15s",
		},
		Query: QueryConfig{
			BulkLimit:    50,
			PreviewLimit: 10,
			PageSize:     10,
		},
		UI: UIConfig{
			Theme: "light",
		},
		Logging: LoggingConfig{
			Level: "info",
			Debug: false,
		},
	}
}

// Dir returns the relayctl config directory.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".relayctl"), nil
}

// File returns the full path to the config file.
func File() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment overrides apply in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if url := os.Getenv("RELAYCTL_SERVER"); url != "" {
		c.Server.BaseURL = url
	}
	if timeout := os.Getenv("RELAYCTL_TIMEOUT"); timeout != "" {
		c.Server.Timeout = timeout
	}
	if theme := os.Getenv("RELAYCTL_THEME"); theme != "" {
		c.UI.Theme = theme
	}
}

// GetTimeout returns the gateway timeout as a duration.
func (c *Config) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.Timeout)
	if err != nil {
		return 15 * time.Second
	}
	return d
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.BaseURL == "" {
		return fmt.Errorf("server base_url not configured (set RELAYCTL_SERVER or edit the config file)")
	}
	if c.Query.BulkLimit <= 0 || c.Query.PreviewLimit <= 0 {
		return fmt.Errorf("query limits must be positive")
	}
	if c.Query.PageSize <= 0 {
		return fmt.Errorf("page size must be positive")
	}
	if c.UI.Theme != "light" && c.UI.Theme != "dark" {
		return fmt.Errorf("invalid theme: %s (valid: light, dark)", c.UI.Theme)
	}
	return nil
}
