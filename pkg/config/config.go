// Package config loads and persists the dripctl YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	VersionV1 = "v1"
)

// Token storage backends selectable via settings.token-storage.
const (
	TokenStorageFile    = "file"
	TokenStorageKeyring = "keyring"
)

type Config struct {
	Version  string        `yaml:"version"`
	Monitor  MonitorConfig `yaml:"monitor"`
	Server   ServerConfig  `yaml:"server"`
	OAuth    OAuthConfig   `yaml:"oauth,omitempty"`
	Settings Settings      `yaml:"settings,omitempty"`
}

type MonitorConfig struct {
	// Interval between monitor runs, in seconds.
	Interval int `yaml:"interval"`
	// Threshold in (0, 1] above which the monitor reports.
	Threshold float64 `yaml:"threshold"`
}

// ServerConfig configures the transient loopback listener used during login.
type ServerConfig struct {
	Port int `yaml:"port"`
}

type OAuthConfig struct {
	ClientID         string   `yaml:"client-id,omitempty"`
	ClientSecret     string   `yaml:"client-secret,omitempty"`
	ClientSecretEnv  string   `yaml:"client-secret-env,omitempty"`
	ClientSecretFile string   `yaml:"client-secret-file,omitempty"`
	Scopes           []string `yaml:"scopes,omitempty"`
	// Authority is an optional OIDC issuer; endpoints are resolved through
	// its discovery document. Empty means Google.
	Authority string `yaml:"authority,omitempty"`
	// LoginTimeout bounds the wait for the browser callback, as a Go
	// duration string ("2m"). Empty means wait indefinitely.
	LoginTimeout string `yaml:"login-timeout,omitempty"`
}

type Settings struct {
	TokenStorage string `yaml:"token-storage,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		Version: VersionV1,
		Monitor: MonitorConfig{
			Interval:  60,
			Threshold: 0.8,
		},
		Server: ServerConfig{
			Port: 8080,
		},
		Settings: Settings{
			TokenStorage: TokenStorageFile,
		},
	}
}

func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is required")
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Version == "" {
		cfg.Version = VersionV1
	}
	return &cfg, nil
}

func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if cfg.Version == "" {
		cfg.Version = VersionV1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	content, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, content, 0o600)
}

// LoginTimeoutValue parses the configured login timeout. Zero means no
// timeout.
func (o OAuthConfig) LoginTimeoutValue() (time.Duration, error) {
	if o.LoginTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(o.LoginTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid oauth.login-timeout: %w", err)
	}
	return d, nil
}

func (c *Config) Validate() error {
	if c.Version == "" {
		return errors.New("config version missing")
	}
	if c.Monitor.Interval <= 0 {
		return fmt.Errorf("monitor.interval must be positive, got %d", c.Monitor.Interval)
	}
	if c.Monitor.Threshold <= 0 || c.Monitor.Threshold > 1 {
		return fmt.Errorf("monitor.threshold must be in (0, 1], got %g", c.Monitor.Threshold)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [1, 65535], got %d", c.Server.Port)
	}
	switch c.Settings.TokenStorage {
	case "", TokenStorageFile, TokenStorageKeyring:
	default:
		return fmt.Errorf("settings.token-storage must be %q or %q, got %q",
			TokenStorageFile, TokenStorageKeyring, c.Settings.TokenStorage)
	}
	if _, err := c.OAuth.LoginTimeoutValue(); err != nil {
		return err
	}
	return nil
}
