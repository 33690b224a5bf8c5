// Package config handles configuration loading and validation for taskorg.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrMissing is returned when an operation needs a setting that is unset.
var ErrMissing = errors.New("required configuration missing")

// Environment variables that override file values.
const (
	EnvAPIEndpoint     = "TASK_API_ENDPOINT"
	EnvVaultPath       = "OBSIDIAN_VAULT_PATH"
	EnvInferenceAPIKey = "TASKORG_INFERENCE_API_KEY"
)

// Config holds the application configuration.
type Config struct {
	Inference InferenceConfig `yaml:"inference"`
	API       APIConfig       `yaml:"api"`
	Server    ServerConfig    `yaml:"server"`
	Vault     VaultConfig     `yaml:"vault"`
	Linking   LinkingConfig   `yaml:"linking"`
	Notify    NotifyConfig    `yaml:"notify"`
	Channels  ChannelsConfig  `yaml:"channels"`
	Database  DatabaseConfig  `yaml:"database"`
	DataDir   string          `yaml:"-"` // set by caller, not from config file
}

// InferenceConfig configures the classification endpoint. Without an API key
// every task is classified by keyword rules.
type InferenceConfig struct {
	URL              string        `yaml:"url"`
	APIKey           string        `yaml:"api_key"`
	Model            string        `yaml:"model"`
	MaxTokens        int           `yaml:"max_tokens"`
	Timeout          time.Duration `yaml:"timeout"`
	AnthropicVersion string        `yaml:"anthropic_version"`
}

// Enabled reports whether remote classification is configured.
func (c InferenceConfig) Enabled() bool {
	return c.URL != "" && c.APIKey != ""
}

// APIConfig points the add command at a running server.
type APIConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`
}

// ServerConfig configures the HTTP entry point.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// VaultConfig configures note export.
type VaultConfig struct {
	Path     string        `yaml:"path"`
	Interval time.Duration `yaml:"interval"` // serve-mode sync interval, 0 disables
}

// LinkingConfig toggles related-task discovery.
type LinkingConfig struct {
	Enabled bool `yaml:"enabled"`
}

// NotifyConfig configures submitter confirmations.
type NotifyConfig struct {
	SMTP       SMTPConfig `yaml:"smtp"`
	WebhookURL string     `yaml:"webhook_url"`
}

// SMTPConfig holds outbound mail settings. Mail is disabled while Host is
// empty.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// ChannelsConfig configures inbound channels.
type ChannelsConfig struct {
	Email EmailChannelConfig `yaml:"email"`
}

// EmailChannelConfig configures the email channel.
type EmailChannelConfig struct {
	Prefix string   `yaml:"prefix"`
	Allow  []string `yaml:"allow"` // sender globs, empty allows all
}

// DatabaseConfig tunes the SQLite connection pool.
type DatabaseConfig struct {
	MaxOpenConns int `yaml:"max_open_conns"`
	MaxIdleConns int `yaml:"max_idle_conns"`
	BusyTimeout  int `yaml:"busy_timeout"` // milliseconds
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Inference: InferenceConfig{
			URL:              "https://api.anthropic.com/v1/messages",
			Model:            "claude-3-haiku-20240307",
			MaxTokens:        300,
			Timeout:          30 * time.Second,
			AnthropicVersion: "2023-06-01",
		},
		API: APIConfig{
			Timeout: 10 * time.Second,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
		Vault: VaultConfig{
			Interval: 5 * time.Minute,
		},
		Linking: LinkingConfig{
			Enabled: true,
		},
		Notify: NotifyConfig{
			SMTP: SMTPConfig{Port: 587},
		},
		Channels: ChannelsConfig{
			Email: EmailChannelConfig{Prefix: "[task]"},
		},
		Database: DatabaseConfig{
			MaxOpenConns: 10,
			MaxIdleConns: 5,
			BusyTimeout:  5000,
		},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided
// dataDir. Environment overrides are applied after the file.
func Load(configPath, dataDir string) (*Config, error) {
	return load(configPath, dataDir, os.LookupEnv)
}

func load(configPath, dataDir string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	cfg.applyEnv(lookup)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvAPIEndpoint); ok && v != "" {
		c.API.Endpoint = v
	}
	if v, ok := lookup(EnvVaultPath); ok && v != "" {
		c.Vault.Path = v
	}
	if v, ok := lookup(EnvInferenceAPIKey); ok && v != "" {
		c.Inference.APIKey = v
	}
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Inference.Model == "" {
		c.Inference.Model = defaults.Inference.Model
	}
	if c.Inference.MaxTokens == 0 {
		c.Inference.MaxTokens = defaults.Inference.MaxTokens
	}
	if c.Inference.Timeout == 0 {
		c.Inference.Timeout = defaults.Inference.Timeout
	}
	if c.Inference.AnthropicVersion == "" {
		c.Inference.AnthropicVersion = defaults.Inference.AnthropicVersion
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = defaults.API.Timeout
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaults.Server.Addr
	}
	if c.Channels.Email.Prefix == "" {
		c.Channels.Email.Prefix = defaults.Channels.Email.Prefix
	}
	if c.Notify.SMTP.Port == 0 {
		c.Notify.SMTP.Port = defaults.Notify.SMTP.Port
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = defaults.Database.MaxOpenConns
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = defaults.Database.MaxIdleConns
	}
	if c.Database.BusyTimeout == 0 {
		c.Database.BusyTimeout = defaults.Database.BusyTimeout
	}
}

// Validate checks that the configuration is structurally valid. It does no
// I/O; see ValidateDeep.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}

	if c.Inference.MaxTokens < 1 {
		return fmt.Errorf("inference.max_tokens must be at least 1")
	}

	if c.Inference.Timeout < 0 {
		return fmt.Errorf("inference.timeout cannot be negative")
	}

	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout cannot be negative")
	}

	if c.Vault.Interval < 0 {
		return fmt.Errorf("vault.interval cannot be negative")
	}

	if c.Vault.Interval > 0 && c.Vault.Interval < time.Second {
		return fmt.Errorf("vault.interval must be at least 1s")
	}

	if c.Notify.SMTP.Port < 1 || c.Notify.SMTP.Port > 65535 {
		return fmt.Errorf("notify.smtp.port must be between 1 and 65535")
	}

	if c.Notify.SMTP.Host != "" && c.Notify.SMTP.From == "" {
		return fmt.Errorf("notify.smtp.from is required when notify.smtp.host is set")
	}

	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("database.max_open_conns must be at least 1")
	}

	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}

	if c.Database.BusyTimeout < 0 {
		return fmt.Errorf("database.busy_timeout cannot be negative")
	}

	return nil
}

// RequireAPIEndpoint returns api.endpoint or ErrMissing.
func (c *Config) RequireAPIEndpoint() (string, error) {
	if c.API.Endpoint == "" {
		return "", fmt.Errorf("%w: api.endpoint (or %s)", ErrMissing, EnvAPIEndpoint)
	}
	return c.API.Endpoint, nil
}

// RequireVaultPath returns vault.path or ErrMissing.
func (c *Config) RequireVaultPath() (string, error) {
	if c.Vault.Path == "" {
		return "", fmt.Errorf("%w: vault.path (or %s)", ErrMissing, EnvVaultPath)
	}
	return c.Vault.Path, nil
}
