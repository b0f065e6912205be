package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/caina-barbosa/Ephor-Wind-Tunnel-sub000/internal/council"
	"github.com/caina-barbosa/Ephor-Wind-Tunnel-sub000/internal/llm"
)

// Config holds all application configuration for Ephor Wind Tunnel.
// It is loaded from ~/.ephor/config.yaml and can be overridden by
// environment variables (EPHOR_ prefix).
type Config struct {
	LLM     LLMConfig     `mapstructure:"llm" yaml:"llm"`
	Council CouncilConfig `mapstructure:"council" yaml:"council"`
	Budget  BudgetConfig  `mapstructure:"budget" yaml:"budget"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// LLMConfig contains per-backend provider configuration.
type LLMConfig struct {
	// Providers maps adapter kinds to their specific configuration.
	// Backends absent from the map fall back to built-in defaults plus
	// environment API keys.
	Providers map[string]ProviderConfig `mapstructure:"providers" yaml:"providers"`
}

// ProviderConfig contains configuration for a single backend.
type ProviderConfig struct {
	// Endpoint is the API endpoint URL (primarily used for local backends like Ollama)
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	// APIKey is the authentication key; the matching environment
	// variable (OPENAI_API_KEY etc.) takes precedence when set
	APIKey string `mapstructure:"api_key" yaml:"api_key,omitempty"`
	// TimeoutSec bounds one completion call end to end
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec,omitempty"`
}

// CouncilConfig defines the fan-out roster and the chairman.
type CouncilConfig struct {
	// Roster is the fixed backend set used by council and benchmark
	// modes. Order matters: it is the tie-break order for ranking.
	Roster []RosterEntry `mapstructure:"roster" yaml:"roster"`
	// ChairmanModel is the logical model that synthesizes the final
	// answer. Empty disables synthesis.
	ChairmanModel string `mapstructure:"chairman_model" yaml:"chairman_model"`
}

// RosterEntry is one council seat.
type RosterEntry struct {
	ID          string `mapstructure:"id" yaml:"id"`
	DisplayName string `mapstructure:"display_name" yaml:"display_name"`
	Model       string `mapstructure:"model" yaml:"model"`
}

// BudgetConfig bounds per-request resource usage.
type BudgetConfig struct {
	// ContextTokens is the conversation token budget enforced by the trimmer
	ContextTokens int `mapstructure:"context_tokens" yaml:"context_tokens"`
	// MaxResponseTokens limits each completion's length
	MaxResponseTokens int `mapstructure:"max_response_tokens" yaml:"max_response_tokens"`
	// DefaultTimeoutSec is the per-call deadline when a backend has no override
	DefaultTimeoutSec int `mapstructure:"default_timeout_sec" yaml:"default_timeout_sec"`
}

// ServerConfig contains the HTTP/WebSocket server settings.
type ServerConfig struct {
	// Host is the listen address
	Host string `mapstructure:"host" yaml:"host"`
	// Port is the listen port
	Port int `mapstructure:"port" yaml:"port"`
}

// LoggingConfig contains configuration for application logging.
type LoggingConfig struct {
	// Level is the log level ("debug", "info", "warn", "error")
	Level string `mapstructure:"level" yaml:"level"`
	// Pretty enables human-readable console output instead of JSON
	Pretty bool `mapstructure:"pretty" yaml:"pretty"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Providers: map[string]ProviderConfig{
				"ollama": {
					Endpoint: "http://127.0.0.1:11434",
				},
			},
		},
		Council: CouncilConfig{
			Roster: []RosterEntry{
				{ID: "openai", DisplayName: "GPT-4o", Model: "gpt-4o"},
				{ID: "anthropic", DisplayName: "Claude Sonnet 4", Model: "claude-sonnet-4"},
				{ID: "gemini", DisplayName: "Gemini 2.0 Flash", Model: "gemini-2.0-flash"},
				{ID: "grok", DisplayName: "Grok 3", Model: "grok-3"},
			},
			ChairmanModel: "claude-sonnet-4",
		},
		Budget: BudgetConfig{
			ContextTokens:     8000,
			MaxResponseTokens: 4096,
			DefaultTimeoutSec: 120,
		},
		Server: ServerConfig{
			Host: "localhost",
			Port: 8790,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Pretty: false,
		},
	}
}

// Load reads configuration from the default location (~/.ephor/config.yaml)
// and merges with environment variables. If no config file exists, it
// creates one with default values.
func Load() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	return LoadFromPath(filepath.Join(homeDir, ".ephor", "config.yaml"))
}

// LoadFromPath reads configuration from a specific file path and merges
// with environment variables. If the file doesn't exist, it creates one
// with default values.
func LoadFromPath(path string) (*Config, error) {
	path = expandPath(path)

	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := writeConfigFile(path, Default()); err != nil {
			return nil, fmt.Errorf("failed to write default config: %w", err)
		}
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Example: EPHOR_SERVER_PORT, EPHOR_LOGGING_LEVEL
	v.SetEnvPrefix("EPHOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// applyDefaults fills zero-valued fields so a sparse hand-edited file
// still yields a usable configuration.
func (c *Config) applyDefaults() {
	defaults := Default()

	if len(c.Council.Roster) == 0 {
		c.Council.Roster = defaults.Council.Roster
	}
	if c.Budget.ContextTokens == 0 {
		c.Budget.ContextTokens = defaults.Budget.ContextTokens
	}
	if c.Budget.MaxResponseTokens == 0 {
		c.Budget.MaxResponseTokens = defaults.Budget.MaxResponseTokens
	}
	if c.Budget.DefaultTimeoutSec == 0 {
		c.Budget.DefaultTimeoutSec = defaults.Budget.DefaultTimeoutSec
	}
	if c.Server.Host == "" {
		c.Server.Host = defaults.Server.Host
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaults.Server.Port
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaults.Logging.Level
	}
}

// Roster converts the configured roster into council descriptors.
func (c *Config) Roster() []council.BackendDescriptor {
	roster := make([]council.BackendDescriptor, len(c.Council.Roster))
	for i, entry := range c.Council.Roster {
		roster[i] = council.BackendDescriptor{
			ID:          entry.ID,
			DisplayName: entry.DisplayName,
			ModelID:     entry.Model,
		}
	}
	return roster
}

// ProviderConfigs converts per-backend settings into the adapter layer's
// configuration type, applying the default timeout where unset.
func (c *Config) ProviderConfigs() map[string]*llm.ProviderConfig {
	out := make(map[string]*llm.ProviderConfig, len(c.LLM.Providers))
	for kind, pc := range c.LLM.Providers {
		timeout := time.Duration(pc.TimeoutSec) * time.Second
		if pc.TimeoutSec == 0 {
			timeout = time.Duration(c.Budget.DefaultTimeoutSec) * time.Second
		}
		out[kind] = &llm.ProviderConfig{
			Endpoint: pc.Endpoint,
			APIKey:   pc.APIKey,
			Timeout:  timeout,
		}
	}
	return out
}

// Addr returns the server listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// SaveToPath writes the current configuration to a specific file path.
func (c *Config) SaveToPath(path string) error {
	path = expandPath(path)

	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return writeConfigFile(path, c)
}

// Validate checks the configuration for common errors.
func (c *Config) Validate() error {
	if len(c.Council.Roster) < 2 {
		return fmt.Errorf("council.roster needs at least 2 backends, has %d", len(c.Council.Roster))
	}
	if len(c.Council.Roster) > 8 {
		return fmt.Errorf("council.roster supports at most 8 backends, has %d", len(c.Council.Roster))
	}

	seen := map[string]bool{}
	for _, entry := range c.Council.Roster {
		if entry.ID == "" || entry.Model == "" {
			return fmt.Errorf("roster entries need both id and model: %+v", entry)
		}
		if seen[entry.ID] {
			return fmt.Errorf("duplicate roster id %q", entry.ID)
		}
		seen[entry.ID] = true
	}

	if c.Budget.ContextTokens < 1 {
		return fmt.Errorf("budget.context_tokens must be positive")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level '%s', must be one of: debug, info, warn, error", c.Logging.Level)
	}

	return nil
}

// writeConfigFile writes a Config struct to a YAML file.
// Uses gopkg.in/yaml.v3 directly to ensure proper tag-based serialization.
func writeConfigFile(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// expandPath expands ~ to the user's home directory in a path string.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, path[1:])
	}
	return path
}
