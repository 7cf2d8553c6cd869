// Package config loads and manages forge configuration.
// Configuration source priority (highest to lowest):
// 1. Environment variables (FORGE_PASSWORD, ANTHROPIC_API_KEY, PORT, etc.)
// 2. Config file path specified via --config flag
// 3. ~/.config/forge/config.yaml
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ProviderConfig holds configuration for a single upstream LLM provider.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// AuthConfig holds login gate settings.
type AuthConfig struct {
	// Password is the single shared login password.
	Password string `yaml:"password"`

	// SessionKey signs the session cookie. Empty = random per process start
	// (sessions do not survive restarts in that case).
	SessionKey string `yaml:"session_key"`

	// TOTPEnabled requires a time-based one-time code at login.
	TOTPEnabled bool `yaml:"totp_enabled"`

	// TOTPSecret is the shared base32 secret for one-time codes.
	TOTPSecret string `yaml:"totp_secret"`
}

// SandboxConfig holds settings for code execution.
type SandboxConfig struct {
	// PythonBin is the Python interpreter binary. Default "python3".
	PythonBin string `yaml:"python_bin"`

	// PowerShellBin is the PowerShell-compatible shell binary. Default "pwsh".
	PowerShellBin string `yaml:"powershell_bin"`

	// TimeoutSeconds is the wall-clock execution limit. Default 30.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// StoreConfig holds persistence settings.
type StoreConfig struct {
	// Backend: "sqlite" (default) | "json"
	Backend string `yaml:"backend"`

	// DataDir holds forge.db or the snippets.json/history.json pair.
	// Default ~/.local/share/forge.
	DataDir string `yaml:"data_dir"`
}

// Config is the complete configuration structure for forge.
type Config struct {
	// Provider is the active provider name ("anthropic" or "openai").
	Provider string `yaml:"provider"`

	// Model overrides the provider's default model.
	Model string `yaml:"model"`

	// Providers holds per-provider configuration.
	Providers map[string]*ProviderConfig `yaml:"providers"`

	// Addr is the listen address. PORT env overrides the port part.
	Addr string `yaml:"addr"`

	// Auth holds login gate settings.
	Auth AuthConfig `yaml:"auth"`

	// Sandbox holds code execution settings.
	Sandbox SandboxConfig `yaml:"sandbox"`

	// Store holds persistence settings.
	Store StoreConfig `yaml:"store"`

	// SystemPrompt overrides the built-in assistant system prompt.
	SystemPrompt string `yaml:"system_prompt"`

	// LogLevel: debug | info | warn | error. Default info.
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Provider:  "anthropic",
		Providers: make(map[string]*ProviderConfig),
		Addr:      ":5000",
		Auth: AuthConfig{
			Password: "forge123",
		},
		Sandbox: SandboxConfig{
			PythonBin:      "python3",
			PowerShellBin:  "pwsh",
			TimeoutSeconds: 30,
		},
		Store: StoreConfig{
			Backend: "sqlite",
		},
		LogLevel: "info",
	}
}

// Load reads the config file and merges environment variable overrides.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			configPath = filepath.Join(home, ".config", "forge", "config.yaml")
		}
	}

	// Read config file (use defaults if not found).
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
		}
	}

	applyEnvOverrides(cfg)

	if cfg.Providers == nil {
		cfg.Providers = make(map[string]*ProviderConfig)
	}
	if cfg.Auth.SessionKey == "" {
		cfg.Auth.SessionKey = randomKey()
	}
	if cfg.Store.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot determine home directory: %w", err)
		}
		cfg.Store.DataDir = filepath.Join(home, ".local", "share", "forge")
	}

	return cfg, nil
}

// GetProviderConfig returns the config for the named provider, or an empty
// config if not found.
func (c *Config) GetProviderConfig(name string) *ProviderConfig {
	if pc, ok := c.Providers[name]; ok {
		return pc
	}
	return &ProviderConfig{}
}

// APIConfigured reports whether the active provider has a credential.
func (c *Config) APIConfigured() bool {
	return c.GetProviderConfig(c.Provider).APIKey != ""
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]*ProviderConfig)
	}

	setKey := func(provider, key string) {
		if cfg.Providers[provider] == nil {
			cfg.Providers[provider] = &ProviderConfig{}
		}
		cfg.Providers[provider].APIKey = key
	}

	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		setKey("anthropic", v)
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		setKey("openai", v)
	}
	// Generic override: applies to whichever provider is active.
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		setKey(cfg.Provider, v)
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		if cfg.Providers[cfg.Provider] == nil {
			cfg.Providers[cfg.Provider] = &ProviderConfig{}
		}
		cfg.Providers[cfg.Provider].BaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		cfg.Provider = v
	}

	if v := os.Getenv("FORGE_PASSWORD"); v != "" {
		cfg.Auth.Password = v
	}
	if v := os.Getenv("SECRET_KEY"); v != "" {
		cfg.Auth.SessionKey = v
	}
	if v := os.Getenv("FORGE_TOTP_SECRET"); v != "" {
		cfg.Auth.TOTPSecret = v
	}
	if v := os.Getenv("FORGE_TOTP_ENABLED"); v != "" {
		cfg.Auth.TOTPEnabled = parseBool(v)
	}

	if v := os.Getenv("PORT"); v != "" {
		if _, err := strconv.Atoi(v); err == nil {
			cfg.Addr = ":" + v
		}
	}
	if v := os.Getenv("FORGE_DATA_DIR"); v != "" {
		cfg.Store.DataDir = v
	}
	if v := os.Getenv("FORGE_STORE"); v != "" {
		cfg.Store.Backend = v
	}
	if v := os.Getenv("FORGE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func randomKey() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
