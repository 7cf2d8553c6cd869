package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	// Neutralize ambient overrides; empty values are ignored by Load.
	for _, v := range []string{"FORGE_PASSWORD", "PORT", "FORGE_STORE", "FORGE_DATA_DIR", "LLM_PROVIDER"} {
		t.Setenv(v, "")
	}

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != "anthropic" {
		t.Errorf("Provider = %q, want anthropic", cfg.Provider)
	}
	if cfg.Addr != ":5000" {
		t.Errorf("Addr = %q, want :5000", cfg.Addr)
	}
	if cfg.Auth.Password != "forge123" {
		t.Errorf("Password = %q, want forge123", cfg.Auth.Password)
	}
	if cfg.Sandbox.TimeoutSeconds != 30 {
		t.Errorf("TimeoutSeconds = %d, want 30", cfg.Sandbox.TimeoutSeconds)
	}
	if cfg.Store.Backend != "sqlite" {
		t.Errorf("Backend = %q, want sqlite", cfg.Store.Backend)
	}
	// A session key is always present, random when unset.
	if cfg.Auth.SessionKey == "" {
		t.Error("SessionKey must not be empty")
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
provider: openai
addr: ":8080"
auth:
  password: secret
  totp_enabled: true
  totp_secret: JBSWY3DPEHPK3PXP
providers:
  openai:
    api_key: sk-test
    base_url: https://api.deepseek.com
    model: deepseek-chat
store:
  backend: json
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	for _, v := range []string{"OPENAI_API_KEY", "LLM_API_KEY", "LLM_BASE_URL", "LLM_MODEL", "LLM_PROVIDER", "PORT", "FORGE_STORE", "FORGE_PASSWORD", "FORGE_TOTP_ENABLED", "FORGE_TOTP_SECRET"} {
		t.Setenv(v, "")
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != "openai" {
		t.Errorf("Provider = %q, want openai", cfg.Provider)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if !cfg.Auth.TOTPEnabled || cfg.Auth.TOTPSecret != "JBSWY3DPEHPK3PXP" {
		t.Errorf("TOTP config = %+v", cfg.Auth)
	}
	pc := cfg.GetProviderConfig("openai")
	if pc.APIKey != "sk-test" || pc.BaseURL != "https://api.deepseek.com" || pc.Model != "deepseek-chat" {
		t.Errorf("provider config = %+v", pc)
	}
	if cfg.Store.Backend != "json" {
		t.Errorf("Backend = %q, want json", cfg.Store.Backend)
	}
	if !cfg.APIConfigured() {
		t.Error("APIConfigured = false, want true")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("FORGE_PASSWORD", "env-password")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-env")
	t.Setenv("PORT", "9000")
	t.Setenv("FORGE_TOTP_ENABLED", "true")
	t.Setenv("FORGE_TOTP_SECRET", "ENVBASE32SECRET")
	t.Setenv("FORGE_STORE", "json")
	t.Setenv("FORGE_DATA_DIR", "/tmp/forge-test")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Auth.Password != "env-password" {
		t.Errorf("Password = %q", cfg.Auth.Password)
	}
	if cfg.GetProviderConfig("anthropic").APIKey != "sk-ant-env" {
		t.Errorf("anthropic key = %q", cfg.GetProviderConfig("anthropic").APIKey)
	}
	if cfg.Addr != ":9000" {
		t.Errorf("Addr = %q, want :9000", cfg.Addr)
	}
	if !cfg.Auth.TOTPEnabled {
		t.Error("TOTPEnabled = false, want true")
	}
	if cfg.Store.Backend != "json" || cfg.Store.DataDir != "/tmp/forge-test" {
		t.Errorf("store config = %+v", cfg.Store)
	}
}

func TestLoad_InvalidPortIgnored(t *testing.T) {
	t.Setenv("PORT", "not-a-port")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":5000" {
		t.Errorf("Addr = %q, want default :5000", cfg.Addr)
	}
}

func TestParseBool(t *testing.T) {
	for _, s := range []string{"1", "true", "TRUE", "yes", "on"} {
		if !parseBool(s) {
			t.Errorf("parseBool(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"0", "false", "off", "", "maybe"} {
		if parseBool(s) {
			t.Errorf("parseBool(%q) = true, want false", s)
		}
	}
}
