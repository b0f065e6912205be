package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if len(cfg.Council.Roster) != 4 {
		t.Errorf("expected 4 roster seats, got %d", len(cfg.Council.Roster))
	}

	if cfg.Council.ChairmanModel != "claude-sonnet-4" {
		t.Errorf("expected chairman 'claude-sonnet-4', got '%s'", cfg.Council.ChairmanModel)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got '%s'", cfg.Logging.Level)
	}

	ollama, exists := cfg.LLM.Providers["ollama"]
	if !exists {
		t.Error("expected 'ollama' provider to exist")
	}
	if ollama.Endpoint != "http://127.0.0.1:11434" {
		t.Errorf("expected ollama endpoint 'http://127.0.0.1:11434', got '%s'", ollama.Endpoint)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, ".ephor", "config.yaml")

	// Load config (should create default)
	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("config file was not created")
	}

	if cfg.Server.Port != 8790 {
		t.Errorf("expected port 8790, got %d", cfg.Server.Port)
	}

	// Load again to test reading existing file
	cfg2, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("failed to load existing config: %v", err)
	}

	if cfg2.Server.Port != cfg.Server.Port {
		t.Error("config values changed on reload")
	}
}

func TestSparseFileGetsDefaults(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	sparse := []byte("server:\n  port: 9999\n")
	if err := os.WriteFile(configPath, sparse, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("failed to load sparse config: %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("expected port 9999, got %d", cfg.Server.Port)
	}
	if len(cfg.Council.Roster) != 4 {
		t.Errorf("expected default roster to be filled in, got %d seats", len(cfg.Council.Roster))
	}
	if cfg.Budget.ContextTokens != 8000 {
		t.Errorf("expected default context budget, got %d", cfg.Budget.ContextTokens)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Council.Roster = cfg.Council.Roster[:1]
	if err := cfg.Validate(); err == nil {
		t.Error("single-seat roster should fail validation")
	}

	cfg = Default()
	cfg.Council.Roster[1].ID = cfg.Council.Roster[0].ID
	if err := cfg.Validate(); err == nil {
		t.Error("duplicate roster id should fail validation")
	}

	cfg = Default()
	cfg.Logging.Level = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown log level should fail validation")
	}

	cfg = Default()
	cfg.Server.Port = 0
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Errorf("zero port should be defaulted before validation: %v", err)
	}
}

func TestRosterConversion(t *testing.T) {
	cfg := Default()
	roster := cfg.Roster()

	if len(roster) != len(cfg.Council.Roster) {
		t.Fatalf("roster length mismatch: %d vs %d", len(roster), len(cfg.Council.Roster))
	}
	for i, b := range roster {
		if b.ID != cfg.Council.Roster[i].ID {
			t.Errorf("seat %d: expected id %s, got %s", i, cfg.Council.Roster[i].ID, b.ID)
		}
		if b.ModelID != cfg.Council.Roster[i].Model {
			t.Errorf("seat %d: expected model %s, got %s", i, cfg.Council.Roster[i].Model, b.ModelID)
		}
	}
}

func TestProviderConfigsApplyDefaultTimeout(t *testing.T) {
	cfg := Default()
	cfg.LLM.Providers["openai"] = ProviderConfig{APIKey: "sk-test"}
	cfg.LLM.Providers["grok"] = ProviderConfig{APIKey: "xai-test", TimeoutSec: 30}

	configs := cfg.ProviderConfigs()

	if configs["openai"].Timeout != 120*time.Second {
		t.Errorf("expected default 120s timeout, got %s", configs["openai"].Timeout)
	}
	if configs["grok"].Timeout != 30*time.Second {
		t.Errorf("expected 30s override, got %s", configs["grok"].Timeout)
	}
}

func TestSaveToPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "saved.yaml")

	cfg := Default()
	cfg.Server.Port = 8123
	if err := cfg.SaveToPath(configPath); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	loaded, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("failed to reload saved config: %v", err)
	}
	if loaded.Server.Port != 8123 {
		t.Errorf("expected saved port 8123, got %d", loaded.Server.Port)
	}
}
