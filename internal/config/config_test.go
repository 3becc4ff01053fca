package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Thresholds.EmergingAt != 4 || cfg.Thresholds.IntegrationAt != 15 {
		t.Errorf("unexpected default thresholds: %+v", cfg.Thresholds)
	}
	if cfg.LLM.PromptFamily != "standard" {
		t.Errorf("prompt family = %q, want standard", cfg.LLM.PromptFamily)
	}

	// Defaults should have been written to disk.
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("defaults not written: %v", err)
	}

	// Reloading round-trips.
	again, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if again.ListenAddr != cfg.ListenAddr || again.Thresholds != cfg.Thresholds {
		t.Errorf("reload mismatch: %+v vs %+v", again, cfg)
	}
}

func TestLoadFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	raw := map[string]any{
		"log_level": "debug",
		"thresholds": map[string]int{
			"emerging_at":            2,
			"deep_at":                5,
			"integration_at":         9,
			"deep_exploration_chars": 50,
			"long_response_chars":    300,
		},
	}
	data, _ := json.Marshal(raw)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level = %q", cfg.LogLevel)
	}
	if cfg.Thresholds.DeepAt != 5 {
		t.Errorf("thresholds not overridden: %+v", cfg.Thresholds)
	}
	// Untouched fields keep defaults.
	if cfg.MaxConcurrent != 2 {
		t.Errorf("max_concurrent = %d, want default 2", cfg.MaxConcurrent)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("MINDLOOM_DATA_DIR", "/tmp/mindloom-test")

	cfg, err := Load(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LLM.APIKey != "test-key" {
		t.Errorf("api key = %q", cfg.LLM.APIKey)
	}
	if cfg.DataDir != "/tmp/mindloom-test" {
		t.Errorf("data dir = %q", cfg.DataDir)
	}
}
