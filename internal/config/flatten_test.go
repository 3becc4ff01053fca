package config

import (
	"path/filepath"
	"testing"
)

func TestFlattenNested(t *testing.T) {
	m := map[string]any{
		"llm": map[string]any{
			"model":   "gpt-4o-mini",
			"api_key": "sk-test123",
		},
		"log_level": "info",
	}
	got := Flatten(m)
	if got["llm.model"] != "gpt-4o-mini" {
		t.Errorf("llm.model = %v", got["llm.model"])
	}
	if got["llm.api_key"] != "sk-test123" {
		t.Errorf("llm.api_key = %v", got["llm.api_key"])
	}
	if got["log_level"] != "info" {
		t.Errorf("log_level = %v", got["log_level"])
	}
	if len(got) != 3 {
		t.Errorf("expected 3 keys, got %d", len(got))
	}
}

func TestUnflattenRoundTrip(t *testing.T) {
	original := map[string]any{
		"data_dir": "/home/test/.mindloom",
		"llm": map[string]any{
			"model":   "gpt-4o-mini",
			"api_key": "sk-test123456",
		},
		"telegram": map[string]any{
			"token": "bot-token-abc",
		},
	}
	restored := Unflatten(Flatten(original))

	if restored["data_dir"] != original["data_dir"] {
		t.Errorf("data_dir = %v", restored["data_dir"])
	}
	llm, ok := restored["llm"].(map[string]any)
	if !ok {
		t.Fatalf("llm is %T", restored["llm"])
	}
	if llm["model"] != "gpt-4o-mini" || llm["api_key"] != "sk-test123456" {
		t.Errorf("llm = %v", llm)
	}
	tg := restored["telegram"].(map[string]any)
	if tg["token"] != "bot-token-abc" {
		t.Errorf("telegram.token = %v", tg["token"])
	}
}

func TestMaskSecrets(t *testing.T) {
	flat := map[string]any{
		"llm.model":      "gpt-4o-mini",
		"llm.api_key":    "sk-test123456",
		"telegram.token": "123456:ABCdefGHIjkl",
		"llm.base_url":   "",
	}
	got := MaskSecrets(flat)

	if got["llm.model"] != "gpt-4o-mini" {
		t.Errorf("non-secret changed: %v", got["llm.model"])
	}
	if got["llm.api_key"] != "***3456" {
		t.Errorf("llm.api_key = %v", got["llm.api_key"])
	}
	if got["telegram.token"] != "***Ijkl" {
		t.Errorf("telegram.token = %v", got["telegram.token"])
	}

	empty := MaskSecrets(map[string]any{"llm.api_key": ""})
	if empty["llm.api_key"] != "" {
		t.Errorf("empty secret = %v", empty["llm.api_key"])
	}
	short := MaskSecrets(map[string]any{"llm.api_key": "abcd"})
	if short["llm.api_key"] != "***abcd" {
		t.Errorf("short secret = %v", short["llm.api_key"])
	}
}

func TestGetAndSetValue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if _, err := Load(path); err != nil {
		t.Fatal(err)
	}

	if err := SetValue(path, "llm.model", "gpt-4o"); err != nil {
		t.Fatal(err)
	}
	val, err := GetValue(path, "llm.model")
	if err != nil {
		t.Fatal(err)
	}
	if val != "gpt-4o" {
		t.Errorf("llm.model = %v", val)
	}

	// Numeric and bool values are coerced.
	if err := SetValue(path, "max_concurrent", "4"); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MaxConcurrent != 4 {
		t.Errorf("max_concurrent = %d", cfg.MaxConcurrent)
	}

	if _, err := GetValue(path, "no.such.key"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestListValuesMasksSecrets(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	t.Setenv("OPENAI_API_KEY", "sk-secret-9999")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	values, err := ListValues(cfg, true)
	if err != nil {
		t.Fatal(err)
	}
	if values["llm.api_key"] != "***9999" {
		t.Errorf("llm.api_key = %v", values["llm.api_key"])
	}
	if values["llm.model"] != "gpt-4o-mini" {
		t.Errorf("llm.model = %v", values["llm.model"])
	}
}
