package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/user/mindloom/internal/types"
)

type Config struct {
	DataDir       string `json:"data_dir"`
	LogLevel      string `json:"log_level"`
	ListenAddr    string `json:"listen_addr"`
	MaxConcurrent int    `json:"max_concurrent"`
	LLM           struct {
		BaseURL           string  `json:"base_url"`
		APIKey            string  `json:"api_key"`
		Model             string  `json:"model"`
		PromptFamily      string  `json:"prompt_family"`
		MaxTokens         int     `json:"max_tokens"`
		Temperature       float32 `json:"temperature"`
		TopP              float32 `json:"top_p"`
		TopK              int     `json:"top_k"`
		MinP              float32 `json:"min_p"`
		RepetitionPenalty float32 `json:"repetition_penalty"`
		MaxContextTokens  int     `json:"max_context_tokens"`
		OutputReserve     int     `json:"output_reserve"`
	} `json:"llm"`
	Analyzers struct {
		AudioURL    string `json:"audio_url"`
		VisualURL   string `json:"visual_url"`
		DocumentURL string `json:"document_url"`
		EnableLocal bool   `json:"enable_local"`
	} `json:"analyzers"`
	Telegram struct {
		Token string `json:"token"`
	} `json:"telegram"`
	Thresholds  types.Thresholds `json:"thresholds"`
	Maintenance struct {
		SnapshotSchedule string `json:"snapshot_schedule"`
		UploadTTLMinutes int    `json:"upload_ttl_minutes"`
	} `json:"maintenance"`
}

// Load reads the config file at path, writing defaults there first if it
// does not exist. Environment variables take highest precedence.
func Load(path string) (*Config, error) {
	cfg := &Config{
		DataDir:       filepath.Join(os.Getenv("HOME"), ".mindloom"),
		LogLevel:      "info",
		ListenAddr:    ":8787",
		MaxConcurrent: 2,
	}
	cfg.LLM.BaseURL = "https://api.openai.com/v1"
	cfg.LLM.Model = "gpt-4o-mini"
	cfg.LLM.PromptFamily = "standard"
	cfg.LLM.MaxTokens = 1024
	cfg.LLM.Temperature = 0.7
	cfg.LLM.TopP = 0.9
	cfg.LLM.MaxContextTokens = 128000
	cfg.LLM.OutputReserve = 4096
	cfg.Analyzers.EnableLocal = true
	cfg.Thresholds = types.DefaultThresholds()
	cfg.Maintenance.SnapshotSchedule = "*/5 * * * *"
	cfg.Maintenance.UploadTTLMinutes = 60

	// Load from file if exists, otherwise write defaults
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if os.IsNotExist(err) {
		if err := writeDefaults(path, cfg); err != nil {
			return nil, err
		}
	}

	// Override from env (highest precedence)
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		cfg.LLM.APIKey = apiKey
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		cfg.LLM.BaseURL = baseURL
	}
	if tgToken := os.Getenv("TELEGRAM_BOT_TOKEN"); tgToken != "" {
		cfg.Telegram.Token = tgToken
	}
	if dataDir := os.Getenv("MINDLOOM_DATA_DIR"); dataDir != "" {
		cfg.DataDir = dataDir
	}

	return cfg, nil
}

func writeDefaults(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	data = append(data, '\n')
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename default config: %w", err)
	}
	return nil
}
