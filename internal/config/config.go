package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port          int              `json:"port"`
	DataPath      string           `json:"data_path"`
	LogConfig     logger.LogConfig `json:"log_config"`
	UploadStore   FileStoreConfig  `json:"upload_store"`
	CORSAllowlist []string         `json:"cors_allowlist"`
	AI            AIConfig         `json:"ai"`
	SnapshotCron  string           `json:"snapshot_cron"`
}

type FileStoreConfig struct {
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
}

type ProviderConfig struct {
	Provider string                 `json:"provider"`
	Model    string                 `json:"model"`
	Data     map[string]interface{} `json:"data"`
}

type AIConfig struct {
	Generator     ProviderConfig `json:"generator"`
	Embedder      ProviderConfig `json:"embedder"`
	Timeout       int            `json:"timeout"`
	ContextChars  int            `json:"context_chars"`
	CacheSize     int            `json:"cache_size"`
	CacheTTLMins  int            `json:"cache_ttl_mins"`
	MaxInputChars int            `json:"max_input_chars"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	applyDefaults(&cfg)
	if cfg.UploadStore.Type != "" && cfg.UploadStore.Type != "local" && cfg.UploadStore.Type != "s3" {
		return nil, fmt.Errorf("upload_store.type must be local or s3")
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.DataPath == "" {
		cfg.DataPath = "data/rag_state.json"
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.UploadStore.Type == "" {
		cfg.UploadStore.Type = "local"
		if cfg.UploadStore.Data == nil {
			cfg.UploadStore.Data = map[string]interface{}{"dir": "uploads"}
		}
	}
	if cfg.AI.Generator.Provider == "" {
		cfg.AI.Generator.Provider = "ollama"
	}
	if cfg.AI.Generator.Model == "" {
		cfg.AI.Generator.Model = "llama3.2"
	}
	if cfg.AI.Embedder.Provider == "" {
		cfg.AI.Embedder.Provider = "ollama"
	}
	if cfg.AI.Embedder.Model == "" {
		cfg.AI.Embedder.Model = "all-minilm"
	}
	if cfg.AI.Timeout == 0 {
		cfg.AI.Timeout = 30
	}
	if cfg.AI.ContextChars == 0 {
		cfg.AI.ContextChars = 800
	}
	if cfg.AI.CacheSize == 0 {
		cfg.AI.CacheSize = 4096
	}
	if cfg.AI.CacheTTLMins == 0 {
		cfg.AI.CacheTTLMins = 120
	}
	if cfg.AI.MaxInputChars == 0 {
		cfg.AI.MaxInputChars = 100000
	}
	if cfg.SnapshotCron == "" {
		cfg.SnapshotCron = "*/10 * * * *"
	}
}
