package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{"port": 8080}`))
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "data/rag_state.json", cfg.DataPath)
	require.Equal(t, "local", cfg.UploadStore.Type)
	require.Equal(t, "ollama", cfg.AI.Generator.Provider)
	require.Equal(t, "llama3.2", cfg.AI.Generator.Model)
	require.Equal(t, "ollama", cfg.AI.Embedder.Provider)
	require.Equal(t, "all-minilm", cfg.AI.Embedder.Model)
	require.Equal(t, 30, cfg.AI.Timeout)
	require.Equal(t, 800, cfg.AI.ContextChars)
	require.Equal(t, "*/10 * * * *", cfg.SnapshotCron)
}

func TestLoadKeepsExplicitValues(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{
		"port": 9000,
		"data_path": "/var/lib/resumerag/state.json",
		"upload_store": {"type": "s3", "data": {"bucket": "resumes"}},
		"ai": {
			"generator": {"provider": "openai", "model": "gpt-4o-mini", "data": {"api_key": "sk-test"}},
			"timeout": 5,
			"context_chars": 400
		}
	}`))
	require.NoError(t, err)
	require.Equal(t, "/var/lib/resumerag/state.json", cfg.DataPath)
	require.Equal(t, "s3", cfg.UploadStore.Type)
	require.Equal(t, "openai", cfg.AI.Generator.Provider)
	require.Equal(t, "gpt-4o-mini", cfg.AI.Generator.Model)
	require.Equal(t, 5, cfg.AI.Timeout)
	require.Equal(t, 400, cfg.AI.ContextChars)
	// Untouched sections still get defaults.
	require.Equal(t, "ollama", cfg.AI.Embedder.Provider)
}

func TestLoadRejectsMissingPort(t *testing.T) {
	_, err := Load(writeConfig(t, `{"data_path": "state.json"}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "port")
}

func TestLoadRejectsUnknownStoreType(t *testing.T) {
	_, err := Load(writeConfig(t, `{"port": 8080, "upload_store": {"type": "ftp"}}`))
	require.Error(t, err)
}

func TestLoadRejectsBadJSON(t *testing.T) {
	_, err := Load(writeConfig(t, `{port}`))
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}
