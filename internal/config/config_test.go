package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_EmptyPathReturnsEmptyConfig(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)
}

func TestLoad_ValidFile(t *testing.T) {
	path := writeConfig(t, `{
		"database_url": "postgres://localhost/scrape",
		"port": 9090,
		"sanitize_max_chars": 40000,
		"batch_workers": 4,
		"batch_pacing_ms": 500,
		"model_tier": "lite"
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/scrape", cfg.DatabaseURL)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 40000, cfg.SanitizeMaxChars)
	assert.Equal(t, 4, cfg.Workers())
	assert.Equal(t, 500*time.Millisecond, cfg.BatchPacing())
	require.NoError(t, cfg.Validate())
}

func TestLoad_MalformedJSON(t *testing.T) {
	path := writeConfig(t, `{not json`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "zero config valid", cfg: Config{}},
		{name: "port out of range", cfg: Config{Port: 70000}, wantErr: "port"},
		{name: "negative timeout", cfg: Config{FetchTimeoutSecs: -1}, wantErr: "fetch_timeout_secs"},
		{name: "negative workers", cfg: Config{BatchWorkers: -2}, wantErr: "batch_workers"},
		{name: "bad tier", cfg: Config{ModelTier: "turbo"}, wantErr: "model_tier"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env/db")
	t.Setenv("GEMINI_API_KEY", "env-key")
	t.Setenv("PORT", "8181")

	cfg := &Config{APIKey: "file-key"}
	cfg.ApplyEnv()

	assert.Equal(t, "postgres://env/db", cfg.DatabaseURL)
	assert.Equal(t, "file-key", cfg.APIKey) // file value wins over env
	assert.Equal(t, 8181, cfg.Port)
}

func TestDefaults(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, DefaultPort, cfg.PortOrDefault())
	assert.Equal(t, 20*time.Second, cfg.FetchTimeout())
	assert.Equal(t, 1200*time.Millisecond, cfg.BatchPacing())
	assert.Equal(t, 1, cfg.Workers())
}
