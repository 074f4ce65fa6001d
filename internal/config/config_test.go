package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.InDelta(t, 0.85, cfg.Routing.SimpleConfidenceThreshold, 0.001)
	assert.True(t, cfg.Routing.FallbackEnabled)
	assert.InDelta(t, 0.95, cfg.Routing.ReviewThreshold, 0.001)
	assert.InDelta(t, 0.6, cfg.Classify.BrightnessThreshold, 0.001)
	assert.Equal(t, "live", cfg.Provider.Mode)
	assert.Equal(t, "https://api.groq.com/openai/v1", cfg.Groq.BaseURL)
	assert.Equal(t, "llama-3.3-70b-versatile", cfg.Groq.Model)
	assert.InDelta(t, 2.0, cfg.Groq.RateLimit, 0.001)
	assert.Equal(t, "claude-sonnet-4-5-20250929", cfg.Anthropic.Model)
	assert.False(t, cfg.Audit.Enabled)
	assert.Equal(t, "receipts-audit.db", cfg.Audit.Path)
	assert.Equal(t, 4, cfg.Batch.MaxConcurrent)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
routing:
  simple_confidence_threshold: 0.9
  fallback_enabled: false
provider:
  mode: static
log:
  level: debug
  format: console
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.InDelta(t, 0.9, cfg.Routing.SimpleConfidenceThreshold, 0.001)
	assert.False(t, cfg.Routing.FallbackEnabled)
	assert.Equal(t, "static", cfg.Provider.Mode)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)

	// Defaults survive for keys the file does not set.
	assert.InDelta(t, 0.95, cfg.Routing.ReviewThreshold, 0.001)
	assert.Equal(t, 4, cfg.Batch.MaxConcurrent)
}

func TestLoadFromEnv(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("RECEIPT_PROVIDER_MODE", "static")
	t.Setenv("RECEIPT_GROQ_KEY", "gsk-from-env")
	t.Setenv("RECEIPT_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "static", cfg.Provider.Mode)
	assert.Equal(t, "gsk-from-env", cfg.Groq.Key)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("routing: [not a map"), 0o644))

	_, err := Load()
	require.Error(t, err)
}

func TestInitLogger(t *testing.T) {
	tests := []struct {
		name    string
		cfg     LogConfig
		wantErr bool
	}{
		{"json info", LogConfig{Level: "info", Format: "json"}, false},
		{"console debug", LogConfig{Level: "debug", Format: "console"}, false},
		{"bad level", LogConfig{Level: "shout", Format: "json"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := InitLogger(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, zap.L())
		})
	}
}
