package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, int32(10), cfg.Store.MaxConns)
	assert.Equal(t, int32(1), cfg.Store.MinConns)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 20, cfg.Server.MaxUploadMB)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "http://localhost:11434", cfg.Ollama.BaseURL)
	assert.Equal(t, "llama2", cfg.Ollama.Model)
	assert.InDelta(t, 0.7, cfg.Ollama.Temperature, 0.001)
	assert.InDelta(t, 0.9, cfg.Ollama.TopP, 0.001)
	assert.Equal(t, 2048, cfg.Ollama.NumPredict)
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Anthropic.Model)
	assert.Equal(t, "gemini-2.5-flash", cfg.Gemini.Model)
	assert.Equal(t, []string{"anthropic", "gemini", "ollama"}, cfg.Backends.Order)
	assert.Equal(t, 60*time.Second, cfg.Backends.HostedTimeout())
	assert.Equal(t, 120*time.Second, cfg.Backends.LocalTimeout())
	assert.Equal(t, 3, cfg.Backends.Breaker.FailureThreshold)
	assert.Equal(t, "native", cfg.Extract.Provider)
	assert.Equal(t, "timestamp", cfg.Session.KeyStrategy)
	assert.Equal(t, 150, cfg.Prompt.SummaryMaxWords)

	assert.NoError(t, cfg.Validate("serve"))
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
  database_url: sessions.db
log:
  level: debug
  format: console
server:
  port: 9090
session:
  key_strategy: uuid
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "sessions.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "uuid", cfg.Session.KeyStrategy)
	// Defaults still apply for unset values
	assert.Equal(t, 150, cfg.Prompt.SummaryMaxWords)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("ASSISTANT_STORE_DRIVER", "redis")
	t.Setenv("ASSISTANT_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "redis", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadLegacyEnv(t *testing.T) {
	chdirTemp(t)

	t.Setenv("OLLAMA_BASE_URL", "http://gpu-box:11434")
	t.Setenv("OLLAMA_MODEL", "mistral")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")
	t.Setenv("GOOGLE_API_KEY", "g-test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://gpu-box:11434", cfg.Ollama.BaseURL)
	assert.Equal(t, "mistral", cfg.Ollama.Model)
	assert.Equal(t, "sk-ant-test", cfg.Anthropic.Key)
	assert.Equal(t, "g-test", cfg.Gemini.Key)
}

func TestLoadPrefixedEnvWinsOverLegacy(t *testing.T) {
	chdirTemp(t)

	t.Setenv("OLLAMA_MODEL", "mistral")
	t.Setenv("ASSISTANT_OLLAMA_MODEL", "llama3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "llama3", cfg.Ollama.Model)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("ASSISTANT_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "memory"
	cfg.Backends.Order = []string{"anthropic", "ollama"}
	cfg.Backends.HostedTimeoutSecs = 60
	cfg.Backends.LocalTimeoutSecs = 120
	cfg.Extract.Provider = "native"
	cfg.Session.KeyStrategy = "timestamp"
	cfg.Prompt.SummaryMaxWords = 150
	cfg.Server.Port = 8000
	cfg.Server.MaxUploadMB = 20
	return cfg
}

func TestValidateServe_Valid(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("serve"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")

	// The CLI does not bind a port.
	assert.NoError(t, cfg.Validate("cli"))
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidateStore(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mongo"
	err := cfg.Validate("cli")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be one of")

	cfg.Store.Driver = "postgres"
	err = cfg.Validate("cli")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required for postgres")

	cfg.Store.DatabaseURL = "postgres://localhost/assistant"
	assert.NoError(t, cfg.Validate("cli"))

	cfg.Store.MaxConns = 2
	cfg.Store.MinConns = 5
	err = cfg.Validate("cli")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "min_conns <= max_conns")
}

func TestValidateEnumerations(t *testing.T) {
	cfg := validDefaults()
	cfg.Backends.Order = []string{"anthropic", "openai"}
	cfg.Extract.Provider = "mistral"
	cfg.Session.KeyStrategy = "counter"
	cfg.Prompt.SummaryMaxWords = 0

	err := cfg.Validate("cli")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown backend "openai"`)
	assert.Contains(t, err.Error(), "extract.provider must be one of")
	assert.Contains(t, err.Error(), "session.key_strategy must be one of")
	assert.Contains(t, err.Error(), "prompt.summary_max_words must be > 0")
}

func TestIsPlaceholder(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"", true},
		{"   ", true},
		{"your-openai-api-key-here", true},
		{"YOUR-ANTHROPIC-KEY-HERE", true},
		{"changeme", true},
		{"<api-key>", true},
		{"sk-ant-api03-abc", false},
		{"your-key", false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPlaceholder(tt.key))
		})
	}
}
