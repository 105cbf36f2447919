package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/danielpatrickdp/attrition-risk/internal/risk"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"ATTRITION_DB", "SCORER_ADDR", "ATTRITION_CATALOG", "GEMINI_API_KEY",
		"GEMINI_MODEL", "LOG_LEVEL", "PORT", "ATTRITION_THRESHOLD",
	} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "attrition.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 0.35, cfg.Risk.Threshold)
	assert.Equal(t, "localhost:50051", cfg.Scorer.Addr)
	assert.Equal(t, "attrition.db", cfg.Store.Path)
	assert.False(t, cfg.ChatEnabled())
}

func TestLoad_FileOverDefaults(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
scorer:
  addr: scorer:6000
risk:
  threshold: 0.5
chat:
  model: gemini-2.0-flash
  api_key: ignored
logging:
  format: console
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "scorer:6000", cfg.Scorer.Addr)
	assert.Equal(t, "10s", cfg.Scorer.Timeout, "unset keys keep defaults")
	assert.Equal(t, 0.5, cfg.Risk.Threshold)
	assert.Equal(t, "gemini-2.0-flash", cfg.Chat.Model)
	assert.Empty(t, cfg.Chat.APIKey, "api key is never read from the file")
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "scorer:\n  addr: from-file:1\nrisk:\n  threshold: 0.5\n")

	t.Setenv("SCORER_ADDR", "from-env:2")
	t.Setenv("ATTRITION_THRESHOLD", "0.2")
	t.Setenv("ATTRITION_DB", "/tmp/audit.db")
	t.Setenv("ATTRITION_CATALOG", "catalog.yaml")
	t.Setenv("GEMINI_API_KEY", "k")
	t.Setenv("PORT", "9000")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env:2", cfg.Scorer.Addr)
	assert.Equal(t, 0.2, cfg.Risk.Threshold)
	assert.Equal(t, "/tmp/audit.db", cfg.Store.Path)
	assert.Equal(t, "catalog.yaml", cfg.Catalog.Path)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.True(t, cfg.ChatEnabled())
}

func TestLoad_EnvAppliesWithoutFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("SCORER_ADDR", "env-only:1")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "env-only:1", cfg.Scorer.Addr)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		file string
		env  map[string]string
		want string
	}{
		{name: "bad yaml", file: "risk: [", want: "parse config"},
		{name: "percent threshold", file: "risk:\n  threshold: 35\n", want: "looks like a percentage"},
		{name: "negative threshold", file: "risk:\n  threshold: -0.1\n", want: "probability must be within"},
		{name: "non-numeric env threshold", env: map[string]string{"ATTRITION_THRESHOLD": "high"}, want: "ATTRITION_THRESHOLD"},
		{name: "bad timeout", file: "scorer:\n  timeout: soon\n", want: "scorer.timeout"},
		{name: "bad format", file: "logging:\n  format: xml\n", want: "logging.format"},
		{name: "empty scorer", file: "scorer:\n  addr: \"\"\n", want: "scorer.addr"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeFile(t, tt.file))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRiskConfig(t *testing.T) {
	cfg := Default()
	rc, err := cfg.RiskConfig()
	require.NoError(t, err)
	assert.Equal(t, risk.Probability(0.35), rc.Threshold)
}

func TestDurations(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 10*time.Second, cfg.ScorerTimeout())
	assert.Equal(t, 60*time.Second, cfg.ChatTimeout())
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout())

	cfg.Scorer.Timeout = ""
	assert.Equal(t, 10*time.Second, cfg.ScorerTimeout())
	cfg.Chat.Timeout = "2m"
	assert.Equal(t, 2*time.Minute, cfg.ChatTimeout())
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(LoggingConfig{Level: "warn", Format: "json"}, false)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	logger, err = NewLogger(LoggingConfig{Level: "warn", Format: "console"}, true)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	_, err = NewLogger(LoggingConfig{Level: "loud"}, false)
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SCORER_ADDR=dotenv:7\n"), 0o644))

	// t.Setenv("", ...) above leaves the variable set to empty, which godotenv
	// treats as already present.
	require.NoError(t, os.Unsetenv("SCORER_ADDR"))
	t.Cleanup(func() { os.Unsetenv("SCORER_ADDR") })

	LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env"))
	assert.Equal(t, "dotenv:7", os.Getenv("SCORER_ADDR"))
}
