package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "logs", cfg.Audit.LogDir)
	assert.Equal(t, "heuristic", cfg.Moderation.Provider)
	assert.Equal(t, 10, cfg.Limits.MaxToolCalls)
	assert.Equal(t, 5, cfg.Limits.MaxModelCalls)
	assert.False(t, cfg.HITL.AllowAutoCritical)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.InDelta(t, 1.0, cfg.Scoring.WeightSum(), 1e-9)
	assert.Len(t, cfg.Scoring.Thresholds, 4)
}

func TestLoad_ConfigFileOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/riskflow
hitl:
  allow_auto_critical: true
moderation:
  provider: anthropic
limits:
  max_tool_calls: 3
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/riskflow", cfg.Store.DatabaseURL)
	assert.True(t, cfg.HITL.AllowAutoCritical)
	assert.Equal(t, "anthropic", cfg.Moderation.Provider)
	assert.Equal(t, 3, cfg.Limits.MaxToolCalls)
	// Untouched sections keep defaults.
	assert.Equal(t, 5, cfg.Limits.MaxModelCalls)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("RISKFLOW_LOG_LEVEL", "debug")
	t.Setenv("RISKFLOW_STORE_DRIVER", "none")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "none", cfg.Store.Driver)
}

func TestLoad_RejectsBadWeightSum(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	yaml := `
scoring:
  txn_count_weight: 0.9
  avg_txn_amount_weight: 0.9
  high_risk_country_weight: 0.2
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must sum to 1.0")
}

func TestInitLogger_InvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "shouting", Format: "json"})
	assert.Error(t, err)
}

func TestInitLogger_ConsoleFormat(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "warn", Format: "console"}))
}
