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

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "assess.db", cfg.Store.DatabaseURL)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 5, cfg.Batch.MaxConcurrentAssessments)
	assert.InDelta(t, 2, cfg.Scoring.GapScoreThreshold, 0.001)
	assert.Equal(t, 8, cfg.Scoring.RegulatoryEscalationMin)
	assert.Equal(t, 8, cfg.Scoring.ImmediateMinPriority)
	assert.Equal(t, 4, cfg.Scoring.NearTermMinPriority)
	assert.InDelta(t, 120, cfg.Scoring.HighlyRelevantMin, 0.001)
	assert.InDelta(t, 100, cfg.Scoring.GoodMatchMin, 0.001)
	assert.Equal(t, 3, cfg.Scoring.TopVendorsPerBucket)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/assess
log:
  level: debug
  format: console
server:
  port: 9090
scoring:
  gap_score_threshold: 1.5
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.InDelta(t, 1.5, cfg.Scoring.GapScoreThreshold, 0.001)
	// Defaults still apply for unset values
	assert.Equal(t, 3, cfg.Scoring.TopVendorsPerBucket)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: postgres
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("ASSESS_STORE_DRIVER", "sqlite")
	t.Setenv("ASSESS_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("ASSESS_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestScoringValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ScoringConfig)
		wantErr string
	}{
		{"defaults pass", func(*ScoringConfig) {}, ""},
		{"negative gap threshold", func(c *ScoringConfig) { c.GapScoreThreshold = -1 }, "gap_score_threshold"},
		{"gap threshold above scale", func(c *ScoringConfig) { c.GapScoreThreshold = 6 }, "gap_score_threshold"},
		{"immediate floor out of range", func(c *ScoringConfig) { c.ImmediateMinPriority = 11 }, "immediate_min_priority"},
		{"near term at immediate floor", func(c *ScoringConfig) { c.NearTermMinPriority = 8 }, "near_term_min_priority"},
		{"inverted match tiers", func(c *ScoringConfig) { c.GoodMatchMin = 130 }, "good_match_min"},
		{"negative vendor count", func(c *ScoringConfig) { c.TopVendorsPerBucket = -1 }, "top_vendors_per_bucket"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultScoring()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestScoringHash(t *testing.T) {
	a := DefaultScoring()
	b := DefaultScoring()
	assert.NotEmpty(t, a.Hash())
	assert.Equal(t, a.Hash(), b.Hash(), "identical configs hash identically")

	b.GapScoreThreshold = 1
	assert.NotEqual(t, a.Hash(), b.Hash(), "threshold change must change the hash")
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
