package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultEnablesEveryDetector(t *testing.T) {
	cfg := Default()

	assert.True(t, cfg.Detectors.Contrast.Enabled)
	assert.True(t, cfg.Detectors.Typography.Enabled)
	assert.True(t, cfg.Detectors.TapTarget.Enabled)
	assert.True(t, cfg.Detectors.Overlap.Enabled)
	assert.True(t, cfg.Detectors.Density.Enabled)
	assert.True(t, cfg.Detectors.Alignment.Enabled)
}

func TestDefaultThresholds(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 4.5, cfg.Detectors.Contrast.AANormal)
	assert.Equal(t, 3.0, cfg.Detectors.Contrast.AALarge)
	assert.Equal(t, 7.0, cfg.Detectors.Contrast.AAANormal)
	assert.Equal(t, 2.0, cfg.Detectors.Contrast.HighMargin)
	assert.Equal(t, 16.0, cfg.Detectors.Typography.MinSizeDesktop)
	assert.Equal(t, 14.0, cfg.Detectors.Typography.MinSizeMobile)
	assert.Equal(t, 44.0, cfg.Detectors.TapTarget.MinSizePx)
	assert.Equal(t, 32.0, cfg.Detectors.TapTarget.CriticalSize)
	assert.Equal(t, 0.10, cfg.Detectors.Overlap.MinRatio)
	assert.Equal(t, 20, cfg.Detectors.Density.MaxInteractive)
	assert.Equal(t, 8.0, cfg.Detectors.Alignment.MaxDeviation)

	assert.Equal(t, 21600, cfg.Cache.TTLSeconds)
	assert.Equal(t, 30*time.Second, cfg.Analysis.UnitBudget)
	require.Len(t, cfg.Analysis.Viewports, 3)
	assert.Equal(t, []string{"t1", "t2"}, cfg.Analysis.Timings)
}

func TestDefaultScoringWeightsSum(t *testing.T) {
	cfg := Default()
	sum := cfg.Scoring.Contrast + cfg.Scoring.Typography + cfg.Scoring.TapTarget +
		cfg.Scoring.Overlap + cfg.Scoring.Density + cfg.Scoring.Alignment
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestLoadAppliesDefaultsAndOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
server:
  addr: ":9090"
detectors:
  contrast:
    enabled: true
    aa_normal: 5.0
cache:
  ttl_seconds: 600
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 5.0, cfg.Detectors.Contrast.AANormal)
	assert.Equal(t, 600, cfg.Cache.TTLSeconds)
	// unset values fall back to defaults
	assert.Equal(t, 3.0, cfg.Detectors.Contrast.AALarge)
	assert.Equal(t, 30*time.Second, cfg.Analysis.UnitBudget)
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("CLARITY_REDIS_ADDR", "redis.internal:6379")

	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
redis:
  addr: "${CLARITY_REDIS_ADDR}"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "redis.internal:6379", cfg.Redis.Addr)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
