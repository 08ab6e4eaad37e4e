package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_DefaultsAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cleaner.yaml")
	content := `
catalog:
  path: /data/catalog.json
completion:
  model: gemini-pro
  call_delay: 1s
stage_delay: 500ms
batch_workers: 8
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Parse(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/catalog.json", cfg.Catalog.Path)
	assert.Equal(t, "data/outliers_province_district_ward.json", cfg.Catalog.OutliersPath)
	assert.Equal(t, "gemini-pro", cfg.Completion.Model)
	assert.Equal(t, time.Second, cfg.Completion.CallDelay)
	assert.Equal(t, 500*time.Millisecond, cfg.StageDelay)
	assert.Equal(t, 8, cfg.BatchWorkers)
	assert.Equal(t, 0.2, cfg.Completion.Generation.Temperature)
	assert.Equal(t, 20000, cfg.MaxBatchSize)
}

func TestParse_EnvOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "gk")
	t.Setenv("GEMINI_MODEL", "gemini-2.0-flash")
	t.Setenv("MAPS_API_KEY", "mk")
	t.Setenv("CLEANER_BATCH_WORKERS", "not-a-number")

	cfg, err := Parse("")
	require.NoError(t, err)

	assert.Equal(t, "gk", cfg.Completion.APIKey)
	assert.Equal(t, "gemini-2.0-flash", cfg.Completion.Model)
	assert.Equal(t, "mk", cfg.Geocode.APIKey)
	assert.Equal(t, 4, cfg.BatchWorkers)
}

func TestParse_MissingFile(t *testing.T) {
	_, err := Parse(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
