package bootstrap

import (
	"testing"

	"github.com/address-cleaner/app/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLogger(t *testing.T) {
	for _, env := range []string{"production", "development", ""} {
		logger, err := NewLogger(env)
		require.NoError(t, err, env)
		assert.NotNil(t, logger)
	}
}

func TestNewCleaner(t *testing.T) {
	cfg := config.Default()
	cfg.Catalog.Path = "../catalog/testdata/province_district_ward.json"
	cfg.Catalog.OutliersPath = "../catalog/testdata/outliers_province_district_ward.json"

	cleaner, err := NewCleaner(cfg, zap.NewNop(), nil)
	require.NoError(t, err)
	assert.Equal(t, 4, cleaner.Catalog().Stats().Provinces)
}

func TestNewCleaner_BadCatalog(t *testing.T) {
	cfg := config.Default()
	cfg.Catalog.Path = "does-not-exist.json"

	_, err := NewCleaner(cfg, zap.NewNop(), nil)
	assert.Error(t, err)
}
