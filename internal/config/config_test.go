package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 20, cfg.Catalog.PageSize)
	assert.Equal(t, 3, cfg.Catalog.MaxActiveFilters)
	assert.Equal(t, 5, cfg.Catalog.MaxExcludedPerCategory)
	assert.Equal(t, "year,desc", cfg.Catalog.DefaultSort)
	assert.Equal(t, 50, cfg.Cache.MaxEntries)
	assert.Equal(t, 300000, cfg.Cache.TTLMillis)
	assert.True(t, cfg.Cache.RefreshOnAccess)
	assert.False(t, cfg.IsConfigured())
}

func TestDefaultYears(t *testing.T) {
	c := CatalogConfig{YearFrom: 1900, YearTo: 2030}
	assert.Equal(t, "1900-2030", c.DefaultYears())
}

func TestIsConfigured(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.URL = "https://catalog.example.com"
	assert.False(t, cfg.IsConfigured())
	cfg.Server.APIKey = "key"
	assert.True(t, cfg.IsConfigured())
}
