package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 50.0, cfg.Tolerances.MinSegmentMM)
	assert.Equal(t, 250.0, cfg.Tolerances.FingerprintPosMM)
	assert.True(t, cfg.Tolerances.SplitContacts)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("STORE_DRIVER", "Postgres")
	t.Setenv("SNAP_TOL_MM", "25.5")
	t.Setenv("SPLIT_CONTACTS", "false")
	t.Setenv("READ_TIMEOUT", "not-a-number")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 25.5, cfg.Tolerances.SnapTolMM)
	assert.False(t, cfg.Tolerances.SplitContacts)
	assert.Equal(t, 10, cfg.ReadTimeout)
}
