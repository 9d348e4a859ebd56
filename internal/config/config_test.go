package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg := Load()

	assert.Equal(t, "memory", cfg.StoreBackend)
	assert.Equal(t, "eduscan", cfg.StoreNamespace)
	assert.Equal(t, 4500*time.Millisecond, cfg.ScanCooldown)
	assert.Equal(t, 2*time.Second, cfg.ScanReopenDelay)
	assert.False(t, cfg.DayCloseDeliver)
	assert.False(t, cfg.RequireDeviceToken)
	assert.False(t, cfg.CloudinaryEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORE_BACKEND", "sqlite")
	t.Setenv("STORE_NAMESPACE", "school-b")
	t.Setenv("SCAN_COOLDOWN", "4s")
	t.Setenv("SCAN_REOPEN_DELAY", "not-a-duration")
	t.Setenv("DAY_CLOSE_DELIVER", "1")
	t.Setenv("RATE_LIMIT_PER_MIN", "30")
	t.Setenv("SCHOOL_TZ", "America/Lima")

	cfg := Load()
	assert.Equal(t, "sqlite", cfg.StoreBackend)
	assert.Equal(t, "school-b", cfg.StoreNamespace)
	assert.Equal(t, 4*time.Second, cfg.ScanCooldown)
	assert.Equal(t, 2*time.Second, cfg.ScanReopenDelay)
	assert.True(t, cfg.DayCloseDeliver)
	assert.Equal(t, 30, cfg.RateLimitPerMin)
	assert.Equal(t, "America/Lima", cfg.Location().String())
}

func TestLocation_InvalidFallsBackToLocal(t *testing.T) {
	cfg := App{SchoolTZ: "Mars/Olympus"}
	assert.Equal(t, time.Local, cfg.Location())
}
