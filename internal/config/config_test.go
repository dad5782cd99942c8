package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, int32(8080), cfg.HTTP.Port)
	assert.Equal(t, "0.0.0.0", cfg.HTTP.Host)
	assert.Equal(t, DefaultDatabaseURL, cfg.Database.URL)
	assert.Equal(t, DefaultUploadDir, cfg.Uploads.Dir)
	assert.Equal(t, DefaultMaxUploadSize, cfg.Uploads.MaxSize)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionLifetime)
	assert.Equal(t, 5, cfg.Auth.MaxLoginAttempts)
	assert.Equal(t, "admin", cfg.Admin.Username)
	assert.False(t, cfg.Tasks.Enabled)
	assert.Equal(t, "0 3 * * *", cfg.Tasks.MaintenanceSchedule)
	assert.False(t, cfg.Global.IsProduction())
}

func TestNewConfig_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/library")
	t.Setenv("MAX_UPLOAD_SIZE", "1024")
	t.Setenv("ADMIN_PASSWORD", "correct-horse-battery")
	t.Setenv("TASKS_ENABLED", "true")

	cfg := NewConfig()

	assert.Equal(t, int32(9000), cfg.HTTP.Port)
	assert.Equal(t, "postgres://u:p@localhost:5432/library", cfg.Database.URL)
	assert.Equal(t, int64(1024), cfg.Uploads.MaxSize)
	assert.Equal(t, "correct-horse-battery", cfg.Admin.Password)
	assert.True(t, cfg.Tasks.Enabled)
}

func TestNewConfig_SecretKeyFallback(t *testing.T) {
	t.Run("prefers SECRET_KEY", func(t *testing.T) {
		t.Setenv("SECRET_KEY", "primary")
		t.Setenv("SESSION_SECRET", "secondary")
		assert.Equal(t, "primary", NewConfig().Auth.SecretKey)
	})

	t.Run("falls back to SESSION_SECRET", func(t *testing.T) {
		t.Setenv("SESSION_SECRET", "secondary")
		assert.Equal(t, "secondary", NewConfig().Auth.SecretKey)
	})
}

func TestNewConfig_Environment(t *testing.T) {
	t.Run("railway variable", func(t *testing.T) {
		t.Setenv("RAILWAY_ENVIRONMENT", "production")
		assert.True(t, NewConfig().Global.IsProduction())
	})

	t.Run("explicit environment wins", func(t *testing.T) {
		t.Setenv("RAILWAY_ENVIRONMENT", "production")
		t.Setenv("ENVIRONMENT", "staging")
		assert.Equal(t, "staging", NewConfig().Global.Environment)
	})
}
