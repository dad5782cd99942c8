package entrypoint

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/database/users"
)

func TestCSRFKey(t *testing.T) {
	t.Run("derives stable key from secret", func(t *testing.T) {
		first, err := CSRFKey("my-secret")
		require.NoError(t, err)
		second, err := CSRFKey("my-secret")
		require.NoError(t, err)

		assert.Len(t, first, 32)
		assert.Equal(t, first, second)
	})

	t.Run("generates random key when secret is empty", func(t *testing.T) {
		first, err := CSRFKey("")
		require.NoError(t, err)
		second, err := CSRFKey("")
		require.NoError(t, err)

		assert.Len(t, first, 32)
		assert.NotEqual(t, first, second)
	})
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Database: config.Database{URL: filepath.Join(t.TempDir(), "library.db")},
		Auth:     config.Auth{BcryptCost: 4},
		Admin:    config.Admin{Username: "admin", Email: "admin@library.local"},
	}
}

func TestOpenDatabaseAndSessions(t *testing.T) {
	cfg := testConfig(t)

	db, err := OpenDatabase(cfg)
	require.NoError(t, err)
	defer db.Close()

	assert.True(t, db.IsSQLite())
	require.NoError(t, db.Ping())

	sessions, err := NewSessionManager(db, cfg.Auth)
	require.NoError(t, err)
	assert.NotNil(t, sessions.Store)

	var count int64
	require.NoError(t, db.DB.Raw("SELECT COUNT(*) FROM sessions").Scan(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestBootstrapAdmin(t *testing.T) {
	cfg := testConfig(t)
	db, err := OpenDatabase(cfg)
	require.NoError(t, err)
	defer db.Close()

	service := auth.NewService(users.NewRepository(db.DB), cfg.Auth)

	bootstrapAdmin(service, cfg.Admin)
	hasUsers, err := service.HasUsers()
	require.NoError(t, err)
	assert.False(t, hasUsers, "no password, no account")

	cfg.Admin.Password = "a-long-admin-password"
	bootstrapAdmin(service, cfg.Admin)
	bootstrapAdmin(service, cfg.Admin)

	user, err := service.Authenticate("admin", "a-long-admin-password")
	require.NoError(t, err)
	assert.True(t, user.IsAdmin)
}
