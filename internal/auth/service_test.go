package auth

import (
	"bytes"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/database/users"
	"github.com/mrlokans/library/internal/entities"
)

const testPassword = "correct-horse-battery"

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "auth.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := db.AutoMigrate(&entities.User{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return db
}

func testAuthConfig() config.Auth {
	return config.Auth{
		SessionLifetime:  24 * time.Hour,
		BcryptCost:       4, // Low cost for faster tests
		MaxLoginAttempts: 5,
		RateLimitWindow:  15 * time.Minute,
		LockoutDuration:  30 * time.Minute,
	}
}

func setupService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	return NewService(users.NewRepository(db), testAuthConfig()), db
}

func TestService_CreateUser(t *testing.T) {
	svc, _ := setupService(t)

	tests := []struct {
		name     string
		username string
		email    string
		password string
		wantErr  error
	}{
		{
			name:     "valid admin user",
			username: "admin",
			email:    "admin@example.com",
			password: testPassword,
		},
		{
			name:     "missing username",
			email:    "test@example.com",
			password: testPassword,
			wantErr:  ErrUsernameRequired,
		},
		{
			name:     "missing email",
			username: "testuser",
			password: testPassword,
			wantErr:  ErrEmailRequired,
		},
		{
			name:     "missing password",
			username: "testuser",
			email:    "test@example.com",
			wantErr:  ErrPasswordRequired,
		},
		{
			name:     "password too short",
			username: "testuser",
			email:    "test@example.com",
			password: "short",
			wantErr:  ErrPasswordTooShort,
		},
		{
			name:     "invalid username",
			username: "a b",
			email:    "test@example.com",
			password: testPassword,
			wantErr:  ErrUsernameInvalid,
		},
		{
			name:     "invalid email",
			username: "testuser",
			email:    "not-an-email",
			password: testPassword,
			wantErr:  ErrEmailInvalid,
		},
		{
			name:     "duplicate username",
			username: "admin",
			email:    "other@example.com",
			password: testPassword,
			wantErr:  ErrUserExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := svc.CreateUser(tt.username, tt.email, tt.password, true)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("CreateUser() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr == nil {
				if user.ID == 0 {
					t.Error("expected user to be persisted")
				}
				if user.PasswordHash == tt.password {
					t.Error("password must be stored hashed")
				}
			}
		})
	}
}

func TestService_ProvisionAdminIsIdempotent(t *testing.T) {
	svc, _ := setupService(t)

	first, created, err := svc.ProvisionAdmin("admin", "admin@example.com", testPassword)
	if err != nil {
		t.Fatalf("ProvisionAdmin() error = %v", err)
	}
	if !created || !first.IsAdmin {
		t.Fatalf("expected a new admin, got created=%v admin=%v", created, first.IsAdmin)
	}

	second, created, err := svc.ProvisionAdmin("admin", "admin@example.com", "a-different-password")
	if err != nil {
		t.Fatalf("second ProvisionAdmin() error = %v", err)
	}
	if created {
		t.Error("second call must not create a user")
	}
	if second.ID != first.ID {
		t.Errorf("expected existing user %d, got %d", first.ID, second.ID)
	}

	hasUsers, err := svc.HasUsers()
	if err != nil || !hasUsers {
		t.Errorf("HasUsers() = %v, %v", hasUsers, err)
	}
}

func TestService_Authenticate(t *testing.T) {
	svc, _ := setupService(t)

	if _, err := svc.CreateUser("admin", "admin@example.com", testPassword, true); err != nil {
		t.Fatalf("failed to create admin: %v", err)
	}
	if _, err := svc.CreateUser("reader", "reader@example.com", testPassword, false); err != nil {
		t.Fatalf("failed to create reader: %v", err)
	}

	t.Run("valid admin credentials", func(t *testing.T) {
		user, err := svc.Authenticate("admin", testPassword)
		if err != nil {
			t.Fatalf("Authenticate() error = %v", err)
		}
		if user.LastLoginAt == nil {
			t.Error("expected last login to be recorded")
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Authenticate("admin", "wrong-password-123")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("unknown user looks the same as wrong password", func(t *testing.T) {
		_, err := svc.Authenticate("ghost", testPassword)
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("non-admin rejected", func(t *testing.T) {
		_, err := svc.Authenticate("reader", testPassword)
		if !errors.Is(err, ErrNotAdmin) {
			t.Errorf("expected ErrNotAdmin, got %v", err)
		}
	})
}

func TestService_AccountLockout(t *testing.T) {
	svc, db := setupService(t)

	if _, err := svc.CreateUser("admin", "admin@example.com", testPassword, true); err != nil {
		t.Fatalf("failed to create admin: %v", err)
	}

	for i := 0; i < 5; i++ {
		if _, err := svc.Authenticate("admin", "wrong-password-123"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i+1, err)
		}
	}

	if _, err := svc.Authenticate("admin", testPassword); !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("expected ErrAccountLocked, got %v", err)
	}

	// Lock expires
	svc.now = func() time.Time { return time.Now().Add(31 * time.Minute) }
	if _, err := svc.Authenticate("admin", testPassword); err != nil {
		t.Fatalf("expected login after lockout expiry, got %v", err)
	}

	var user entities.User
	if err := db.Where("username = ?", "admin").First(&user).Error; err != nil {
		t.Fatalf("failed to reload user: %v", err)
	}
	if user.FailedLoginCount != 0 || user.LockedUntil != nil {
		t.Errorf("expected lockout state to be reset, got count=%d locked=%v", user.FailedLoginCount, user.LockedUntil)
	}
}

// failureStore loses every login failure write.
type failureStore struct {
	*users.Repository
}

func (failureStore) RecordLoginFailure(uint, int, *time.Time) error {
	return errors.New("disk I/O error")
}

func TestService_LogsLostLoginFailure(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(failureStore{users.NewRepository(db)}, testAuthConfig())
	if _, err := svc.CreateUser("admin", "admin@example.com", testPassword, true); err != nil {
		t.Fatalf("failed to create admin: %v", err)
	}

	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	if _, err := svc.Authenticate("admin", "wrong-password-123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "[AUTH]") || !strings.Contains(out, "disk I/O error") {
		t.Errorf("expected logged persistence error, got %q", out)
	}
}
