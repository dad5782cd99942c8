package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Uploads
		Auth
		Admin
		Tasks
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		Environment              string
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		URL string // SQLite path, sqlite:// URL or postgres:// URL
	}
	Uploads struct {
		Dir     string // Content root
		MaxSize int64  // Maximum request body size in bytes
	}
	Auth struct {
		SecretKey       string
		SessionLifetime time.Duration
		BcryptCost      int
		SecureCookies   bool // Set to false for local dev without HTTPS

		// Rate limiting configuration
		MaxLoginAttempts int           // Max failed attempts before lockout (default: 5)
		RateLimitWindow  time.Duration // Time window for counting attempts (default: 15m)
		LockoutDuration  time.Duration // How long to lock out (default: 30m)
	}
	// Admin holds the bootstrap credentials used by out-of-band provisioning.
	Admin struct {
		Username string
		Email    string
		Password string
	}
	Tasks struct {
		Enabled             bool
		DatabasePath        string
		Workers             int
		ReleaseAfter        time.Duration
		CleanupInterval     time.Duration
		MaintenanceSchedule string // Cron format: "0 3 * * *" = daily at 03:00
		OrphanMinAge        time.Duration
	}
)

// IsProduction reports whether the app runs with production defaults.
func (g Global) IsProduction() bool {
	return g.Environment == EnvironmentProduction
}

// getSecretKey returns the session secret, checking both supported env vars.
func getSecretKey(v *viper.Viper) string {
	if key := v.GetString("SECRET_KEY"); key != "" {
		return key
	}
	return v.GetString("SESSION_SECRET")
}

// getEnvironment prefers ENVIRONMENT and falls back to the Railway variable.
func getEnvironment(v *viper.Viper) string {
	if env := v.GetString("ENVIRONMENT"); env != "" {
		return env
	}
	if env := v.GetString("RAILWAY_ENVIRONMENT"); env != "" {
		return env
	}
	return "development"
}

// LoadDotEnv loads a .env file from the working directory if one exists.
// Variables already present in the environment win.
func LoadDotEnv() {
	if err := godotenv.Load(); err == nil {
		log.Printf("Loaded environment from .env")
	}
}

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8080)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("database_url", DefaultDatabaseURL)
	v.SetDefault("upload_dir", DefaultUploadDir)
	v.SetDefault("max_upload_size", DefaultMaxUploadSize)

	// Auth defaults
	v.SetDefault("session_lifetime", "24h")
	v.SetDefault("bcrypt_cost", 12)
	v.SetDefault("secure_cookies", false)
	v.SetDefault("login_max_attempts", 5)
	v.SetDefault("login_rate_limit_window", "15m")
	v.SetDefault("login_lockout_duration", "30m")

	// Admin provisioning defaults
	v.SetDefault("admin_username", "admin")
	v.SetDefault("admin_email", "admin@library.local")

	// Maintenance queue defaults
	v.SetDefault("tasks_enabled", false)
	v.SetDefault("tasks_database_path", DefaultTasksDatabasePath)
	v.SetDefault("task_workers", 1)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("maintenance_schedule", "0 3 * * *")
	v.SetDefault("orphan_min_age", "1h")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			Environment:              getEnvironment(v),
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			URL: v.GetString("DATABASE_URL"),
		},
		Uploads: Uploads{
			Dir:     v.GetString("UPLOAD_DIR"),
			MaxSize: v.GetInt64("MAX_UPLOAD_SIZE"),
		},
		Auth: Auth{
			SecretKey:        getSecretKey(v),
			SessionLifetime:  v.GetDuration("SESSION_LIFETIME"),
			BcryptCost:       v.GetInt("BCRYPT_COST"),
			SecureCookies:    v.GetBool("SECURE_COOKIES"),
			MaxLoginAttempts: v.GetInt("LOGIN_MAX_ATTEMPTS"),
			RateLimitWindow:  v.GetDuration("LOGIN_RATE_LIMIT_WINDOW"),
			LockoutDuration:  v.GetDuration("LOGIN_LOCKOUT_DURATION"),
		},
		Admin: Admin{
			Username: v.GetString("ADMIN_USERNAME"),
			Email:    v.GetString("ADMIN_EMAIL"),
			Password: v.GetString("ADMIN_PASSWORD"),
		},
		Tasks: Tasks{
			Enabled:             v.GetBool("TASKS_ENABLED"),
			DatabasePath:        v.GetString("TASKS_DATABASE_PATH"),
			Workers:             v.GetInt("TASK_WORKERS"),
			ReleaseAfter:        v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:     v.GetDuration("TASK_CLEANUP_INTERVAL"),
			MaintenanceSchedule: v.GetString("MAINTENANCE_SCHEDULE"),
			OrphanMinAge:        v.GetDuration("ORPHAN_MIN_AGE"),
		},
	}
}
