package http

import (
	"html/template"
	"net/http"

	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/scheduler"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Books     BookStore
	Recorder  EventRecorder
	Analytics AnalyticsReader
	Files     FileStore
	Database  DatabasePinger

	// UploadsRoot is served under /uploads/covers for cover images.
	UploadsRoot   string
	MaxUploadSize int64

	// Templates and static assets
	Templates *template.Template
	StaticFS  http.FileSystem

	// Authentication
	AuthService    *auth.Service
	SessionManager *auth.SessionManager
	AuthMiddleware *auth.Middleware
	RateLimiter    *auth.RateLimiter
	CSRFSecret     []byte // CSRF protection is skipped when empty
	SecureCookies  bool

	// Maintenance queue (optional)
	TaskQueue TaskQueue
	Scheduler *scheduler.MaintenanceScheduler

	// Application info
	Version string
}
