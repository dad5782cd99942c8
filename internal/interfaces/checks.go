package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/library/internal/analytics"
	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/database"
	analyticsrepo "github.com/mrlokans/library/internal/database/analytics"
	"github.com/mrlokans/library/internal/database/books"
	"github.com/mrlokans/library/internal/database/users"
	"github.com/mrlokans/library/internal/http"
	"github.com/mrlokans/library/internal/scheduler"
	"github.com/mrlokans/library/internal/storage"
	"github.com/mrlokans/library/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

// Catalog
var _ http.BookStore = (*books.Repository)(nil)
var _ tasks.FileReferencer = (*books.Repository)(nil)

// Analytics
var _ analytics.EventStore = (*analyticsrepo.Repository)(nil)
var _ http.AnalyticsReader = (*analyticsrepo.Repository)(nil)
var _ tasks.AnalyticsBackfiller = (*analyticsrepo.Repository)(nil)
var _ http.EventRecorder = (*analytics.Recorder)(nil)

// Users
var _ auth.UserStore = (*users.Repository)(nil)
var _ auth.UserLoader = (*users.Repository)(nil)

// Health
var _ http.DatabasePinger = (*database.Database)(nil)

// =============================================================================
// File Storage
// =============================================================================

var _ http.FileStore = (*storage.FileStore)(nil)
var _ tasks.UploadStore = (*storage.FileStore)(nil)

// =============================================================================
// Sessions
// =============================================================================

var _ http.Flasher = (*auth.SessionManager)(nil)

// =============================================================================
// Maintenance Queue
// =============================================================================

var _ http.TaskQueue = (*tasks.Client)(nil)
var _ scheduler.TaskEnqueuer = (*tasks.Client)(nil)
