// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - BookStore: Catalog reads and admin CRUD (internal/http/stores.go)
//   - AnalyticsReader: Dashboard aggregates (internal/http/stores.go)
//   - EventStore: Atomic counter upsert plus event append (internal/analytics/recorder.go)
//   - UserStore / UserLoader: Admin accounts (internal/auth)
//
// ## Request Handling Interfaces
//
//   - EventRecorder: Records view, download and share events (internal/http/stores.go)
//   - FileStore: Saves and removes uploads (internal/http/stores.go)
//   - Flasher: Queues one-shot messages in the session (internal/http/stores.go)
//   - DatabasePinger: Health check (internal/http/stores.go)
//
// ## Maintenance Interfaces
//
//   - TaskQueue / TaskEnqueuer: backlite queue access (internal/http/tasks.go, internal/scheduler)
//   - UploadStore / FileReferencer: Orphan sweep inputs (internal/tasks/sweep_orphans.go)
//   - AnalyticsBackfiller: Missing counter rows (internal/tasks/backfill_analytics.go)
//
// # Implementations
//
// See checks.go for the compile-time assertions tying each interface to its
// concrete type.
package interfaces
