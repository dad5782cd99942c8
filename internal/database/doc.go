// Package database provides the data access layer for the library.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, dialect selection, migrations
//	├── books/           # Catalog CRUD and stored file references
//	├── analytics/       # Per-book counters and the click event log
//	└── users/           # Admin accounts and login tracking
//
// # Dialects
//
// DATABASE_URL selects the backend. postgres:// and postgresql:// URLs use
// the PostgreSQL driver; anything else is a SQLite path, optionally with a
// sqlite:// prefix. SQLite connections enable foreign keys.
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type with domain-specific operations:
//
//	db, err := database.NewDatabase("./library.db", logger.Warn)
//
//	booksRepo := books.NewRepository(db.DB)
//	analyticsRepo := analytics.NewRepository(db.DB)
//
//	book, err := booksRepo.GetBookByID(1)
//	_, err = analyticsRepo.RecordEvent(ctx, book.ID, entities.EventView, meta)
//
// # Interface Implementations
//
//   - books.Repository: implements http.BookStore and tasks.FileReferencer
//   - analytics.Repository: implements analytics.EventStore, http.AnalyticsReader
//     and tasks.AnalyticsBackfiller
//   - users.Repository: implements auth.UserStore
package database
