package http

import (
	"context"
	"io"
	"time"

	"github.com/mrlokans/library/internal/database/analytics"
	"github.com/mrlokans/library/internal/database/books"
	"github.com/mrlokans/library/internal/entities"
)

// This file consolidates the store interfaces used by HTTP controllers.
// Each controller depends only on the methods it calls.

// BookGetter provides read access to a single book.
type BookGetter interface {
	GetBookByID(id uint) (*entities.Book, error)
}

// BookLister lists catalog books.
type BookLister interface {
	BookGetter
	ListBooks(filter books.ListFilter) ([]entities.Book, error)
}

// BookStore is the full catalog persistence used by the admin area.
type BookStore interface {
	BookLister
	RecentBooks(limit int) ([]entities.Book, error)
	CountBooks() (int64, error)
	CreateBook(book *entities.Book) error
	UpdateBook(book *entities.Book) error
	DeleteBook(id uint) (*entities.Book, error)
}

// EventRecorder records analytics events against books.
type EventRecorder interface {
	RecordEvent(ctx context.Context, bookID uint, kind entities.EventKind, meta entities.RequestMetadata) error
}

// AnalyticsReader provides the aggregate views shown to admins.
type AnalyticsReader interface {
	Totals() (analytics.Totals, error)
	BookStats() ([]analytics.BookStat, error)
	DailyCounts(since time.Time) ([]analytics.DailyCount, error)
	RecentEvents(limit int) ([]entities.ClickEvent, error)
}

// FileStore persists uploaded covers and book files.
type FileStore interface {
	Store(r io.Reader, originalName, subfolder string) (string, error)
	Remove(relativePath string) bool
	FullPath(relativePath string) (string, error)
}

// Flasher queues one-shot messages for the next rendered page.
type Flasher interface {
	AddFlash(ctx context.Context, category, message string)
}

// DatabasePinger checks database connectivity.
type DatabasePinger interface {
	Ping() error
}
