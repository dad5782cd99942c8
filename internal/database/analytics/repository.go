// Package analytics provides database operations for book usage counters
// and the append-only click event log.
//
// # Recording
//
// RecordEvent is the only write path. It runs a single transaction that
// checks the book exists, upserts the book's counter row with the store's
// native ON CONFLICT clause and appends a ClickEvent. If any step fails
// neither write is kept.
//
//	repo := analytics.NewRepository(db)
//	event, err := repo.RecordEvent(ctx, 7, entities.EventDownload, meta)
package analytics

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/library/internal/database/books"
	"github.com/mrlokans/library/internal/entities"
)

// ErrBookNotFound is returned when an event targets a missing book.
var ErrBookNotFound = books.ErrBookNotFound

// Totals are the catalog-wide sums of each counter.
type Totals struct {
	Views     int64
	Downloads int64
	Shares    int64
}

// BookStat is a book joined with its counters.
type BookStat struct {
	BookID        uint
	Title         string
	Author        string
	ViewCount     int64
	DownloadCount int64
	ShareCount    int64
}

// DailyCount is the number of events of one kind on one UTC day.
type DailyCount struct {
	Day       string // YYYY-MM-DD
	EventType entities.EventKind
	Count     int64
}

// Repository handles analytics database operations.
type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRepository creates a new analytics repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// RecordEvent bumps the counter for kind on bookID and appends a ClickEvent.
// Unrecognized kinds are appended to the log and move no counter.
func (r *Repository) RecordEvent(ctx context.Context, bookID uint, kind entities.EventKind, meta entities.RequestMetadata) (*entities.ClickEvent, error) {
	now := r.now().UTC()
	event := &entities.ClickEvent{
		BookID:    bookID,
		EventType: kind,
		UserAgent: meta.UserAgent,
		IPAddress: meta.IPAddress,
		Referrer:  meta.Referrer,
		Timestamp: now,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var book entities.Book
		if err := tx.Select("id").First(&book, bookID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookNotFound
			}
			return fmt.Errorf("failed to load book: %w", err)
		}

		if err := upsertCounter(tx, bookID, kind, now); err != nil {
			return fmt.Errorf("failed to update counters: %w", err)
		}

		if err := tx.Create(event).Error; err != nil {
			return fmt.Errorf("failed to append event: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

// upsertCounter inserts the row with the counter already at 1, or increments
// the existing row in place.
func upsertCounter(tx *gorm.DB, bookID uint, kind entities.EventKind, now time.Time) error {
	row := entities.BookAnalytics{BookID: bookID, CreatedAt: now, UpdatedAt: now}

	column, ok := kind.CounterColumn()
	if !ok {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "book_id"}},
			DoNothing: true,
		}).Create(&row).Error
	}

	switch kind {
	case entities.EventView:
		row.ViewCount = 1
	case entities.EventDownload:
		row.DownloadCount = 1
	case entities.EventShare:
		row.ShareCount = 1
	}

	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "book_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			column:       gorm.Expr("book_analytics." + column + " + 1"),
			"updated_at": now,
		}),
	}).Create(&row).Error
}

// GetByBookID returns the counters for a book. A book without a row yet
// reports zero counters.
func (r *Repository) GetByBookID(bookID uint) (*entities.BookAnalytics, error) {
	var row entities.BookAnalytics
	err := r.db.Where("book_id = ?", bookID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &entities.BookAnalytics{BookID: bookID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Totals sums every counter across the catalog.
func (r *Repository) Totals() (Totals, error) {
	var totals Totals
	err := r.db.Model(&entities.BookAnalytics{}).
		Select("COALESCE(SUM(view_count), 0) AS views, " +
			"COALESCE(SUM(download_count), 0) AS downloads, " +
			"COALESCE(SUM(share_count), 0) AS shares").
		Scan(&totals).Error
	return totals, err
}

// BookStats lists every book with its counters, most viewed first.
func (r *Repository) BookStats() ([]BookStat, error) {
	var stats []BookStat
	err := r.db.Table("books").
		Select("books.id AS book_id, books.title, books.author, " +
			"COALESCE(book_analytics.view_count, 0) AS view_count, " +
			"COALESCE(book_analytics.download_count, 0) AS download_count, " +
			"COALESCE(book_analytics.share_count, 0) AS share_count").
		Joins("LEFT JOIN book_analytics ON book_analytics.book_id = books.id").
		Order("view_count DESC, books.id ASC").
		Scan(&stats).Error
	return stats, err
}

// DailyCounts returns per-day per-kind counts for events at or after since.
// Bucketing happens here rather than in SQL so that SQLite and PostgreSQL
// agree on day boundaries.
func (r *Repository) DailyCounts(since time.Time) ([]DailyCount, error) {
	var events []entities.ClickEvent
	err := r.db.Select("event_type", "timestamp").
		Where("timestamp >= ?", since.UTC()).
		Find(&events).Error
	if err != nil {
		return nil, err
	}

	type key struct {
		day  string
		kind entities.EventKind
	}
	buckets := make(map[key]int64)
	for _, e := range events {
		buckets[key{e.Timestamp.UTC().Format("2006-01-02"), e.EventType}]++
	}

	counts := make([]DailyCount, 0, len(buckets))
	for k, n := range buckets {
		counts = append(counts, DailyCount{Day: k.day, EventType: k.kind, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Day != counts[j].Day {
			return counts[i].Day < counts[j].Day
		}
		return counts[i].EventType < counts[j].EventType
	})
	return counts, nil
}

// RecentEvents returns the latest events with their books attached.
func (r *Repository) RecentEvents(limit int) ([]entities.ClickEvent, error) {
	var events []entities.ClickEvent
	err := r.db.Preload("Book").
		Order("timestamp DESC, id DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

// CountEvents returns how many log rows reference bookID.
func (r *Repository) CountEvents(bookID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entities.ClickEvent{}).Where("book_id = ?", bookID).Count(&count).Error
	return count, err
}

// EnsureRows creates zeroed counter rows for books that have none and
// returns how many were created.
func (r *Repository) EnsureRows() (int64, error) {
	var missing []uint
	err := r.db.Table("books").
		Select("books.id").
		Joins("LEFT JOIN book_analytics ON book_analytics.book_id = books.id").
		Where("book_analytics.id IS NULL").
		Pluck("books.id", &missing).Error
	if err != nil {
		return 0, fmt.Errorf("failed to find books without analytics: %w", err)
	}
	if len(missing) == 0 {
		return 0, nil
	}

	now := r.now().UTC()
	rows := make([]entities.BookAnalytics, 0, len(missing))
	for _, id := range missing {
		rows = append(rows, entities.BookAnalytics{BookID: id, CreatedAt: now, UpdatedAt: now})
	}

	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "book_id"}},
		DoNothing: true,
	}).Create(&rows)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to create analytics rows: %w", result.Error)
	}
	return result.RowsAffected, nil
}
