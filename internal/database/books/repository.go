// Package books provides database operations for the book catalog.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	book, err := repo.GetBookByID(123)
package books

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/library/internal/entities"
)

var ErrBookNotFound = errors.New("book not found")

// ListFilter narrows ListBooks results. Zero values mean no filtering.
type ListFilter struct {
	Query    string // Case-insensitive substring of title or author
	Category entities.Category
	Limit    int
}

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetBookByID retrieves a book by its ID together with its analytics row.
func (r *Repository) GetBookByID(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Preload("Analytics").First(&book, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	return &book, nil
}

// ListBooks returns books newest first.
func (r *Repository) ListBooks(filter ListFilter) ([]entities.Book, error) {
	query := r.db.Model(&entities.Book{}).Preload("Analytics")

	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(author) LIKE ?", pattern, pattern)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var books []entities.Book
	err := query.Order("created_at DESC, id DESC").Find(&books).Error
	return books, err
}

// RecentBooks returns the most recently created books.
func (r *Repository) RecentBooks(limit int) ([]entities.Book, error) {
	return r.ListBooks(ListFilter{Limit: limit})
}

// CountBooks returns the number of books in the catalog.
func (r *Repository) CountBooks() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Book{}).Count(&count).Error
	return count, err
}

// CreateBook inserts a book and its zeroed analytics row in one transaction.
func (r *Repository) CreateBook(book *entities.Book) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		book.Analytics = nil
		if err := tx.Create(book).Error; err != nil {
			return fmt.Errorf("create book: %w", err)
		}

		analytics := &entities.BookAnalytics{BookID: book.ID}
		if err := tx.Create(analytics).Error; err != nil {
			return fmt.Errorf("create analytics for book %d: %w", book.ID, err)
		}
		book.Analytics = analytics
		return nil
	})
}

// UpdateBook persists all editable fields of an existing book.
func (r *Repository) UpdateBook(book *entities.Book) error {
	result := r.db.Model(book).Select(
		"title", "author", "description", "publisher", "year", "isbn",
		"category", "book_url", "cover_path", "file_path", "updated_at",
	).Updates(book)
	if result.Error != nil {
		return fmt.Errorf("update book %d: %w", book.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrBookNotFound
	}
	return nil
}

// DeleteBook removes a book together with its analytics row and click events.
// The deleted book is returned so callers can clean up stored files.
func (r *Repository) DeleteBook(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&book, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookNotFound
			}
			return err
		}
		if err := tx.Where("book_id = ?", id).Delete(&entities.ClickEvent{}).Error; err != nil {
			return fmt.Errorf("delete click events: %w", err)
		}
		if err := tx.Where("book_id = ?", id).Delete(&entities.BookAnalytics{}).Error; err != nil {
			return fmt.Errorf("delete analytics: %w", err)
		}
		if err := tx.Delete(&entities.Book{}, id).Error; err != nil {
			return fmt.Errorf("delete book: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// FileReferences returns every cover and file path referenced by a book.
func (r *Repository) FileReferences() (map[string]struct{}, error) {
	var rows []struct {
		CoverPath string
		FilePath  string
	}
	err := r.db.Model(&entities.Book{}).
		Select("cover_path", "file_path").
		Where("cover_path <> '' OR file_path <> ''").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	refs := make(map[string]struct{}, len(rows)*2)
	for _, row := range rows {
		if row.CoverPath != "" {
			refs[row.CoverPath] = struct{}{}
		}
		if row.FilePath != "" {
			refs[row.FilePath] = struct{}{}
		}
	}
	return refs, nil
}
