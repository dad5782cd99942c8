package entities

import (
	"time"
)

// Category is one of the fixed catalog categories offered by the book form.
type Category string

const (
	CategoryFiction    Category = "fiction"
	CategoryNonFiction Category = "non-fiction"
	CategoryScience    Category = "science"
	CategoryTechnology Category = "technology"
	CategoryBusiness   Category = "business"
	CategorySelfHelp   Category = "self-help"
	CategoryBiography  Category = "biography"
	CategoryHistory    Category = "history"
	CategoryOther      Category = "other"
)

// CategoryChoice pairs a category value with its display label.
type CategoryChoice struct {
	Value Category
	Label string
}

// Categories lists the categories in the order the form presents them.
var Categories = []CategoryChoice{
	{CategoryFiction, "Fiction"},
	{CategoryNonFiction, "Non-Fiction"},
	{CategoryScience, "Science"},
	{CategoryTechnology, "Technology"},
	{CategoryBusiness, "Business"},
	{CategorySelfHelp, "Self-Help"},
	{CategoryBiography, "Biography"},
	{CategoryHistory, "History"},
	{CategoryOther, "Other"},
}

// Label returns the display label, or the raw value for unknown categories.
func (c Category) Label() string {
	for _, choice := range Categories {
		if choice.Value == c {
			return choice.Label
		}
	}
	return string(c)
}

type Book struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"index;size:255;not null" json:"title"`
	Author      string    `gorm:"index;size:255;not null" json:"author"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	CoverPath   string    `gorm:"size:255" json:"cover_path,omitempty"` // Relative to the content root
	FilePath    string    `gorm:"size:255" json:"file_path,omitempty"`  // Relative to the content root
	BookURL     string    `gorm:"size:500" json:"book_url,omitempty"`   // External link
	Publisher   string    `gorm:"size:255" json:"publisher,omitempty"`
	Year        int       `json:"year,omitempty"` // 0 when unknown
	ISBN        string    `gorm:"size:20" json:"isbn,omitempty"`
	Category    Category  `gorm:"index;size:100" json:"category,omitempty"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Analytics *BookAnalytics `gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE" json:"analytics,omitempty"`
}

// IsDownloadable reports whether the book has a stored file or an external URL.
func (b *Book) IsDownloadable() bool {
	return b.FilePath != "" || b.BookURL != ""
}

// HasFile reports whether the book has a stored file.
func (b *Book) HasFile() bool {
	return b.FilePath != ""
}
