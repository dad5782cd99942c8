package entities

import "time"

// EventKind identifies what happened to a book.
type EventKind string

const (
	EventView     EventKind = "view"
	EventDownload EventKind = "download"
	EventShare    EventKind = "share"
)

// EventKinds is the closed set of recognized kinds.
var EventKinds = []EventKind{EventView, EventDownload, EventShare}

// counterColumns maps each recognized kind to its counter column in book_analytics.
var counterColumns = map[EventKind]string{
	EventView:     "view_count",
	EventDownload: "download_count",
	EventShare:    "share_count",
}

// CounterColumn returns the book_analytics column incremented by this kind.
// ok is false for unrecognized kinds, which move no counter.
func (k EventKind) CounterColumn() (column string, ok bool) {
	column, ok = counterColumns[k]
	return column, ok
}

// IsKnown reports whether k is one of the recognized kinds.
func (k EventKind) IsKnown() bool {
	_, ok := counterColumns[k]
	return ok
}

// BookAnalytics holds aggregate counters for one book.
type BookAnalytics struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	BookID        uint      `gorm:"uniqueIndex;not null" json:"book_id"`
	ViewCount     int64     `gorm:"not null;default:0" json:"view_count"`
	DownloadCount int64     `gorm:"not null;default:0" json:"download_count"`
	ShareCount    int64     `gorm:"not null;default:0" json:"share_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (BookAnalytics) TableName() string {
	return "book_analytics"
}

// Count returns the counter for kind, or 0 for unrecognized kinds.
func (a *BookAnalytics) Count(kind EventKind) int64 {
	switch kind {
	case EventView:
		return a.ViewCount
	case EventDownload:
		return a.DownloadCount
	case EventShare:
		return a.ShareCount
	}
	return 0
}

// MaxEventKindLength bounds the event_type column.
const MaxEventKindLength = 50

// ClickEvent is an append-only record of a single event against a book.
type ClickEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BookID    uint      `gorm:"index;not null" json:"book_id"`
	EventType EventKind `gorm:"index;size:50;not null" json:"event_type"`
	UserAgent string    `gorm:"size:255" json:"user_agent,omitempty"`
	IPAddress string    `gorm:"size:50" json:"ip_address,omitempty"`
	Referrer  string    `gorm:"size:255" json:"referrer,omitempty"`
	Timestamp time.Time `gorm:"index;not null" json:"timestamp"`

	Book *Book `gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE" json:"-"`
}

func (ClickEvent) TableName() string {
	return "click_events"
}

// RequestMetadata is the request information captured with each event.
type RequestMetadata struct {
	UserAgent string
	IPAddress string
	Referrer  string
}
