// Package analytics records book usage events on top of the analytics
// repository and extracts the request metadata stored with each event.
package analytics

import (
	"context"
	"log"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/mrlokans/library/internal/entities"
)

const (
	maxUserAgentLength = 255
	maxReferrerLength  = 255
	maxIPAddressLength = 50
)

// EventStore is the persistence the recorder needs.
type EventStore interface {
	RecordEvent(ctx context.Context, bookID uint, kind entities.EventKind, meta entities.RequestMetadata) (*entities.ClickEvent, error)
}

// Recorder writes analytics events. It is safe for concurrent use; the
// store's transaction is the only coordination.
type Recorder struct {
	store EventStore
}

func NewRecorder(store EventStore) *Recorder {
	return &Recorder{store: store}
}

// RecordEvent increments the counter for kind on bookID and appends the
// event to the log in one transaction. Unrecognized kinds are logged and
// recorded without moving any counter.
func (r *Recorder) RecordEvent(ctx context.Context, bookID uint, kind entities.EventKind, meta entities.RequestMetadata) error {
	if !kind.IsKnown() {
		log.Printf("[ANALYTICS] Warning: unrecognized event kind %q for book %d, logging without counter update", kind, bookID)
	}

	if _, err := r.store.RecordEvent(ctx, bookID, kind, normalize(meta)); err != nil {
		log.Printf("[ANALYTICS] Failed to record %s for book %d: %v", kind, bookID, err)
		return err
	}
	return nil
}

// MetadataFromRequest captures the user agent, client IP and referrer.
// clientIP is passed in so callers can apply their own proxy trust rules.
func MetadataFromRequest(r *http.Request, clientIP string) entities.RequestMetadata {
	return entities.RequestMetadata{
		UserAgent: r.UserAgent(),
		IPAddress: clientIP,
		Referrer:  r.Referer(),
	}
}

func normalize(meta entities.RequestMetadata) entities.RequestMetadata {
	return entities.RequestMetadata{
		UserAgent: truncate(strings.TrimSpace(meta.UserAgent), maxUserAgentLength),
		IPAddress: truncate(strings.TrimSpace(meta.IPAddress), maxIPAddressLength),
		Referrer:  truncate(strings.TrimSpace(meta.Referrer), maxReferrerLength),
	}
}

// truncate drops invalid UTF-8 and cuts s to at most limit bytes without
// splitting a rune.
func truncate(s string, limit int) string {
	s = strings.ToValidUTF8(s, "")
	if len(s) <= limit {
		return s
	}
	s = s[:limit]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
