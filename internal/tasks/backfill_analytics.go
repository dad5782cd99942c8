package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// AnalyticsBackfiller creates missing per-book counter rows.
type AnalyticsBackfiller interface {
	EnsureRows() (int64, error)
}

// BackfillAnalyticsTask gives every book a zeroed counter row. Books created
// before counters existed, or through direct inserts, would otherwise only
// get one on their first event.
type BackfillAnalyticsTask struct{}

// Config returns the queue configuration for the backfill.
func (t BackfillAnalyticsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "backfill_analytics",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// BackfillAnalyticsProcessor creates a processor function for BackfillAnalyticsTask.
func BackfillAnalyticsProcessor(backfiller AnalyticsBackfiller) backlite.QueueProcessor[BackfillAnalyticsTask] {
	return func(ctx context.Context, task BackfillAnalyticsTask) error {
		if backfiller == nil {
			return fmt.Errorf("analytics backfiller not configured")
		}

		created, err := backfiller.EnsureRows()
		if err != nil {
			return fmt.Errorf("backfill analytics: %w", err)
		}

		log.Printf("[TASK] Created %d missing analytics rows", created)
		return nil
	}
}

// NewBackfillAnalyticsQueue creates a backlite queue for the backfill.
func NewBackfillAnalyticsQueue(backfiller AnalyticsBackfiller) backlite.Queue {
	return backlite.NewQueue(BackfillAnalyticsProcessor(backfiller))
}
