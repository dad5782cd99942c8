package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/storage"
)

// UploadStore is the file storage the sweep inspects.
type UploadStore interface {
	ListFiles(subfolder string) ([]storage.FileInfo, error)
	Remove(relativePath string) bool
}

// FileReferencer reports which stored paths are still referenced by books.
type FileReferencer interface {
	FileReferences() (map[string]struct{}, error)
}

// SweepResult summarizes one orphan sweep.
type SweepResult struct {
	Scanned int
	Removed int
	Skipped int // Orphans left alone because they are too new
}

// SweepOrphanUploads removes stored covers and book files that no book
// references. Files younger than minAge are kept.
func SweepOrphanUploads(files UploadStore, refs FileReferencer, minAge time.Duration, now time.Time) (SweepResult, error) {
	var result SweepResult

	referenced, err := refs.FileReferences()
	if err != nil {
		return result, fmt.Errorf("load file references: %w", err)
	}

	for _, subfolder := range []string{config.CoversSubfolder, config.BooksSubfolder} {
		stored, err := files.ListFiles(subfolder)
		if err != nil {
			return result, fmt.Errorf("list %s: %w", subfolder, err)
		}

		for _, file := range stored {
			result.Scanned++
			if _, ok := referenced[file.Path]; ok {
				continue
			}
			if now.Sub(file.ModifiedAt) < minAge {
				result.Skipped++
				continue
			}
			if files.Remove(file.Path) {
				result.Removed++
			}
		}
	}

	return result, nil
}

// SweepOrphanUploadsTask deletes uploads no longer referenced by any book.
type SweepOrphanUploadsTask struct{}

// Config returns the queue configuration for the sweep.
func (t SweepOrphanUploadsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "sweep_orphan_uploads",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// SweepOrphanUploadsProcessor creates a processor function for SweepOrphanUploadsTask.
func SweepOrphanUploadsProcessor(files UploadStore, refs FileReferencer, minAge time.Duration) backlite.QueueProcessor[SweepOrphanUploadsTask] {
	return func(ctx context.Context, task SweepOrphanUploadsTask) error {
		if files == nil || refs == nil {
			return fmt.Errorf("orphan sweep not configured")
		}

		result, err := SweepOrphanUploads(files, refs, minAge, time.Now())
		if err != nil {
			return fmt.Errorf("sweep orphan uploads: %w", err)
		}

		log.Printf("[TASK] Orphan sweep scanned %d files, removed %d, kept %d recent",
			result.Scanned, result.Removed, result.Skipped)
		return nil
	}
}

// NewSweepOrphanUploadsQueue creates a backlite queue for the orphan sweep.
func NewSweepOrphanUploadsQueue(files UploadStore, refs FileReferencer, minAge time.Duration) backlite.Queue {
	return backlite.NewQueue(SweepOrphanUploadsProcessor(files, refs, minAge))
}
