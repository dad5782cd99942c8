package tasks

import (
	"time"

	"github.com/mrlokans/library/internal/config"
)

// Config holds configuration for the task queue system.
type Config struct {
	// DatabasePath is the dedicated SQLite file backing the queue.
	DatabasePath string

	// Workers is the number of concurrent task workers. Default: 1
	Workers int

	// ReleaseAfter is when stuck tasks are released back to queue. Default: 15m
	ReleaseAfter time.Duration

	// CleanupInterval is how often to clean up completed tasks. Default: 1h
	CleanupInterval time.Duration

	// OrphanMinAge protects uploads younger than this from the orphan sweep,
	// so a file saved moments before its book row commits is never removed.
	OrphanMinAge time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DatabasePath:    config.DefaultTasksDatabasePath,
		Workers:         1,
		ReleaseAfter:    15 * time.Minute,
		CleanupInterval: time.Hour,
		OrphanMinAge:    time.Hour,
	}
}

// FromSettings builds a Config from the application settings, keeping
// defaults for anything left unset.
func FromSettings(s config.Tasks) Config {
	cfg := DefaultConfig()
	if s.DatabasePath != "" {
		cfg.DatabasePath = s.DatabasePath
	}
	if s.Workers > 0 {
		cfg.Workers = s.Workers
	}
	if s.ReleaseAfter > 0 {
		cfg.ReleaseAfter = s.ReleaseAfter
	}
	if s.CleanupInterval > 0 {
		cfg.CleanupInterval = s.CleanupInterval
	}
	if s.OrphanMinAge > 0 {
		cfg.OrphanMinAge = s.OrphanMinAge
	}
	return cfg
}
