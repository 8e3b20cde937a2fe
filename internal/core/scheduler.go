package core

// scheduler.go runs the background hot/cold archival job for CleaningLog
// rows.
//
//  1. Move entries older than HotRetentionDays from the live table to the
//     archive table.
//  2. Purge archive entries older than ArchiveRetentionYears entirely.
//
// The scheduler is long-running and context-aware for graceful shutdown.
// It logs progress and errors but never fails the application if an
// individual archive cycle fails; the next tick tries again.

import (
	"context"
	"log/slog"
	"time"
)

// LogArchiver is satisfied by the store layer. Decoupling the scheduler
// from a concrete store type keeps it testable with a fake.
type LogArchiver interface {
	ArchiveOldCleaningLogs(ctx context.Context, daysToKeep, batchSize int) (int64, error)
	PurgeOldArchives(ctx context.Context, yearsToKeep int) (int64, error)
}

// ArchiveConfig holds configuration for the archive scheduler. All fields
// have sensible defaults if zero values are provided.
type ArchiveConfig struct {
	HotRetentionDays      int           // days to keep in the live table (default: 90)
	ArchiveRetentionYears int           // years to keep in the archive (default: 7)
	BatchSize             int           // rows per batch (default: 5000)
	CheckInterval         time.Duration // how often to run (default: 24h)
}

// DefaultArchiveConfig returns the documented defaults.
func DefaultArchiveConfig() ArchiveConfig {
	return ArchiveConfig{
		HotRetentionDays:      90,
		ArchiveRetentionYears: 7,
		BatchSize:             5000,
		CheckInterval:         24 * time.Hour,
	}
}

// Scheduler runs periodic maintenance jobs against a LogArchiver.
type Scheduler struct {
	archiver LogArchiver
}

// NewScheduler builds a Scheduler over the given archiver.
func NewScheduler(archiver LogArchiver) *Scheduler {
	return &Scheduler{archiver: archiver}
}

// Start runs immediately, then every cfg.CheckInterval, until ctx is
// cancelled.
func (s *Scheduler) Start(ctx context.Context, cfg ArchiveConfig) {
	def := DefaultArchiveConfig()
	if cfg.HotRetentionDays <= 0 {
		cfg.HotRetentionDays = def.HotRetentionDays
	}
	if cfg.ArchiveRetentionYears <= 0 {
		cfg.ArchiveRetentionYears = def.ArchiveRetentionYears
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = def.CheckInterval
	}

	slog.Info("archive scheduler started",
		"hot_retention_days", cfg.HotRetentionDays,
		"archive_retention_years", cfg.ArchiveRetentionYears,
		"batch_size", cfg.BatchSize,
	)

	s.runArchiveJob(ctx, cfg)

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("archive scheduler stopped")
			return
		case <-ticker.C:
			s.runArchiveJob(ctx, cfg)
		}
	}
}

// runArchiveJob performs one archive + purge cycle.
func (s *Scheduler) runArchiveJob(ctx context.Context, cfg ArchiveConfig) {
	slog.Debug("archive job started")
	start := time.Now()

	archiveStart := time.Now()
	archived, err := s.archiver.ArchiveOldCleaningLogs(ctx, cfg.HotRetentionDays, cfg.BatchSize)
	if err != nil {
		slog.Error("archive failed", "error", err)
	} else {
		slog.Info("archived cleaning log entries",
			"entries_archived", archived,
			"duration_ms", time.Since(archiveStart).Milliseconds(),
		)
	}

	purgeStart := time.Now()
	purged, err := s.archiver.PurgeOldArchives(ctx, cfg.ArchiveRetentionYears)
	if err != nil {
		slog.Error("purge failed", "error", err)
	} else {
		slog.Info("purged old archive entries",
			"entries_purged", purged,
			"duration_ms", time.Since(purgeStart).Milliseconds(),
		)
	}

	slog.Info("archive job completed", "duration_ms", time.Since(start).Milliseconds())
}
