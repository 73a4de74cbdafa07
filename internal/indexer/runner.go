package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/agentverse/agentverse/internal/models"
)

// RunStats summarizes one ingestion run for a single platform.
type RunStats struct {
	RunID     uuid.UUID     `json:"run_id"`
	Platform  string        `json:"platform"`
	Indexed   int           `json:"indexed"`
	Skipped   int           `json:"skipped"`
	Errors    int           `json:"errors"`
	Failed    bool          `json:"failed"`
	Err       error         `json:"-"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// RunObserver receives the outcome of each run. The metrics registry
// implements it.
type RunObserver interface {
	ObserveRun(platform string, indexed, skipped, errored int, duration time.Duration, failed bool)
}

// Runner executes a single collector run: fetch, normalize, write, commit.
// A fetch failure marks the whole run failed and rolls back; a failure on an
// individual record is counted and the run continues.
type Runner struct {
	catalog  Catalog
	writer   *Writer
	logger   *slog.Logger
	observer RunObserver
}

// NewRunner builds a Runner. observer may be nil.
func NewRunner(catalog Catalog, logger *slog.Logger, observer RunObserver) *Runner {
	return &Runner{
		catalog:  catalog,
		writer:   &Writer{},
		logger:   logger,
		observer: observer,
	}
}

// Run fetches from the collector and writes every normalized draft through
// one transaction. since is the platform watermark (zero on first run) and
// limit caps how many raw items are processed.
func (r *Runner) Run(ctx context.Context, collector Collector, since time.Time, limit int) RunStats {
	stats := RunStats{
		RunID:     uuid.New(),
		Platform:  collector.PlatformID(),
		StartedAt: time.Now().UTC(),
	}
	logger := r.logger.With("platform", stats.Platform, "run_id", stats.RunID.String())
	logger.Info("ingestion run starting", "since", since, "limit", limit)

	defer func() {
		stats.Duration = time.Since(stats.StartedAt)
		if r.observer != nil {
			r.observer.ObserveRun(stats.Platform, stats.Indexed, stats.Skipped, stats.Errors, stats.Duration, stats.Failed)
		}
	}()

	raw, err := collector.Fetch(ctx, since, limit)
	if err != nil {
		stats.Failed = true
		stats.Err = fmt.Errorf("fetching %s: %w", stats.Platform, err)
		logger.Error("ingestion run failed", "error", err)
		return stats
	}
	if len(raw) > limit {
		raw = raw[:limit]
	}

	tx, err := r.catalog.Begin(ctx)
	if err != nil {
		stats.Failed = true
		stats.Err = fmt.Errorf("opening transaction: %w", err)
		logger.Error("ingestion run failed", "error", err)
		return stats
	}

	for _, item := range raw {
		outcome, err := r.writeOne(ctx, tx, collector, item)
		switch outcome {
		case OutcomeWritten:
			stats.Indexed++
		case OutcomeSkipped:
			stats.Skipped++
		case OutcomeError:
			stats.Errors++
			logger.Warn("record failed", "error", err)
		case outcomeDropped:
		}
	}

	if err := tx.Commit(); err != nil {
		tx.Rollback()
		stats.Failed = true
		stats.Err = fmt.Errorf("committing run: %w", err)
		logger.Error("ingestion run failed", "error", err)
		return stats
	}

	logger.Info("ingestion run finished",
		"indexed", stats.Indexed,
		"skipped", stats.Skipped,
		"errors", stats.Errors,
		"duration", time.Since(stats.StartedAt).String())
	return stats
}

// outcomeDropped marks a raw item whose Normalize returned nil. Dropped
// items do not appear in any counter.
const outcomeDropped Outcome = -1

// writeOne normalizes and writes a single raw item, converting a panic in a
// collector's Normalize into a per-record error.
func (r *Runner) writeOne(ctx context.Context, tx CatalogTx, collector Collector, item RawItem) (outcome Outcome, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			outcome = OutcomeError
			err = fmt.Errorf("normalize panicked: %v", rec)
		}
	}()

	var draft *models.ContentDraft
	if draft = collector.Normalize(item); draft == nil {
		return outcomeDropped, nil
	}
	return r.writer.Upsert(ctx, tx, draft)
}
