package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/agentverse/agentverse/internal/config"
)

// runAllOrder is the sweep order for full ingestion: fast general sources
// first, heavier platform APIs later.
var runAllOrder = []string{
	"websearch", "feeds", "github", "huggingface", "civitai", "reddit", "arxiv",
}

// JobInfo describes one scheduled platform job for the admin API.
type JobInfo struct {
	Platform string    `json:"platform"`
	Trigger  string    `json:"trigger"`
	Limit    int       `json:"limit"`
	NextRun  time.Time `json:"next_run"`
	LastRun  time.Time `json:"last_run,omitzero"`
}

// RunResult pairs a platform's stats with the error that stopped it, for
// run-all sweeps where one source failing must not hide the others.
type RunResult struct {
	Stats RunStats `json:"stats"`
	Error string   `json:"error,omitempty"`
}

// Scheduler owns the per-platform ingestion cadence. Each platform carries a
// watermark of its last successful run, advanced only when a run does not
// fail, so a broken fetch is retried over the same window. Concurrent
// triggers for the same platform are serialized.
type Scheduler struct {
	runner     *Runner
	collectors map[string]Collector
	schedule   config.ScheduleConfig
	logger     *slog.Logger
	now        func() time.Time

	mu         sync.Mutex // guards everything below
	cron       *cron.Cron
	entries    map[string]cron.EntryID
	started    bool
	watermarks map[string]time.Time
	running    map[string]*sync.Mutex
}

// NewScheduler builds a scheduler over the given collectors. Platforms in
// the schedule with no matching collector are skipped with a warning.
func NewScheduler(runner *Runner, collectors []Collector, schedule config.ScheduleConfig, logger *slog.Logger) *Scheduler {
	byID := make(map[string]Collector, len(collectors))
	running := make(map[string]*sync.Mutex, len(collectors))
	for _, c := range collectors {
		byID[c.PlatformID()] = c
		running[c.PlatformID()] = &sync.Mutex{}
	}
	return &Scheduler{
		runner:     runner,
		collectors: byID,
		schedule:   schedule,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
		entries:    make(map[string]cron.EntryID),
		watermarks: make(map[string]time.Time),
		running:    running,
	}
}

// Start registers every platform's trigger and starts the cron loop. Calling
// Start on a started scheduler is a no-op.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	s.cron = cron.New()
	s.entries = make(map[string]cron.EntryID)

	for id, cadence := range s.schedule.Platforms {
		if _, ok := s.collectors[id]; !ok {
			s.logger.Warn("no collector for scheduled platform", "platform", id)
			continue
		}
		id := id
		job := func() {
			if _, err := s.RunOne(context.Background(), id, 0); err != nil {
				s.logger.Error("scheduled run failed", "platform", id, "error", err)
			}
		}
		entryID, err := s.cron.AddFunc(triggerSpec(cadence), job)
		if err != nil {
			return fmt.Errorf("scheduling %s: %w", id, err)
		}
		s.entries[id] = entryID
	}

	s.cron.Start()
	s.started = true
	s.logger.Info("scheduler started", "platforms", len(s.entries))
	return nil
}

// Stop halts the cron loop and waits for in-flight jobs. Safe to call on a
// stopped scheduler.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	c := s.cron
	s.mu.Unlock()

	// Wait outside the lock: in-flight jobs need s.mu to finish.
	<-c.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// RunOne triggers one platform immediately. It blocks until the run
// completes and returns ErrUnknownPlatform for ids outside the registry.
// limit caps the run's fetch; 0 means the platform's configured limit.
func (s *Scheduler) RunOne(ctx context.Context, platform string, limit int) (RunStats, error) {
	collector, ok := s.collectors[platform]
	if !ok {
		return RunStats{}, fmt.Errorf("%w: %s", ErrUnknownPlatform, platform)
	}
	if limit <= 0 {
		limit = s.schedule.Platforms[platform].Limit
	}
	if limit <= 0 {
		limit = 50
	}

	lock := s.runLock(platform)
	lock.Lock()
	defer lock.Unlock()

	since := s.watermark(platform)
	started := s.now()
	stats := s.runner.Run(ctx, collector, since, limit)
	if stats.Failed {
		return stats, stats.Err
	}
	s.setWatermark(platform, started)
	return stats, nil
}

// RunAll sweeps every platform in the fixed order, pausing between sources.
// A failing source is recorded and the sweep continues. limit applies to
// every source; 0 means each platform's configured limit.
func (s *Scheduler) RunAll(ctx context.Context, limit int) map[string]RunResult {
	results := make(map[string]RunResult, len(runAllOrder))
	for i, platform := range runAllOrder {
		if _, ok := s.collectors[platform]; !ok {
			continue
		}
		if i > 0 && s.schedule.Pause > 0 {
			select {
			case <-time.After(s.schedule.Pause):
			case <-ctx.Done():
				results[platform] = RunResult{Error: ctx.Err().Error()}
				return results
			}
		}
		stats, err := s.RunOne(ctx, platform, limit)
		result := RunResult{Stats: stats}
		if err != nil {
			result.Error = err.Error()
		}
		results[platform] = result
	}
	return results
}

// Jobs reports the registered triggers with their next fire times, sorted by
// platform id.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := make([]JobInfo, 0, len(s.schedule.Platforms))
	for id, cadence := range s.schedule.Platforms {
		if _, ok := s.collectors[id]; !ok {
			continue
		}
		info := JobInfo{
			Platform: id,
			Trigger:  triggerSpec(cadence),
			Limit:    cadence.Limit,
			LastRun:  s.watermarks[id],
		}
		if entryID, ok := s.entries[id]; ok && s.started {
			info.NextRun = s.cron.Entry(entryID).Next
		}
		jobs = append(jobs, info)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Platform < jobs[j].Platform })
	return jobs
}

// Platforms lists the ids the scheduler can trigger, sorted.
func (s *Scheduler) Platforms() []string {
	ids := make([]string, 0, len(s.collectors))
	for id := range s.collectors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *Scheduler) watermark(platform string) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watermarks[platform]
}

func (s *Scheduler) setWatermark(platform string, t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watermarks[platform] = t
}

func (s *Scheduler) runLock(platform string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.running[platform]
	if !ok {
		lock = &sync.Mutex{}
		s.running[platform] = lock
	}
	return lock
}

// triggerSpec renders a cadence as a cron spec string, preferring the cron
// expression when both are set.
func triggerSpec(cadence config.PlatformCadence) string {
	if cadence.Cron != "" {
		return cadence.Cron
	}
	return "@every " + cadence.Every.String()
}
