package indexer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/agentverse/agentverse/internal/config"
)

func testSchedule(platforms ...string) config.ScheduleConfig {
	cadences := make(map[string]config.PlatformCadence, len(platforms))
	for _, id := range platforms {
		cadences[id] = config.PlatformCadence{Every: time.Hour, Limit: 10}
	}
	return config.ScheduleConfig{Platforms: cadences}
}

func newTestScheduler(collectors ...Collector) *Scheduler {
	ids := make([]string, 0, len(collectors))
	for _, c := range collectors {
		ids = append(ids, c.PlatformID())
	}
	runner := NewRunner(NewMemoryCatalog(), discardLogger(), nil)
	return NewScheduler(runner, collectors, testSchedule(ids...), discardLogger())
}

func TestRunOneUnknownPlatform(t *testing.T) {
	s := newTestScheduler(&fakeCollector{id: "github"})

	_, err := s.RunOne(context.Background(), "myspace", 0)
	if !errors.Is(err, ErrUnknownPlatform) {
		t.Errorf("RunOne(myspace) error = %v, want ErrUnknownPlatform", err)
	}
}

func TestRunOneAdvancesWatermark(t *testing.T) {
	collector := &fakeCollector{id: "github", items: []RawItem{"one"}}
	s := newTestScheduler(collector)

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return current }

	if _, err := s.RunOne(context.Background(), "github", 0); err != nil {
		t.Fatalf("first RunOne() error = %v", err)
	}
	if len(collector.fetched) != 1 || !collector.fetched[0].IsZero() {
		t.Fatalf("first run since = %v, want zero", collector.fetched)
	}

	current = current.Add(time.Hour)
	if _, err := s.RunOne(context.Background(), "github", 0); err != nil {
		t.Fatalf("second RunOne() error = %v", err)
	}
	want := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if got := collector.fetched[1]; !got.Equal(want) {
		t.Errorf("second run since = %v, want %v (first run's start)", got, want)
	}
}

func TestRunOneFailedRunKeepsWatermark(t *testing.T) {
	collector := &fakeCollector{id: "github", fetchErr: errors.New("upstream down")}
	s := newTestScheduler(collector)

	if _, err := s.RunOne(context.Background(), "github", 0); err == nil {
		t.Fatal("RunOne() with failing fetch: want error")
	}

	collector.fetchErr = nil
	if _, err := s.RunOne(context.Background(), "github", 0); err != nil {
		t.Fatalf("recovery RunOne() error = %v", err)
	}
	if got := collector.fetched[1]; !got.IsZero() {
		t.Errorf("since after failed run = %v, want zero (watermark must not advance)", got)
	}
}

func TestRunOneCallerLimit(t *testing.T) {
	items := []RawItem{"one", "two", "three", "four", "five"}

	s := newTestScheduler(&fakeCollector{id: "github", items: items})
	stats, err := s.RunOne(context.Background(), "github", 1)
	if err != nil {
		t.Fatalf("RunOne() error = %v", err)
	}
	if stats.Indexed != 1 {
		t.Errorf("Indexed with caller limit 1 = %d, want 1", stats.Indexed)
	}

	// A zero limit falls back to the platform's configured limit.
	s = newTestScheduler(&fakeCollector{id: "github", items: items})
	stats, err = s.RunOne(context.Background(), "github", 0)
	if err != nil {
		t.Fatalf("RunOne() error = %v", err)
	}
	if stats.Indexed != 5 {
		t.Errorf("Indexed with default limit = %d, want 5", stats.Indexed)
	}
}

func TestRunAllContinuesPastFailure(t *testing.T) {
	broken := &fakeCollector{id: "github", fetchErr: errors.New("upstream down")}
	healthy := &fakeCollector{id: "reddit", items: []RawItem{"one", "two"}}
	s := newTestScheduler(broken, healthy)

	results := s.RunAll(context.Background(), 0)

	if results["github"].Error == "" {
		t.Error("github result carries no error")
	}
	if results["reddit"].Error != "" {
		t.Errorf("reddit result error = %q, want none", results["reddit"].Error)
	}
	if results["reddit"].Stats.Indexed != 2 {
		t.Errorf("reddit Indexed = %d, want 2", results["reddit"].Stats.Indexed)
	}
}

func TestRunAllSkipsUnregisteredPlatforms(t *testing.T) {
	s := newTestScheduler(&fakeCollector{id: "github", items: []RawItem{"one"}})

	results := s.RunAll(context.Background(), 0)

	if len(results) != 1 {
		t.Errorf("RunAll() returned %d results, want 1", len(results))
	}
	if _, ok := results["github"]; !ok {
		t.Error("RunAll() missing github result")
	}
}

func TestJobsReportsTriggers(t *testing.T) {
	s := newTestScheduler(&fakeCollector{id: "github"}, &fakeCollector{id: "arxiv"})
	s.schedule.Platforms["arxiv"] = config.PlatformCadence{Cron: "0 2 * * *", Limit: 100}

	jobs := s.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("Jobs() returned %d entries, want 2", len(jobs))
	}
	if jobs[0].Platform != "arxiv" || jobs[1].Platform != "github" {
		t.Errorf("Jobs() order = %s,%s; want arxiv,github", jobs[0].Platform, jobs[1].Platform)
	}
	if jobs[0].Trigger != "0 2 * * *" {
		t.Errorf("arxiv trigger = %q, want cron expression", jobs[0].Trigger)
	}
	if jobs[1].Trigger != "@every 1h0m0s" {
		t.Errorf("github trigger = %q, want @every form", jobs[1].Trigger)
	}
}

func TestStartStopIdempotent(t *testing.T) {
	s := newTestScheduler(&fakeCollector{id: "github"})

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}
	s.Stop()
	s.Stop()
}

func TestSchedulerConcurrentAccess(t *testing.T) {
	s := newTestScheduler(&fakeCollector{id: "github", items: []RawItem{"one"}})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Start(); err != nil {
				t.Errorf("Start() error = %v", err)
			}
			s.Jobs()
			s.RunOne(context.Background(), "github", 0)
		}()
	}
	wg.Wait()
	s.Stop()
}

func TestStartRejectsBadCron(t *testing.T) {
	collector := &fakeCollector{id: "github"}
	runner := NewRunner(NewMemoryCatalog(), discardLogger(), nil)
	schedule := config.ScheduleConfig{Platforms: map[string]config.PlatformCadence{
		"github": {Cron: "not a cron spec", Limit: 10},
	}}
	s := NewScheduler(runner, []Collector{collector}, schedule, discardLogger())

	if err := s.Start(); err == nil {
		t.Error("Start() with invalid cron spec: want error")
	}
}

func TestPlatformsSorted(t *testing.T) {
	s := newTestScheduler(
		&fakeCollector{id: "reddit"},
		&fakeCollector{id: "arxiv"},
		&fakeCollector{id: "github"},
	)

	got := s.Platforms()
	want := []string{"arxiv", "github", "reddit"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Platforms() = %v, want %v", got, want)
		}
	}
}
