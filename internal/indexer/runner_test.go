package indexer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/agentverse/agentverse/internal/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeCollector returns canned raw items. An item equal to "drop" normalizes
// to nil, "boom" panics, and "bad" produces an invalid draft.
type fakeCollector struct {
	id       string
	items    []RawItem
	fetchErr error
	fetched  []time.Time // since values seen by Fetch
}

func (f *fakeCollector) PlatformID() string   { return f.id }
func (f *fakeCollector) PlatformName() string { return f.id }

func (f *fakeCollector) Fetch(ctx context.Context, since time.Time, limit int) ([]RawItem, error) {
	f.fetched = append(f.fetched, since)
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if len(f.items) > limit {
		return f.items[:limit], nil
	}
	return f.items, nil
}

func (f *fakeCollector) Normalize(raw RawItem) *models.ContentDraft {
	s, ok := raw.(string)
	if !ok {
		return nil
	}
	switch s {
	case "drop":
		return nil
	case "boom":
		panic("normalize exploded")
	case "bad":
		return &models.ContentDraft{Title: "missing agent"}
	}
	return &models.ContentDraft{
		ExternalAgentID: f.id + ":author",
		Type:            models.ContentTypePost,
		Title:           s,
		SourceURL:       fmt.Sprintf("https://%s.example.com/%s", f.id, s),
		SourcePlatform:  f.id,
	}
}

func TestRunCountsOutcomes(t *testing.T) {
	catalog := NewMemoryCatalog()
	runner := NewRunner(catalog, discardLogger(), nil)
	collector := &fakeCollector{
		id:    "test",
		items: []RawItem{"one", "two", "three", "four", "bad"},
	}

	stats := runner.Run(context.Background(), collector, time.Time{}, 50)

	if stats.Failed {
		t.Fatalf("Run() failed: %v", stats.Err)
	}
	if stats.Indexed != 4 {
		t.Errorf("Indexed = %d, want 4", stats.Indexed)
	}
	if stats.Errors != 1 {
		t.Errorf("Errors = %d, want 1", stats.Errors)
	}
	if stats.Skipped != 0 {
		t.Errorf("Skipped = %d, want 0", stats.Skipped)
	}
}

func TestRunSkipsDuplicatesOnSecondPass(t *testing.T) {
	catalog := NewMemoryCatalog()
	runner := NewRunner(catalog, discardLogger(), nil)
	collector := &fakeCollector{id: "test", items: []RawItem{"one", "two"}}

	first := runner.Run(context.Background(), collector, time.Time{}, 50)
	if first.Indexed != 2 {
		t.Fatalf("first run Indexed = %d, want 2", first.Indexed)
	}

	second := runner.Run(context.Background(), collector, time.Time{}, 50)
	if second.Indexed != 0 {
		t.Errorf("second run Indexed = %d, want 0", second.Indexed)
	}
	if second.Skipped != 2 {
		t.Errorf("second run Skipped = %d, want 2", second.Skipped)
	}
}

func TestRunDroppedItemsLeaveNoTrace(t *testing.T) {
	catalog := NewMemoryCatalog()
	runner := NewRunner(catalog, discardLogger(), nil)
	collector := &fakeCollector{id: "test", items: []RawItem{"one", "drop", "drop"}}

	stats := runner.Run(context.Background(), collector, time.Time{}, 50)

	if stats.Indexed != 1 || stats.Skipped != 0 || stats.Errors != 0 {
		t.Errorf("stats = %d/%d/%d, want 1/0/0 (dropped items uncounted)",
			stats.Indexed, stats.Skipped, stats.Errors)
	}
}

func TestRunNormalizePanicCountsAsError(t *testing.T) {
	catalog := NewMemoryCatalog()
	runner := NewRunner(catalog, discardLogger(), nil)
	collector := &fakeCollector{id: "test", items: []RawItem{"one", "boom", "two"}}

	stats := runner.Run(context.Background(), collector, time.Time{}, 50)

	if stats.Failed {
		t.Fatalf("Run() failed: %v", stats.Err)
	}
	if stats.Indexed != 2 {
		t.Errorf("Indexed = %d, want 2 (records after the panic still processed)", stats.Indexed)
	}
	if stats.Errors != 1 {
		t.Errorf("Errors = %d, want 1", stats.Errors)
	}
}

func TestRunFetchFailureWritesNothing(t *testing.T) {
	catalog := NewMemoryCatalog()
	runner := NewRunner(catalog, discardLogger(), nil)
	collector := &fakeCollector{id: "test", fetchErr: errors.New("upstream down")}

	stats := runner.Run(context.Background(), collector, time.Time{}, 50)

	if !stats.Failed {
		t.Fatal("Run() with fetch error: want Failed")
	}
	if stats.Err == nil {
		t.Error("Failed run carries no Err")
	}
	if n := catalog.(*memoryCatalog).contentCount(); n != 0 {
		t.Errorf("catalog has %d contents after failed run, want 0", n)
	}
}

func TestRunEnforcesLimit(t *testing.T) {
	catalog := NewMemoryCatalog()
	runner := NewRunner(catalog, discardLogger(), nil)
	collector := &fakeCollector{
		id:    "test",
		items: []RawItem{"one", "two", "three", "four", "five", "six"},
	}

	stats := runner.Run(context.Background(), collector, time.Time{}, 4)

	if stats.Indexed != 4 {
		t.Errorf("Indexed = %d, want 4 (capped at limit)", stats.Indexed)
	}
}

type recordingObserver struct {
	platform string
	indexed  int
	failed   bool
	calls    int
}

func (o *recordingObserver) ObserveRun(platform string, indexed, skipped, errored int, duration time.Duration, failed bool) {
	o.platform = platform
	o.indexed = indexed
	o.failed = failed
	o.calls++
}

func TestRunReportsToObserver(t *testing.T) {
	catalog := NewMemoryCatalog()
	observer := &recordingObserver{}
	runner := NewRunner(catalog, discardLogger(), observer)
	collector := &fakeCollector{id: "test", items: []RawItem{"one"}}

	runner.Run(context.Background(), collector, time.Time{}, 50)

	if observer.calls != 1 {
		t.Fatalf("observer calls = %d, want 1", observer.calls)
	}
	if observer.platform != "test" || observer.indexed != 1 || observer.failed {
		t.Errorf("observer saw platform=%q indexed=%d failed=%v", observer.platform, observer.indexed, observer.failed)
	}
}
