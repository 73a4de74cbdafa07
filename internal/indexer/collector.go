package indexer

import (
	"context"
	"errors"
	"time"

	"github.com/agentverse/agentverse/internal/models"
)

// RawItem is one source-specific record as fetched from an upstream. Each
// collector owns its concrete raw types; only the normalized ContentDraft
// crosses the collector/catalog boundary.
type RawItem any

// Collector is the contract every platform adapter implements.
//
// Fetch returns whatever partial results it obtained: failures of individual
// upstream endpoints are swallowed and logged, and a collector that fails
// entirely returns an empty slice. Fetch returns a non-nil error only when
// the single fetch attempt it makes fails completely, which fails the whole
// run. The result never exceeds limit.
//
// Normalize returns nil (not an error) for records that lack a stable
// identity or URL, or that fail the platform's relevance gate. When in
// doubt, drop rather than pollute the catalog.
type Collector interface {
	PlatformID() string
	PlatformName() string
	Fetch(ctx context.Context, since time.Time, limit int) ([]RawItem, error)
	Normalize(raw RawItem) *models.ContentDraft
}

// ErrUnknownPlatform is returned when a run is requested for an unregistered
// platform id.
var ErrUnknownPlatform = errors.New("unknown platform")

// ErrRateLimited marks an upstream response that signalled throttling or a
// ban (HTTP 429/403). The collector stops issuing requests to that upstream
// for the remainder of the run and returns partial results.
var ErrRateLimited = errors.New("upstream rate limited")
