package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

const userAgent = "AgentVerse-Search/1.0"

const fetchTimeout = 30 * time.Second

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: fetchTimeout}
}

// getJSON performs a GET request and decodes the JSON response into out.
// HTTP 429 and 403 map to ErrRateLimited so collectors can latch off the
// upstream for the rest of the run.
func getJSON(ctx context.Context, client *http.Client, url string, header http.Header, out any) error {
	body, err := getBody(ctx, client, url, header)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response from %s: %w", url, err)
	}
	return nil
}

// getBody performs a GET request and returns the raw response body.
func getBody(ctx context.Context, client *http.Client, url string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	for key, values := range header {
		for _, v := range values {
			req.Header.Set(key, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%s returned %d: %w", url, resp.StatusCode, ErrRateLimited)
	default:
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// rateLatch is a per-run switch tripped on the first rate-limit signal from
// an upstream. Sub-fetches check it before issuing requests.
type rateLatch struct {
	tripped atomic.Bool
}

func (l *rateLatch) Trip()         { l.tripped.Store(true) }
func (l *rateLatch) Tripped() bool { return l.tripped.Load() }

// subFetch is one upstream endpoint inside a multi-upstream collector.
type subFetch struct {
	name string
	fn   func(ctx context.Context) ([]RawItem, error)
}

// gather runs the sub-fetches concurrently, merges whatever they returned,
// and truncates the merged result to limit. A failed sub-fetch contributes
// zero items; it is logged with the platform and endpoint so silent data
// loss stays debuggable. Only when every sub-fetch fails does the whole
// gather report an error.
func gather(ctx context.Context, logger *slog.Logger, platform string, limit int, subs []subFetch) ([]RawItem, error) {
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		items    []RawItem
		failed   int
		firstErr error
	)

	for _, sub := range subs {
		wg.Add(1)
		go func(sub subFetch) {
			defer wg.Done()

			res, err := sub.fn(ctx)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Warn("sub-fetch failed",
					"platform", platform,
					"endpoint", sub.name,
					"error", err,
				)
				failed++
				if firstErr == nil {
					firstErr = fmt.Errorf("%s: %w", sub.name, err)
				}
				return
			}
			items = append(items, res...)
		}(sub)
	}

	wg.Wait()

	if len(subs) > 0 && failed == len(subs) {
		return nil, firstErr
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}
