package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/agentverse/agentverse/internal/indexer"
	"github.com/agentverse/agentverse/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeContentReader struct {
	contents map[int64]*models.Content
	stats    *models.CatalogStats
	tags     []models.TagCount
}

func (f *fakeContentReader) Search(ctx context.Context, query *models.ContentQuery) (*models.ContentPage, error) {
	results := make([]models.Content, 0, len(f.contents))
	for _, c := range f.contents {
		results = append(results, *c)
	}
	return &models.ContentPage{
		Results:  results,
		Total:    len(results),
		Page:     query.Page,
		PageSize: query.PageSize,
		Query:    query.Query,
	}, nil
}

func (f *fakeContentReader) GetByID(ctx context.Context, id int64) (*models.Content, error) {
	content, ok := f.contents[id]
	if !ok {
		return nil, indexer.ErrNotFound
	}
	return content, nil
}

func (f *fakeContentReader) Recent(ctx context.Context, limit int) ([]models.Content, error) {
	results := make([]models.Content, 0, limit)
	for _, c := range f.contents {
		if len(results) == limit {
			break
		}
		results = append(results, *c)
	}
	return results, nil
}

func (f *fakeContentReader) Featured(ctx context.Context, limit int) ([]models.Content, error) {
	results := make([]models.Content, 0, limit)
	for _, c := range f.contents {
		if !c.IsFeatured {
			continue
		}
		if len(results) == limit {
			break
		}
		results = append(results, *c)
	}
	return results, nil
}

func (f *fakeContentReader) Tags(ctx context.Context, limit int) ([]models.TagCount, error) {
	if len(f.tags) > limit {
		return f.tags[:limit], nil
	}
	return f.tags, nil
}

func (f *fakeContentReader) AgentTypes(ctx context.Context) ([]string, error) {
	return []string{"conversational", "research"}, nil
}

func (f *fakeContentReader) Stats(ctx context.Context) (*models.CatalogStats, error) {
	return f.stats, nil
}

type fakeTrigger struct {
	platforms []string
	lastRun   string
	lastLimit int
}

func (f *fakeTrigger) RunOne(ctx context.Context, platform string, limit int) (indexer.RunStats, error) {
	for _, id := range f.platforms {
		if id == platform {
			f.lastRun = platform
			f.lastLimit = limit
			return indexer.RunStats{Platform: platform, Indexed: 3}, nil
		}
	}
	return indexer.RunStats{}, indexer.ErrUnknownPlatform
}

func (f *fakeTrigger) RunAll(ctx context.Context, limit int) map[string]indexer.RunResult {
	f.lastLimit = limit
	results := make(map[string]indexer.RunResult, len(f.platforms))
	for _, id := range f.platforms {
		results[id] = indexer.RunResult{Stats: indexer.RunStats{Platform: id, Indexed: 1}}
	}
	return results
}

func (f *fakeTrigger) Jobs() []indexer.JobInfo {
	jobs := make([]indexer.JobInfo, 0, len(f.platforms))
	for _, id := range f.platforms {
		jobs = append(jobs, indexer.JobInfo{Platform: id, Trigger: "@every 1h0m0s", Limit: 10})
	}
	return jobs
}

func (f *fakeTrigger) Platforms() []string { return f.platforms }

func TestContentByIDHandler(t *testing.T) {
	reader := &fakeContentReader{contents: map[int64]*models.Content{
		7: {ID: 7, Title: "Found", Type: models.ContentTypePost},
	}}
	handler := NewHandler(reader, indexer.NewMemoryCatalog(), testLogger())

	w := httptest.NewRecorder()
	handler.ContentByIDHandler(w, httptest.NewRequest("GET", "/api/content/7", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var content models.Content
	if err := json.NewDecoder(w.Body).Decode(&content); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if content.Title != "Found" {
		t.Errorf("Title = %q", content.Title)
	}

	w = httptest.NewRecorder()
	handler.ContentByIDHandler(w, httptest.NewRequest("GET", "/api/content/99", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("missing id status = %d, want 404", w.Code)
	}

	w = httptest.NewRecorder()
	handler.ContentByIDHandler(w, httptest.NewRequest("GET", "/api/content/abc", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want 400", w.Code)
	}
}

func TestSearchHandlerRejectsBadQuery(t *testing.T) {
	handler := NewHandler(&fakeContentReader{}, indexer.NewMemoryCatalog(), testLogger())

	w := httptest.NewRecorder()
	handler.SearchHandler(w, httptest.NewRequest("GET", "/api/search?type=hologram", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSubmitContentHandler(t *testing.T) {
	catalog := indexer.NewMemoryCatalog()
	handler := NewHandler(&fakeContentReader{}, catalog, testLogger())

	body, _ := json.Marshal(models.ContentDraft{
		ExternalAgentID: "manual:tester",
		Type:            models.ContentTypePost,
		Title:           "Submitted item",
		SourceURL:       "https://example.com/submitted",
	})

	w := httptest.NewRecorder()
	handler.SubmitContentHandler(w, httptest.NewRequest("POST", "/api/content", bytes.NewReader(body)))
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}

	// Same URL again conflicts.
	w = httptest.NewRecorder()
	handler.SubmitContentHandler(w, httptest.NewRequest("POST", "/api/content", bytes.NewReader(body)))
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", w.Code)
	}
}

func TestTriggerPlatformHandler(t *testing.T) {
	trigger := &fakeTrigger{platforms: []string{"github", "reddit"}}
	handler := NewIndexHandler(trigger, testLogger())

	w := httptest.NewRecorder()
	handler.TriggerPlatform(w, httptest.NewRequest("POST", "/api/admin/index/github", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var stats indexer.RunStats
	if err := json.NewDecoder(w.Body).Decode(&stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.Indexed != 3 {
		t.Errorf("Indexed = %d, want 3", stats.Indexed)
	}
	if trigger.lastRun != "github" {
		t.Errorf("lastRun = %q", trigger.lastRun)
	}

	w = httptest.NewRecorder()
	handler.TriggerPlatform(w, httptest.NewRequest("POST", "/api/admin/index/myspace", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown platform status = %d, want 400", w.Code)
	}

	w = httptest.NewRecorder()
	handler.TriggerPlatform(w, httptest.NewRequest("GET", "/api/admin/index/github", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d, want 405", w.Code)
	}
}

func TestTriggerPlatformLimit(t *testing.T) {
	trigger := &fakeTrigger{platforms: []string{"github"}}
	handler := NewIndexHandler(trigger, testLogger())

	w := httptest.NewRecorder()
	handler.TriggerPlatform(w, httptest.NewRequest("POST", "/api/admin/index/github?limit=1", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if trigger.lastLimit != 1 {
		t.Errorf("limit = %d, want 1", trigger.lastLimit)
	}

	// No limit falls through to the platform default.
	w = httptest.NewRecorder()
	handler.TriggerPlatform(w, httptest.NewRequest("POST", "/api/admin/index/github", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if trigger.lastLimit != 0 {
		t.Errorf("limit = %d, want 0", trigger.lastLimit)
	}

	for _, bad := range []string{"0", "201", "-5", "lots"} {
		w = httptest.NewRecorder()
		handler.TriggerPlatform(w, httptest.NewRequest("POST", "/api/admin/index/github?limit="+bad, nil))
		if w.Code != http.StatusBadRequest {
			t.Errorf("limit=%s status = %d, want 400", bad, w.Code)
		}
	}
}

func TestTriggerAllLimit(t *testing.T) {
	trigger := &fakeTrigger{platforms: []string{"github", "reddit"}}
	handler := NewIndexHandler(trigger, testLogger())

	w := httptest.NewRecorder()
	handler.TriggerAll(w, httptest.NewRequest("POST", "/api/admin/index-all?limit=25", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if trigger.lastLimit != 25 {
		t.Errorf("limit = %d, want 25", trigger.lastLimit)
	}

	w = httptest.NewRecorder()
	handler.TriggerAll(w, httptest.NewRequest("POST", "/api/admin/index-all?limit=999", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("oversized limit status = %d, want 400", w.Code)
	}
}

func TestFeaturedHandler(t *testing.T) {
	reader := &fakeContentReader{contents: map[int64]*models.Content{
		1: {ID: 1, Title: "Spotlight", IsFeatured: true},
		2: {ID: 2, Title: "Ordinary"},
	}}
	handler := NewHandler(reader, indexer.NewMemoryCatalog(), testLogger())

	w := httptest.NewRecorder()
	handler.FeaturedHandler(w, httptest.NewRequest("GET", "/api/featured", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		Results []models.Content `json:"results"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Title != "Spotlight" {
		t.Errorf("results = %+v", resp.Results)
	}

	w = httptest.NewRecorder()
	handler.FeaturedHandler(w, httptest.NewRequest("GET", "/api/featured?limit=500", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("oversized limit status = %d, want 400", w.Code)
	}
}

func TestTagsHandler(t *testing.T) {
	reader := &fakeContentReader{tags: []models.TagCount{
		{Tag: "llm", Count: 4},
		{Tag: "agents", Count: 2},
	}}
	handler := NewHandler(reader, indexer.NewMemoryCatalog(), testLogger())

	w := httptest.NewRecorder()
	handler.TagsHandler(w, httptest.NewRequest("GET", "/api/tags?limit=1", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		Tags []models.TagCount `json:"tags"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Tags) != 1 || resp.Tags[0].Tag != "llm" {
		t.Errorf("tags = %+v", resp.Tags)
	}
}

func TestContentTypesHandler(t *testing.T) {
	handler := NewHandler(&fakeContentReader{}, indexer.NewMemoryCatalog(), testLogger())

	w := httptest.NewRecorder()
	handler.ContentTypesHandler(w, httptest.NewRequest("GET", "/api/content-types", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		ContentTypes []models.ContentType `json:"content_types"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.ContentTypes) != len(contentTypeList) {
		t.Errorf("got %d types, want %d", len(resp.ContentTypes), len(contentTypeList))
	}
	if resp.ContentTypes[0] != models.ContentTypeDocument {
		t.Errorf("first type = %q", resp.ContentTypes[0])
	}
}

func TestAgentTypesHandler(t *testing.T) {
	handler := NewHandler(&fakeContentReader{}, indexer.NewMemoryCatalog(), testLogger())

	w := httptest.NewRecorder()
	handler.AgentTypesHandler(w, httptest.NewRequest("GET", "/api/agent-types", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		AgentTypes []string `json:"agent_types"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.AgentTypes) != 2 {
		t.Errorf("agent types = %v", resp.AgentTypes)
	}
}

func TestScheduleHandler(t *testing.T) {
	trigger := &fakeTrigger{platforms: []string{"github"}}
	handler := NewIndexHandler(trigger, testLogger())

	w := httptest.NewRecorder()
	handler.Schedule(w, httptest.NewRequest("GET", "/api/admin/schedule", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		Jobs []indexer.JobInfo `json:"jobs"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Jobs) != 1 || resp.Jobs[0].Platform != "github" {
		t.Errorf("jobs = %+v", resp.Jobs)
	}
}
