package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/agentverse/agentverse/internal/models"
)

type hfModel struct {
	ID           string    `json:"id"` // "author/name"
	Author       string    `json:"author"`
	PipelineTag  string    `json:"pipeline_tag"`
	Tags         []string  `json:"tags"`
	Downloads    int       `json:"downloads"`
	Likes        int       `json:"likes"`
	LastModified time.Time `json:"lastModified"`

	kind string // "model" or "dataset", set by Fetch
}

// HuggingFaceCollector indexes recently updated agent-related models and
// datasets from the Hub API. Both listings are fetched concurrently.
type HuggingFaceCollector struct {
	token  string
	client *http.Client
	logger *slog.Logger
	base   string
}

func NewHuggingFaceCollector(token string, logger *slog.Logger) *HuggingFaceCollector {
	return &HuggingFaceCollector{
		token:  token,
		client: newHTTPClient(),
		logger: logger,
		base:   "https://huggingface.co",
	}
}

func (c *HuggingFaceCollector) PlatformID() string   { return "huggingface" }
func (c *HuggingFaceCollector) PlatformName() string { return "Hugging Face" }

func (c *HuggingFaceCollector) Fetch(ctx context.Context, since time.Time, limit int) ([]RawItem, error) {
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	subs := []subFetch{
		{name: "models", fn: func(ctx context.Context) ([]RawItem, error) {
			return c.listHub(ctx, header, "models", "model", since, limit)
		}},
		{name: "datasets", fn: func(ctx context.Context) ([]RawItem, error) {
			return c.listHub(ctx, header, "datasets", "dataset", since, limit)
		}},
	}
	return gather(ctx, c.logger, c.PlatformID(), limit, subs)
}

func (c *HuggingFaceCollector) listHub(ctx context.Context, header http.Header, path, kind string, since time.Time, limit int) ([]RawItem, error) {
	u := fmt.Sprintf("%s/api/%s?search=%s&sort=lastModified&direction=-1&limit=%d",
		c.base, path, url.QueryEscape("agent"), limit)

	var entries []hfModel
	if err := getJSON(ctx, c.client, u, header, &entries); err != nil {
		return nil, fmt.Errorf("listing %s: %w", path, err)
	}

	items := make([]RawItem, 0, len(entries))
	for _, entry := range entries {
		if !since.IsZero() && !entry.LastModified.IsZero() && entry.LastModified.Before(since) {
			continue
		}
		entry.kind = kind
		items = append(items, entry)
	}
	return items, nil
}

func (c *HuggingFaceCollector) Normalize(raw RawItem) *models.ContentDraft {
	entry, ok := raw.(hfModel)
	if !ok || entry.ID == "" {
		return nil
	}

	author := entry.Author
	if author == "" {
		if idx := strings.Index(entry.ID, "/"); idx > 0 {
			author = entry.ID[:idx]
		} else {
			author = entry.ID
		}
	}

	contentType := models.ContentTypeCode
	pathPrefix := ""
	desc := "Machine learning model on the Hugging Face Hub"
	if entry.kind == "dataset" {
		contentType = models.ContentTypeDataset
		pathPrefix = "datasets/"
		desc = "Dataset on the Hugging Face Hub"
	}
	if entry.PipelineTag != "" {
		desc += " (" + entry.PipelineTag + ")"
	}

	pageURL := fmt.Sprintf("%s/%s%s", c.base, pathPrefix, entry.ID)
	return (&models.ContentDraft{
		ExternalAgentID: "huggingface:" + author,
		Type:            contentType,
		Title:           entry.ID,
		Description:     desc,
		ContentURL:      pageURL,
		SourcePlatform:  c.PlatformID(),
		SourceURL:       pageURL,
		Tags:            append([]string{"huggingface", entry.kind}, entry.Tags...),
		Categories:      []string{"machine-learning"},
	}).Sanitize()
}
