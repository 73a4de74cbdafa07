package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/agentverse/agentverse/internal/models"
)

// websearchQueries feed the instant-answer API. Each related topic that
// carries a URL becomes a candidate catalog item.
var websearchQueries = []string{
	"AI agent framework",
	"autonomous AI agent",
	"AI generated content",
}

type ddgResponse struct {
	RelatedTopics []ddgTopic `json:"RelatedTopics"`
}

type ddgTopic struct {
	FirstURL string     `json:"FirstURL"`
	Text     string     `json:"Text"`
	Icon     ddgIcon    `json:"Icon"`
	Topics   []ddgTopic `json:"Topics"`
}

type ddgIcon struct {
	URL string `json:"URL"`
}

type websearchResult struct {
	URL     string
	Text    string
	IconURL string
	Query   string
}

// WebSearchCollector discovers agent-related pages through the DuckDuckGo
// instant-answer API. It has no notion of publish time, so the watermark is
// ignored and deduplication happens entirely at the catalog.
type WebSearchCollector struct {
	client *http.Client
	logger *slog.Logger
	base   string
}

func NewWebSearchCollector(logger *slog.Logger) *WebSearchCollector {
	return &WebSearchCollector{
		client: newHTTPClient(),
		logger: logger,
		base:   "https://api.duckduckgo.com",
	}
}

func (c *WebSearchCollector) PlatformID() string   { return "websearch" }
func (c *WebSearchCollector) PlatformName() string { return "Web Search" }

func (c *WebSearchCollector) Fetch(ctx context.Context, since time.Time, limit int) ([]RawItem, error) {
	subs := make([]subFetch, 0, len(websearchQueries))
	for _, query := range websearchQueries {
		query := query
		subs = append(subs, subFetch{
			name: "query:" + query,
			fn: func(ctx context.Context) ([]RawItem, error) {
				return c.search(ctx, query)
			},
		})
	}
	return gather(ctx, c.logger, c.PlatformID(), limit, subs)
}

func (c *WebSearchCollector) search(ctx context.Context, query string) ([]RawItem, error) {
	u := fmt.Sprintf("%s/?q=%s&format=json&no_html=1", c.base, url.QueryEscape(query))
	var resp ddgResponse
	if err := getJSON(ctx, c.client, u, nil, &resp); err != nil {
		return nil, fmt.Errorf("searching %q: %w", query, err)
	}

	var items []RawItem
	var walk func(topics []ddgTopic)
	walk = func(topics []ddgTopic) {
		for _, topic := range topics {
			if topic.FirstURL != "" && topic.Text != "" {
				items = append(items, websearchResult{
					URL:     topic.FirstURL,
					Text:    topic.Text,
					IconURL: topic.Icon.URL,
					Query:   query,
				})
			}
			walk(topic.Topics)
		}
	}
	walk(resp.RelatedTopics)
	return items, nil
}

func (c *WebSearchCollector) Normalize(raw RawItem) *models.ContentDraft {
	result, ok := raw.(websearchResult)
	if !ok || result.URL == "" {
		return nil
	}

	domain := domainOf(result.URL)
	if domain == "" {
		return nil
	}

	title := models.Truncate(result.Text, 120)
	return (&models.ContentDraft{
		ExternalAgentID: "web:" + domain,
		Type:            deriveTypeFromURL(result.URL),
		Title:           title,
		Description:     result.Text,
		ContentURL:      result.URL,
		ThumbnailURL:    result.IconURL,
		SourcePlatform:  c.PlatformID(),
		SourceURL:       result.URL,
		Tags:            []string{"websearch", domain},
		Categories:      []string{"web"},
	}).Sanitize()
}
