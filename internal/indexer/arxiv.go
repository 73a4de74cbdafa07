package indexer

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/agentverse/agentverse/internal/models"
)

const arxivCategories = "cat:cs.AI OR cat:cs.MA OR cat:cs.CL"

type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID        string        `xml:"id"`
	Title     string        `xml:"title"`
	Summary   string        `xml:"summary"`
	Published time.Time     `xml:"published"`
	Updated   time.Time     `xml:"updated"`
	Authors   []arxivAuthor `xml:"author"`
	Links     []arxivLink   `xml:"link"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

type arxivLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

// ArxivCollector indexes recent agent-related papers from the arXiv Atom
// API, querying the AI, multi-agent and computational linguistics
// categories.
type ArxivCollector struct {
	client *http.Client
	logger *slog.Logger
	base   string
}

func NewArxivCollector(logger *slog.Logger) *ArxivCollector {
	return &ArxivCollector{
		client: newHTTPClient(),
		logger: logger,
		base:   "http://export.arxiv.org",
	}
}

func (c *ArxivCollector) PlatformID() string   { return "arxiv" }
func (c *ArxivCollector) PlatformName() string { return "arXiv" }

func (c *ArxivCollector) Fetch(ctx context.Context, since time.Time, limit int) ([]RawItem, error) {
	u := fmt.Sprintf("%s/api/query?search_query=%s&sortBy=submittedDate&sortOrder=descending&max_results=%d",
		c.base, url.QueryEscape(arxivCategories), limit)

	body, err := getBody(ctx, c.client, u, nil)
	if err != nil {
		return nil, fmt.Errorf("querying arxiv: %w", err)
	}

	var feed arxivFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("parsing arxiv feed: %w", err)
	}

	items := make([]RawItem, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		if !since.IsZero() && !entry.Published.IsZero() && entry.Published.Before(since) {
			continue
		}
		items = append(items, entry)
	}
	return items, nil
}

func (c *ArxivCollector) Normalize(raw RawItem) *models.ContentDraft {
	entry, ok := raw.(arxivEntry)
	if !ok || entry.ID == "" {
		return nil
	}

	title := strings.Join(strings.Fields(entry.Title), " ")
	summary := strings.Join(strings.Fields(entry.Summary), " ")
	if !containsAnyFold(title+" "+summary, researchKeywords) {
		return nil
	}

	author := "arXiv Authors"
	if len(entry.Authors) > 0 && entry.Authors[0].Name != "" {
		author = entry.Authors[0].Name
	}

	pageURL := entry.ID
	for _, link := range entry.Links {
		if link.Rel == "alternate" && link.Type == "text/html" {
			pageURL = link.Href
			break
		}
	}

	return (&models.ContentDraft{
		ExternalAgentID: "arxiv:" + author,
		Type:            models.ContentTypeResearch,
		Title:           title,
		Description:     summary,
		ContentURL:      pageURL,
		SourcePlatform:  c.PlatformID(),
		SourceURL:       entry.ID,
		Tags:            []string{"arxiv", "paper", "research"},
		Categories:      []string{"research"},
	}).Sanitize()
}
