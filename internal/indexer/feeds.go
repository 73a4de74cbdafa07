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

type hnSearchResponse struct {
	Hits []hnHit `json:"hits"`
}

type hnHit struct {
	ObjectID  string    `json:"objectID"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Author    string    `json:"author"`
	Points    int       `json:"points"`
	CreatedAt time.Time `json:"created_at"`
}

type devtoArticle struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	URL          string    `json:"url"`
	CoverImage   string    `json:"cover_image"`
	TagList      []string  `json:"tag_list"`
	PublishedAt  time.Time `json:"published_at"`
	ReadingTime  int       `json:"reading_time_minutes"`
	Organization *struct {
		Username string `json:"username"`
	} `json:"organization"`
	User struct {
		Username string `json:"username"`
	} `json:"user"`
}

type mediumRSS struct {
	Channel struct {
		Items []mediumItem `xml:"item"`
	} `xml:"channel"`
}

type mediumItem struct {
	Title   string `xml:"title"`
	Link    string `xml:"link"`
	Creator string `xml:"creator"`
	PubDate string `xml:"pubDate"`
}

// feedRecord is the platform-tagged union of the three feed shapes.
type feedRecord struct {
	source string // "hackernews", "devto", "medium"
	hn     hnHit
	devto  devtoArticle
	medium mediumItem
}

// FeedsCollector aggregates developer-facing feeds: Hacker News search,
// Dev.to articles and the Medium AI tag RSS. These move faster than the
// platform APIs, so the collector runs on a shorter cadence.
type FeedsCollector struct {
	client *http.Client
	logger *slog.Logger

	hnBase     string
	devtoBase  string
	mediumBase string
}

func NewFeedsCollector(logger *slog.Logger) *FeedsCollector {
	return &FeedsCollector{
		client:     newHTTPClient(),
		logger:     logger,
		hnBase:     "https://hn.algolia.com",
		devtoBase:  "https://dev.to",
		mediumBase: "https://medium.com",
	}
}

func (c *FeedsCollector) PlatformID() string   { return "feeds" }
func (c *FeedsCollector) PlatformName() string { return "Developer Feeds" }

func (c *FeedsCollector) Fetch(ctx context.Context, since time.Time, limit int) ([]RawItem, error) {
	subs := []subFetch{
		{name: "hackernews", fn: func(ctx context.Context) ([]RawItem, error) {
			return c.fetchHackerNews(ctx, since, limit)
		}},
		{name: "devto", fn: func(ctx context.Context) ([]RawItem, error) {
			return c.fetchDevto(ctx, since, limit)
		}},
		{name: "medium", fn: func(ctx context.Context) ([]RawItem, error) {
			return c.fetchMedium(ctx, since)
		}},
	}
	return gather(ctx, c.logger, c.PlatformID(), limit, subs)
}

func (c *FeedsCollector) fetchHackerNews(ctx context.Context, since time.Time, limit int) ([]RawItem, error) {
	u := fmt.Sprintf("%s/api/v1/search_by_date?query=%s&tags=story&hitsPerPage=%d",
		c.hnBase, url.QueryEscape("AI agent"), limit)
	var resp hnSearchResponse
	if err := getJSON(ctx, c.client, u, nil, &resp); err != nil {
		return nil, err
	}

	items := make([]RawItem, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		if !since.IsZero() && !hit.CreatedAt.IsZero() && hit.CreatedAt.Before(since) {
			continue
		}
		items = append(items, feedRecord{source: "hackernews", hn: hit})
	}
	return items, nil
}

func (c *FeedsCollector) fetchDevto(ctx context.Context, since time.Time, limit int) ([]RawItem, error) {
	u := fmt.Sprintf("%s/api/articles?tag=ai&per_page=%d", c.devtoBase, limit)
	var articles []devtoArticle
	if err := getJSON(ctx, c.client, u, nil, &articles); err != nil {
		return nil, err
	}

	items := make([]RawItem, 0, len(articles))
	for _, article := range articles {
		if !since.IsZero() && !article.PublishedAt.IsZero() && article.PublishedAt.Before(since) {
			continue
		}
		items = append(items, feedRecord{source: "devto", devto: article})
	}
	return items, nil
}

func (c *FeedsCollector) fetchMedium(ctx context.Context, since time.Time) ([]RawItem, error) {
	body, err := getBody(ctx, c.client, c.mediumBase+"/feed/tag/artificial-intelligence", nil)
	if err != nil {
		return nil, err
	}

	var feed mediumRSS
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("parsing medium feed: %w", err)
	}

	items := make([]RawItem, 0, len(feed.Channel.Items))
	for _, item := range feed.Channel.Items {
		if !since.IsZero() {
			if published, err := time.Parse(time.RFC1123, item.PubDate); err == nil && published.Before(since) {
				continue
			}
		}
		items = append(items, feedRecord{source: "medium", medium: item})
	}
	return items, nil
}

func (c *FeedsCollector) Normalize(raw RawItem) *models.ContentDraft {
	record, ok := raw.(feedRecord)
	if !ok {
		return nil
	}
	switch record.source {
	case "hackernews":
		return c.normalizeHN(record.hn)
	case "devto":
		return c.normalizeDevto(record.devto)
	case "medium":
		return c.normalizeMedium(record.medium)
	default:
		return nil
	}
}

func (c *FeedsCollector) normalizeHN(hit hnHit) *models.ContentDraft {
	if hit.Title == "" || hit.Author == "" {
		return nil
	}
	pageURL := hit.URL
	discussionURL := fmt.Sprintf("https://news.ycombinator.com/item?id=%s", hit.ObjectID)
	if pageURL == "" {
		pageURL = discussionURL
	}
	return (&models.ContentDraft{
		ExternalAgentID: "hackernews:" + hit.Author,
		Type:            deriveTypeFromURL(pageURL),
		Title:           hit.Title,
		ContentURL:      pageURL,
		SourcePlatform:  c.PlatformID(),
		SourceURL:       discussionURL,
		Tags:            []string{"hackernews", "discussion"},
		Categories:      []string{"community"},
	}).Sanitize()
}

func (c *FeedsCollector) normalizeDevto(article devtoArticle) *models.ContentDraft {
	if article.ID == 0 || article.Title == "" {
		return nil
	}
	author := article.User.Username
	if article.Organization != nil && article.Organization.Username != "" {
		author = article.Organization.Username
	}
	if author == "" {
		return nil
	}
	return (&models.ContentDraft{
		ExternalAgentID: "devto:" + author,
		Type:            models.ContentTypeDocument,
		Title:           article.Title,
		Description:     article.Description,
		ContentURL:      article.URL,
		ThumbnailURL:    article.CoverImage,
		SourcePlatform:  c.PlatformID(),
		SourceURL:       article.URL,
		Tags:            append([]string{"devto"}, article.TagList...),
		Categories:      []string{"engineering"},
	}).Sanitize()
}

func (c *FeedsCollector) normalizeMedium(item mediumItem) *models.ContentDraft {
	if item.Link == "" || item.Title == "" {
		return nil
	}
	author := strings.TrimSpace(item.Creator)
	if author == "" {
		author = domainOf(item.Link)
	}
	// Medium appends tracking query params to RSS links.
	link := item.Link
	if idx := strings.Index(link, "?source="); idx > 0 {
		link = link[:idx]
	}
	return (&models.ContentDraft{
		ExternalAgentID: "medium:" + author,
		Type:            models.ContentTypeDocument,
		Title:           item.Title,
		ContentURL:      link,
		SourcePlatform:  c.PlatformID(),
		SourceURL:       link,
		Tags:            []string{"medium", "article"},
		Categories:      []string{"writing"},
	}).Sanitize()
}
