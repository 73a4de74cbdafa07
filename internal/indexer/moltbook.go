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

type moltbookPost struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
	Submolt   string    `json:"submolt"`
	Author    struct {
		Name string `json:"name"`
	} `json:"author"`
}

type moltbookResponse struct {
	Posts []moltbookPost `json:"posts"`
}

type bskyFeedResponse struct {
	Posts []bskyPost `json:"posts"`
}

type bskyPost struct {
	URI    string `json:"uri"`
	Author struct {
		Handle      string `json:"handle"`
		DisplayName string `json:"displayName"`
		Avatar      string `json:"avatar"`
	} `json:"author"`
	Record struct {
		Text      string    `json:"text"`
		CreatedAt time.Time `json:"createdAt"`
	} `json:"record"`
	LikeCount int `json:"likeCount"`
}

// moltbookRecord tags which upstream a raw item came from.
type moltbookRecord struct {
	source string // "moltbook" or "bluesky"
	molt   moltbookPost
	bsky   bskyPost
}

// defaultMoltbookAPI is used when no MOLTBOOK_API_URL override is set.
const defaultMoltbookAPI = "https://moltbook.com/api"

// MoltbookCollector indexes posts written by AI agents: the Moltbook
// agent-only forum plus agent-related posts from the Bluesky public search.
type MoltbookCollector struct {
	apiURL string
	client *http.Client
	logger *slog.Logger
	bskyBase string
}

func NewMoltbookCollector(apiURL string, logger *slog.Logger) *MoltbookCollector {
	if apiURL == "" {
		apiURL = defaultMoltbookAPI
	}
	return &MoltbookCollector{
		apiURL:   strings.TrimRight(apiURL, "/"),
		client:   newHTTPClient(),
		logger:   logger,
		bskyBase: "https://public.api.bsky.app",
	}
}

func (c *MoltbookCollector) PlatformID() string   { return "moltbook" }
func (c *MoltbookCollector) PlatformName() string { return "Moltbook" }

func (c *MoltbookCollector) Fetch(ctx context.Context, since time.Time, limit int) ([]RawItem, error) {
	subs := []subFetch{
		{name: "moltbook", fn: func(ctx context.Context) ([]RawItem, error) {
			return c.fetchMoltbook(ctx, since, limit)
		}},
		{name: "bluesky", fn: func(ctx context.Context) ([]RawItem, error) {
			return c.fetchBluesky(ctx, since, limit)
		}},
	}
	return gather(ctx, c.logger, c.PlatformID(), limit, subs)
}

func (c *MoltbookCollector) fetchMoltbook(ctx context.Context, since time.Time, limit int) ([]RawItem, error) {
	u := fmt.Sprintf("%s/posts?sort=new&limit=%d", c.apiURL, limit)
	var resp moltbookResponse
	if err := getJSON(ctx, c.client, u, nil, &resp); err != nil {
		return nil, err
	}

	items := make([]RawItem, 0, len(resp.Posts))
	for _, post := range resp.Posts {
		if !since.IsZero() && !post.CreatedAt.IsZero() && post.CreatedAt.Before(since) {
			continue
		}
		items = append(items, moltbookRecord{source: "moltbook", molt: post})
	}
	return items, nil
}

func (c *MoltbookCollector) fetchBluesky(ctx context.Context, since time.Time, limit int) ([]RawItem, error) {
	u := fmt.Sprintf("%s/xrpc/app.bsky.feed.searchPosts?q=%s&sort=latest&limit=%d",
		c.bskyBase, url.QueryEscape("AI agent"), limit)
	var resp bskyFeedResponse
	if err := getJSON(ctx, c.client, u, nil, &resp); err != nil {
		return nil, err
	}

	items := make([]RawItem, 0, len(resp.Posts))
	for _, post := range resp.Posts {
		if !since.IsZero() && !post.Record.CreatedAt.IsZero() && post.Record.CreatedAt.Before(since) {
			continue
		}
		items = append(items, moltbookRecord{source: "bluesky", bsky: post})
	}
	return items, nil
}

func (c *MoltbookCollector) Normalize(raw RawItem) *models.ContentDraft {
	record, ok := raw.(moltbookRecord)
	if !ok {
		return nil
	}
	switch record.source {
	case "moltbook":
		return c.normalizeMoltbook(record.molt)
	case "bluesky":
		return c.normalizeBluesky(record.bsky)
	default:
		return nil
	}
}

func (c *MoltbookCollector) normalizeMoltbook(post moltbookPost) *models.ContentDraft {
	if post.ID == "" || post.Author.Name == "" {
		return nil
	}
	sourceURL := post.URL
	if sourceURL == "" {
		sourceURL = fmt.Sprintf("%s/posts/%s", c.apiURL, post.ID)
	}
	return (&models.ContentDraft{
		ExternalAgentID: "moltbook:" + post.Author.Name,
		Type:            models.ContentTypeConversation,
		Title:           post.Title,
		Description:     post.Content,
		ContentURL:      sourceURL,
		SourcePlatform:  c.PlatformID(),
		SourceURL:       sourceURL,
		Tags:            []string{"moltbook", post.Submolt, "agent-post"},
		Categories:      []string{"community"},
	}).Sanitize()
}

func (c *MoltbookCollector) normalizeBluesky(post bskyPost) *models.ContentDraft {
	if post.URI == "" || post.Author.Handle == "" {
		return nil
	}
	// at://did:plc:xyz/app.bsky.feed.post/rkey -> https://bsky.app/profile/handle/post/rkey
	rkey := post.URI[strings.LastIndex(post.URI, "/")+1:]
	pageURL := fmt.Sprintf("https://bsky.app/profile/%s/post/%s", post.Author.Handle, rkey)

	title := models.Truncate(post.Record.Text, 120)
	return (&models.ContentDraft{
		ExternalAgentID: "bluesky:" + post.Author.Handle,
		Type:            models.ContentTypePost,
		Title:           title,
		Description:     post.Record.Text,
		ContentURL:      pageURL,
		ThumbnailURL:    post.Author.Avatar,
		SourcePlatform:  c.PlatformID(),
		SourceURL:       pageURL,
		Tags:            []string{"bluesky", "social"},
		Categories:      []string{"community"},
	}).Sanitize()
}
