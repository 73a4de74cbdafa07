package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/agentverse/agentverse/internal/models"
)

// redditSubreddits are polled on every run. Reddit's unauthenticated JSON
// endpoints are rate limited aggressively, so the first 429 trips a latch
// that stops the remaining sub-fetches.
var redditSubreddits = []string{
	"artificial", "LocalLLaMA", "ChatGPT", "AI_Agents", "singularity",
}

type redditPost struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	SelfText   string  `json:"selftext"`
	Author     string  `json:"author"`
	Subreddit  string  `json:"subreddit"`
	Permalink  string  `json:"permalink"`
	URL        string  `json:"url"`
	Thumbnail  string  `json:"thumbnail"`
	Score      int     `json:"score"`
	CreatedUTC float64 `json:"created_utc"`
	Stickied   bool    `json:"stickied"`
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// RedditCollector indexes fresh discussion posts from a fixed set of
// AI-focused subreddits via the public JSON listings.
type RedditCollector struct {
	client *http.Client
	logger *slog.Logger
	base   string
}

func NewRedditCollector(logger *slog.Logger) *RedditCollector {
	return &RedditCollector{
		client: newHTTPClient(),
		logger: logger,
		base:   "https://www.reddit.com",
	}
}

func (c *RedditCollector) PlatformID() string   { return "reddit" }
func (c *RedditCollector) PlatformName() string { return "Reddit" }

func (c *RedditCollector) Fetch(ctx context.Context, since time.Time, limit int) ([]RawItem, error) {
	perSub := limit/len(redditSubreddits) + 1
	latch := &rateLatch{}

	subs := make([]subFetch, 0, len(redditSubreddits))
	for _, name := range redditSubreddits {
		name := name
		subs = append(subs, subFetch{
			name: "r/" + name,
			fn: func(ctx context.Context) ([]RawItem, error) {
				return c.fetchSubreddit(ctx, latch, name, since, perSub)
			},
		})
	}
	return gather(ctx, c.logger, c.PlatformID(), limit, subs)
}

func (c *RedditCollector) fetchSubreddit(ctx context.Context, latch *rateLatch, name string, since time.Time, limit int) ([]RawItem, error) {
	if latch.Tripped() {
		return nil, nil
	}

	u := fmt.Sprintf("%s/r/%s/new.json?limit=%d", c.base, name, limit)
	var listing redditListing
	if err := getJSON(ctx, c.client, u, nil, &listing); err != nil {
		if errors.Is(err, ErrRateLimited) {
			latch.Trip()
		}
		return nil, err
	}

	items := make([]RawItem, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		post := child.Data
		if post.Stickied {
			continue
		}
		created := time.Unix(int64(post.CreatedUTC), 0).UTC()
		if !since.IsZero() && created.Before(since) {
			continue
		}
		items = append(items, post)
	}
	return items, nil
}

func (c *RedditCollector) Normalize(raw RawItem) *models.ContentDraft {
	post, ok := raw.(redditPost)
	if !ok || post.ID == "" || post.Author == "" || post.Author == "[deleted]" {
		return nil
	}
	if !containsAnyFold(post.Title+" "+post.SelfText, agentKeywords) {
		return nil
	}

	thumbnail := post.Thumbnail
	if thumbnail == "self" || thumbnail == "default" || thumbnail == "nsfw" {
		thumbnail = ""
	}

	return (&models.ContentDraft{
		ExternalAgentID: "reddit:" + post.Author,
		Type:            models.ContentTypePost,
		Title:           post.Title,
		Description:     post.SelfText,
		ContentURL:      post.URL,
		ThumbnailURL:    thumbnail,
		SourcePlatform:  c.PlatformID(),
		SourceURL:       c.base + post.Permalink,
		Tags:            []string{"reddit", post.Subreddit, "discussion"},
		Categories:      []string{"community"},
	}).Sanitize()
}
