package indexer

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/agentverse/agentverse/internal/models"
)

type ytSearchResponse struct {
	Items []ytSearchItem `json:"items"`
}

type ytSearchItem struct {
	ID struct {
		VideoID string `json:"videoId"`
	} `json:"id"`
	Snippet struct {
		Title        string    `json:"title"`
		Description  string    `json:"description"`
		ChannelID    string    `json:"channelId"`
		ChannelTitle string    `json:"channelTitle"`
		PublishedAt  time.Time `json:"publishedAt"`
		Thumbnails   struct {
			High struct {
				URL string `json:"url"`
			} `json:"high"`
		} `json:"thumbnails"`
	} `json:"snippet"`
}

type ytRSSFeed struct {
	Entries []ytRSSEntry `xml:"entry"`
}

type ytRSSEntry struct {
	VideoID   string    `xml:"videoId"`
	Title     string    `xml:"title"`
	Author    ytRSSAuthor `xml:"author"`
	Published time.Time `xml:"published"`
}

type ytRSSAuthor struct {
	Name string `xml:"name"`
}

// ytVideo is the normalized shape both fetch modes converge on.
type ytVideo struct {
	VideoID      string
	Title        string
	Description  string
	Channel      string
	ThumbnailURL string
	PublishedAt  time.Time
}

// ytFallbackChannels are polled through the public RSS feeds when no API key
// is configured.
var ytFallbackChannels = []string{
	"UCbfYPyITQ-7l4upoX8nvctg", // Two Minute Papers
	"UCawZsQWqfGSbCI5yjkdVkTA", // Matt Wolfe
}

// YouTubeCollector indexes agent-related videos. With an API key it uses the
// Data API search endpoint; without one it falls back to per-channel RSS,
// which needs no credentials but covers a fixed channel list.
type YouTubeCollector struct {
	apiKey string
	client *http.Client
	logger *slog.Logger
	apiBase string
	rssBase string
}

func NewYouTubeCollector(apiKey string, logger *slog.Logger) *YouTubeCollector {
	return &YouTubeCollector{
		apiKey:  apiKey,
		client:  newHTTPClient(),
		logger:  logger,
		apiBase: "https://www.googleapis.com/youtube/v3",
		rssBase: "https://www.youtube.com",
	}
}

func (c *YouTubeCollector) PlatformID() string   { return "youtube" }
func (c *YouTubeCollector) PlatformName() string { return "YouTube" }

func (c *YouTubeCollector) Fetch(ctx context.Context, since time.Time, limit int) ([]RawItem, error) {
	if c.apiKey != "" {
		return c.fetchAPI(ctx, since, limit)
	}
	return c.fetchRSS(ctx, since, limit)
}

func (c *YouTubeCollector) fetchAPI(ctx context.Context, since time.Time, limit int) ([]RawItem, error) {
	u := fmt.Sprintf("%s/search?part=snippet&type=video&order=date&q=%s&maxResults=%d&key=%s",
		c.apiBase, url.QueryEscape("AI agent"), limit, url.QueryEscape(c.apiKey))
	if !since.IsZero() {
		u += "&publishedAfter=" + url.QueryEscape(since.Format(time.RFC3339))
	}

	var resp ytSearchResponse
	if err := getJSON(ctx, c.client, u, nil, &resp); err != nil {
		return nil, fmt.Errorf("searching videos: %w", err)
	}

	items := make([]RawItem, 0, len(resp.Items))
	for _, item := range resp.Items {
		items = append(items, ytVideo{
			VideoID:      item.ID.VideoID,
			Title:        item.Snippet.Title,
			Description:  item.Snippet.Description,
			Channel:      item.Snippet.ChannelTitle,
			ThumbnailURL: item.Snippet.Thumbnails.High.URL,
			PublishedAt:  item.Snippet.PublishedAt,
		})
	}
	return items, nil
}

func (c *YouTubeCollector) fetchRSS(ctx context.Context, since time.Time, limit int) ([]RawItem, error) {
	subs := make([]subFetch, 0, len(ytFallbackChannels))
	for _, channel := range ytFallbackChannels {
		channel := channel
		subs = append(subs, subFetch{
			name: "channel:" + channel,
			fn: func(ctx context.Context) ([]RawItem, error) {
				return c.fetchChannelRSS(ctx, channel, since)
			},
		})
	}
	return gather(ctx, c.logger, c.PlatformID(), limit, subs)
}

func (c *YouTubeCollector) fetchChannelRSS(ctx context.Context, channelID string, since time.Time) ([]RawItem, error) {
	u := fmt.Sprintf("%s/feeds/videos.xml?channel_id=%s", c.rssBase, channelID)
	body, err := getBody(ctx, c.client, u, nil)
	if err != nil {
		return nil, err
	}

	var feed ytRSSFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("parsing channel feed: %w", err)
	}

	items := make([]RawItem, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		if !since.IsZero() && !entry.Published.IsZero() && entry.Published.Before(since) {
			continue
		}
		items = append(items, ytVideo{
			VideoID:     entry.VideoID,
			Title:       entry.Title,
			Channel:     entry.Author.Name,
			PublishedAt: entry.Published,
		})
	}
	return items, nil
}

func (c *YouTubeCollector) Normalize(raw RawItem) *models.ContentDraft {
	video, ok := raw.(ytVideo)
	if !ok || video.VideoID == "" || video.Channel == "" {
		return nil
	}

	pageURL := "https://www.youtube.com/watch?v=" + video.VideoID
	return (&models.ContentDraft{
		ExternalAgentID: "youtube:" + video.Channel,
		Type:            models.ContentTypeVideo,
		Title:           video.Title,
		Description:     video.Description,
		ContentURL:      pageURL,
		ThumbnailURL:    video.ThumbnailURL,
		SourcePlatform:  c.PlatformID(),
		SourceURL:       pageURL,
		Tags:            []string{"youtube", "video"},
		Categories:      []string{"video"},
	}).Sanitize()
}
