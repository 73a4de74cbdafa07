package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/agentverse/agentverse/internal/models"
)

type civitaiImage struct {
	ID        int64     `json:"id"`
	URL       string    `json:"url"`
	NSFWLevel string    `json:"nsfwLevel"`
	CreatedAt time.Time `json:"createdAt"`
	PostID    int64     `json:"postId"`
	Username  string    `json:"username"`
	Meta      *struct {
		Prompt string `json:"prompt"`
		Model  string `json:"Model"`
	} `json:"meta"`
	// The API returns this field as a bool, a string, or a list depending
	// on the model, so it is decoded lazily.
	AllowCommercialUse json.RawMessage `json:"allowCommercialUse"`
}

type civitaiImagesResponse struct {
	Items []civitaiImage `json:"items"`
}

// CivitaiCollector indexes recent AI-generated images from the Civitai
// public API.
type CivitaiCollector struct {
	token  string
	client *http.Client
	logger *slog.Logger
	base   string
}

func NewCivitaiCollector(token string, logger *slog.Logger) *CivitaiCollector {
	return &CivitaiCollector{
		token:  token,
		client: newHTTPClient(),
		logger: logger,
		base:   "https://civitai.com",
	}
}

func (c *CivitaiCollector) PlatformID() string   { return "civitai" }
func (c *CivitaiCollector) PlatformName() string { return "Civitai" }

func (c *CivitaiCollector) Fetch(ctx context.Context, since time.Time, limit int) ([]RawItem, error) {
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	u := fmt.Sprintf("%s/api/v1/images?limit=%d&sort=Newest&nsfw=None", c.base, limit)
	var resp civitaiImagesResponse
	if err := getJSON(ctx, c.client, u, header, &resp); err != nil {
		return nil, fmt.Errorf("listing images: %w", err)
	}

	items := make([]RawItem, 0, len(resp.Items))
	for _, img := range resp.Items {
		if !since.IsZero() && !img.CreatedAt.IsZero() && img.CreatedAt.Before(since) {
			continue
		}
		items = append(items, img)
	}
	return items, nil
}

func (c *CivitaiCollector) Normalize(raw RawItem) *models.ContentDraft {
	img, ok := raw.(civitaiImage)
	if !ok || img.ID == 0 || img.Username == "" {
		return nil
	}

	title := fmt.Sprintf("AI artwork by %s", img.Username)
	desc := ""
	tags := []string{"civitai", "ai-art", "image"}
	if img.Meta != nil {
		if img.Meta.Prompt != "" {
			desc = img.Meta.Prompt
		}
		if img.Meta.Model != "" {
			tags = append(tags, strings.ToLower(img.Meta.Model))
		}
	}

	sourceURL := fmt.Sprintf("%s/images/%d", c.base, img.ID)
	draft := &models.ContentDraft{
		ExternalAgentID: "civitai:" + img.Username,
		Type:            models.ContentTypeArtwork,
		Title:           title,
		Description:     desc,
		ContentURL:      sourceURL,
		ThumbnailURL:    img.URL,
		SourcePlatform:  c.PlatformID(),
		SourceURL:       sourceURL,
		Tags:            tags,
		Categories:      []string{"art"},
		License:         commercialUseLicense(img.AllowCommercialUse),
	}
	return draft.Sanitize()
}

// commercialUseLicense flattens the allowCommercialUse field into a short
// license note, tolerating the bool, string and list encodings the API uses.
func commercialUseLicense(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case 't':
		return "commercial-use-allowed"
	case 'f':
		return "non-commercial"
	case '"':
		return strings.ToLower(strings.Trim(string(raw), `"`))
	case '[':
		var values []string
		if err := json.Unmarshal(raw, &values); err != nil || len(values) == 0 {
			return ""
		}
		return strings.ToLower(strings.Join(values, ","))
	default:
		return ""
	}
}
