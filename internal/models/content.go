package models

import (
	"strings"
	"time"
)

// ContentType categorizes a catalog item.
type ContentType string

const (
	ContentTypeDocument     ContentType = "document"
	ContentTypeVideo        ContentType = "video"
	ContentTypePost         ContentType = "post"
	ContentTypeCode         ContentType = "code"
	ContentTypeArtwork      ContentType = "artwork"
	ContentTypeMusic        ContentType = "music"
	ContentTypeResearch     ContentType = "research"
	ContentTypeConversation ContentType = "conversation"
	ContentTypeDataset      ContentType = "dataset"
	ContentTypeSimulation   ContentType = "simulation"
)

// Content is a catalog entry owned by exactly one Agent. Engagement counters
// are initialized by the ingestion path and not refreshed on duplicate
// re-ingestion (a duplicate source URL is a no-op).
type Content struct {
	ID             int64       `json:"id"`
	AgentID        int64       `json:"agent_id"`
	Type           ContentType `json:"content_type"`
	Title          string      `json:"title"`
	Description    string      `json:"description,omitempty"`
	Body           string      `json:"body,omitempty"`
	ContentURL     string      `json:"content_url,omitempty"`
	ThumbnailURL   string      `json:"thumbnail_url,omitempty"`
	SourcePlatform string      `json:"source_platform,omitempty"`
	SourceURL      string      `json:"source_url,omitempty"` // unique across the catalog when present
	Tags           []string    `json:"tags,omitempty"`
	Categories     []string    `json:"categories,omitempty"`
	Language       string      `json:"language,omitempty"`
	License        string      `json:"license,omitempty"`
	QualityScore   float64     `json:"quality_score"`
	ViewCount      int         `json:"view_count"`
	LikeCount      int         `json:"like_count"`
	ShareCount     int         `json:"share_count"`
	DownloadCount  int         `json:"download_count"`
	IsPublic       bool        `json:"is_public"`
	IsFeatured     bool        `json:"is_featured"`
	IndexedAt      time.Time   `json:"indexed_at"`
	CreatedAt      *time.Time  `json:"created_at,omitempty"`
	UpdatedAt      time.Time   `json:"updated_at"`

	Agent *Agent `json:"agent,omitempty"`
}

// Display-layer bounds applied when sanitizing drafts. These came from the
// consuming UI, not from any protocol requirement, so they are variables
// rather than hard invariants.
var (
	MaxDescriptionLen = 500
	MaxTags           = 10
	MaxCategories     = 5
)

// ContentDraft is the normalized item every collector produces. It is the
// only shape that crosses the collector/catalog boundary.
type ContentDraft struct {
	ExternalAgentID string      `json:"external_agent_id"`
	Type            ContentType `json:"content_type"`
	Title           string      `json:"title"`
	Description     string      `json:"description,omitempty"`
	Body            string      `json:"body,omitempty"`
	ContentURL      string      `json:"content_url,omitempty"`
	ThumbnailURL    string      `json:"thumbnail_url,omitempty"`
	SourcePlatform  string      `json:"source_platform,omitempty"`
	SourceURL       string      `json:"source_url,omitempty"`
	Tags            []string    `json:"tags,omitempty"`
	Categories      []string    `json:"categories,omitempty"`
	Language        string      `json:"language,omitempty"`
	License         string      `json:"license,omitempty"`
}

// Sanitize trims whitespace and enforces the display bounds on description,
// tags and categories. It mutates the draft in place and returns it for
// chaining inside Normalize implementations.
func (d *ContentDraft) Sanitize() *ContentDraft {
	d.ExternalAgentID = strings.TrimSpace(d.ExternalAgentID)
	d.Title = strings.TrimSpace(d.Title)
	d.Description = Truncate(strings.TrimSpace(d.Description), MaxDescriptionLen)

	d.Tags = boundStrings(d.Tags, MaxTags)
	d.Categories = boundStrings(d.Categories, MaxCategories)

	return d
}

// Valid reports whether the draft carries the mandatory identity fields.
func (d *ContentDraft) Valid() bool {
	return d.ExternalAgentID != "" && d.Title != "" && d.Type != ""
}

// Truncate shortens s to at most n bytes, cutting on a rune boundary.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// boundStrings drops empties, removes duplicates preserving order, and caps
// the slice length.
func boundStrings(in []string, max int) []string {
	if len(in) == 0 {
		return in
	}

	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
		if len(out) == max {
			break
		}
	}

	return out
}
