package models

// ContentQuery represents filters and pagination for searching the catalog.
type ContentQuery struct {
	Query          string      `json:"query,omitempty"`
	Type           ContentType `json:"content_type,omitempty"`
	AgentType      string      `json:"agent_type,omitempty"`
	SourcePlatform string      `json:"source_platform,omitempty"`
	Tags           []string    `json:"tags,omitempty"`

	SortBy ContentSortField `json:"sort_by,omitempty"`

	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// ContentSortField specifies which sort key to order results by.
type ContentSortField string

const (
	SortByRelevance ContentSortField = "relevance"
	SortByRecent    ContentSortField = "recent"
	SortByPopular   ContentSortField = "popular"
	SortByLiked     ContentSortField = "liked"
)

// Validate applies pagination and sorting defaults and bounds.
func (q *ContentQuery) Validate() error {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = 20
	}
	if q.PageSize > 100 {
		q.PageSize = 100
	}
	if q.SortBy == "" {
		q.SortBy = SortByRelevance
	}
	return nil
}

// Offset returns the row offset implied by the page and page size.
func (q *ContentQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// ContentPage is one page of search results.
type ContentPage struct {
	Results    []Content `json:"results"`
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalPages int       `json:"total_pages"`
	Query      string    `json:"query"`
}

// CatalogStats summarizes the catalog for the stats endpoint.
type CatalogStats struct {
	TotalAgents   int            `json:"total_agents"`
	TotalContents int            `json:"total_contents"`
	ContentTypes  map[string]int `json:"content_types"`
	TopPlatforms  []PlatformTally `json:"top_platforms"`
}

// PlatformTally is one platform's item count in the stats rollup.
type PlatformTally struct {
	Platform string `json:"platform"`
	Count    int    `json:"count"`
}

// TagCount is one tag's usage count in the tag rollup.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}
