package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/agentverse/agentverse/internal/models"
)

// ValidationError represents a request validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// contentTypeList is the enumeration order served by /api/content-types.
var contentTypeList = []models.ContentType{
	models.ContentTypeDocument,
	models.ContentTypeVideo,
	models.ContentTypePost,
	models.ContentTypeCode,
	models.ContentTypeArtwork,
	models.ContentTypeMusic,
	models.ContentTypeResearch,
	models.ContentTypeConversation,
	models.ContentTypeDataset,
	models.ContentTypeSimulation,
}

var validContentTypes = func() map[models.ContentType]bool {
	m := make(map[models.ContentType]bool, len(contentTypeList))
	for _, t := range contentTypeList {
		m[t] = true
	}
	return m
}()

var validSortFields = map[models.ContentSortField]bool{
	models.SortByRelevance: true,
	models.SortByRecent:    true,
	models.SortByPopular:   true,
	models.SortByLiked:     true,
}

// parseContentQuery builds a ContentQuery from search query parameters.
func parseContentQuery(r *http.Request) (*models.ContentQuery, error) {
	params := r.URL.Query()
	query := &models.ContentQuery{
		Query:          strings.TrimSpace(params.Get("q")),
		AgentType:      params.Get("agent_type"),
		SourcePlatform: params.Get("platform"),
	}

	if v := params.Get("type"); v != "" {
		contentType := models.ContentType(v)
		if !validContentTypes[contentType] {
			return nil, ValidationError{Field: "type", Message: "unknown content type"}
		}
		query.Type = contentType
	}

	if v := params.Get("tags"); v != "" {
		for _, tag := range strings.Split(v, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				query.Tags = append(query.Tags, tag)
			}
		}
	}

	if v := params.Get("sort"); v != "" {
		sortBy := models.ContentSortField(v)
		if !validSortFields[sortBy] {
			return nil, ValidationError{Field: "sort", Message: "unknown sort field"}
		}
		query.SortBy = sortBy
	}

	var err error
	if query.Page, err = parsePositiveInt(params, "page", 1); err != nil {
		return nil, err
	}
	if query.PageSize, err = parsePositiveInt(params, "page_size", 20); err != nil {
		return nil, err
	}

	if err := query.Validate(); err != nil {
		return nil, err
	}
	return query, nil
}

func parsePositiveInt(params url.Values, field string, fallback int) (int, error) {
	v := params.Get(field)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, ValidationError{Field: field, Message: "must be a positive integer"}
	}
	return n, nil
}

// validateDraft checks a manual content submission.
func validateDraft(draft *models.ContentDraft) error {
	draft.Sanitize()

	if draft.ExternalAgentID == "" {
		return ValidationError{Field: "external_agent_id", Message: "required"}
	}
	if draft.Title == "" {
		return ValidationError{Field: "title", Message: "required"}
	}
	if draft.Type == "" {
		return ValidationError{Field: "content_type", Message: "required"}
	}
	if !validContentTypes[draft.Type] {
		return ValidationError{Field: "content_type", Message: "unknown content type"}
	}
	for _, u := range []struct{ field, value string }{
		{"content_url", draft.ContentURL},
		{"source_url", draft.SourceURL},
		{"thumbnail_url", draft.ThumbnailURL},
	} {
		if u.value == "" {
			continue
		}
		parsed, err := url.Parse(u.value)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			return ValidationError{Field: u.field, Message: "must be an absolute http(s) URL"}
		}
	}
	return nil
}
