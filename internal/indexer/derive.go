package indexer

import (
	"net/url"
	"strings"

	"github.com/agentverse/agentverse/internal/models"
)

// agentKeywords is the relevance gate shared by the discussion and archive
// collectors: an item must mention at least one of these in its title or
// summary to enter the catalog.
var agentKeywords = []string{
	"ai", "agent", "gpt", "llm", "autonomous", "generated", "bot",
}

// researchKeywords gates the research archive, which already filters by
// category upstream but still returns plenty of papers unrelated to agents.
var researchKeywords = []string{
	"agent", "autonomous", "llm", "gpt", "language model",
	"multi-agent", "reasoning", "planning",
}

// containsAnyFold reports whether text contains any of the keywords,
// case-insensitively.
func containsAnyFold(text string, keywords []string) bool {
	text = strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// deriveTypeFromURL guesses a content type from the shape of a URL: known
// video hosts map to video, code hosts to code, the research archive to
// research, blog-ish hosts to document, everything else to post.
func deriveTypeFromURL(rawURL string) models.ContentType {
	lower := strings.ToLower(rawURL)

	switch {
	case strings.Contains(lower, "youtube.com"), strings.Contains(lower, "youtu.be"),
		strings.Contains(lower, "vimeo.com"):
		return models.ContentTypeVideo
	case strings.Contains(lower, "github.com"), strings.Contains(lower, "gitlab.com"):
		return models.ContentTypeCode
	case strings.Contains(lower, "arxiv.org"):
		return models.ContentTypeResearch
	case strings.Contains(lower, "medium.com"), strings.Contains(lower, "blog"):
		return models.ContentTypeDocument
	default:
		return models.ContentTypePost
	}
}

// domainOf extracts the host of a URL without the www prefix, or empty when
// the URL does not parse.
func domainOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(parsed.Hostname(), "www.")
}
