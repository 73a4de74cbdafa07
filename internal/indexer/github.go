package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/agentverse/agentverse/internal/models"
)

// githubSearchQueries are run in order against the repository search API.
// Later queries are skipped once the limit is reached or the API rate
// limits us.
var githubSearchQueries = []string{
	"ai agent framework",
	"autonomous agent llm",
	"llm agent tool",
	"gpt agent",
}

type githubRepo struct {
	FullName    string `json:"full_name"`
	HTMLURL     string `json:"html_url"`
	Description string `json:"description"`
	Language    string `json:"language"`
	Stars       int    `json:"stargazers_count"`
	Topics      []string `json:"topics"`
	PushedAt    time.Time `json:"pushed_at"`
	Owner       struct {
		Login     string `json:"login"`
		AvatarURL string `json:"avatar_url"`
		HTMLURL   string `json:"html_url"`
	} `json:"owner"`
	License *struct {
		SPDXID string `json:"spdx_id"`
	} `json:"license"`
}

type githubSearchResponse struct {
	Items []githubRepo `json:"items"`
}

// GitHubCollector indexes recently pushed agent-related repositories via the
// search API. A token raises the rate limit but is not required.
type GitHubCollector struct {
	token  string
	client *http.Client
	logger *slog.Logger
	base   string
}

func NewGitHubCollector(token string, logger *slog.Logger) *GitHubCollector {
	return &GitHubCollector{
		token:  token,
		client: newHTTPClient(),
		logger: logger,
		base:   "https://api.github.com",
	}
}

func (c *GitHubCollector) PlatformID() string   { return "github" }
func (c *GitHubCollector) PlatformName() string { return "GitHub" }

func (c *GitHubCollector) Fetch(ctx context.Context, since time.Time, limit int) ([]RawItem, error) {
	header := http.Header{"Accept": []string{"application/vnd.github+json"}}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	var items []RawItem
	seen := make(map[string]bool)
	for _, query := range githubSearchQueries {
		if len(items) >= limit {
			break
		}
		q := query
		if !since.IsZero() {
			q += " pushed:>" + since.Format("2006-01-02")
		}
		u := fmt.Sprintf("%s/search/repositories?q=%s&sort=updated&order=desc&per_page=%d",
			c.base, url.QueryEscape(q), limit)

		var resp githubSearchResponse
		if err := getJSON(ctx, c.client, u, header, &resp); err != nil {
			if errors.Is(err, ErrRateLimited) {
				if len(items) > 0 {
					c.logger.Warn("github rate limited, stopping early", "collected", len(items))
					break
				}
				return nil, err
			}
			if len(items) == 0 {
				return nil, fmt.Errorf("searching repositories: %w", err)
			}
			c.logger.Warn("github query failed, keeping partial results", "query", query, "error", err)
			break
		}
		for _, repo := range resp.Items {
			if seen[repo.HTMLURL] {
				continue
			}
			seen[repo.HTMLURL] = true
			items = append(items, repo)
		}
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (c *GitHubCollector) Normalize(raw RawItem) *models.ContentDraft {
	repo, ok := raw.(githubRepo)
	if !ok {
		return nil
	}
	tags := append([]string{"github", "repository"}, repo.Topics...)
	if repo.Language != "" {
		tags = append(tags, strings.ToLower(repo.Language))
	}
	draft := &models.ContentDraft{
		ExternalAgentID: "github:" + repo.Owner.Login,
		Type:            models.ContentTypeCode,
		Title:           repo.FullName,
		Description:     repo.Description,
		ContentURL:      repo.HTMLURL,
		ThumbnailURL:    repo.Owner.AvatarURL,
		SourcePlatform:  c.PlatformID(),
		SourceURL:       repo.HTMLURL,
		Tags:            tags,
		Categories:      []string{"code"},
		Language:        repo.Language,
	}
	if repo.License != nil && repo.License.SPDXID != "NOASSERTION" {
		draft.License = repo.License.SPDXID
	}
	return draft.Sanitize()
}
