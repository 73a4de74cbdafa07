package indexer

import (
	"log/slog"

	"github.com/agentverse/agentverse/internal/config"
)

// BuildCollectors constructs every platform collector, passing each the
// credentials it needs. Collectors degrade gracefully without credentials:
// unauthenticated API tiers, RSS fallbacks, or a default base URL.
func BuildCollectors(creds config.Credentials, logger *slog.Logger) []Collector {
	return []Collector{
		NewGitHubCollector(creds.GitHubToken, logger),
		NewHuggingFaceCollector(creds.HuggingFaceToken, logger),
		NewCivitaiCollector(creds.CivitaiToken, logger),
		NewArxivCollector(logger),
		NewRedditCollector(logger),
		NewWebSearchCollector(logger),
		NewFeedsCollector(logger),
		NewYouTubeCollector(creds.YouTubeAPIKey, logger),
		NewMoltbookCollector(creds.MoltbookAPIURL, logger),
	}
}
