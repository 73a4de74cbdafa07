package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/agentverse/agentverse/internal/indexer"
	"github.com/agentverse/agentverse/internal/models"
)

// PostgresContentRepository serves the catalog read path: search, lookups
// and stats rollups. Writes go through the ingestion catalog instead.
type PostgresContentRepository struct {
	db *sql.DB
}

// NewPostgresContentRepository creates a new PostgreSQL content repository.
func NewPostgresContentRepository(db *sql.DB) *PostgresContentRepository {
	return &PostgresContentRepository{db: db}
}

const contentColumns = `
	c.id, c.agent_id, c.content_type, c.title, c.description, c.body,
	c.content_url, c.thumbnail_url, c.source_platform, COALESCE(c.source_url, ''),
	c.tags, c.categories, c.language, c.license, c.quality_score,
	c.view_count, c.like_count, c.share_count, c.download_count,
	c.is_public, c.is_featured, c.indexed_at, c.created_at, c.updated_at,
	a.id, a.external_id, a.name, a.display_name, a.avatar_url, a.agent_type,
	a.is_verified, a.total_creations
`

func scanContent(scanner interface{ Scan(...any) error }) (*models.Content, error) {
	var content models.Content
	var agent models.Agent
	err := scanner.Scan(
		&content.ID,
		&content.AgentID,
		&content.Type,
		&content.Title,
		&content.Description,
		&content.Body,
		&content.ContentURL,
		&content.ThumbnailURL,
		&content.SourcePlatform,
		&content.SourceURL,
		pq.Array(&content.Tags),
		pq.Array(&content.Categories),
		&content.Language,
		&content.License,
		&content.QualityScore,
		&content.ViewCount,
		&content.LikeCount,
		&content.ShareCount,
		&content.DownloadCount,
		&content.IsPublic,
		&content.IsFeatured,
		&content.IndexedAt,
		&content.CreatedAt,
		&content.UpdatedAt,
		&agent.ID,
		&agent.ExternalID,
		&agent.Name,
		&agent.DisplayName,
		&agent.AvatarURL,
		&agent.AgentType,
		&agent.IsVerified,
		&agent.TotalCreations,
	)
	if err != nil {
		return nil, err
	}
	content.Agent = &agent
	return &content, nil
}

// Search runs a filtered, paginated catalog query. Text search matches the
// title, description and tags; relevance sorting prefers title matches, then
// engagement.
func (r *PostgresContentRepository) Search(ctx context.Context, query *models.ContentQuery) (*models.ContentPage, error) {
	where := []string{"c.is_public = TRUE"}
	args := []any{}

	addArg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if query.Query != "" {
		pattern := addArg("%" + query.Query + "%")
		where = append(where, fmt.Sprintf(
			"(c.title ILIKE %[1]s OR c.description ILIKE %[1]s OR EXISTS (SELECT 1 FROM unnest(c.tags) tag WHERE tag ILIKE %[1]s))",
			pattern,
		))
	}
	if query.Type != "" {
		where = append(where, "c.content_type = "+addArg(string(query.Type)))
	}
	if query.AgentType != "" {
		where = append(where, "a.agent_type = "+addArg(query.AgentType))
	}
	if query.SourcePlatform != "" {
		where = append(where, "c.source_platform = "+addArg(query.SourcePlatform))
	}
	if len(query.Tags) > 0 {
		where = append(where, "c.tags && "+addArg(pq.Array(query.Tags)))
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := fmt.Sprintf(
		"SELECT COUNT(*) FROM agent_contents c JOIN agents a ON a.id = c.agent_id WHERE %s",
		whereClause,
	)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count search results: %w", err)
	}

	orderBy := "c.indexed_at DESC"
	switch query.SortBy {
	case models.SortByPopular:
		orderBy = "c.view_count DESC, c.indexed_at DESC"
	case models.SortByLiked:
		orderBy = "c.like_count DESC, c.indexed_at DESC"
	case models.SortByRelevance:
		if query.Query != "" {
			pattern := addArg("%" + query.Query + "%")
			orderBy = fmt.Sprintf(
				"(CASE WHEN c.title ILIKE %s THEN 0 ELSE 1 END), c.like_count DESC, c.indexed_at DESC",
				pattern,
			)
		}
	}

	listQuery := fmt.Sprintf(`
		SELECT %s
		FROM agent_contents c
		JOIN agents a ON a.id = c.agent_id
		WHERE %s
		ORDER BY %s
		LIMIT %s OFFSET %s
	`, contentColumns, whereClause, orderBy, addArg(query.PageSize), addArg(query.Offset()))

	rows, err := r.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search contents: %w", err)
	}
	defer rows.Close()

	results := make([]models.Content, 0, query.PageSize)
	for rows.Next() {
		content, err := scanContent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan content row: %w", err)
		}
		results = append(results, *content)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate content rows: %w", err)
	}

	totalPages := (total + query.PageSize - 1) / query.PageSize
	return &models.ContentPage{
		Results:    results,
		Total:      total,
		Page:       query.Page,
		PageSize:   query.PageSize,
		TotalPages: totalPages,
		Query:      query.Query,
	}, nil
}

// GetByID retrieves one content item with its agent.
func (r *PostgresContentRepository) GetByID(ctx context.Context, id int64) (*models.Content, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM agent_contents c
		JOIN agents a ON a.id = c.agent_id
		WHERE c.id = $1
	`, contentColumns)

	content, err := scanContent(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, indexer.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query content by id: %w", err)
	}
	return content, nil
}

// Recent returns the most recently indexed public items.
func (r *PostgresContentRepository) Recent(ctx context.Context, limit int) ([]models.Content, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM agent_contents c
		JOIN agents a ON a.id = c.agent_id
		WHERE c.is_public = TRUE
		ORDER BY c.indexed_at DESC
		LIMIT $1
	`, contentColumns)

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent contents: %w", err)
	}
	defer rows.Close()

	results := make([]models.Content, 0, limit)
	for rows.Next() {
		content, err := scanContent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan content row: %w", err)
		}
		results = append(results, *content)
	}
	return results, rows.Err()
}

// Featured returns curated public items, newest first.
func (r *PostgresContentRepository) Featured(ctx context.Context, limit int) ([]models.Content, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM agent_contents c
		JOIN agents a ON a.id = c.agent_id
		WHERE c.is_public = TRUE AND c.is_featured = TRUE
		ORDER BY c.indexed_at DESC
		LIMIT $1
	`, contentColumns)

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query featured contents: %w", err)
	}
	defer rows.Close()

	results := make([]models.Content, 0, limit)
	for rows.Next() {
		content, err := scanContent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan content row: %w", err)
		}
		results = append(results, *content)
	}
	return results, rows.Err()
}

// Tags rolls up the most used tags across the catalog.
func (r *PostgresContentRepository) Tags(ctx context.Context, limit int) ([]models.TagCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT tag, COUNT(*)
		FROM agent_contents, unnest(tags) AS tag
		GROUP BY tag
		ORDER BY COUNT(*) DESC, tag
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query tag counts: %w", err)
	}
	defer rows.Close()

	tags := make([]models.TagCount, 0, limit)
	for rows.Next() {
		var tc models.TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan tag count: %w", err)
		}
		tags = append(tags, tc)
	}
	return tags, rows.Err()
}

// AgentTypes lists the distinct agent types present in the catalog.
func (r *PostgresContentRepository) AgentTypes(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT DISTINCT agent_type FROM agents WHERE agent_type <> '' ORDER BY agent_type",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query agent types: %w", err)
	}
	defer rows.Close()

	var types []string
	for rows.Next() {
		var agentType string
		if err := rows.Scan(&agentType); err != nil {
			return nil, fmt.Errorf("failed to scan agent type: %w", err)
		}
		types = append(types, agentType)
	}
	return types, rows.Err()
}

// Stats rolls up catalog totals, per-type counts and the top platforms.
func (r *PostgresContentRepository) Stats(ctx context.Context) (*models.CatalogStats, error) {
	stats := &models.CatalogStats{ContentTypes: make(map[string]int)}

	err := r.db.QueryRowContext(ctx,
		"SELECT (SELECT COUNT(*) FROM agents), (SELECT COUNT(*) FROM agent_contents)",
	).Scan(&stats.TotalAgents, &stats.TotalContents)
	if err != nil {
		return nil, fmt.Errorf("failed to query totals: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT content_type, COUNT(*) FROM agent_contents GROUP BY content_type",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query type counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var contentType string
		var count int
		if err := rows.Scan(&contentType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan type count: %w", err)
		}
		stats.ContentTypes[contentType] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate type counts: %w", err)
	}

	platformRows, err := r.db.QueryContext(ctx, `
		SELECT source_platform, COUNT(*)
		FROM agent_contents
		WHERE source_platform <> ''
		GROUP BY source_platform
		ORDER BY COUNT(*) DESC
		LIMIT 10
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query platform counts: %w", err)
	}
	defer platformRows.Close()
	for platformRows.Next() {
		var tally models.PlatformTally
		if err := platformRows.Scan(&tally.Platform, &tally.Count); err != nil {
			return nil, fmt.Errorf("failed to scan platform count: %w", err)
		}
		stats.TopPlatforms = append(stats.TopPlatforms, tally)
	}
	return stats, platformRows.Err()
}
