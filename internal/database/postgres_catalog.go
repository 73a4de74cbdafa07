package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/agentverse/agentverse/internal/indexer"
	"github.com/agentverse/agentverse/internal/models"
)

// PostgresCatalog implements indexer.Catalog on top of PostgreSQL. Each
// ingestion run writes through one transaction so a failed run leaves no
// partial rows behind.
type PostgresCatalog struct {
	db *sql.DB
}

// NewPostgresCatalog creates a PostgreSQL-backed catalog.
func NewPostgresCatalog(db *sql.DB) *PostgresCatalog {
	return &PostgresCatalog{db: db}
}

// Begin opens a new unit of work.
func (c *PostgresCatalog) Begin(ctx context.Context) (indexer.CatalogTx, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &postgresCatalogTx{tx: tx}, nil
}

type postgresCatalogTx struct {
	tx *sql.Tx
}

func (t *postgresCatalogTx) Agents() indexer.AgentRepository {
	return &txAgentRepository{tx: t.tx}
}

func (t *postgresCatalogTx) Contents() indexer.ContentRepository {
	return &txContentRepository{tx: t.tx}
}

func (t *postgresCatalogTx) Commit() error   { return t.tx.Commit() }
func (t *postgresCatalogTx) Rollback() error { return t.tx.Rollback() }

// isUniqueViolation reports whether err is the PostgreSQL unique constraint
// error (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

type txAgentRepository struct {
	tx *sql.Tx
}

func (r *txAgentRepository) GetByExternalID(ctx context.Context, externalID string) (*models.Agent, error) {
	query := `
		SELECT id, external_id, name, display_name, avatar_url, bio, agent_type,
		       framework, creator, creator_url, is_verified, is_active,
		       reputation_score, total_creations, created_at, updated_at
		FROM agents
		WHERE external_id = $1
	`

	var agent models.Agent
	err := r.tx.QueryRowContext(ctx, query, externalID).Scan(
		&agent.ID,
		&agent.ExternalID,
		&agent.Name,
		&agent.DisplayName,
		&agent.AvatarURL,
		&agent.Bio,
		&agent.AgentType,
		&agent.Framework,
		&agent.Creator,
		&agent.CreatorURL,
		&agent.IsVerified,
		&agent.IsActive,
		&agent.ReputationScore,
		&agent.TotalCreations,
		&agent.CreatedAt,
		&agent.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, indexer.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query agent by external id: %w", err)
	}
	return &agent, nil
}

func (r *txAgentRepository) Create(ctx context.Context, agent *models.Agent) error {
	query := `
		INSERT INTO agents (external_id, name, display_name, avatar_url, bio,
		                    agent_type, framework, creator, creator_url,
		                    is_verified, is_active, reputation_score, total_creations)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at
	`

	err := r.tx.QueryRowContext(ctx, query,
		agent.ExternalID,
		agent.Name,
		agent.DisplayName,
		agent.AvatarURL,
		agent.Bio,
		agent.AgentType,
		agent.Framework,
		agent.Creator,
		agent.CreatorURL,
		agent.IsVerified,
		agent.IsActive,
		agent.ReputationScore,
		agent.TotalCreations,
	).Scan(&agent.ID, &agent.CreatedAt, &agent.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return indexer.ErrDuplicateAgent
		}
		return fmt.Errorf("failed to insert agent: %w", err)
	}
	return nil
}

func (r *txAgentRepository) IncrementCreations(ctx context.Context, agentID int64) error {
	result, err := r.tx.ExecContext(ctx,
		"UPDATE agents SET total_creations = total_creations + 1, updated_at = NOW() WHERE id = $1",
		agentID,
	)
	if err != nil {
		return fmt.Errorf("failed to increment creations: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return indexer.ErrNotFound
	}
	return nil
}

type txContentRepository struct {
	tx *sql.Tx
}

func (r *txContentRepository) ExistsBySourceURL(ctx context.Context, sourceURL string) (bool, error) {
	if sourceURL == "" {
		return false, nil
	}
	var exists bool
	err := r.tx.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM agent_contents WHERE source_url = $1)",
		sourceURL,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check content existence: %w", err)
	}
	return exists, nil
}

func (r *txContentRepository) Create(ctx context.Context, content *models.Content) error {
	query := `
		INSERT INTO agent_contents (agent_id, content_type, title, description, body,
		                            content_url, thumbnail_url, source_platform, source_url,
		                            tags, categories, language, license, quality_score,
		                            view_count, like_count, share_count, download_count,
		                            is_public, is_featured)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''),
		        $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING id, indexed_at, updated_at
	`

	err := r.tx.QueryRowContext(ctx, query,
		content.AgentID,
		content.Type,
		content.Title,
		content.Description,
		content.Body,
		content.ContentURL,
		content.ThumbnailURL,
		content.SourcePlatform,
		content.SourceURL,
		pq.Array(content.Tags),
		pq.Array(content.Categories),
		content.Language,
		content.License,
		content.QualityScore,
		content.ViewCount,
		content.LikeCount,
		content.ShareCount,
		content.DownloadCount,
		content.IsPublic,
		content.IsFeatured,
	).Scan(&content.ID, &content.IndexedAt, &content.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return indexer.ErrDuplicateContent
		}
		return fmt.Errorf("failed to insert content: %w", err)
	}
	return nil
}
