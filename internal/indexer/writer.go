package indexer

import (
	"context"
	"errors"
	"fmt"

	"github.com/agentverse/agentverse/internal/models"
)

// Outcome classifies the result of writing a single draft.
type Outcome int

const (
	// OutcomeWritten means a new content row was created.
	OutcomeWritten Outcome = iota
	// OutcomeSkipped means the draft duplicated an existing source URL.
	OutcomeSkipped
	// OutcomeError means the draft could not be written.
	OutcomeError
)

// Writer persists normalized drafts into the catalog. Deduplication is by
// source URL: a URL already present leaves the existing row untouched.
type Writer struct{}

// Upsert writes one draft through the transaction. The owning agent is
// looked up by external ID and created on first sight, with its creation
// counter incremented for every new content row.
func (w *Writer) Upsert(ctx context.Context, tx CatalogTx, draft *models.ContentDraft) (Outcome, error) {
	draft.Sanitize()
	if !draft.Valid() {
		return OutcomeError, fmt.Errorf("draft missing required fields (agent=%q title=%q type=%q)",
			draft.ExternalAgentID, draft.Title, draft.Type)
	}

	if draft.SourceURL != "" {
		exists, err := tx.Contents().ExistsBySourceURL(ctx, draft.SourceURL)
		if err != nil {
			return OutcomeError, fmt.Errorf("checking source url: %w", err)
		}
		if exists {
			return OutcomeSkipped, nil
		}
	}

	agent, err := w.getOrCreateAgent(ctx, tx, draft.ExternalAgentID)
	if err != nil {
		return OutcomeError, fmt.Errorf("resolving agent %s: %w", draft.ExternalAgentID, err)
	}

	content := &models.Content{
		AgentID:        agent.ID,
		Type:           draft.Type,
		Title:          draft.Title,
		Description:    draft.Description,
		Body:           draft.Body,
		ContentURL:     draft.ContentURL,
		ThumbnailURL:   draft.ThumbnailURL,
		SourcePlatform: draft.SourcePlatform,
		SourceURL:      draft.SourceURL,
		Tags:           draft.Tags,
		Categories:     draft.Categories,
		Language:       draft.Language,
		License:        draft.License,
		IsPublic:       true,
	}
	if err := tx.Contents().Create(ctx, content); err != nil {
		if errors.Is(err, ErrDuplicateContent) {
			return OutcomeSkipped, nil
		}
		return OutcomeError, fmt.Errorf("creating content: %w", err)
	}

	if err := tx.Agents().IncrementCreations(ctx, agent.ID); err != nil {
		return OutcomeError, fmt.Errorf("incrementing creations for agent %d: %w", agent.ID, err)
	}

	return OutcomeWritten, nil
}

// getOrCreateAgent resolves an agent by external ID, creating a minimal
// record on first sight. A create that loses a race to a concurrent insert
// falls back to re-reading the winner.
func (w *Writer) getOrCreateAgent(ctx context.Context, tx CatalogTx, externalID string) (*models.Agent, error) {
	agent, err := tx.Agents().GetByExternalID(ctx, externalID)
	if err == nil {
		return agent, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	agent = &models.Agent{
		ExternalID: externalID,
		Name:       externalID,
		AgentType:  "unknown",
		IsActive:   true,
	}
	if err := tx.Agents().Create(ctx, agent); err != nil {
		if errors.Is(err, ErrDuplicateAgent) {
			return tx.Agents().GetByExternalID(ctx, externalID)
		}
		return nil, err
	}
	return agent, nil
}
