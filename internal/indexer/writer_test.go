package indexer

import (
	"context"
	"testing"

	"github.com/agentverse/agentverse/internal/models"
)

func draftFor(agent, title, url string) *models.ContentDraft {
	return &models.ContentDraft{
		ExternalAgentID: agent,
		Type:            models.ContentTypePost,
		Title:           title,
		SourceURL:       url,
		SourcePlatform:  "test",
	}
}

func TestUpsertCreatesAgentAndContent(t *testing.T) {
	catalog := NewMemoryCatalog()
	writer := &Writer{}
	ctx := context.Background()

	tx, err := catalog.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	outcome, err := writer.Upsert(ctx, tx, draftFor("github:alice", "First post", "https://example.com/1"))
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if outcome != OutcomeWritten {
		t.Errorf("Upsert() outcome = %v, want OutcomeWritten", outcome)
	}

	agent, err := tx.Agents().GetByExternalID(ctx, "github:alice")
	if err != nil {
		t.Fatalf("GetByExternalID() error = %v", err)
	}
	if agent.Name != "github:alice" {
		t.Errorf("new agent Name = %q, want external id", agent.Name)
	}
	if agent.TotalCreations != 1 {
		t.Errorf("TotalCreations = %d, want 1", agent.TotalCreations)
	}

	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
}

func TestUpsertSkipsDuplicateSourceURL(t *testing.T) {
	catalog := NewMemoryCatalog()
	writer := &Writer{}
	ctx := context.Background()

	tx, _ := catalog.Begin(ctx)
	if _, err := writer.Upsert(ctx, tx, draftFor("github:alice", "Original title", "https://example.com/dup")); err != nil {
		t.Fatalf("first Upsert() error = %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	tx, _ = catalog.Begin(ctx)
	outcome, err := writer.Upsert(ctx, tx, draftFor("github:bob", "Different title", "https://example.com/dup"))
	if err != nil {
		t.Fatalf("second Upsert() error = %v", err)
	}
	if outcome != OutcomeSkipped {
		t.Errorf("duplicate Upsert() outcome = %v, want OutcomeSkipped", outcome)
	}

	// The skip must not create the second agent or bump any counter.
	if _, err := tx.Agents().GetByExternalID(ctx, "github:bob"); err == nil {
		t.Error("duplicate Upsert() created an agent, want none")
	}
	tx.Rollback()
}

func TestUpsertReusesExistingAgent(t *testing.T) {
	catalog := NewMemoryCatalog()
	writer := &Writer{}
	ctx := context.Background()

	tx, _ := catalog.Begin(ctx)
	for i, url := range []string{"https://example.com/a", "https://example.com/b", "https://example.com/c"} {
		if _, err := writer.Upsert(ctx, tx, draftFor("reddit:carol", "Post", url)); err != nil {
			t.Fatalf("Upsert() #%d error = %v", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	tx, _ = catalog.Begin(ctx)
	agent, err := tx.Agents().GetByExternalID(ctx, "reddit:carol")
	if err != nil {
		t.Fatalf("GetByExternalID() error = %v", err)
	}
	if agent.TotalCreations != 3 {
		t.Errorf("TotalCreations = %d, want 3", agent.TotalCreations)
	}
	tx.Rollback()
}

func TestUpsertRejectsInvalidDraft(t *testing.T) {
	catalog := NewMemoryCatalog()
	writer := &Writer{}
	ctx := context.Background()

	tx, _ := catalog.Begin(ctx)
	defer tx.Rollback()

	outcome, err := writer.Upsert(ctx, tx, &models.ContentDraft{Title: "No agent id"})
	if err == nil {
		t.Fatal("Upsert() with no agent id: want error")
	}
	if outcome != OutcomeError {
		t.Errorf("outcome = %v, want OutcomeError", outcome)
	}
}

func TestUpsertWithoutSourceURLAlwaysWrites(t *testing.T) {
	catalog := NewMemoryCatalog()
	writer := &Writer{}
	ctx := context.Background()

	tx, _ := catalog.Begin(ctx)
	defer tx.Rollback()

	for i := 0; i < 2; i++ {
		draft := &models.ContentDraft{
			ExternalAgentID: "web:example.com",
			Type:            models.ContentTypePost,
			Title:           "Untracked item",
		}
		outcome, err := writer.Upsert(ctx, tx, draft)
		if err != nil {
			t.Fatalf("Upsert() #%d error = %v", i, err)
		}
		if outcome != OutcomeWritten {
			t.Errorf("Upsert() #%d outcome = %v, want OutcomeWritten", i, outcome)
		}
	}
}
