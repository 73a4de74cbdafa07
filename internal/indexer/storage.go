package indexer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/agentverse/agentverse/internal/models"
)

var (
	// ErrDuplicateAgent is returned when an agent with the same external ID
	// already exists.
	ErrDuplicateAgent = errors.New("agent already exists")
	// ErrDuplicateContent is returned when content with the same source URL
	// already exists.
	ErrDuplicateContent = errors.New("content already exists")
	// ErrNotFound is returned when a lookup matches nothing.
	ErrNotFound = errors.New("not found")
)

// AgentRepository provides access to agent records within a transaction.
type AgentRepository interface {
	GetByExternalID(ctx context.Context, externalID string) (*models.Agent, error)
	Create(ctx context.Context, agent *models.Agent) error
	IncrementCreations(ctx context.Context, agentID int64) error
}

// ContentRepository provides access to content records within a transaction.
type ContentRepository interface {
	ExistsBySourceURL(ctx context.Context, sourceURL string) (bool, error)
	Create(ctx context.Context, content *models.Content) error
}

// CatalogTx is a unit of work over the catalog. All writes made through its
// repositories become visible only on Commit; Rollback discards them.
type CatalogTx interface {
	Agents() AgentRepository
	Contents() ContentRepository
	Commit() error
	Rollback() error
}

// Catalog opens units of work over the content catalog.
type Catalog interface {
	Begin(ctx context.Context) (CatalogTx, error)
}

// memoryCatalog is an in-memory Catalog used by tests and local runs without
// a database. Transactions buffer writes and merge them on commit; duplicate
// checks see both committed and pending rows so a transaction cannot insert
// the same URL twice. Source URL uniqueness applies only to non-empty URLs,
// matching the partial unique index the Postgres catalog uses.
type memoryCatalog struct {
	mu          sync.Mutex
	agents      map[string]*models.Agent // by external id
	agentsByID  map[int64]*models.Agent
	contents    []*models.Content
	contentURLs map[string]*models.Content // by non-empty source url
	nextAgentID int64
	nextContent int64
}

// NewMemoryCatalog returns an empty in-memory catalog.
func NewMemoryCatalog() Catalog {
	return &memoryCatalog{
		agents:      make(map[string]*models.Agent),
		agentsByID:  make(map[int64]*models.Agent),
		contentURLs: make(map[string]*models.Content),
	}
}

func (c *memoryCatalog) Begin(ctx context.Context) (CatalogTx, error) {
	return &memoryTx{
		catalog:       c,
		pendingAgents: make(map[string]*models.Agent),
		pendingURLs:   make(map[string]bool),
		pendingIncr:   make(map[int64]int),
	}, nil
}

func (c *memoryCatalog) contentCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.contents)
}

type memoryTx struct {
	catalog         *memoryCatalog
	pendingAgents   map[string]*models.Agent
	pendingContents []*models.Content
	pendingURLs     map[string]bool
	pendingIncr     map[int64]int
	done            bool
}

func (t *memoryTx) Agents() AgentRepository     { return (*memoryAgentRepo)(t) }
func (t *memoryTx) Contents() ContentRepository { return (*memoryContentRepo)(t) }

func (t *memoryTx) Commit() error {
	t.catalog.mu.Lock()
	defer t.catalog.mu.Unlock()
	if t.done {
		return errors.New("transaction already closed")
	}
	t.done = true
	for ext, agent := range t.pendingAgents {
		t.catalog.agents[ext] = agent
		t.catalog.agentsByID[agent.ID] = agent
	}
	for _, content := range t.pendingContents {
		t.catalog.contents = append(t.catalog.contents, content)
		if content.SourceURL != "" {
			t.catalog.contentURLs[content.SourceURL] = content
		}
	}
	for id, n := range t.pendingIncr {
		if agent, ok := t.catalog.agentsByID[id]; ok {
			agent.TotalCreations += n
		}
	}
	return nil
}

func (t *memoryTx) Rollback() error {
	t.done = true
	t.pendingAgents = nil
	t.pendingContents = nil
	t.pendingURLs = nil
	t.pendingIncr = nil
	return nil
}

type memoryAgentRepo memoryTx

func (r *memoryAgentRepo) GetByExternalID(ctx context.Context, externalID string) (*models.Agent, error) {
	if agent, ok := r.pendingAgents[externalID]; ok {
		return agent, nil
	}
	r.catalog.mu.Lock()
	defer r.catalog.mu.Unlock()
	if agent, ok := r.catalog.agents[externalID]; ok {
		copied := *agent
		return &copied, nil
	}
	return nil, ErrNotFound
}

func (r *memoryAgentRepo) Create(ctx context.Context, agent *models.Agent) error {
	if _, ok := r.pendingAgents[agent.ExternalID]; ok {
		return ErrDuplicateAgent
	}
	r.catalog.mu.Lock()
	defer r.catalog.mu.Unlock()
	if _, ok := r.catalog.agents[agent.ExternalID]; ok {
		return ErrDuplicateAgent
	}
	r.catalog.nextAgentID++
	agent.ID = r.catalog.nextAgentID
	now := time.Now().UTC()
	agent.CreatedAt = now
	agent.UpdatedAt = now
	copied := *agent
	r.pendingAgents[agent.ExternalID] = &copied
	return nil
}

func (r *memoryAgentRepo) IncrementCreations(ctx context.Context, agentID int64) error {
	for _, agent := range r.pendingAgents {
		if agent.ID == agentID {
			agent.TotalCreations++
			return nil
		}
	}
	r.catalog.mu.Lock()
	defer r.catalog.mu.Unlock()
	if _, ok := r.catalog.agentsByID[agentID]; !ok {
		return ErrNotFound
	}
	r.pendingIncr[agentID]++
	return nil
}

type memoryContentRepo memoryTx

func (r *memoryContentRepo) ExistsBySourceURL(ctx context.Context, sourceURL string) (bool, error) {
	if sourceURL == "" {
		return false, nil
	}
	if r.pendingURLs[sourceURL] {
		return true, nil
	}
	r.catalog.mu.Lock()
	defer r.catalog.mu.Unlock()
	_, ok := r.catalog.contentURLs[sourceURL]
	return ok, nil
}

func (r *memoryContentRepo) Create(ctx context.Context, content *models.Content) error {
	if exists, _ := r.ExistsBySourceURL(ctx, content.SourceURL); exists {
		return ErrDuplicateContent
	}
	r.catalog.mu.Lock()
	defer r.catalog.mu.Unlock()
	r.catalog.nextContent++
	content.ID = r.catalog.nextContent
	now := time.Now().UTC()
	content.IndexedAt = now
	if content.CreatedAt == nil {
		content.CreatedAt = &now
	}
	content.UpdatedAt = now
	copied := *content
	r.pendingContents = append(r.pendingContents, &copied)
	if copied.SourceURL != "" {
		r.pendingURLs[copied.SourceURL] = true
	}
	return nil
}
