package models

import (
	"time"
)

// Agent represents an autonomous agent that produced one or more catalog
// items. Agents are created lazily the first time content is attributed to
// an unseen external id; the ingestion path never deletes them.
type Agent struct {
	ID              int64     `json:"id"`
	ExternalID      string    `json:"external_id"` // globally unique, namespaced by platform (e.g. "github:owner")
	Name            string    `json:"name"`
	DisplayName     string    `json:"display_name,omitempty"`
	AvatarURL       string    `json:"avatar_url,omitempty"`
	Bio             string    `json:"bio,omitempty"`
	AgentType       string    `json:"agent_type,omitempty"`
	Framework       string    `json:"framework,omitempty"`
	Creator         string    `json:"creator,omitempty"`
	CreatorURL      string    `json:"creator_url,omitempty"`
	IsVerified      bool      `json:"is_verified"`
	IsActive        bool      `json:"is_active"`
	ReputationScore float64   `json:"reputation_score"`
	TotalCreations  int       `json:"total_creations"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
