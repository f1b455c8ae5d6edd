// Package models defines the domain models for the marketplace backend
package models

import (
	"time"
)

// Workflow is the composable unit users create, compose, and sell on the
// marketplace. Includes lists the IDs of other workflows this one composes;
// the resulting directed graph is kept acyclic by the validation layer.
type Workflow struct {
	ID          string         `json:"id"`
	OwnerUserID string         `json:"owner_user_id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Includes    []string       `json:"includes"`
	Definition  map[string]any `json:"definition,omitempty"` // opaque blob owned by the UI
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// WorkflowPatch carries a partial update. Nil fields are left unchanged.
// Includes, when present, is the full replacement list, not a diff.
type WorkflowPatch struct {
	Name        *string        `json:"name,omitempty"`
	Description *string        `json:"description,omitempty"`
	Definition  map[string]any `json:"definition,omitempty"`
	Includes    *[]string      `json:"includes,omitempty"`
}
