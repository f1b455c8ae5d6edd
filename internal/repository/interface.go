package repository

import (
	"context"
	"errors"

	"blockmart/backend/pkg/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// WorkflowStore is the persistence contract for workflows. Implementations
// must be read-your-writes consistent within a single process: a GetByID
// issued after a successful Insert or Update sees the written record.
type WorkflowStore interface {
	// GetByID retrieves a workflow by its ID.
	GetByID(ctx context.Context, id string) (*models.Workflow, error)
	// ListByOwner returns all workflows owned by the given user.
	ListByOwner(ctx context.Context, ownerUserID string) ([]*models.Workflow, error)
	// Insert persists a new workflow record.
	Insert(ctx context.Context, workflow *models.Workflow) error
	// Update overwrites the mutable fields of an existing workflow.
	Update(ctx context.Context, workflow *models.Workflow) error
	// Delete removes a workflow record. Other workflows referencing the
	// deleted ID keep their includes entries untouched.
	Delete(ctx context.Context, id string) error
}

// UserStore persists marketplace user profiles.
type UserStore interface {
	// GetUser retrieves a user profile by ID.
	GetUser(ctx context.Context, id string) (*models.User, error)
	// UpsertUser creates the profile row if missing, otherwise updates it.
	UpsertUser(ctx context.Context, user *models.User) error
	// UpdateUserName changes the only mutable profile field.
	UpdateUserName(ctx context.Context, id, name string) (*models.User, error)
}
