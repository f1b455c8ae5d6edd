package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"blockmart/backend/internal/graph"
	"blockmart/backend/internal/observability"
	"blockmart/backend/internal/repository"
	"blockmart/backend/pkg/models"
)

// ErrNameRequired is returned when a create or rename omits the workflow name.
var ErrNameRequired = errors.New("workflow name is required")

// WorkflowService applies validated mutations to the workflow store. Either
// the full accepted mutation is visible afterward or nothing is written.
//
// The validator reads the store and the service then writes it without a
// spanning transaction, so two concurrent mutations could each pass
// validation against a snapshot the other is changing. To close that window
// the service serializes all graph-mutating writes per owner behind an
// in-process lock. Edges to another owner's workflows are still exposed to
// the race; see DESIGN.md.
type WorkflowService struct {
	store     repository.WorkflowStore
	validator *graph.Validator

	mu     sync.Mutex
	owners map[string]*sync.Mutex
}

// NewWorkflowService creates a WorkflowService backed by the given store.
func NewWorkflowService(store repository.WorkflowStore) *WorkflowService {
	return &WorkflowService{
		store:     store,
		validator: graph.NewValidator(store),
		owners:    make(map[string]*sync.Mutex),
	}
}

// Create validates and persists a new workflow. The freshly assigned ID
// participates in validation, so self-references in the initial includes are
// caught the same way as on update.
func (s *WorkflowService) Create(ctx context.Context, ownerUserID, name, description string, definition map[string]any, includes []string) (*models.Workflow, error) {
	if name == "" {
		return nil, ErrNameRequired
	}

	lock := s.ownerLock(ownerUserID)
	lock.Lock()
	defer lock.Unlock()

	id := uuid.New().String()
	if err := s.validator.Validate(ctx, ownerUserID, id, includes); err != nil {
		return nil, s.record("create", err)
	}

	if includes == nil {
		includes = []string{}
	}
	now := time.Now().UTC()
	workflow := &models.Workflow{
		ID:          id,
		OwnerUserID: ownerUserID,
		Name:        name,
		Description: description,
		Includes:    includes,
		Definition:  definition,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Insert(ctx, workflow); err != nil {
		return nil, s.record("create", storeFailure(err))
	}
	s.record("create", nil)
	return workflow, nil
}

// Update applies a partial patch to an existing workflow. A patch that
// carries includes replaces the whole list and is re-validated before the
// write; other fields only require ownership. Nothing is persisted unless
// every check passes.
func (s *WorkflowService) Update(ctx context.Context, ownerUserID, workflowID string, patch models.WorkflowPatch) (*models.Workflow, error) {
	lock := s.ownerLock(ownerUserID)
	lock.Lock()
	defer lock.Unlock()

	workflow, err := s.load(ctx, workflowID)
	if err != nil {
		return nil, s.record("update", err)
	}
	if workflow.OwnerUserID != ownerUserID {
		return nil, s.record("update", &graph.RejectionError{Reason: graph.ReasonForbidden, WorkflowID: workflowID})
	}

	if patch.Includes != nil {
		if err := s.validator.Validate(ctx, ownerUserID, workflowID, *patch.Includes); err != nil {
			return nil, s.record("update", err)
		}
		workflow.Includes = append([]string{}, *patch.Includes...)
	}
	if patch.Name != nil {
		if *patch.Name == "" {
			return nil, ErrNameRequired
		}
		workflow.Name = *patch.Name
	}
	if patch.Description != nil {
		workflow.Description = *patch.Description
	}
	if patch.Definition != nil {
		workflow.Definition = patch.Definition
	}

	workflow.UpdatedAt = time.Now().UTC()
	if err := s.store.Update(ctx, workflow); err != nil {
		return nil, s.record("update", storeFailure(err))
	}
	s.record("update", nil)
	return workflow, nil
}

// Delete removes a workflow if the caller owns it. Includes entries in other
// workflows that reference the deleted ID are intentionally left dangling;
// readers tolerate the miss, and the reference is content, not a constraint.
func (s *WorkflowService) Delete(ctx context.Context, ownerUserID, workflowID string) error {
	lock := s.ownerLock(ownerUserID)
	lock.Lock()
	defer lock.Unlock()

	workflow, err := s.load(ctx, workflowID)
	if err != nil {
		return s.record("delete", err)
	}
	if workflow.OwnerUserID != ownerUserID {
		return s.record("delete", &graph.RejectionError{Reason: graph.ReasonForbidden, WorkflowID: workflowID})
	}
	if err := s.store.Delete(ctx, workflowID); err != nil {
		return s.record("delete", storeFailure(err))
	}
	s.record("delete", nil)
	return nil
}

// Get returns one of the caller's workflows. Foreign-owned workflows are
// reported as missing, matching the owner-scoped read behavior of the API.
func (s *WorkflowService) Get(ctx context.Context, ownerUserID, workflowID string) (*models.Workflow, error) {
	workflow, err := s.load(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	if workflow.OwnerUserID != ownerUserID {
		return nil, &graph.RejectionError{Reason: graph.ReasonNotFound, WorkflowID: workflowID}
	}
	return workflow, nil
}

// ListByOwner returns all workflows owned by the caller.
func (s *WorkflowService) ListByOwner(ctx context.Context, ownerUserID string) ([]*models.Workflow, error) {
	workflows, err := s.store.ListByOwner(ctx, ownerUserID)
	if err != nil {
		return nil, storeFailure(err)
	}
	if workflows == nil {
		workflows = []*models.Workflow{}
	}
	return workflows, nil
}

func (s *WorkflowService) load(ctx context.Context, workflowID string) (*models.Workflow, error) {
	workflow, err := s.store.GetByID(ctx, workflowID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &graph.RejectionError{Reason: graph.ReasonNotFound, WorkflowID: workflowID}
		}
		return nil, storeFailure(err)
	}
	return workflow, nil
}

func (s *WorkflowService) ownerLock(ownerUserID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.owners[ownerUserID]
	if !ok {
		lock = &sync.Mutex{}
		s.owners[ownerUserID] = lock
	}
	return lock
}

// record bumps the mutation counter and passes err through unchanged.
func (s *WorkflowService) record(operation string, err error) error {
	outcome := "accepted"
	if err != nil {
		outcome = "rejected"
		if rejection, ok := graph.AsRejection(err); ok && rejection.Reason == graph.ReasonStoreUnavailable {
			outcome = "error"
		}
	}
	observability.WorkflowMutations.WithLabelValues(operation, outcome).Inc()
	return err
}

func storeFailure(err error) error {
	return &graph.RejectionError{Reason: graph.ReasonStoreUnavailable, Err: err}
}
