package repository

import (
	"context"
	"sort"
	"sync"

	"blockmart/backend/pkg/models"
)

// InMemoryStore is a map-backed implementation of WorkflowStore and
// UserStore. It is used by the test suites and by demo mode, where no
// database is available.
type InMemoryStore struct {
	mu        sync.RWMutex
	workflows map[string]*models.Workflow
	users     map[string]*models.User
}

// NewInMemoryStore creates an empty InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		workflows: make(map[string]*models.Workflow),
		users:     make(map[string]*models.User),
	}
}

// GetByID retrieves a workflow by its ID.
func (s *InMemoryStore) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	workflow, ok := s.workflows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneWorkflow(workflow), nil
}

// ListByOwner returns all workflows owned by the given user, oldest first.
func (s *InMemoryStore) ListByOwner(ctx context.Context, ownerUserID string) ([]*models.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var workflows []*models.Workflow
	for _, workflow := range s.workflows {
		if workflow.OwnerUserID == ownerUserID {
			workflows = append(workflows, cloneWorkflow(workflow))
		}
	}
	sort.Slice(workflows, func(i, j int) bool {
		if workflows[i].CreatedAt.Equal(workflows[j].CreatedAt) {
			return workflows[i].ID < workflows[j].ID
		}
		return workflows[i].CreatedAt.Before(workflows[j].CreatedAt)
	})
	return workflows, nil
}

// Insert persists a new workflow record.
func (s *InMemoryStore) Insert(ctx context.Context, workflow *models.Workflow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workflows[workflow.ID] = cloneWorkflow(workflow)
	return nil
}

// Update overwrites the mutable fields of an existing workflow.
func (s *InMemoryStore) Update(ctx context.Context, workflow *models.Workflow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.workflows[workflow.ID]; !ok {
		return ErrNotFound
	}
	s.workflows[workflow.ID] = cloneWorkflow(workflow)
	return nil
}

// Delete removes a workflow record without touching includes entries in
// other workflows that reference it.
func (s *InMemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.workflows[id]; !ok {
		return ErrNotFound
	}
	delete(s.workflows, id)
	return nil
}

// GetUser retrieves a user profile by ID.
func (s *InMemoryStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *user
	return &copied, nil
}

// UpsertUser creates the profile row if missing, otherwise refreshes it.
func (s *InMemoryStore) UpsertUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

// UpdateUserName changes the only mutable profile field.
func (s *InMemoryStore) UpdateUserName(ctx context.Context, id, name string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	user.Name = name
	copied := *user
	return &copied, nil
}

func cloneWorkflow(workflow *models.Workflow) *models.Workflow {
	copied := *workflow
	copied.Includes = append([]string(nil), workflow.Includes...)
	if workflow.Definition != nil {
		definition := make(map[string]any, len(workflow.Definition))
		for k, v := range workflow.Definition {
			definition[k] = v
		}
		copied.Definition = definition
	}
	return &copied
}
