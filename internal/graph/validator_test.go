package graph

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blockmart/backend/internal/repository"
	"blockmart/backend/pkg/models"
)

const (
	ownerID   = "user-1"
	otherID   = "user-2"
	missingID = "00000000-0000-0000-0000-000000000000"
)

func seedWorkflow(t *testing.T, store *repository.InMemoryStore, owner, name string, includes ...string) *models.Workflow {
	t.Helper()
	now := time.Now().UTC()
	workflow := &models.Workflow{
		ID:          uuid.New().String(),
		OwnerUserID: owner,
		Name:        name,
		Includes:    includes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, store.Insert(context.Background(), workflow))
	return workflow
}

func requireReason(t *testing.T, err error, reason Reason) *RejectionError {
	t.Helper()
	require.Error(t, err)
	rejection, ok := AsRejection(err)
	require.True(t, ok, "expected a RejectionError, got %v", err)
	require.Equal(t, reason, rejection.Reason)
	return rejection
}

func TestValidateSelfReference(t *testing.T) {
	ctx := context.Background()
	store := repository.NewInMemoryStore()
	v := NewValidator(store)

	a := seedWorkflow(t, store, ownerID, "A")
	b := seedWorkflow(t, store, ownerID, "B")

	// Rejected regardless of the other entries, even valid ones.
	rejection := requireReason(t, v.Validate(ctx, ownerID, a.ID, []string{b.ID, a.ID}), ReasonSelfReference)
	assert.Equal(t, a.ID, rejection.WorkflowID)

	// Same on create, where the ID is not persisted yet.
	newID := uuid.New().String()
	requireReason(t, v.Validate(ctx, ownerID, newID, []string{newID}), ReasonSelfReference)
}

func TestValidateMissingInclude(t *testing.T) {
	ctx := context.Background()
	store := repository.NewInMemoryStore()
	v := NewValidator(store)

	a := seedWorkflow(t, store, ownerID, "A")

	rejection := requireReason(t, v.Validate(ctx, ownerID, a.ID, []string{missingID}), ReasonNotFound)
	assert.Equal(t, missingID, rejection.WorkflowID)
}

func TestValidateMissingReportedBeforeCycle(t *testing.T) {
	ctx := context.Background()
	store := repository.NewInMemoryStore()
	v := NewValidator(store)

	a := seedWorkflow(t, store, ownerID, "A")
	c := seedWorkflow(t, store, ownerID, "C", a.ID)

	// The proposal both dangles and cycles; existence is checked first.
	rejection := requireReason(t, v.Validate(ctx, ownerID, a.ID, []string{c.ID, missingID}), ReasonNotFound)
	assert.Equal(t, missingID, rejection.WorkflowID)
}

func TestValidateDirectCycle(t *testing.T) {
	ctx := context.Background()
	store := repository.NewInMemoryStore()
	v := NewValidator(store)

	a := seedWorkflow(t, store, ownerID, "A")
	c := seedWorkflow(t, store, ownerID, "C", a.ID)

	// C includes A, so A -> C -> A.
	requireReason(t, v.Validate(ctx, ownerID, a.ID, []string{c.ID}), ReasonCycleDetected)
}

func TestValidateTransitiveCycle(t *testing.T) {
	ctx := context.Background()
	store := repository.NewInMemoryStore()
	v := NewValidator(store)

	a := seedWorkflow(t, store, ownerID, "A")
	b := seedWorkflow(t, store, ownerID, "B", a.ID)
	c := seedWorkflow(t, store, ownerID, "C", b.ID)
	d := seedWorkflow(t, store, ownerID, "D", c.ID)

	requireReason(t, v.Validate(ctx, ownerID, a.ID, []string{d.ID}), ReasonCycleDetected)
}

func TestValidateAcceptsDiamond(t *testing.T) {
	ctx := context.Background()
	store := repository.NewInMemoryStore()
	v := NewValidator(store)

	leaf := seedWorkflow(t, store, ownerID, "leaf")
	left := seedWorkflow(t, store, ownerID, "left", leaf.ID)
	right := seedWorkflow(t, store, ownerID, "right", leaf.ID)
	top := seedWorkflow(t, store, ownerID, "top")

	// Shared substructure is fine; only a path back to the target is a cycle.
	assert.NoError(t, v.Validate(ctx, ownerID, top.ID, []string{left.ID, right.ID}))
}

func TestValidateDuplicateIncludesPermitted(t *testing.T) {
	ctx := context.Background()
	store := repository.NewInMemoryStore()
	v := NewValidator(store)

	a := seedWorkflow(t, store, ownerID, "A")
	b := seedWorkflow(t, store, ownerID, "B")

	assert.NoError(t, v.Validate(ctx, ownerID, a.ID, []string{b.ID, b.ID}))
}

func TestValidateForeignIncludeAllowed(t *testing.T) {
	ctx := context.Background()
	store := repository.NewInMemoryStore()
	v := NewValidator(store)

	foreign := seedWorkflow(t, store, otherID, "foreign")
	mine := seedWorkflow(t, store, ownerID, "mine")

	// Including another owner's workflow is a content reference, not a
	// capability grant.
	assert.NoError(t, v.Validate(ctx, ownerID, mine.ID, []string{foreign.ID}))
}

func TestValidateForbiddenTarget(t *testing.T) {
	ctx := context.Background()
	store := repository.NewInMemoryStore()
	v := NewValidator(store)

	theirs := seedWorkflow(t, store, otherID, "theirs")
	b := seedWorkflow(t, store, ownerID, "B")

	rejection := requireReason(t, v.Validate(ctx, ownerID, theirs.ID, []string{b.ID}), ReasonForbidden)
	assert.Equal(t, theirs.ID, rejection.WorkflowID)
}

func TestValidateDanglingPersistedReferenceTolerated(t *testing.T) {
	ctx := context.Background()
	store := repository.NewInMemoryStore()
	v := NewValidator(store)

	// B referenced a workflow that has since been deleted; that edge predates
	// the mutation under validation and cannot form a cycle.
	ghost := seedWorkflow(t, store, ownerID, "ghost")
	b := seedWorkflow(t, store, ownerID, "B", ghost.ID)
	require.NoError(t, store.Delete(ctx, ghost.ID))

	a := seedWorkflow(t, store, ownerID, "A")
	assert.NoError(t, v.Validate(ctx, ownerID, a.ID, []string{b.ID}))
}

func TestValidateIdempotent(t *testing.T) {
	ctx := context.Background()
	store := repository.NewInMemoryStore()
	v := NewValidator(store)

	a := seedWorkflow(t, store, ownerID, "A")
	c := seedWorkflow(t, store, ownerID, "C", a.ID)

	for i := 0; i < 3; i++ {
		requireReason(t, v.Validate(ctx, ownerID, a.ID, []string{c.ID}), ReasonCycleDetected)
	}
	for i := 0; i < 3; i++ {
		assert.NoError(t, v.Validate(ctx, ownerID, c.ID, []string{a.ID}))
	}
}

type failingReader struct {
	err error
}

func (r *failingReader) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	return nil, r.err
}

func TestValidateStoreUnavailable(t *testing.T) {
	ctx := context.Background()
	cause := errors.New("connection refused")
	v := NewValidator(&failingReader{err: cause})

	err := v.Validate(ctx, ownerID, uuid.New().String(), []string{uuid.New().String()})
	rejection := requireReason(t, err, ReasonStoreUnavailable)
	assert.ErrorIs(t, rejection, cause)
}
