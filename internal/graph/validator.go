// Package graph enforces the structural invariants of the workflow
// composition graph: no self-includes, no dangling includes, no cycles, and
// owner-only writes. Validation re-derives acyclicity from scratch on every
// mutation; workflow graphs are small enough that recomputing is cheaper to
// get right than maintaining an incremental index.
package graph

import (
	"context"
	"errors"

	"blockmart/backend/internal/repository"
	"blockmart/backend/pkg/models"
)

// Reader is the read-only slice of the workflow store the validator needs.
type Reader interface {
	GetByID(ctx context.Context, id string) (*models.Workflow, error)
}

// Validator decides whether a proposed includes list for a workflow is
// legal. It is pure with respect to the store: Validate only reads, and
// re-running it against an unchanged store yields the same result.
type Validator struct {
	store Reader
}

// NewValidator creates a Validator backed by the given store.
func NewValidator(store Reader) *Validator {
	return &Validator{store: store}
}

// Validate checks a proposed full-replacement includes list for the workflow
// identified by workflowID. For a create, workflowID is the not-yet-persisted
// ID of the new record, so self-reference and cycle checks apply uniformly.
//
// Checks run in a fixed order, short-circuiting on the first failure:
// self-reference, existence of every proposed include, cycle detection, and
// finally ownership of the persisted target (skipped for creates, where the
// target does not exist yet). A nil return means the mutation is accepted.
func (v *Validator) Validate(ctx context.Context, ownerUserID, workflowID string, proposedIncludes []string) error {
	for _, id := range proposedIncludes {
		if id == workflowID {
			return &RejectionError{Reason: ReasonSelfReference, WorkflowID: workflowID}
		}
	}

	// Existence before cycle detection, so a dangling reference is reported
	// distinctly from a cycle. Fetched records are kept for the traversal.
	fetched := make(map[string]*models.Workflow, len(proposedIncludes))
	for _, id := range proposedIncludes {
		if _, ok := fetched[id]; ok {
			// Duplicate entries are permitted and resolved once.
			continue
		}
		workflow, err := v.store.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return &RejectionError{Reason: ReasonNotFound, WorkflowID: id}
			}
			return &RejectionError{Reason: ReasonStoreUnavailable, Err: err}
		}
		fetched[id] = workflow
	}

	// The persisted graph is already acyclic, so only the edges introduced
	// here can close a loop: it suffices to check that workflowID is not
	// reachable from any proposed include via persisted edges.
	visited := make(map[string]bool, len(proposedIncludes))
	for _, id := range proposedIncludes {
		if err := v.walk(ctx, id, workflowID, visited, fetched); err != nil {
			return err
		}
	}

	target, err := v.store.GetByID(ctx, workflowID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Create: the target is not persisted yet and the caller owns it
			// by construction.
			return nil
		}
		return &RejectionError{Reason: ReasonStoreUnavailable, Err: err}
	}
	if target.OwnerUserID != ownerUserID {
		return &RejectionError{Reason: ReasonForbidden, WorkflowID: workflowID}
	}
	return nil
}

// walk follows persisted includes edges depth-first from id, rejecting if it
// reaches targetID. Dangling references inside persisted workflows are
// skipped: they predate this mutation and cannot form a cycle.
func (v *Validator) walk(ctx context.Context, id, targetID string, visited map[string]bool, fetched map[string]*models.Workflow) error {
	if id == targetID {
		return &RejectionError{Reason: ReasonCycleDetected, WorkflowID: targetID}
	}
	if visited[id] {
		return nil
	}
	visited[id] = true

	workflow, ok := fetched[id]
	if !ok {
		var err error
		workflow, err = v.store.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil
			}
			return &RejectionError{Reason: ReasonStoreUnavailable, Err: err}
		}
		fetched[id] = workflow
	}

	for _, next := range workflow.Includes {
		if err := v.walk(ctx, next, targetID, visited, fetched); err != nil {
			return err
		}
	}
	return nil
}
