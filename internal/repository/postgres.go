package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"blockmart/backend/pkg/models"
)

// PostgresStore is a PostgreSQL implementation of WorkflowStore and UserStore.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const workflowColumns = "id, owner_user_id, name, description, includes, definition, created_at, updated_at"

// GetByID retrieves a workflow by its ID.
func (s *PostgresStore) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	row := s.db.QueryRow(ctx, "SELECT "+workflowColumns+" FROM workflows WHERE id = $1", id)
	return scanWorkflow(row)
}

// ListByOwner returns all workflows owned by the given user, oldest first.
func (s *PostgresStore) ListByOwner(ctx context.Context, ownerUserID string) ([]*models.Workflow, error) {
	rows, err := s.db.Query(ctx, "SELECT "+workflowColumns+" FROM workflows WHERE owner_user_id = $1 ORDER BY created_at", ownerUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workflows []*models.Workflow
	for rows.Next() {
		workflow, err := scanWorkflow(rows)
		if err != nil {
			return nil, err
		}
		workflows = append(workflows, workflow)
	}
	return workflows, rows.Err()
}

// Insert persists a new workflow record.
func (s *PostgresStore) Insert(ctx context.Context, workflow *models.Workflow) error {
	definition, err := marshalDefinition(workflow.Definition)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx,
		"INSERT INTO workflows (id, owner_user_id, name, description, includes, definition, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)",
		workflow.ID, workflow.OwnerUserID, workflow.Name, workflow.Description, workflow.Includes, definition, workflow.CreatedAt, workflow.UpdatedAt)
	return err
}

// Update overwrites the mutable fields of an existing workflow.
func (s *PostgresStore) Update(ctx context.Context, workflow *models.Workflow) error {
	definition, err := marshalDefinition(workflow.Definition)
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx,
		"UPDATE workflows SET name = $1, description = $2, includes = $3, definition = $4, updated_at = $5 WHERE id = $6",
		workflow.Name, workflow.Description, workflow.Includes, definition, workflow.UpdatedAt, workflow.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a workflow record. Includes entries in other workflows that
// reference the deleted ID are left as-is.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, "DELETE FROM workflows WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetUser retrieves a user profile by ID.
func (s *PostgresStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.db.QueryRow(ctx, "SELECT id, email, name, created_at FROM users WHERE id = $1", id).
		Scan(&user.ID, &user.Email, &user.Name, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// UpsertUser creates the profile row if missing, otherwise refreshes it.
func (s *PostgresStore) UpsertUser(ctx context.Context, user *models.User) error {
	_, err := s.db.Exec(ctx,
		"INSERT INTO users (id, email, name, created_at) VALUES ($1, $2, $3, $4) ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email, name = EXCLUDED.name",
		user.ID, user.Email, user.Name, user.CreatedAt)
	return err
}

// UpdateUserName changes the only mutable profile field.
func (s *PostgresStore) UpdateUserName(ctx context.Context, id, name string) (*models.User, error) {
	var user models.User
	err := s.db.QueryRow(ctx, "UPDATE users SET name = $1 WHERE id = $2 RETURNING id, email, name, created_at", name, id).
		Scan(&user.ID, &user.Email, &user.Name, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func scanWorkflow(row pgx.Row) (*models.Workflow, error) {
	var workflow models.Workflow
	var definition []byte
	err := row.Scan(&workflow.ID, &workflow.OwnerUserID, &workflow.Name, &workflow.Description,
		&workflow.Includes, &definition, &workflow.CreatedAt, &workflow.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if workflow.Includes == nil {
		workflow.Includes = []string{}
	}
	if len(definition) > 0 {
		if err := json.Unmarshal(definition, &workflow.Definition); err != nil {
			return nil, fmt.Errorf("failed to decode workflow definition: %w", err)
		}
	}
	return &workflow, nil
}

func marshalDefinition(definition map[string]any) ([]byte, error) {
	if definition == nil {
		return nil, nil
	}
	data, err := json.Marshal(definition)
	if err != nil {
		return nil, fmt.Errorf("failed to encode workflow definition: %w", err)
	}
	return data, nil
}
