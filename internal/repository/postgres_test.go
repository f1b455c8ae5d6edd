package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"blockmart/backend/pkg/models"
)

func TestPostgresStore(t *testing.T) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test-db"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2)),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	}()

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatal(err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, Schema); err != nil {
		t.Fatal(err)
	}

	store := NewPostgresStore(pool)
	owner := "owner-1"

	newWorkflow := func(name string, includes []string) *models.Workflow {
		now := time.Now().UTC().Truncate(time.Microsecond)
		return &models.Workflow{
			ID:          uuid.New().String(),
			OwnerUserID: owner,
			Name:        name,
			Includes:    includes,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	}

	t.Run("Insert and GetByID", func(t *testing.T) {
		workflow := newWorkflow("round trip", []string{})
		workflow.Description = "first workflow"
		workflow.Definition = map[string]any{
			"blocks": []any{map[string]any{"id": "uppercase"}},
		}

		require.NoError(t, store.Insert(ctx, workflow))

		got, err := store.GetByID(ctx, workflow.ID)
		require.NoError(t, err)
		assert.Equal(t, workflow.ID, got.ID)
		assert.Equal(t, owner, got.OwnerUserID)
		assert.Equal(t, "round trip", got.Name)
		assert.Equal(t, "first workflow", got.Description)
		assert.Equal(t, []string{}, got.Includes)
		assert.Equal(t, workflow.Definition, got.Definition)
	})

	t.Run("Includes round trip", func(t *testing.T) {
		a := newWorkflow("a", []string{})
		b := newWorkflow("b", []string{})
		require.NoError(t, store.Insert(ctx, a))
		require.NoError(t, store.Insert(ctx, b))

		composite := newWorkflow("composite", []string{a.ID, b.ID, a.ID})
		require.NoError(t, store.Insert(ctx, composite))

		got, err := store.GetByID(ctx, composite.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{a.ID, b.ID, a.ID}, got.Includes)
	})

	t.Run("Update", func(t *testing.T) {
		workflow := newWorkflow("before", []string{})
		require.NoError(t, store.Insert(ctx, workflow))

		workflow.Name = "after"
		workflow.Description = "renamed"
		workflow.UpdatedAt = time.Now().UTC()
		require.NoError(t, store.Update(ctx, workflow))

		got, err := store.GetByID(ctx, workflow.ID)
		require.NoError(t, err)
		assert.Equal(t, "after", got.Name)
		assert.Equal(t, "renamed", got.Description)
	})

	t.Run("Update missing row", func(t *testing.T) {
		workflow := newWorkflow("ghost", []string{})
		err := store.Update(ctx, workflow)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		workflow := newWorkflow("doomed", []string{})
		require.NoError(t, store.Insert(ctx, workflow))

		require.NoError(t, store.Delete(ctx, workflow.ID))

		_, err := store.GetByID(ctx, workflow.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, store.Delete(ctx, workflow.ID), ErrNotFound)
	})

	t.Run("ListByOwner", func(t *testing.T) {
		other := "owner-2"
		mine := newWorkflow("mine", []string{})
		theirs := newWorkflow("theirs", []string{})
		theirs.OwnerUserID = other
		require.NoError(t, store.Insert(ctx, mine))
		require.NoError(t, store.Insert(ctx, theirs))

		workflows, err := store.ListByOwner(ctx, other)
		require.NoError(t, err)
		require.Len(t, workflows, 1)
		assert.Equal(t, theirs.ID, workflows[0].ID)
	})

	t.Run("Users", func(t *testing.T) {
		user := &models.User{
			ID:        uuid.New().String(),
			Email:     "one@example.com",
			Name:      "One",
			CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
		}
		require.NoError(t, store.UpsertUser(ctx, user))

		got, err := store.GetUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "one@example.com", got.Email)

		// Upsert again with a changed email.
		user.Email = "one+new@example.com"
		require.NoError(t, store.UpsertUser(ctx, user))
		got, err = store.GetUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "one+new@example.com", got.Email)

		updated, err := store.UpdateUserName(ctx, user.ID, "Renamed")
		require.NoError(t, err)
		assert.Equal(t, "Renamed", updated.Name)

		_, err = store.GetUser(ctx, "missing-user")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = store.UpdateUserName(ctx, "missing-user", "x")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
