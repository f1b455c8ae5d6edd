package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"blockmart/backend/internal/config"
	"blockmart/backend/internal/logging"
	"blockmart/backend/internal/repository"
	"blockmart/backend/internal/services"
	"blockmart/backend/pkg/models"
)

// Seeds the database with a demo user and a small workflow composition so a
// fresh environment has something to browse.
func main() {
	ctx := context.Background()
	logger := logging.NewLogger()

	envFile := flag.String("env", "", "Path to .env file")
	flag.Parse()

	cfg, err := config.LoadConfig(*envFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.SSLMode,
	)
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, repository.Schema); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	store := repository.NewPostgresStore(pool)
	workflows := services.NewWorkflowService(store)

	// 1. Ensure the demo user profile exists
	demoUser := &models.User{
		ID:        "demo-user-1",
		Email:     "demo@example.com",
		Name:      "Demo User",
		CreatedAt: time.Now().UTC(),
	}
	if err := store.UpsertUser(ctx, demoUser); err != nil {
		log.Fatalf("Failed to upsert demo user: %v", err)
	}
	logger.Info("Demo user ready", "id", demoUser.ID)

	// 2. Skip seeding if the demo user already has workflows
	existing, err := store.ListByOwner(ctx, demoUser.ID)
	if err != nil {
		log.Fatalf("Failed to list existing workflows: %v", err)
	}
	if len(existing) > 0 {
		logger.Info("Demo user already has workflows, skipping", "count", len(existing))
		return
	}

	// 3. Create leaf workflows, then one that composes them. Going through
	// the service exercises the same validation path as the API.
	summarize, err := workflows.Create(ctx, demoUser.ID, "Summarize Article",
		"Summarizes a pasted article into a short abstract.",
		map[string]any{"blocks": []any{map[string]any{"block_id": "summarizer"}}}, nil)
	if err != nil {
		log.Fatalf("Failed to seed workflow: %v", err)
	}
	logger.Info("Seeded workflow", "name", summarize.Name, "id", summarize.ID)

	translate, err := workflows.Create(ctx, demoUser.ID, "Translate to Spanish",
		"Translates input text to Spanish.",
		map[string]any{"blocks": []any{map[string]any{"block_id": "translator", "target_language": "es"}}}, nil)
	if err != nil {
		log.Fatalf("Failed to seed workflow: %v", err)
	}
	logger.Info("Seeded workflow", "name", translate.Name, "id", translate.ID)

	digest, err := workflows.Create(ctx, demoUser.ID, "Spanish Digest",
		"Summarizes an article and translates the summary.",
		map[string]any{"blocks": []any{}},
		[]string{summarize.ID, translate.ID})
	if err != nil {
		log.Fatalf("Failed to seed workflow: %v", err)
	}
	logger.Info("Seeded workflow", "name", digest.Name, "id", digest.ID, "includes", len(digest.Includes))

	logger.Info("Seeding complete!")
}
