package main

import (
	"context"
	"log"
	"time"

	"taskmanager/internal/config"
	"taskmanager/internal/database"
	"taskmanager/internal/logger"
	"taskmanager/internal/repository"
)

// Applies migrations and creates the default statuses.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	sugar, err := logger.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("❌ Failed to init logger: %v", err)
	}
	defer func() { _ = sugar.Sync() }()

	if err := database.Migrate(cfg.MigrationURL()); err != nil {
		sugar.Fatalw("migration failed", "error", err)
	}

	db, err := database.Open(cfg)
	if err != nil {
		sugar.Fatalw("database connection failed", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := database.SeedStatuses(ctx, repository.NewStatusRepository(db)); err != nil {
		sugar.Fatalw("seeding failed", "error", err)
	}
	sugar.Info("statuses seeded")
}
