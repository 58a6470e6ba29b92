package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"taskmanager/internal/config"
	"taskmanager/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to PostgreSQL through gorm and configures the pool.
func Open(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel(cfg.DBLogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

func logLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

type statusCreator interface {
	GetOrCreate(ctx context.Context, name string) (*model.Status, error)
}

// SeedStatuses makes sure the default statuses exist.
func SeedStatuses(ctx context.Context, repo statusCreator) error {
	for _, name := range model.DefaultStatuses {
		if _, err := repo.GetOrCreate(ctx, name); err != nil {
			return fmt.Errorf("seed status %q: %w", name, err)
		}
	}
	return nil
}
