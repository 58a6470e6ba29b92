package main

import (
	"log"

	_ "taskmanager/docs"
	"taskmanager/internal/config"
	"taskmanager/internal/logger"
	"taskmanager/internal/server"
)

// @title           Task Manager API
// @version         1.0
// @description     API for managing tasks, subtasks and their statuses.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token. The access_token cookie is accepted as well.

// @schemes http
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

	s, err := server.Init(cfg, sugar)
	if err != nil {
		sugar.Fatalw("server initialization failed", "error", err)
	}

	s.Run()
}
