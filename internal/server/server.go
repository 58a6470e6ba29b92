package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskmanager/internal/auth"
	"taskmanager/internal/config"
	"taskmanager/internal/database"
	"taskmanager/internal/handler"
	"taskmanager/internal/middleware"
	"taskmanager/internal/repository"
	"taskmanager/internal/scheduler"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Server struct {
	Engine    *gin.Engine
	DB        *gorm.DB
	Config    *config.Config
	Log       *zap.SugaredLogger
	Scheduler *scheduler.Scheduler
	redis     *redis.Client
}

// Handlers groups everything the router dispatches to.
type Handlers struct {
	Users    *handler.UserHandler
	Statuses *handler.StatusHandler
	Tasks    *handler.TaskHandler
	SubTasks *handler.SubTaskHandler
	Stats    *handler.StatsHandler
}

func Init(cfg *config.Config, log *zap.SugaredLogger) (*Server, error) {
	if cfg.MigrateOnStart {
		if err := database.Migrate(cfg.MigrationURL()); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		log.Info("database migrations applied")
	}

	db, err := database.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}
	log.Info("connected to database")

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	statusRepo := repository.NewStatusRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	subtaskRepo := repository.NewSubTaskRepository(db)
	tokenRepo := repository.NewTokenRepository(db)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := database.SeedStatuses(ctx, statusRepo); err != nil {
		return nil, fmt.Errorf("failed to seed statuses: %w", err)
	}

	s := &Server{DB: db, Config: cfg, Log: log}

	var cache auth.Blacklist
	if cfg.RedisAddr != "" {
		client, err := auth.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			// The database ledger alone is authoritative.
			log.Warnw("redis unavailable, token blacklist cache disabled", "addr", cfg.RedisAddr, "error", err)
		} else {
			s.redis = client
			cache = auth.NewRedisBlacklist(client)
			log.Infow("connected to redis", "addr", cfg.RedisAddr)
		}
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	sessions := auth.NewSessions(tokens, tokenRepo, cache)
	cookies := auth.CookieConfig{
		Secure:   cfg.CookieSecure,
		SameSite: auth.ParseSameSite(cfg.CookieSameSite),
		Domain:   cfg.CookieDomain,
	}

	// Initialize handlers
	h := Handlers{
		Users:    handler.NewUserHandler(userRepo, sessions, cookies, log),
		Statuses: handler.NewStatusHandler(statusRepo, log),
		Tasks:    handler.NewTaskHandler(taskRepo, subtaskRepo, statusRepo, log),
		SubTasks: handler.NewSubTaskHandler(subtaskRepo, taskRepo, statusRepo, log),
		Stats:    handler.NewStatsHandler(taskRepo, subtaskRepo, log),
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	s.Engine = NewRouter(cfg, h, tokens, log)

	s.Scheduler, err = scheduler.New(cfg.TokenFlushSchedule, tokenRepo, log)
	if err != nil {
		return nil, fmt.Errorf("invalid token flush schedule %q: %w", cfg.TokenFlushSchedule, err)
	}

	return s, nil
}

// NewRouter builds the gin engine with middleware and every route.
func NewRouter(cfg *config.Config, h Handlers, tokens *auth.TokenManager, log *zap.SugaredLogger) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger(log), gin.Recovery(), middleware.CORS(cfg.CORSOrigins))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api")
	requireAuth := middleware.JWTAuthMiddleware(tokens)

	// Public auth routes
	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", h.Users.Register)
		authRoutes.POST("/login", h.Users.Login)
		authRoutes.POST("/refresh", h.Users.Refresh)
		authRoutes.POST("/logout", h.Users.Logout)
		authRoutes.GET("/me", requireAuth, h.Users.Me)
	}

	// Protected routes - require authentication
	authorized := api.Group("/")
	authorized.Use(requireAuth)
	{
		// Status routes
		authorized.GET("/statuses", h.Statuses.List)
		authorized.POST("/statuses", h.Statuses.Create)
		authorized.GET("/statuses/:id", h.Statuses.Get)
		authorized.PUT("/statuses/:id", h.Statuses.Update)
		authorized.DELETE("/statuses/:id", h.Statuses.Delete)

		// Task routes
		authorized.GET("/tasks", h.Tasks.List)
		authorized.POST("/tasks", h.Tasks.Create)
		authorized.POST("/tasks/create", h.Tasks.Create)
		authorized.GET("/tasks/:id", h.Tasks.Get)
		authorized.PUT("/tasks/:id", h.Tasks.Update)
		authorized.PATCH("/tasks/:id", h.Tasks.Patch)
		authorized.DELETE("/tasks/:id", h.Tasks.Delete)
		authorized.GET("/tasks/:id/subtasks", h.Tasks.SubTasks)

		// Subtask routes
		authorized.GET("/subtasks", h.SubTasks.List)
		authorized.POST("/subtasks", h.SubTasks.Create)
		authorized.POST("/subtasks/create", h.SubTasks.Create)
		authorized.GET("/subtasks/:id", h.SubTasks.Get)
		authorized.PUT("/subtasks/:id", h.SubTasks.Update)
		authorized.PATCH("/subtasks/:id", h.SubTasks.Patch)
		authorized.DELETE("/subtasks/:id", h.SubTasks.Delete)

		authorized.GET("/stats", h.Stats.Get)
	}

	return r
}

func (s *Server) Run() {
	srv := &http.Server{
		Addr:              ":" + s.Config.ServerPort,
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.Scheduler.Start()

	go func() {
		s.Log.Infow("server running", "port", s.Config.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.Log.Fatalw("failed to listen", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	s.Log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		s.Log.Errorw("server forced to shutdown", "error", err)
	}
	s.Scheduler.Stop(ctx)
	s.close()

	s.Log.Info("server exited properly")
}

func (s *Server) close() {
	if s.redis != nil {
		_ = s.redis.Close()
	}
	if sqlDB, err := s.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
