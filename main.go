package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/muskanBP/todo-app/pkg/audit"
	"github.com/muskanBP/todo-app/pkg/auth"
	"github.com/muskanBP/todo-app/pkg/authz"
	"github.com/muskanBP/todo-app/pkg/config"
	"github.com/muskanBP/todo-app/pkg/database"
	"github.com/muskanBP/todo-app/pkg/handlers"
	"github.com/muskanBP/todo-app/pkg/logging"
	"github.com/muskanBP/todo-app/pkg/middleware"
	"github.com/muskanBP/todo-app/pkg/repositories"
	"github.com/muskanBP/todo-app/pkg/retry"
	"github.com/muskanBP/todo-app/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath, Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("version", cfg.Version),
		zap.String("base_url", cfg.BaseURL),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.ConnectionString())),
		zap.Bool("redis", cfg.Redis.Enabled()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
		ConnectRetry:   retry.DefaultConfig(),
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.String("error", logging.SanitizeError(err)))
	}
	defer db.Close()

	sqlDB := db.SQLDB()
	if err := database.RunMigrations(sqlDB, cfg.MigrationsPath, logger); err != nil {
		_ = sqlDB.Close()
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	_ = sqlDB.Close()

	redisClient, err := database.NewRedisClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Repositories
	taskRepo := repositories.NewTaskRepository()
	shareRepo := repositories.NewTaskShareRepository()
	teamRepo := repositories.NewTeamRepository()

	// Decision audit: always logged; durable backends are written off the
	// request path, each with its own queue.
	var durable []authz.AuditSink
	if cfg.Audit.PersistDecisions {
		durable = append(durable, audit.NewRepositorySink(repositories.NewAuditRepository(), database.NewScopeProvider(db)))
	}
	if redisClient != nil {
		durable = append(durable, audit.NewRedisSink(redisClient, cfg.Audit.StreamName, cfg.Audit.StreamMaxLen))
	}

	asyncSinks := audit.NewAsyncGroup(durable, cfg.Audit.BufferSize, logger)
	sinks := audit.MultiSink{audit.NewLogSink(logger, cfg.Audit.QuietGrants), asyncSinks}

	// Authorization
	engine := authz.NewPermissionDecisionEngine(sinks, logger)
	checker := authz.NewChecker(
		authz.NewAccessGrantResolver(taskRepo, teamRepo, shareRepo),
		engine,
		authz.NewTeamRoleAuthorizer(teamRepo, engine),
		teamRepo,
		logger,
	)

	// Services
	taskService := services.NewTaskService(taskRepo, teamRepo, checker, logger)
	shareService := services.NewShareService(shareRepo, checker, logger)
	teamService := services.NewTeamService(teamRepo, checker, logger)

	// Auth
	validator, err := auth.NewJWKSClient(&auth.JWKSConfig{
		EnableVerification: cfg.Auth.EnableVerification,
		JWKSEndpoints:      cfg.Auth.JWKSEndpoints,
		HMACSecret:         cfg.Auth.JWTSecret,
		Audience:           cfg.Auth.Audience,
	})
	if err != nil {
		logger.Fatal("Failed to initialize token validation", zap.Error(err))
	}
	defer validator.Close()
	authMiddleware := auth.NewMiddleware(auth.NewAuthService(validator, logger), logger)
	scopeMiddleware := handlers.ScopeMiddleware(database.WithRequestScope(db, logger))

	mux := http.NewServeMux()

	handlers.NewHealthHandler(cfg, db, logger).RegisterRoutes(mux)
	handlers.NewTasksHandler(taskService, audit.NewSecurityAuditor(logger), logger).
		RegisterRoutes(mux, authMiddleware, scopeMiddleware)
	handlers.NewSharesHandler(shareService, logger).RegisterRoutes(mux, authMiddleware, scopeMiddleware)
	handlers.NewTeamsHandler(teamService, logger).RegisterRoutes(mux, authMiddleware, scopeMiddleware)

	server := &http.Server{
		Addr:              cfg.BindAddr + ":" + cfg.Port,
		Handler:           middleware.RequestLogger(logger)(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting todo-app",
			zap.String("addr", server.Addr),
			zap.Bool("tls", cfg.TLSCertPath != ""))
		if cfg.TLSCertPath != "" {
			serverErr <- server.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
		} else {
			serverErr <- server.ListenAndServe()
		}
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}
	if err := asyncSinks.Close(shutdownCtx); err != nil {
		logger.Error("Failed to flush authorization audit", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" || env == "dev" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
