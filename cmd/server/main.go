package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"polly/internal/config"
	"polly/internal/handler"
	"polly/internal/middleware"
	"polly/internal/repository/postgres"
	postgresDisc "polly/internal/repository/postgres/discussion"
	serviceDisc "polly/internal/service/discussion"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" || cfg.Debug {
		logLevel = slog.LevelDebug
	}

	var logOut io.Writer = os.Stdout
	if cfg.LogDir != "" {
		logFile, err := config.SetupLogFile(cfg.LogDir, 10)
		if err != nil {
			log.Fatalf("Failed to set up log file: %v", err)
		}
		defer logFile.Close()
		logOut = io.MultiWriter(os.Stdout, logFile)
	}

	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
	)

	// Schema first: tables, the unique subtree index and repute_increment
	// must exist before any request lands.
	if err := postgres.RunMigrations(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("migrations applied")

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected")

	// Create repositories
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Logger: logger,
	}
	subtreeStore := postgresDisc.NewSubtreeStore(repoConfig)
	reputationStore := postgresDisc.NewReputationStore(repoConfig)

	// Create services
	reputationService := serviceDisc.NewReputationService(reputationStore, logger)
	treeService := serviceDisc.NewTreeService(subtreeStore, reputationService, logger)

	// Create handlers
	discussionHandler := handler.NewDiscussionHandler(treeService, reputationService, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", discussionHandler.HealthCheck)

	// Comment tree routes
	mux.HandleFunc("POST /api/comments", discussionHandler.AppendComment)
	mux.HandleFunc("POST /api/root-comments", discussionHandler.AppendRootComment)
	mux.HandleFunc("GET /api/subtrees/{subtree_id}", discussionHandler.GetSubtree)
	mux.HandleFunc("GET /api/tree", discussionHandler.GetTree)

	// Reputation routes
	mux.HandleFunc("GET /api/reputation", discussionHandler.GetReputation)
	mux.HandleFunc("POST /api/reputation", discussionHandler.IncrementReputation)

	// Build middleware chain (wrapped in reverse order)
	var h http.Handler = mux
	h = middleware.Recovery(logger)(h)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
