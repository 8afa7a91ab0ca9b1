package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"radiodir/internal/config"
	"radiodir/internal/handler"
	"radiodir/internal/middleware"
	"radiodir/internal/remote"
	"radiodir/internal/repository/postgres"
	"radiodir/internal/service"
	"radiodir/internal/sources"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if err := postgres.EnsureSchema(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}
	logger.Info("database ready", "table", tables.DirectoryItems)

	// Configured directory roots
	registry, err := sources.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load source registry: %v", err)
	}
	logger.Info("source registry loaded", "sources", len(registry.Keys()))

	// Repositories
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	directoryRepo := postgres.NewDirectoryRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	// Remote directory client
	fetcher := remote.NewClient(cfg.UserAgent, cfg.FetchTimeout, logger)

	// Services
	hub := service.NewChangeHub()
	syncService := service.NewSyncService(directoryRepo, txManager, fetcher, registry, hub, cfg.NoDataTimeout, logger)
	favoriteService := service.NewFavoriteService(directoryRepo, hub, cfg.UndoWindow, logger)

	// Handlers
	directoryHandler := handler.NewDirectoryHandler(syncService, logger)
	favoriteHandler := handler.NewFavoriteHandler(favoriteService, logger)
	sourcesHandler := handler.NewSourcesHandler(registry, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", handler.Health)

	// Source routes
	mux.HandleFunc("GET /api/sources", sourcesHandler.ListSources)

	// Directory routes
	mux.HandleFunc("GET /api/directory", directoryHandler.GetDirectory)
	mux.HandleFunc("GET /api/directory/stream", directoryHandler.StreamDirectory) // SSE
	mux.HandleFunc("POST /api/directory/refresh", directoryHandler.RefreshDirectory)
	mux.HandleFunc("GET /api/directory/segments", directoryHandler.GetSegments)
	mux.HandleFunc("GET /api/directory/map", directoryHandler.GetMap)

	// Favorite routes
	mux.HandleFunc("GET /api/favorites", favoriteHandler.ListFavorites)
	mux.HandleFunc("POST /api/favorites/toggle", favoriteHandler.Toggle)
	mux.HandleFunc("POST /api/favorites/remove", favoriteHandler.Remove)
	mux.HandleFunc("POST /api/favorites/undo", favoriteHandler.Undo)

	// Build middleware chain (applied in reverse order, they wrap each other)
	var h http.Handler = mux
	h = middleware.RequestLogging(logger)(h)
	h = middleware.Recovery(logger)(h)

	// CORS - must be outermost to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Origin", "Content-Type", "Accept", "Last-Event-ID"},
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // Disabled to allow long-lived SSE streams
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
