package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"radiodir/internal/config"
	"radiodir/internal/remote"
	"radiodir/internal/repository/postgres"
	"radiodir/internal/service"
	"radiodir/internal/sources"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

// seed primes the cache for first-run and demo setups: it ensures the schema
// and synchronously refreshes every configured source root once.
func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop the directory table before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't fetch any directories")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("BLOCKED: cannot run --drop-tables in production environment")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		log.Println("Dropping directory table...")
		if err := dropDirectoryTable(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop table: %v", err)
		}
	}

	log.Println("Ensuring database schema is up to date...")
	if err := postgres.EnsureSchema(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("Schema ready")

	if *schemaOnly {
		return
	}

	registry, err := sources.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load source registry: %v", err)
	}

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	directoryRepo := postgres.NewDirectoryRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)
	fetcher := remote.NewClient(cfg.UserAgent, cfg.FetchTimeout, logger)

	syncService := service.NewSyncService(
		directoryRepo, txManager, fetcher, registry,
		service.NewChangeHub(), cfg.NoDataTimeout, logger,
	)

	for _, key := range registry.Keys() {
		log.Printf("Refreshing %s...", key)

		refreshCtx, cancel := context.WithTimeout(ctx, time.Minute)
		err := syncService.RefreshNow(refreshCtx, key)
		cancel()

		if err != nil {
			// Keep going: a single unreachable root must not block the rest.
			log.Printf("WARN: refresh %s failed: %v", key, err)
			continue
		}

		count, err := directoryRepo.CountByParent(ctx, key)
		if err != nil {
			log.Fatalf("Failed to count %s: %v", key, err)
		}
		log.Printf("Seeded %s (%d items)", key, count)
	}

	log.Println("Seeding complete")
}

func dropDirectoryTable(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	_, err := pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", tables.DirectoryItems))
	return err
}
