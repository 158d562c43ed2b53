package main

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"backoffice/internal/db"
	"backoffice/internal/logger"

	"github.com/joho/godotenv"
)

// Applies every migrations/*.sql in filename order. Each file runs once;
// applied filenames are tracked in schema_migrations.
func main() {
	_ = godotenv.Load()
	if err := logger.Setup(logger.FromEnv()); err != nil {
		os.Exit(1)
	}
	log := logger.WithComponent("migrate")

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create schema_migrations")
	}

	files, err := filepath.Glob("migrations/*.sql")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to list migrations")
	}
	sort.Strings(files)

	for _, file := range files {
		name := filepath.Base(file)

		var applied bool
		err = pool.QueryRow(ctx,
			"SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE filename = $1)", name,
		).Scan(&applied)
		if err != nil {
			log.Fatal().Err(err).Str("file", name).Msg("failed to check migration state")
		}
		if applied {
			log.Debug().Str("file", name).Msg("already applied")
			continue
		}

		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			log.Fatal().Err(err).Str("file", name).Msg("failed to read migration")
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to begin transaction")
		}
		if _, err := tx.Exec(ctx, string(sqlBytes)); err != nil {
			_ = tx.Rollback(ctx)
			log.Fatal().Err(err).Str("file", name).Msg("migration failed")
		}
		if _, err := tx.Exec(ctx,
			"INSERT INTO schema_migrations (filename) VALUES ($1)", name,
		); err != nil {
			_ = tx.Rollback(ctx)
			log.Fatal().Err(err).Str("file", name).Msg("failed to record migration")
		}
		if err := tx.Commit(ctx); err != nil {
			log.Fatal().Err(err).Str("file", name).Msg("failed to commit migration")
		}

		log.Info().Str("file", name).Msg("applied")
	}

	log.Info().Int("total", len(files)).Msg("migrations up to date")
}
