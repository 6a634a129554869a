package main

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog/log"

	"github.com/mrodz/fieldz/internal/dbconfig"
	"github.com/mrodz/fieldz/internal/profiles"
	"github.com/mrodz/fieldz/internal/store"
)

// setupDatabase connects to Postgres scoped to the active profile's schema
// and makes sure the schema exists.
func setupDatabase(ctx context.Context, profileManager *profiles.Manager) (*sql.DB, error) {
	dbCfg := dbconfig.NewConfigFromEnv()
	active := profileManager.Active()

	dsn := fmt.Sprintf("%s&search_path=%s", dbCfg.DSN(), active.Schema)
	database, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}

	if err := database.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := store.EnsureSchema(ctx, database, active.Schema); err != nil {
		return nil, err
	}

	log.Info().
		Str("host", dbCfg.Host).
		Str("database", dbCfg.Database).
		Str("profile", active.Name).
		Str("schema", active.Schema).
		Msg("connected to database")

	return database, nil
}
