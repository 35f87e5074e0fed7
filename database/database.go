package database

import (
	"context"
	"fmt"

	"github.com/sagarc03/datashare"
	"github.com/sagarc03/datashare/database/postgres"
	"github.com/sagarc03/datashare/database/sqlite"
)

// Config holds the configuration for connecting to a database backend.
type Config struct {
	// Type specifies the database type: "sqlite" or "postgres"
	Type string `mapstructure:"type" validate:"required,oneof=sqlite postgres"`
	// DSN is the data source name (connection string)
	DSN string `mapstructure:"dsn" validate:"required"`
	// Tables holds the table names
	Tables datashare.Tables `mapstructure:"tables"`
}

// Database is a connected backend.
type Database interface {
	Ping(ctx context.Context) error
	// Migrate creates missing tables and indexes. It is idempotent.
	Migrate(ctx context.Context) error
	// Validate checks that existing tables have the expected columns.
	Validate(ctx context.Context) error
	GetRepo() datashare.Repo
	Close() error
}

// Connect opens the configured backend. It validates table names but does
// not migrate; call Migrate and Validate as needed.
func Connect(ctx context.Context, cfg Config) (Database, error) {
	if err := cfg.Tables.Validate(); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	switch cfg.Type {
	case "sqlite":
		db, err := sqlite.Connect(ctx, cfg.DSN, cfg.Tables)
		if err != nil {
			return nil, err
		}
		return db, nil
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.DSN, cfg.Tables)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}

// Open connects, migrates when migrate is set, validates the schema and
// returns the repository. The returned cleanup function closes the
// connection.
func Open(ctx context.Context, cfg Config, migrate bool) (datashare.Repo, func(), error) {
	db, err := Connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() { _ = db.Close() }

	if err = db.Ping(ctx); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("ping %s: %w", cfg.Type, err)
	}

	if migrate {
		if err = db.Migrate(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("migrate %s: %w", cfg.Type, err)
		}
	}

	if err = db.Validate(ctx); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("validate %s schema: %w", cfg.Type, err)
	}

	return db.GetRepo(), cleanup, nil
}
