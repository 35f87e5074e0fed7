package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sagarc03/datashare"

	_ "modernc.org/sqlite" // SQLite driver
)

// database provides SQLite database operations.
type database struct {
	db     *sql.DB
	tables datashare.Tables
}

// Connect opens a SQLite database and enables foreign keys.
// Tables should be validated before calling Connect.
//
// The pool is limited to one connection so that ":memory:" databases are
// shared by every query and writers never contend for the file lock.
func Connect(ctx context.Context, dsn string, tables datashare.Tables) (*database, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err = db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect sqlite: enable foreign keys: %w", err)
	}

	return &database{
		db:     db,
		tables: tables,
	}, nil
}

// Ping verifies the database connection is alive.
func (d *database) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Migrate creates the users, files and tokens tables if they do not exist.
func (d *database) Migrate(ctx context.Context) error {
	if err := Migrate(ctx, d.db, d.tables); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Validate checks that the database schema matches expected structure.
func (d *database) Validate(ctx context.Context) error {
	return ValidateSchema(ctx, d.db, d.tables)
}

// GetRepo returns the repository backed by this database.
func (d *database) GetRepo() datashare.Repo {
	return &repo{db: d.db, tables: d.tables}
}

// Close closes the database connection.
func (d *database) Close() error {
	return d.db.Close()
}
