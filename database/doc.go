// Package database connects datashare to its relational store.
//
// Two backends are supported:
//
//   - PostgreSQL, through a pgx connection pool
//   - SQLite, through modernc.org/sqlite (no cgo), for development and
//     single-node deployments
//
// Both create the same three tables (users, files, tokens), whose names are
// configurable through datashare.Tables so several deployments can share one
// database.
//
// # Usage
//
//	cfg := database.Config{
//	    Type:   "sqlite",
//	    DSN:    "datashare.db",
//	    Tables: datashare.DefaultTables(),
//	}
//
//	repo, cleanup, err := database.Open(ctx, cfg, true)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cleanup()
//
// Open pings, optionally migrates, validates the schema and returns a
// datashare.Repo. Use Connect directly when the steps must be driven one at
// a time, as the migrate command does.
//
// # Subpackages
//
//   - database/postgres: PostgreSQL implementation using pgx
//   - database/sqlite: SQLite implementation using modernc.org/sqlite
package database
