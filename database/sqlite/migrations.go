package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sagarc03/datashare"
)

// quoteIdentifier safely quotes a SQLite identifier
func quoteIdentifier(name string) string {
	return `"` + name + `"`
}

type TableMigration struct {
	TableName string
	Up        func(ctx context.Context, db *sql.DB) error
	Down      func(ctx context.Context, db *sql.DB) error
}

// getTableMigrations returns the table migrations in dependency order.
func getTableMigrations(tables datashare.Tables) []TableMigration {
	return []TableMigration{
		{
			TableName: tables.Users,
			Up:        createUsersTable(tables.Users),
			Down:      dropTable(tables.Users),
		},
		{
			TableName: tables.Files,
			Up:        createFilesTable(tables.Files, tables.Users),
			Down:      dropTable(tables.Files),
		},
		{
			TableName: tables.Tokens,
			Up:        createTokensTable(tables.Tokens, tables.Files),
			Down:      dropTable(tables.Tokens),
		},
	}
}

func Migrate(ctx context.Context, db *sql.DB, tables datashare.Tables) error {
	migrations := getTableMigrations(tables)

	for _, migration := range migrations {
		if err := migration.Up(ctx, db); err != nil {
			return fmt.Errorf("migrate up %s: %w", migration.TableName, err)
		}
	}

	return nil
}

func DropTables(ctx context.Context, db *sql.DB, tables datashare.Tables) error {
	migrations := getTableMigrations(tables)

	for i := len(migrations) - 1; i >= 0; i-- {
		migration := migrations[i]
		if err := migration.Down(ctx, db); err != nil {
			return fmt.Errorf("migrate down %s: %w", migration.TableName, err)
		}
	}

	return nil
}

func createUsersTable(tableName string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		createTableSQL := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id TEXT NOT NULL PRIMARY KEY,
				email TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL,
				created_at TEXT NOT NULL
			)
		`, quoteIdentifier(tableName))

		if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
		return nil
	}
}

func createFilesTable(tableName, usersTable string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		quotedTable := quoteIdentifier(tableName)
		indexOwnerList := quoteIdentifier(fmt.Sprintf("idx_%s_owner_list", tableName))
		indexPendingCleanup := quoteIdentifier(fmt.Sprintf("idx_%s_pending_cleanup", tableName))

		createTableSQL := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id TEXT NOT NULL PRIMARY KEY,
				user_id TEXT REFERENCES %s (id) ON DELETE CASCADE,
				filename TEXT NOT NULL,
				content_type TEXT NOT NULL,
				file_size_bytes INTEGER NOT NULL,
				storage_key TEXT NOT NULL UNIQUE,
				created_at TEXT NOT NULL,
				deleted_at TEXT,
				cleaned_up_at TEXT
			)
		`, quotedTable, quoteIdentifier(usersTable))

		if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
			return fmt.Errorf("create table: %w", err)
		}

		indexSQL := fmt.Sprintf(`
			CREATE INDEX IF NOT EXISTS %s ON %s (user_id, created_at, id)
			WHERE deleted_at IS NULL
		`, indexOwnerList, quotedTable)

		if _, err := db.ExecContext(ctx, indexSQL); err != nil {
			return fmt.Errorf("create index owner_list: %w", err)
		}

		indexSQL = fmt.Sprintf(`
			CREATE INDEX IF NOT EXISTS %s ON %s (deleted_at, cleaned_up_at)
		`, indexPendingCleanup, quotedTable)

		if _, err := db.ExecContext(ctx, indexSQL); err != nil {
			return fmt.Errorf("create index pending_cleanup: %w", err)
		}

		return nil
	}
}

func createTokensTable(tableName, filesTable string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		createTableSQL := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				token TEXT NOT NULL PRIMARY KEY,
				file_id TEXT NOT NULL UNIQUE REFERENCES %s (id) ON DELETE CASCADE,
				expires_at TEXT NOT NULL
			)
		`, quoteIdentifier(tableName), quoteIdentifier(filesTable))

		if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
		return nil
	}
}

func dropTable(tableName string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		quotedTable := quoteIdentifier(tableName)
		dropSQL := fmt.Sprintf("DROP TABLE IF EXISTS %s", quotedTable)

		_, err := db.ExecContext(ctx, dropSQL)
		return err
	}
}
