package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/datashare"
)

type TableMigration struct {
	TableName string
	Up        func(ctx context.Context, pool *pgxpool.Pool) error
	Down      func(ctx context.Context, pool *pgxpool.Pool) error
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

func Migrate(ctx context.Context, pool *pgxpool.Pool, tables datashare.Tables) error {
	for _, migration := range getTableMigrations(tables) {
		if err := migration.Up(ctx, pool); err != nil {
			return fmt.Errorf("migrate up %s: %w", migration.TableName, err)
		}
	}
	return nil
}

func DropTables(ctx context.Context, pool *pgxpool.Pool, tables datashare.Tables) error {
	migrations := getTableMigrations(tables)

	for i := len(migrations) - 1; i >= 0; i-- {
		migration := migrations[i]
		if err := migration.Down(ctx, pool); err != nil {
			return fmt.Errorf("migrate down %s: %w", migration.TableName, err)
		}
	}

	return nil
}

func createUsersTable(tableName string) func(context.Context, *pgxpool.Pool) error {
	return func(ctx context.Context, pool *pgxpool.Pool) error {
		sql := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				email TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
		`, pgx.Identifier{tableName}.Sanitize())

		if _, err := pool.Exec(ctx, sql); err != nil {
			return fmt.Errorf("create users table: %w", err)
		}
		return nil
	}
}

func createFilesTable(tableName, usersTable string) func(context.Context, *pgxpool.Pool) error {
	return func(ctx context.Context, pool *pgxpool.Pool) error {
		quotedTable := pgx.Identifier{tableName}.Sanitize()
		indexOwnerList := pgx.Identifier{fmt.Sprintf("idx_%s_owner_list", tableName)}.Sanitize()
		indexPendingCleanup := pgx.Identifier{fmt.Sprintf("idx_%s_pending_cleanup", tableName)}.Sanitize()

		sql := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				user_id UUID REFERENCES %s (id) ON DELETE CASCADE,
				filename TEXT NOT NULL,
				content_type TEXT NOT NULL,
				file_size_bytes BIGINT NOT NULL,
				storage_key TEXT NOT NULL UNIQUE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				deleted_at TIMESTAMPTZ,
				cleaned_up_at TIMESTAMPTZ
			);

			CREATE INDEX IF NOT EXISTS %s
			ON %s (user_id, created_at, id)
			WHERE (deleted_at IS NULL);

			CREATE INDEX IF NOT EXISTS %s
			ON %s (deleted_at, cleaned_up_at)
			WHERE (deleted_at IS NOT NULL AND cleaned_up_at IS NULL);
		`,
			quotedTable, pgx.Identifier{usersTable}.Sanitize(),
			indexOwnerList, quotedTable,
			indexPendingCleanup, quotedTable,
		)

		if _, err := pool.Exec(ctx, sql); err != nil {
			return fmt.Errorf("create files table: %w", err)
		}
		return nil
	}
}

func createTokensTable(tableName, filesTable string) func(context.Context, *pgxpool.Pool) error {
	return func(ctx context.Context, pool *pgxpool.Pool) error {
		sql := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				token TEXT PRIMARY KEY,
				file_id UUID NOT NULL UNIQUE REFERENCES %s (id) ON DELETE CASCADE,
				expires_at TIMESTAMPTZ NOT NULL
			);
		`, pgx.Identifier{tableName}.Sanitize(), pgx.Identifier{filesTable}.Sanitize())

		if _, err := pool.Exec(ctx, sql); err != nil {
			return fmt.Errorf("create tokens table: %w", err)
		}
		return nil
	}
}

func dropTable(tableName string) func(context.Context, *pgxpool.Pool) error {
	return func(ctx context.Context, pool *pgxpool.Pool) error {
		sql := fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", pgx.Identifier{tableName}.Sanitize())
		_, err := pool.Exec(ctx, sql)
		return err
	}
}
