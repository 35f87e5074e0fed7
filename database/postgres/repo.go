// Package postgres implements datashare.Repo using PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/datashare"
)

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// isUniqueViolation reports whether err is a unique violation raised by table.
func isUniqueViolation(err error, table string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.TableName == table
}

type repo struct {
	pool   *pgxpool.Pool
	tables datashare.Tables
}

func (r *repo) CreateUser(ctx context.Context, email, passwordHash string) (datashare.User, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (email, password_hash)
		VALUES ($1, $2)
		RETURNING id, email, password_hash, created_at
	`, pgx.Identifier{r.tables.Users}.Sanitize())

	var u datashare.User
	err := r.pool.QueryRow(ctx, query, email, passwordHash).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, r.tables.Users) {
			return datashare.User{}, fmt.Errorf("create user: %w", datashare.ErrEmailInUse)
		}
		return datashare.User{}, fmt.Errorf("create user: %w", err)
	}

	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}

func (r *repo) GetUserByEmail(ctx context.Context, email string) (datashare.User, error) {
	query := fmt.Sprintf(`
		SELECT id, email, password_hash, created_at
		FROM %s
		WHERE email = $1
	`, pgx.Identifier{r.tables.Users}.Sanitize())

	var u datashare.User
	err := r.pool.QueryRow(ctx, query, email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return datashare.User{}, fmt.Errorf("get user: %w", datashare.ErrNotFound)
		}
		return datashare.User{}, fmt.Errorf("get user: %w", err)
	}

	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}

func (r *repo) CreateFileWithToken(ctx context.Context, file datashare.NewFile, token string, expiresAt time.Time) (datashare.SharedFile, error) {
	if file.CreatedAt.IsZero() {
		file.CreatedAt = time.Now()
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return datashare.SharedFile{}, fmt.Errorf("create file: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	insertFile := fmt.Sprintf(`
		INSERT INTO %s (user_id, filename, content_type, file_size_bytes, storage_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, user_id, filename, content_type, file_size_bytes, storage_key, created_at
	`, pgx.Identifier{r.tables.Files}.Sanitize())

	var sf datashare.SharedFile
	err = tx.QueryRow(ctx, insertFile,
		file.OwnerID, file.Filename, file.ContentType, file.Size, file.StorageKey, file.CreatedAt,
	).Scan(&sf.ID, &sf.OwnerID, &sf.Filename, &sf.ContentType, &sf.Size, &sf.StorageKey, &sf.CreatedAt)
	if err != nil {
		return datashare.SharedFile{}, fmt.Errorf("create file: insert file: %w", err)
	}

	insertToken := fmt.Sprintf(`
		INSERT INTO %s (token, file_id, expires_at)
		VALUES ($1, $2, $3)
		RETURNING token, file_id, expires_at
	`, pgx.Identifier{r.tables.Tokens}.Sanitize())

	err = tx.QueryRow(ctx, insertToken, token, sf.ID, expiresAt).
		Scan(&sf.Token.Token, &sf.Token.FileID, &sf.Token.ExpiresAt)
	if err != nil {
		if isUniqueViolation(err, r.tables.Tokens) {
			return datashare.SharedFile{}, fmt.Errorf("create file: %w", datashare.ErrTokenCollision)
		}
		return datashare.SharedFile{}, fmt.Errorf("create file: insert token: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return datashare.SharedFile{}, fmt.Errorf("create file: commit: %w", err)
	}

	sf.CreatedAt = sf.CreatedAt.UTC()
	sf.Token.ExpiresAt = sf.Token.ExpiresAt.UTC()
	return sf, nil
}

// selectShared lists the columns read by scanShared. Token columns come from
// a LEFT JOIN and are NULL once the file has been deleted.
const selectShared = `SELECT f.id, f.user_id, f.filename, f.content_type, f.file_size_bytes,
	f.storage_key, f.created_at, t.token, t.expires_at`

func scanShared(row pgx.Row) (datashare.SharedFile, error) {
	var sf datashare.SharedFile
	var token *string
	var expiresAt *time.Time

	if err := row.Scan(&sf.ID, &sf.OwnerID, &sf.Filename, &sf.ContentType, &sf.Size,
		&sf.StorageKey, &sf.CreatedAt, &token, &expiresAt); err != nil {
		return datashare.SharedFile{}, err
	}

	sf.CreatedAt = sf.CreatedAt.UTC()
	if token != nil && expiresAt != nil {
		sf.Token = datashare.ShareToken{Token: *token, FileID: sf.ID, ExpiresAt: expiresAt.UTC()}
	}

	return sf, nil
}

func (r *repo) GetByToken(ctx context.Context, token string) (datashare.SharedFile, error) {
	query := fmt.Sprintf(`
		%s
		FROM %s f JOIN %s t ON t.file_id = f.id
		WHERE t.token = $1 AND f.deleted_at IS NULL
	`, selectShared, pgx.Identifier{r.tables.Files}.Sanitize(), pgx.Identifier{r.tables.Tokens}.Sanitize())

	sf, err := scanShared(r.pool.QueryRow(ctx, query, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return datashare.SharedFile{}, fmt.Errorf("get by token: %w", datashare.ErrNotFound)
		}
		return datashare.SharedFile{}, fmt.Errorf("get by token: %w", err)
	}

	return sf, nil
}

func (r *repo) DeleteFile(ctx context.Context, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("delete file: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	softDelete := fmt.Sprintf(`
		UPDATE %s
		SET deleted_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, pgx.Identifier{r.tables.Files}.Sanitize())

	result, err := tx.Exec(ctx, softDelete, id)
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("delete file: %w", datashare.ErrNotFound)
	}

	deleteToken := fmt.Sprintf(`DELETE FROM %s WHERE file_id = $1`, pgx.Identifier{r.tables.Tokens}.Sanitize())
	if _, err = tx.Exec(ctx, deleteToken, id); err != nil {
		return fmt.Errorf("delete file: delete token: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("delete file: commit: %w", err)
	}

	return nil
}

func (r *repo) ListByOwner(ctx context.Context, ownerID uuid.UUID, q datashare.ListQuery) (datashare.FileListResult, error) {
	return r.listWithCondition(ctx, q, "f.user_id = $1 AND f.deleted_at IS NULL", []any{ownerID}, "list by owner")
}

func (r *repo) ListPendingCleanup(ctx context.Context, q datashare.ListQuery) (datashare.FileListResult, error) {
	return r.listWithCondition(ctx, q, "f.deleted_at IS NOT NULL AND f.cleaned_up_at IS NULL", nil, "list pending cleanup")
}

// listWithCondition pages through files matching whereCondition, whose
// placeholders are numbered from $1 to match whereArgs.
func (r *repo) listWithCondition(ctx context.Context, q datashare.ListQuery, whereCondition string, whereArgs []any, opName string) (datashare.FileListResult, error) {
	cursor, err := datashare.DecodeCursor(q.Cursor)
	if err != nil {
		return datashare.FileListResult{}, fmt.Errorf("%s: %w", opName, err)
	}

	limit := datashare.NormalizeLimit(q.Limit)
	args := append([]any{}, whereArgs...)

	if !cursor.IsZero() {
		whereCondition += fmt.Sprintf(" AND (f.created_at, f.id) > ($%d, $%d)", len(args)+1, len(args)+2)
		args = append(args, cursor.CreatedAt, cursor.ID)
	}
	args = append(args, limit+1)

	query := fmt.Sprintf(`
		%s
		FROM %s f LEFT JOIN %s t ON t.file_id = f.id
		WHERE %s
		ORDER BY f.created_at, f.id
		LIMIT $%d
	`, selectShared, pgx.Identifier{r.tables.Files}.Sanitize(), pgx.Identifier{r.tables.Tokens}.Sanitize(),
		whereCondition, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return datashare.FileListResult{}, fmt.Errorf("%s: %w", opName, err)
	}
	defer rows.Close()

	items := make([]datashare.SharedFile, 0, limit)
	for rows.Next() {
		sf, scanErr := scanShared(rows)
		if scanErr != nil {
			return datashare.FileListResult{}, fmt.Errorf("%s: scan: %w", opName, scanErr)
		}
		items = append(items, sf)
	}

	if err := rows.Err(); err != nil {
		return datashare.FileListResult{}, fmt.Errorf("%s: rows: %w", opName, err)
	}

	var nextCursor string
	if len(items) > limit {
		// Cursor points to the last item of the current page
		lastItem := items[limit-1]
		nextCursor = datashare.EncodeCursor(lastItem.CreatedAt, lastItem.ID)
		items = items[:limit]
	}

	return datashare.FileListResult{Items: items, NextCursor: nextCursor}, nil
}

func (r *repo) MarkCleanedUp(ctx context.Context, id uuid.UUID) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET cleaned_up_at = NOW()
		WHERE id = $1 AND deleted_at IS NOT NULL AND cleaned_up_at IS NULL
	`, pgx.Identifier{r.tables.Files}.Sanitize())

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("mark cleaned up: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("mark cleaned up: %w", datashare.ErrNotFound)
	}

	return nil
}
