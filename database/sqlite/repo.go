// Package sqlite implements datashare.Repo using SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sagarc03/datashare"
	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// timeLayout is fixed width so that text comparison orders timestamps.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// isUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY
// violation on table.column.
func isUniqueViolation(err error, table, column string) bool {
	var se *moderncsqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	if se.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
		return false
	}
	return strings.Contains(se.Error(), "UNIQUE constraint failed: "+table+"."+column)
}

type repo struct {
	db     *sql.DB
	tables datashare.Tables
}

func (r *repo) CreateUser(ctx context.Context, email, passwordHash string) (datashare.User, error) {
	u := datashare.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		quoteIdentifier(r.tables.Users))

	_, err := r.db.ExecContext(ctx, query, u.ID.String(), u.Email, u.PasswordHash, formatTime(u.CreatedAt))
	if err != nil {
		if isUniqueViolation(err, r.tables.Users, "email") {
			return datashare.User{}, fmt.Errorf("create user: %w", datashare.ErrEmailInUse)
		}
		return datashare.User{}, fmt.Errorf("create user: %w", err)
	}

	return u, nil
}

func (r *repo) GetUserByEmail(ctx context.Context, email string) (datashare.User, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT id, email, password_hash, created_at FROM %s WHERE email = ?`,
		quoteIdentifier(r.tables.Users))

	var u datashare.User
	var idStr, createdAt string

	err := r.db.QueryRowContext(ctx, query, email).Scan(&idStr, &u.Email, &u.PasswordHash, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return datashare.User{}, fmt.Errorf("get user: %w", datashare.ErrNotFound)
		}
		return datashare.User{}, fmt.Errorf("get user: %w", err)
	}

	u.ID, err = uuid.Parse(idStr)
	if err != nil {
		return datashare.User{}, fmt.Errorf("get user: parse uuid: %w", err)
	}

	u.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return datashare.User{}, fmt.Errorf("get user: parse created_at: %w", err)
	}

	return u, nil
}

func (r *repo) CreateFileWithToken(ctx context.Context, file datashare.NewFile, token string, expiresAt time.Time) (datashare.SharedFile, error) {
	if file.CreatedAt.IsZero() {
		file.CreatedAt = time.Now()
	}

	sf := datashare.SharedFile{
		StoredFile: datashare.StoredFile{
			ID:          uuid.New(),
			OwnerID:     file.OwnerID,
			Filename:    file.Filename,
			ContentType: file.ContentType,
			Size:        file.Size,
			StorageKey:  file.StorageKey,
			CreatedAt:   file.CreatedAt.UTC(),
		},
	}
	sf.Token = datashare.ShareToken{Token: token, FileID: sf.ID, ExpiresAt: expiresAt.UTC()}

	var owner any
	if file.OwnerID.Valid {
		owner = file.OwnerID.UUID.String()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return datashare.SharedFile{}, fmt.Errorf("create file: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	insertFile := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (id, user_id, filename, content_type, file_size_bytes, storage_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, quoteIdentifier(r.tables.Files))

	_, err = tx.ExecContext(ctx, insertFile,
		sf.ID.String(), owner, sf.Filename, sf.ContentType, sf.Size, sf.StorageKey, formatTime(sf.CreatedAt),
	)
	if err != nil {
		return datashare.SharedFile{}, fmt.Errorf("create file: insert file: %w", err)
	}

	insertToken := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (token, file_id, expires_at) VALUES (?, ?, ?)`, quoteIdentifier(r.tables.Tokens))

	_, err = tx.ExecContext(ctx, insertToken, token, sf.ID.String(), formatTime(sf.Token.ExpiresAt))
	if err != nil {
		if isUniqueViolation(err, r.tables.Tokens, "token") {
			return datashare.SharedFile{}, fmt.Errorf("create file: %w", datashare.ErrTokenCollision)
		}
		return datashare.SharedFile{}, fmt.Errorf("create file: insert token: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return datashare.SharedFile{}, fmt.Errorf("create file: commit: %w", err)
	}

	return sf, nil
}

// selectShared lists the columns read by scanShared. Token columns come from
// a LEFT JOIN and are NULL once the file has been deleted.
const selectShared = `SELECT f.id, f.user_id, f.filename, f.content_type, f.file_size_bytes,
	f.storage_key, f.created_at, t.token, t.expires_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShared(row rowScanner) (datashare.SharedFile, error) {
	var sf datashare.SharedFile
	var idStr, createdAt string
	var owner, token, expiresAt sql.NullString

	if err := row.Scan(&idStr, &owner, &sf.Filename, &sf.ContentType, &sf.Size,
		&sf.StorageKey, &createdAt, &token, &expiresAt); err != nil {
		return datashare.SharedFile{}, err
	}

	var err error
	sf.ID, err = uuid.Parse(idStr)
	if err != nil {
		return datashare.SharedFile{}, fmt.Errorf("parse uuid: %w", err)
	}

	if owner.Valid {
		ownerID, parseErr := uuid.Parse(owner.String)
		if parseErr != nil {
			return datashare.SharedFile{}, fmt.Errorf("parse user_id: %w", parseErr)
		}
		sf.OwnerID = uuid.NullUUID{UUID: ownerID, Valid: true}
	}

	sf.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return datashare.SharedFile{}, fmt.Errorf("parse created_at: %w", err)
	}

	if token.Valid {
		sf.Token.Token = token.String
		sf.Token.FileID = sf.ID
		sf.Token.ExpiresAt, err = parseTime(expiresAt.String)
		if err != nil {
			return datashare.SharedFile{}, fmt.Errorf("parse expires_at: %w", err)
		}
	}

	return sf, nil
}

func (r *repo) GetByToken(ctx context.Context, token string) (datashare.SharedFile, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`%s
		FROM %s f JOIN %s t ON t.file_id = f.id
		WHERE t.token = ? AND f.deleted_at IS NULL`,
		selectShared, quoteIdentifier(r.tables.Files), quoteIdentifier(r.tables.Tokens))

	sf, err := scanShared(r.db.QueryRowContext(ctx, query, token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return datashare.SharedFile{}, fmt.Errorf("get by token: %w", datashare.ErrNotFound)
		}
		return datashare.SharedFile{}, fmt.Errorf("get by token: %w", err)
	}

	return sf, nil
}

func (r *repo) DeleteFile(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete file: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	softDelete := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`UPDATE %s SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, quoteIdentifier(r.tables.Files))

	result, err := tx.ExecContext(ctx, softDelete, formatTime(time.Now()), id.String())
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete file: rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("delete file: %w", datashare.ErrNotFound)
	}

	deleteToken := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`DELETE FROM %s WHERE file_id = ?`, quoteIdentifier(r.tables.Tokens))

	if _, err = tx.ExecContext(ctx, deleteToken, id.String()); err != nil {
		return fmt.Errorf("delete file: delete token: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("delete file: commit: %w", err)
	}

	return nil
}

func (r *repo) ListByOwner(ctx context.Context, ownerID uuid.UUID, q datashare.ListQuery) (datashare.FileListResult, error) {
	return r.listWithCondition(ctx, q, "f.user_id = ? AND f.deleted_at IS NULL", []any{ownerID.String()}, "list by owner")
}

func (r *repo) ListPendingCleanup(ctx context.Context, q datashare.ListQuery) (datashare.FileListResult, error) {
	return r.listWithCondition(ctx, q, "f.deleted_at IS NOT NULL AND f.cleaned_up_at IS NULL", nil, "list pending cleanup")
}

func (r *repo) listWithCondition(ctx context.Context, q datashare.ListQuery, whereCondition string, whereArgs []any, opName string) (datashare.FileListResult, error) {
	cursor, err := datashare.DecodeCursor(q.Cursor)
	if err != nil {
		return datashare.FileListResult{}, fmt.Errorf("%s: %w", opName, err)
	}

	limit := datashare.NormalizeLimit(q.Limit)
	args := append([]any{}, whereArgs...)

	if !cursor.IsZero() {
		whereCondition += " AND (f.created_at, f.id) > (?, ?)"
		args = append(args, formatTime(cursor.CreatedAt), cursor.ID.String())
	}
	args = append(args, limit+1)

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`%s
		FROM %s f LEFT JOIN %s t ON t.file_id = f.id
		WHERE %s
		ORDER BY f.created_at, f.id
		LIMIT ?`,
		selectShared, quoteIdentifier(r.tables.Files), quoteIdentifier(r.tables.Tokens), whereCondition)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return datashare.FileListResult{}, fmt.Errorf("%s: %w", opName, err)
	}
	defer func() { _ = rows.Close() }()

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
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`UPDATE %s
		SET cleaned_up_at = ?
		WHERE id = ? AND deleted_at IS NOT NULL AND cleaned_up_at IS NULL`, quoteIdentifier(r.tables.Files))

	result, err := r.db.ExecContext(ctx, query, formatTime(time.Now()), id.String())
	if err != nil {
		return fmt.Errorf("mark cleaned up: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark cleaned up: rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("mark cleaned up: %w", datashare.ErrNotFound)
	}

	return nil
}
