package datashare

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UserRepo persists accounts.
type UserRepo interface {
	// CreateUser inserts a new account. Returns ErrEmailInUse when the email
	// is already registered.
	CreateUser(ctx context.Context, email, passwordHash string) (User, error)

	// GetUserByEmail returns ErrNotFound if no account has this email.
	GetUserByEmail(ctx context.Context, email string) (User, error)
}

// FileRepo persists file metadata and the share tokens bound to it.
//
// A file and its token share a lifecycle: they are created in one
// transaction and the token goes away when the file is deleted.
// Implementations must be safe for concurrent use.
type FileRepo interface {
	// CreateFileWithToken inserts the file row and then its token inside a
	// single transaction. If the token string is already taken the whole
	// transaction is rolled back and ErrTokenCollision is returned so the
	// caller can retry with a fresh value.
	CreateFileWithToken(ctx context.Context, file NewFile, token string, expiresAt time.Time) (SharedFile, error)

	// GetByToken resolves a token to its live (not deleted) file.
	// Returns ErrNotFound when the token does not exist.
	GetByToken(ctx context.Context, token string) (SharedFile, error)

	// DeleteFile soft-deletes the file and removes its token in one
	// transaction. The storage object is left for cleanup; the row stays
	// visible to ListPendingCleanup until MarkCleanedUp is called.
	// Returns ErrNotFound when the file is missing or already deleted.
	DeleteFile(ctx context.Context, id uuid.UUID) error

	// ListByOwner returns live files owned by ownerID, oldest first.
	ListByOwner(ctx context.Context, ownerID uuid.UUID, q ListQuery) (FileListResult, error)

	// ListPendingCleanup returns soft-deleted files whose storage object has
	// not been removed yet (deleted_at IS NOT NULL AND cleaned_up_at IS NULL).
	ListPendingCleanup(ctx context.Context, q ListQuery) (FileListResult, error)

	// MarkCleanedUp records that the storage object of a soft-deleted file
	// is gone. Returns ErrNotFound if the file is not pending cleanup.
	MarkCleanedUp(ctx context.Context, id uuid.UUID) error
}

// Repo is the full persistence surface a database backend provides.
type Repo interface {
	UserRepo
	FileRepo
}

// Tables holds configurable table names.
// This allows several deployments to share one database.
type Tables struct {
	Users  string `mapstructure:"users"`
	Files  string `mapstructure:"files"`
	Tokens string `mapstructure:"tokens"`
}

// DefaultTables returns the table names used when none are configured.
func DefaultTables() Tables {
	return Tables{Users: "users", Files: "files", Tokens: "tokens"}
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all table names are set, valid and distinct.
func (t Tables) Validate() error {
	names := map[string]string{"users": t.Users, "files": t.Files, "tokens": t.Tokens}
	seen := make(map[string]string, len(names))

	for kind, name := range names {
		if name == "" {
			return fmt.Errorf("validate tables: %s table name cannot be empty", kind)
		}
		if !IsValidTableName(name) {
			return fmt.Errorf("validate tables: invalid %s table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", kind, name)
		}
		if other, dup := seen[name]; dup {
			return fmt.Errorf("validate tables: %s and %s share the name %s", other, kind, name)
		}
		seen[name] = kind
	}

	return nil
}

// Cursor represents pagination cursor data for list operations.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// EncodeCursor encodes cursor data to a base64 string for pagination.
func EncodeCursor(createdAt time.Time, id uuid.UUID) string {
	data := createdAt.UTC().Format(time.RFC3339Nano) + "|" + id.String()
	return base64.URLEncoding.EncodeToString([]byte(data))
}

// DecodeCursor decodes a pagination cursor string back to cursor data.
// An empty string decodes to the zero Cursor.
func DecodeCursor(cursor string) (Cursor, error) {
	if cursor == "" {
		return Cursor{}, nil
	}

	decoded, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return Cursor{}, fmt.Errorf("decode cursor: %w: invalid encoding", ErrInvalidInput)
	}

	parts := strings.SplitN(string(decoded), "|", 2)
	if len(parts) != 2 {
		return Cursor{}, fmt.Errorf("decode cursor: %w: invalid format", ErrInvalidInput)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return Cursor{}, fmt.Errorf("decode cursor: %w: invalid timestamp", ErrInvalidInput)
	}

	id, err := uuid.Parse(parts[1])
	if err != nil {
		return Cursor{}, fmt.Errorf("decode cursor: %w: invalid id", ErrInvalidInput)
	}

	return Cursor{CreatedAt: createdAt, ID: id}, nil
}

// IsZero reports whether the cursor marks the first page.
func (c Cursor) IsZero() bool {
	return c.ID == uuid.Nil && c.CreatedAt.IsZero()
}

// NormalizeLimit clamps a page size to 1..1000, defaulting to 100.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return 100
	}
	return min(limit, 1000)
}

// IsNotFound reports whether err is, or wraps, ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
