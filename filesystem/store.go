// Package filesystem is the local storage driver. It keeps objects under a
// directory and hands out stowry-signed URLs that the server itself serves
// through ObjectHandler.
package filesystem

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sagarc03/datashare"
)

// Store provides file system storage operations.
type Store struct {
	root *os.Root
}

// WriteResult describes a completed write.
type WriteResult struct {
	BytesWritten int64
	ETag         string
}

// NewFileStorage creates a new Store with the given root directory.
// The root provides sandboxed file operations preventing path traversal.
func NewFileStorage(root *os.Root) *Store {
	return &Store{root: root}
}

// Open opens an object for reading. Returns datashare.ErrNotFound if the
// object does not exist.
func (s *Store) Open(ctx context.Context, key string) (*os.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := s.root.Open(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, datashare.ErrNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return f, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// Write atomically writes content to key using a temp file and rename.
// Intermediate directories are created as needed. A failed or cancelled
// write leaves any previous object at key untouched.
func (s *Store) Write(ctx context.Context, key string, content io.Reader) (WriteResult, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return WriteResult{}, ctxErr
	}

	tmpFile := tmpFileName()
	t, createErr := s.root.Create(tmpFile)
	if createErr != nil {
		return WriteResult{}, fmt.Errorf("could not open temp file: %w", createErr)
	}

	success := false
	defer func() {
		if closeErr := t.Close(); closeErr != nil {
			slog.Warn("failed to close tmp file", "err", closeErr)
		}
		if !success {
			if rmErr := s.root.Remove(tmpFile); rmErr != nil {
				slog.Warn("failed to remove tmp file", "err", rmErr)
			}
		}
	}()

	h := sha256.New()
	w := io.MultiWriter(h, t)

	written, err := io.Copy(w, &ctxReader{ctx: ctx, r: content})
	if err != nil {
		return WriteResult{}, fmt.Errorf("could not copy file contents: %w", err)
	}

	if err = t.Sync(); err != nil {
		return WriteResult{}, fmt.Errorf("could not sync written file: %w", err)
	}

	destDir := filepath.Dir(key)
	if destDir != "." {
		if err := s.root.MkdirAll(destDir, 0o755); err != nil {
			return WriteResult{}, fmt.Errorf("could not create intermediate directories: %w", err)
		}
	}

	if renameErr := s.root.Rename(tmpFile, key); renameErr != nil {
		return WriteResult{}, fmt.Errorf("failed to rename file: %w", renameErr)
	}

	success = true
	return WriteResult{BytesWritten: written, ETag: hex.EncodeToString(h.Sum(nil))}, nil
}

// Delete removes an object. Returns datashare.ErrNotFound if it does not exist.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.root.Remove(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return datashare.ErrNotFound
		}
		return fmt.Errorf("could not delete file: %w", err)
	}
	return nil
}

func detectContentType(key string) string {
	contentType := mime.TypeByExtension(filepath.Ext(key))
	if contentType == "" {
		return "application/octet-stream"
	}
	return contentType
}

func tmpFileName() string {
	return fmt.Sprintf(".t%s", uuid.New().String())
}
