package filesystem

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sagarc03/datashare"
)

// ObjectStorage implements datashare.ObjectStorage on a local Store.
// Signed URLs point back at the server, where ObjectHandler serves them.
type ObjectStorage struct {
	store     *Store
	presigner *Presigner
}

// NewObjectStorage combines a Store with the Presigner that signs its URLs.
func NewObjectStorage(store *Store, presigner *Presigner) *ObjectStorage {
	return &ObjectStorage{store: store, presigner: presigner}
}

func (o *ObjectStorage) presign(ctx context.Context, method, key string, ttl time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if !datashare.IsValidObjectKey(key) || !strings.HasPrefix(key, datashare.UploadPrefix) {
		return "", fmt.Errorf("presign %s: %w: unsupported object key", strings.ToLower(method), datashare.ErrInvalidInput)
	}

	return o.presigner.URL(method, key, ttl), nil
}

// PresignPut returns a signed PUT URL. The content type is not signed; GET
// derives it from the key's extension.
func (o *ObjectStorage) PresignPut(ctx context.Context, key, _ string, ttl time.Duration) (string, error) {
	return o.presign(ctx, http.MethodPut, key, ttl)
}

func (o *ObjectStorage) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return o.presign(ctx, http.MethodGet, key, ttl)
}

func (o *ObjectStorage) Delete(ctx context.Context, key string) error {
	if err := o.store.Delete(ctx, key); err != nil {
		if errors.Is(err, datashare.ErrNotFound) {
			return fmt.Errorf("delete object: %w", datashare.ErrNotFound)
		}
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// EnsureBucket creates the uploads directory under the root.
func (o *ObjectStorage) EnsureBucket(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := o.store.root.MkdirAll(strings.TrimSuffix(datashare.UploadPrefix, "/"), 0o755); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}
	return nil
}
