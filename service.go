package datashare

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	// MaxUploadSize is the largest declared size accepted by CreateUpload (1 GB).
	MaxUploadSize int64 = 1_000_000_000
	// DefaultURLTTL is the validity of presigned upload and download URLs.
	DefaultURLTTL = 10 * time.Minute
	// MaxExpirationDays bounds a caller-chosen share token lifetime.
	MaxExpirationDays = 365

	maxTokenAttempts = 5
)

// ObjectStorage defines the interface for the object store holding file
// content. Clients never stream bytes through the service: they receive
// time-limited signed URLs and talk to the store directly.
//
// All methods accept a context for cancellation and timeout control.
type ObjectStorage interface {
	// PresignPut returns a URL that accepts a single PUT of the object body.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - key: Object key, e.g. uploads/<uuid>-report.pdf
	//   - contentType: Content type the uploader declared
	//   - ttl: How long the URL stays valid
	//
	// Returns:
	//   - string: The signed URL
	//   - error: Any signing or configuration error
	PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)

	// PresignGet returns a URL that allows reading the object until ttl elapses.
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)

	// Delete removes an object.
	//
	// Returns:
	//   - error: ErrNotFound if the object does not exist, or other storage errors
	Delete(ctx context.Context, key string) error

	// EnsureBucket creates the bucket (or root directory) if it is missing.
	EnsureBucket(ctx context.Context) error
}

// FileService implements the upload, download and deletion flows on top of
// a FileRepo and an ObjectStorage.
type FileService struct {
	repo           FileRepo
	storage        ObjectStorage
	tokens         *TokenGenerator
	maxUploadSize  int64
	uploadURLTTL   time.Duration
	downloadURLTTL time.Duration
	shareTTL       time.Duration
	cleanupTimeout time.Duration
	now            func() time.Time
}

// ServiceConfig holds configuration options for FileService.
type ServiceConfig struct {
	MaxUploadSize  int64         // Largest accepted file (default: 1 GB)
	UploadURLTTL   time.Duration // Presigned PUT validity (default: 10m)
	DownloadURLTTL time.Duration // Presigned GET validity (default: 10m)
	ShareTTL       time.Duration // Token lifetime when the caller picks none (default: 7 days)
	CleanupTimeout time.Duration // Timeout for storage cleanup after delete (default: 30s)
	Now            func() time.Time
}

// NewFileService creates a FileService. Zero values in cfg fall back to the
// package defaults; a nil tokens generator reads from crypto/rand.
func NewFileService(repo FileRepo, storage ObjectStorage, tokens *TokenGenerator, cfg ServiceConfig) (*FileService, error) {
	if repo == nil || storage == nil {
		return nil, fmt.Errorf("new file service: %w: repo and storage are required", ErrInvalidInput)
	}
	if tokens == nil {
		tokens = NewTokenGenerator(nil)
	}

	s := &FileService{
		repo:           repo,
		storage:        storage,
		tokens:         tokens,
		maxUploadSize:  cfg.MaxUploadSize,
		uploadURLTTL:   cfg.UploadURLTTL,
		downloadURLTTL: cfg.DownloadURLTTL,
		shareTTL:       cfg.ShareTTL,
		cleanupTimeout: cfg.CleanupTimeout,
		now:            cfg.Now,
	}

	if s.maxUploadSize <= 0 {
		s.maxUploadSize = MaxUploadSize
	}
	if s.uploadURLTTL <= 0 {
		s.uploadURLTTL = DefaultURLTTL
	}
	if s.downloadURLTTL <= 0 {
		s.downloadURLTTL = DefaultURLTTL
	}
	if s.shareTTL <= 0 {
		s.shareTTL = DefaultShareTTL
	}
	if s.cleanupTimeout <= 0 {
		s.cleanupTimeout = 30 * time.Second
	}
	if s.now == nil {
		s.now = time.Now
	}

	return s, nil
}

// CreateUpload validates an upload request, signs a PUT URL for a fresh
// storage key and records the file together with a new share token.
//
// The method performs the following steps:
//  1. Validates size, extension, filename and expiration days
//  2. Builds the key uploads/<uuid>-<filename>
//  3. Presigns a PUT for the upload URL TTL
//  4. Persists file and token in one transaction, retrying with a new
//     token on collision
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - req: Filename, content type, declared size and optional expiration days
//   - owner: The uploading account, or a null UUID for anonymous uploads
//
// Error types returned:
//   - ErrFileTooLarge: Size above the configured maximum
//   - ErrForbiddenType: Extension is exe, bat or sh (any case)
//   - ErrInvalidInput: Empty filename, negative size or days outside 1..365
//   - ErrTokenCollision: No free token after repeated attempts
//
// The presigned URL is produced before anything is written, so a signing
// failure leaves no row behind. A row whose upload never happens is
// harmless: the download URL simply points at a missing object.
func (s *FileService) CreateUpload(ctx context.Context, req UploadRequest, owner uuid.NullUUID) (UploadResult, error) {
	if err := ctx.Err(); err != nil {
		return UploadResult{}, fmt.Errorf("create upload: %w", err)
	}

	if req.Size > s.maxUploadSize {
		return UploadResult{}, fmt.Errorf("create upload: %w: %d bytes", ErrFileTooLarge, req.Size)
	}

	if IsForbiddenExtension(req.Filename) {
		return UploadResult{}, fmt.Errorf("create upload %s: %w", req.Filename, ErrForbiddenType)
	}

	if !IsValidFilename(req.Filename) {
		return UploadResult{}, fmt.Errorf("create upload: %w: invalid filename %q", ErrInvalidInput, req.Filename)
	}

	if req.Size < 0 {
		return UploadResult{}, fmt.Errorf("create upload: %w: size cannot be negative", ErrInvalidInput)
	}

	shareTTL := s.shareTTL
	if req.ExpirationDays != nil {
		days := *req.ExpirationDays
		if days < 1 || days > MaxExpirationDays {
			return UploadResult{}, fmt.Errorf("create upload: %w: expiration days must be between 1 and %d", ErrInvalidInput, MaxExpirationDays)
		}
		shareTTL = time.Duration(days) * 24 * time.Hour
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := StorageKey(uuid.New(), req.Filename)

	uploadURL, err := s.storage.PresignPut(ctx, key, contentType, s.uploadURLTTL)
	if err != nil {
		return UploadResult{}, fmt.Errorf("create upload %s: presign: %w", key, err)
	}

	now := s.now().UTC()
	file := NewFile{
		OwnerID:     owner,
		Filename:    req.Filename,
		ContentType: contentType,
		Size:        req.Size,
		StorageKey:  key,
		CreatedAt:   now,
	}

	shared, err := s.persist(ctx, file, now.Add(shareTTL))
	if err != nil {
		return UploadResult{}, fmt.Errorf("create upload %s: %w", key, err)
	}

	return UploadResult{
		UploadURL: uploadURL,
		Token:     shared.Token.Token,
		ExpiresAt: shared.Token.ExpiresAt,
	}, nil
}

func (s *FileService) persist(ctx context.Context, file NewFile, expiresAt time.Time) (SharedFile, error) {
	var lastErr error

	for attempt := 1; attempt <= maxTokenAttempts; attempt++ {
		token, err := s.tokens.Generate()
		if err != nil {
			return SharedFile{}, err
		}

		shared, err := s.repo.CreateFileWithToken(ctx, file, token, expiresAt)
		if err == nil {
			return shared, nil
		}
		if !errors.Is(err, ErrTokenCollision) {
			return SharedFile{}, err
		}

		slog.Debug("share token collision, retrying", "attempt", attempt)
		lastErr = err
	}

	return SharedFile{}, fmt.Errorf("persist after %d attempts: %w", maxTokenAttempts, lastErr)
}

// Redeem resolves a share token to its file.
//
// Error types returned:
//   - ErrUnknownToken: Malformed token, or no live file carries it
//   - ErrExpiredToken: The token exists but now >= its expiry
//
// Redeem does not modify anything and may be called any number of times.
func (s *FileService) Redeem(ctx context.Context, token string) (StoredFile, ShareToken, error) {
	if err := ctx.Err(); err != nil {
		return StoredFile{}, ShareToken{}, fmt.Errorf("redeem: %w", err)
	}

	if !IsValidShareToken(token) {
		return StoredFile{}, ShareToken{}, fmt.Errorf("redeem: %w", ErrUnknownToken)
	}

	shared, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return StoredFile{}, ShareToken{}, fmt.Errorf("redeem %s: %w", token, ErrUnknownToken)
		}
		return StoredFile{}, ShareToken{}, fmt.Errorf("redeem %s: %w", token, err)
	}

	if shared.Token.Expired(s.now()) {
		return StoredFile{}, ShareToken{}, fmt.Errorf("redeem %s: %w", token, ErrExpiredToken)
	}

	return shared.StoredFile, shared.Token, nil
}

// CreateDownload redeems token and signs a GET URL for the stored object.
// Any caller holding a valid token may download; no identity is required.
func (s *FileService) CreateDownload(ctx context.Context, token string) (DownloadResult, error) {
	file, share, err := s.Redeem(ctx, token)
	if err != nil {
		return DownloadResult{}, fmt.Errorf("create download: %w", err)
	}

	downloadURL, err := s.storage.PresignGet(ctx, file.StorageKey, s.downloadURLTTL)
	if err != nil {
		return DownloadResult{}, fmt.Errorf("create download %s: presign: %w", file.StorageKey, err)
	}

	return DownloadResult{
		Filename:    file.Filename,
		ContentType: file.ContentType,
		Size:        file.Size,
		DownloadURL: downloadURL,
		CreatedAt:   file.CreatedAt,
		ExpiresAt:   share.ExpiresAt,
	}, nil
}

// DeleteOwned removes a file the principal owns.
//
// The file row is soft-deleted and its token removed in one transaction, so
// the token stops resolving immediately. The storage object is deleted
// afterwards on a background context bounded by the cleanup timeout. If that
// fails the error is logged and the object is left for Tombstone; the call
// still succeeds.
//
// Error types returned:
//   - ErrUnknownToken, ErrExpiredToken: as Redeem
//   - ErrNotOwner: The file is anonymous or belongs to someone else
func (s *FileService) DeleteOwned(ctx context.Context, principal Principal, token string) error {
	file, _, err := s.Redeem(ctx, token)
	if err != nil {
		return fmt.Errorf("delete owned: %w", err)
	}

	if !file.OwnedBy(principal.ID) {
		return fmt.Errorf("delete owned %s: %w", token, ErrNotOwner)
	}

	if err := s.repo.DeleteFile(ctx, file.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			// Lost a race with another delete of the same file.
			return fmt.Errorf("delete owned %s: %w", token, ErrUnknownToken)
		}
		return fmt.Errorf("delete owned %s: %w", token, err)
	}

	// Use background context for cleanup since original context may be cancelled
	cleanupCtx, cancel := context.WithTimeout(context.Background(), s.cleanupTimeout)
	defer cancel()

	delErr := s.storage.Delete(cleanupCtx, file.StorageKey)
	if delErr != nil && !errors.Is(delErr, ErrNotFound) {
		slog.Warn("storage delete failed, left for cleanup",
			"file_id", file.ID, "key", file.StorageKey, "err", delErr)
		return nil
	}

	if markErr := s.repo.MarkCleanedUp(cleanupCtx, file.ID); markErr != nil {
		slog.Warn("mark cleaned up failed", "file_id", file.ID, "err", markErr)
	}

	return nil
}

// ListOwned returns one page of the principal's live files with their tokens.
func (s *FileService) ListOwned(ctx context.Context, principal Principal, q ListQuery) (FileListResult, error) {
	if err := ctx.Err(); err != nil {
		return FileListResult{}, fmt.Errorf("list owned: %w", err)
	}

	result, err := s.repo.ListByOwner(ctx, principal.ID, q)
	if err != nil {
		return FileListResult{}, fmt.Errorf("list owned: %w", err)
	}

	return result, nil
}

// Tombstone permanently removes the storage objects of soft-deleted files
// and marks them as cleaned up. It pages through until none remain.
//
// If an object is already gone from storage (ErrNotFound), the file is
// marked as cleaned up anyway.
//
// Returns the number of files cleaned up, which is also valid when an error
// stops the pass early.
func (s *FileService) Tombstone(ctx context.Context, q ListQuery) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("tombstone: %w", err)
	}

	totalCleaned := 0
	cursor := q.Cursor

	for {
		if err := ctx.Err(); err != nil {
			return totalCleaned, fmt.Errorf("tombstone: %w", err)
		}

		result, listErr := s.repo.ListPendingCleanup(ctx, ListQuery{Limit: q.Limit, Cursor: cursor})
		if listErr != nil {
			return totalCleaned, fmt.Errorf("tombstone: %w", listErr)
		}

		if len(result.Items) == 0 {
			break
		}

		for _, file := range result.Items {
			deleteErr := s.storage.Delete(ctx, file.StorageKey)
			if deleteErr != nil && !errors.Is(deleteErr, ErrNotFound) {
				return totalCleaned, fmt.Errorf("tombstone '%s': %w", file.StorageKey, deleteErr)
			}

			if err := s.repo.MarkCleanedUp(ctx, file.ID); err != nil {
				return totalCleaned, fmt.Errorf("tombstone '%s': %w", file.StorageKey, err)
			}

			totalCleaned++
		}

		if result.NextCursor == "" {
			break
		}
		cursor = result.NextCursor
	}

	return totalCleaned, nil
}
