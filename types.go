package datashare

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered account. Email is the login identity and is
// compared exactly as stored.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Principal is the authenticated identity attached to a request.
type Principal struct {
	ID    uuid.UUID
	Email string
}

// Authorities returns the roles granted to the principal.
func (p Principal) Authorities() []string {
	return []string{RoleUser}
}

// RoleUser is the only role an account carries.
const RoleUser = "ROLE_USER"

// Credential is the decoded content of a session credential.
type Credential struct {
	Subject   string
	Issuer    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// StoredFile is the metadata of an object uploaded through a signed URL.
// OwnerID is null for anonymous uploads.
type StoredFile struct {
	ID          uuid.UUID     `json:"id"`
	OwnerID     uuid.NullUUID `json:"owner_id"`
	Filename    string        `json:"filename"`
	ContentType string        `json:"content_type"`
	Size        int64         `json:"size"`
	StorageKey  string        `json:"storage_key"`
	CreatedAt   time.Time     `json:"created_at"`
}

// OwnedBy reports whether the file has an owner and that owner is id.
func (f StoredFile) OwnedBy(id uuid.UUID) bool {
	return f.OwnerID.Valid && f.OwnerID.UUID == id
}

// ShareToken grants redemption rights to one stored file until ExpiresAt.
type ShareToken struct {
	Token     string    `json:"token"`
	FileID    uuid.UUID `json:"file_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the token is no longer redeemable at now.
// A token is valid strictly before ExpiresAt.
func (t ShareToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// NewFile carries the fields needed to persist a file row.
type NewFile struct {
	OwnerID     uuid.NullUUID
	Filename    string
	ContentType string
	Size        int64
	StorageKey  string
	CreatedAt   time.Time
}

// SharedFile is a file together with its current share token.
type SharedFile struct {
	StoredFile
	Token ShareToken
}

// UploadRequest describes a file the caller intends to upload.
type UploadRequest struct {
	Filename       string
	ContentType    string
	Size           int64
	ExpirationDays *int
}

// UploadResult is returned by FileService.CreateUpload.
type UploadResult struct {
	UploadURL string    `json:"uploadUrl"`
	Token     string    `json:"tokenString"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// DownloadResult is returned by FileService.CreateDownload.
type DownloadResult struct {
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	DownloadURL string    `json:"downloadUrl"`
	CreatedAt   time.Time `json:"createdAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type ListQuery struct {
	Limit  int
	Cursor string
}

type FileListResult struct {
	Items      []SharedFile
	NextCursor string
}
