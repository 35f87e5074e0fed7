package clientcli

import (
	"time"
)

// Account is the server's view of the logged in user.
type Account struct {
	Email       string   `json:"email"`
	Authorities []string `json:"authorities,omitempty"`
	Message     string   `json:"message,omitempty"`
}

// LoginResult is returned by Login. Session holds the cookie value to send
// on later requests.
type LoginResult struct {
	Account
	Session string `json:"-"`
}

// UploadOptions configures an upload operation.
type UploadOptions struct {
	LocalPath      string
	Filename       string // optional, defaults to the base name of LocalPath
	ContentType    string // optional, auto-detect if empty
	Public         bool   // upload without an owner; works without a session
	ExpirationDays *int   // optional, server default if nil
}

// UploadResult represents the result of uploading a single file.
type UploadResult struct {
	LocalPath string    `json:"local_path"`
	Filename  string    `json:"filename"`
	Token     string    `json:"token"`
	Size      int64     `json:"size_bytes"`
	ExpiresAt time.Time `json:"expires_at"`
	Err       error     `json:"-"` // nil on success
}

// DownloadOptions configures a download operation.
type DownloadOptions struct {
	Token     string
	LocalPath string // empty = server filename in the working directory, "-" = stdout
}

// DownloadResult represents the result of downloading a file.
type DownloadResult struct {
	Token       string    `json:"token"`
	Filename    string    `json:"filename"`
	LocalPath   string    `json:"local_path"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size_bytes"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// DeleteOptions configures a delete operation.
type DeleteOptions struct {
	Tokens []string
}

// DeleteResult represents the result of deleting a single file.
type DeleteResult struct {
	Token   string `json:"token"`
	Deleted bool   `json:"deleted"`
	Err     error  `json:"-"` // nil on success
}

// ListOptions configures a list operation.
type ListOptions struct {
	Limit  int
	Cursor string
	All    bool // auto-paginate through all results
}

// ListResult contains paginated list results.
type ListResult struct {
	Items      []FileInfo `json:"items"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// FileInfo describes one of the caller's shared files.
type FileInfo struct {
	Token       string    `json:"token"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"createdAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// credentials is the register and login request body.
type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// uploadRequest mirrors the upload request body expected by the server.
type uploadRequest struct {
	Filename       string `json:"filename"`
	ContentType    string `json:"contentType"`
	Size           int64  `json:"size"`
	ExpirationDays *int   `json:"expirationDays,omitempty"`
}

// uploadTicket mirrors the server's upload response.
type uploadTicket struct {
	UploadURL string    `json:"uploadUrl"`
	Token     string    `json:"tokenString"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// downloadTicket mirrors the server's download response.
type downloadTicket struct {
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	DownloadURL string    `json:"downloadUrl"`
	CreatedAt   time.Time `json:"createdAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
}
