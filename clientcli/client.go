package clientcli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout is the default HTTP client timeout.
const DefaultTimeout = 30 * time.Second

// Client talks to a datashare server.
type Client struct {
	config     *Config
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// New creates a new Client with the given config and options.
func New(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}

	cfg = cfg.WithDefaults()
	cfg.Endpoint = strings.TrimSuffix(cfg.Endpoint, "/")

	c := &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Session returns the session the client sends, if any.
func (c *Client) Session() string {
	return c.config.Session
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, email, password string) (*Account, error) {
	if email == "" {
		return nil, fmt.Errorf("register: %w", ErrEmailRequired)
	}

	var acc Account
	if _, err := c.doJSON(ctx, http.MethodPost, "/auth/register", credentials{Email: email, Password: password}, &acc); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return &acc, nil
}

// Login checks the password and returns the session cookie value. The
// client keeps using the new session for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if email == "" {
		return nil, fmt.Errorf("login: %w", ErrEmailRequired)
	}

	var res LoginResult
	resp, err := c.doJSON(ctx, http.MethodPost, "/auth/login", credentials{Email: email, Password: password}, &res.Account)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	for _, ck := range resp.Cookies() {
		if ck.Name == c.config.CookieName && ck.Value != "" {
			res.Session = ck.Value
		}
	}
	if res.Session == "" {
		return nil, fmt.Errorf("login: %w", ErrNoSession)
	}

	c.config.Session = res.Session
	return &res, nil
}

// Logout asks the server to clear the cookie and forgets the session.
func (c *Client) Logout(ctx context.Context) error {
	if _, err := c.doJSON(ctx, http.MethodPost, "/auth/logout", nil, nil); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	c.config.Session = ""
	return nil
}

// WhoAmI returns the account of the current session.
func (c *Client) WhoAmI(ctx context.Context) (*Account, error) {
	if err := c.config.RequireSession(); err != nil {
		return nil, err
	}

	var acc Account
	if _, err := c.doJSON(ctx, http.MethodGet, "/auth/me", nil, &acc); err != nil {
		return nil, fmt.Errorf("whoami: %w", err)
	}
	return &acc, nil
}

// Upload requests an upload URL and share token, then PUTs the file to the
// returned URL.
func (c *Client) Upload(ctx context.Context, opts UploadOptions) (*UploadResult, error) {
	if opts.LocalPath == "" {
		return nil, fmt.Errorf("upload: %w", ErrEmptyPath)
	}
	if !opts.Public {
		if err := c.config.RequireSession(); err != nil {
			return nil, err
		}
	}

	file, err := os.Open(opts.LocalPath) //#nosec G304 -- localPath is user-provided input
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("upload: %s is a directory", opts.LocalPath)
	}

	filename := opts.Filename
	if filename == "" {
		filename = filepath.Base(opts.LocalPath)
	}

	contentType := opts.ContentType
	if contentType == "" {
		contentType = detectContentType(filename)
	}

	endpoint := "/files/upload"
	if opts.Public {
		endpoint = "/files/public/upload"
	}

	var ticket uploadTicket
	_, err = c.doJSON(ctx, http.MethodPost, endpoint, uploadRequest{
		Filename:       filename,
		ContentType:    contentType,
		Size:           info.Size(),
		ExpirationDays: opts.ExpirationDays,
	}, &ticket)
	if err != nil {
		return nil, fmt.Errorf("request upload: %w", err)
	}

	// Stream the file to storage, no memory copy
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, ticket.UploadURL, file)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = info.Size()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("put object: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("put object: %w", parseServerError(resp.StatusCode, body))
	}

	return &UploadResult{
		LocalPath: opts.LocalPath,
		Filename:  filename,
		Token:     ticket.Token,
		Size:      info.Size(),
		ExpiresAt: ticket.ExpiresAt,
	}, nil
}

// Download redeems a share token and fetches the file.
// If opts.LocalPath is "-", the content is returned via the io.ReadCloser and must be closed by the caller.
// Otherwise, the content is written to the file and the io.ReadCloser is nil.
func (c *Client) Download(ctx context.Context, opts DownloadOptions) (*DownloadResult, io.ReadCloser, error) {
	if opts.Token == "" {
		return nil, nil, fmt.Errorf("download: %w", ErrEmptyToken)
	}

	var ticket downloadTicket
	if _, err := c.doJSON(ctx, http.MethodGet, "/files/download/"+url.PathEscape(opts.Token), nil, &ticket); err != nil {
		return nil, nil, fmt.Errorf("download: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ticket.DownloadURL, http.NoBody)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("get object: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, nil, fmt.Errorf("get object: %w", parseServerError(resp.StatusCode, body))
	}

	result := &DownloadResult{
		Token:       opts.Token,
		Filename:    ticket.Filename,
		ContentType: ticket.ContentType,
		Size:        ticket.Size,
		ExpiresAt:   ticket.ExpiresAt,
	}

	// If stdout requested, return the body for the caller to handle
	if opts.LocalPath == "-" {
		result.LocalPath = "-"
		return result, resp.Body, nil
	}

	localPath := opts.LocalPath
	if localPath == "" {
		localPath = filepath.Base(filepath.Clean("/" + ticket.Filename))
	}
	result.LocalPath = localPath

	dir := filepath.Dir(localPath)
	if dir != "" && dir != "." {
		if mkdirErr := os.MkdirAll(dir, 0o750); mkdirErr != nil {
			_ = resp.Body.Close()
			return nil, nil, fmt.Errorf("create directory: %w", mkdirErr)
		}
	}

	file, createErr := os.Create(localPath) //#nosec G304 -- localPath is user-provided input
	if createErr != nil {
		_ = resp.Body.Close()
		return nil, nil, fmt.Errorf("create file: %w", createErr)
	}

	written, copyErr := io.Copy(file, resp.Body)
	_ = resp.Body.Close()
	if copyErr != nil {
		_ = file.Close()
		return nil, nil, fmt.Errorf("write file: %w", copyErr)
	}

	if closeErr := file.Close(); closeErr != nil {
		return nil, nil, fmt.Errorf("close file: %w", closeErr)
	}

	result.Size = written
	return result, nil, nil
}

// Delete deletes one or more of the caller's files by token.
// Continues on error, collecting results for all tokens.
func (c *Client) Delete(ctx context.Context, opts DeleteOptions) ([]DeleteResult, error) {
	if len(opts.Tokens) == 0 {
		return nil, ErrNoTokens
	}
	if err := c.config.RequireSession(); err != nil {
		return nil, err
	}

	results := make([]DeleteResult, 0, len(opts.Tokens))

	for _, token := range opts.Tokens {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result := DeleteResult{Token: token, Deleted: true}
		if _, err := c.doJSON(ctx, http.MethodDelete, "/files/my/"+url.PathEscape(token), nil, nil); err != nil {
			result.Deleted = false
			result.Err = err
		}
		results = append(results, result)
	}

	return results, nil
}

// HasDeleteErrors returns true if any delete operation failed.
func HasDeleteErrors(results []DeleteResult) bool {
	for _, r := range results {
		if r.Err != nil {
			return true
		}
	}
	return false
}

// List lists the caller's files.
// If opts.All is true, paginates through all results.
func (c *Client) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	if err := c.config.RequireSession(); err != nil {
		return nil, err
	}
	if opts.All {
		return c.listAll(ctx, opts)
	}
	return c.listPage(ctx, opts)
}

// listPage fetches a single page of results.
func (c *Client) listPage(ctx context.Context, opts ListOptions) (*ListResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	if opts.Cursor != "" {
		query.Set("cursor", opts.Cursor)
	}

	var result ListResult
	if _, err := c.doJSON(ctx, http.MethodGet, "/files/my?"+query.Encode(), nil, &result); err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}

	return &result, nil
}

// listAll fetches all pages of results.
func (c *Client) listAll(ctx context.Context, opts ListOptions) (*ListResult, error) {
	var allItems []FileInfo
	cursor := opts.Cursor

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := c.listPage(ctx, ListOptions{Limit: opts.Limit, Cursor: cursor})
		if err != nil {
			return nil, err
		}

		allItems = append(allItems, page.Items...)

		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	return &ListResult{Items: allItems}, nil
}

// TotalSize calculates the total size of all items in bytes.
func (r *ListResult) TotalSize() int64 {
	var total int64
	for _, item := range r.Items {
		total += item.Size
	}
	return total
}

// doJSON sends an API request with the session cookie and decodes a JSON
// response into out when out is non-nil. Non-2xx responses become *APIError.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) (*http.Response, error) {
	var body io.Reader = http.NoBody
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.Endpoint+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.config.Session != "" {
		req.AddCookie(&http.Cookie{Name: c.config.CookieName, Value: c.config.Session})
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, parseServerError(resp.StatusCode, data)
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return nil, fmt.Errorf("parse response: %w", err)
		}
	}

	return resp, nil
}

// detectContentType returns MIME type based on file extension.
func detectContentType(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		return "application/octet-stream"
	}

	mimeType := mime.TypeByExtension(ext)
	if mimeType == "" {
		return "application/octet-stream"
	}

	return mimeType
}

// parseServerError builds an *APIError from a response, picking up the
// server's {"error", "message"} body when present.
func parseServerError(statusCode int, body []byte) error {
	apiErr := &APIError{StatusCode: statusCode, Body: string(body)}

	var payload struct {
		Error   string            `json:"error"`
		Message string            `json:"message"`
		Errors  map[string]string `json:"errors"`
	}
	if json.Unmarshal(body, &payload) == nil {
		apiErr.Code = payload.Error
		apiErr.Message = payload.Message
		apiErr.Fields = payload.Errors
	}

	return apiErr
}

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Fields     map[string]string
	Body       string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return "server error: " + strconv.Itoa(e.StatusCode) + " - " + e.Body
	}

	msg := e.Message
	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for _, field := range slices.Sorted(maps.Keys(e.Fields)) {
			parts = append(parts, field+": "+e.Fields[field])
		}
		msg += " (" + strings.Join(parts, "; ") + ")"
	}
	return "server error: " + strconv.Itoa(e.StatusCode) + " - " + msg
}

// Is reports whether target matches this error.
// It matches if target is an *APIError with the same StatusCode.
func (e *APIError) Is(target error) bool {
	var t *APIError
	ok := errors.As(target, &t)
	if !ok {
		return false
	}
	return t.StatusCode == e.StatusCode
}

// IsNotFound returns true if the error is a 404.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Sentinel errors for common API error conditions.
// Use errors.Is() to check for these conditions.
var (
	// ErrNotFound is returned when the requested resource does not exist (404).
	ErrNotFound = &APIError{StatusCode: http.StatusNotFound}

	// ErrUnauthorized is returned for unknown or expired share tokens, bad
	// passwords and missing sessions (401).
	ErrUnauthorized = &APIError{StatusCode: http.StatusUnauthorized}

	// ErrForbidden is returned when the file belongs to someone else (403).
	ErrForbidden = &APIError{StatusCode: http.StatusForbidden}
)
