package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sagarc03/datashare"
	datasharehttp "github.com/sagarc03/datashare/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAuthService is a mock implementation of http.AuthService
type MockAuthService struct {
	MockAuthenticator
}

func (m *MockAuthService) Register(ctx context.Context, email, password string) (datashare.User, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(datashare.User), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (datashare.LoginResult, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(datashare.LoginResult), args.Error(1)
}

// MockFileService is a mock implementation of http.FileService
type MockFileService struct {
	mock.Mock
}

func (m *MockFileService) CreateUpload(ctx context.Context, req datashare.UploadRequest, owner uuid.NullUUID) (datashare.UploadResult, error) {
	args := m.Called(ctx, req, owner)
	return args.Get(0).(datashare.UploadResult), args.Error(1)
}

func (m *MockFileService) CreateDownload(ctx context.Context, token string) (datashare.DownloadResult, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(datashare.DownloadResult), args.Error(1)
}

func (m *MockFileService) DeleteOwned(ctx context.Context, principal datashare.Principal, token string) error {
	args := m.Called(ctx, principal, token)
	return args.Error(0)
}

func (m *MockFileService) ListOwned(ctx context.Context, principal datashare.Principal, q datashare.ListQuery) (datashare.FileListResult, error) {
	args := m.Called(ctx, principal, q)
	return args.Get(0).(datashare.FileListResult), args.Error(1)
}

var (
	alice = datashare.Principal{ID: uuid.New(), Email: "alice@example.com"}
	bob   = datashare.Principal{ID: uuid.New(), Email: "bob@example.com"}
)

func newTestHandler(config *datasharehttp.HandlerConfig) (http.Handler, *MockAuthService, *MockFileService) {
	if config == nil {
		config = &datasharehttp.HandlerConfig{Cookie: datasharehttp.CookieConfig{Secure: true}}
	}
	auth := new(MockAuthService)
	files := new(MockFileService)
	auth.On("Authenticate", mock.Anything, "alice-cookie").Return(alice, nil).Maybe()
	auth.On("Authenticate", mock.Anything, "bob-cookie").Return(bob, nil).Maybe()
	return datasharehttp.NewHandler(config, auth, files).Router(), auth, files
}

func as(req *http.Request, cookie string) *http.Request {
	req.AddCookie(&http.Cookie{Name: "AUTH-TOKEN", Value: cookie})
	return req
}

func jsonBody(s string) *strings.Reader {
	return strings.NewReader(s)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestHandler_Register(t *testing.T) {
	t.Run("created then duplicate", func(t *testing.T) {
		router, auth, _ := newTestHandler(nil)
		auth.On("Register", mock.Anything, "alice@example.com", "Str0ng@Pass").
			Return(datashare.User{ID: alice.ID, Email: alice.Email}, nil).Once()
		auth.On("Register", mock.Anything, "alice@example.com", "Str0ng@Pass").
			Return(datashare.User{}, datashare.ErrEmailInUse).Once()

		body := `{"email":"alice@example.com","password":"Str0ng@Pass"}`

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("POST", "/auth/register", jsonBody(body)))
		assert.Equal(t, http.StatusCreated, rec.Code)
		created := decode[map[string]string](t, rec)
		assert.Equal(t, "alice@example.com", created["email"])
		assert.Equal(t, "User registered successfully", created["message"])

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("POST", "/auth/register", jsonBody(body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		dup := decode[datasharehttp.ErrorResponse](t, rec)
		assert.Equal(t, "Email is already in use: alice@example.com", dup.Message)

		auth.AssertExpectations(t)
	})

	t.Run("validation errors", func(t *testing.T) {
		tests := []struct {
			name  string
			body  string
			field string
			msg   string
		}{
			{"missing email", `{"password":"Str0ng@Pass"}`, "email", "Email is required"},
			{"bad email", `{"email":"not-an-email","password":"Str0ng@Pass"}`, "email", "Invalid email format"},
			{"encoded email", `{"email":"a%40b@example.com","password":"Str0ng@Pass"}`, "email", "Invalid email format"},
			{"long email", `{"email":"` + strings.Repeat("a", 250) + `@example.com","password":"Str0ng@Pass"}`, "email", "Email is too long"},
			{"short password", `{"email":"a@example.com","password":"S0@a"}`, "password", "Password must be between 8 and 100 characters"},
			{"weak password", `{"email":"a@example.com","password":"weakpassword"}`, "password", "Password must contain at least one digit, one lowercase, one uppercase, and one special character"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				router, auth, _ := newTestHandler(nil)

				rec := httptest.NewRecorder()
				router.ServeHTTP(rec, httptest.NewRequest("POST", "/auth/register", jsonBody(tt.body)))

				assert.Equal(t, http.StatusBadRequest, rec.Code)
				resp := decode[datasharehttp.ValidationErrorResponse](t, rec)
				assert.Equal(t, "validation_failed", resp.Error)
				assert.Equal(t, tt.msg, resp.Errors[tt.field])
				auth.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, mock.Anything)
			})
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		router, _, _ := newTestHandler(nil)

		for _, body := range []string{`{`, `{"email":"a@b.co","password":"x","role":"admin"}`, `{} {}`} {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest("POST", "/auth/register", jsonBody(body)))
			assert.Equal(t, http.StatusBadRequest, rec.Code, body)
			assert.Contains(t, rec.Body.String(), "malformed_body")
		}
	})
}

func TestHandler_Login(t *testing.T) {
	t.Run("sets session cookie", func(t *testing.T) {
		router, auth, _ := newTestHandler(nil)
		auth.On("Login", mock.Anything, "alice@example.com", "Str0ng@Pass").Return(datashare.LoginResult{
			Token: "signed.jwt.value",
			User:  datashare.User{ID: alice.ID, Email: alice.Email},
		}, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("POST", "/auth/login",
			jsonBody(`{"email":"alice@example.com","password":"Str0ng@Pass"}`)))

		require.Equal(t, http.StatusOK, rec.Code)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		c := cookies[0]
		assert.Equal(t, "AUTH-TOKEN", c.Name)
		assert.Equal(t, "signed.jwt.value", c.Value)
		assert.True(t, c.HttpOnly)
		assert.True(t, c.Secure)
		assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
		assert.Equal(t, "/", c.Path)
		assert.Equal(t, 7*24*60*60, c.MaxAge)

		resp := decode[map[string]any](t, rec)
		assert.Equal(t, "Login successful", resp["message"])
		assert.Equal(t, "alice@example.com", resp["email"])
		assert.Equal(t, []any{"ROLE_USER"}, resp["authorities"])
	})

	t.Run("wrong password", func(t *testing.T) {
		router, auth, _ := newTestHandler(nil)
		auth.On("Login", mock.Anything, "alice@example.com", "nope").Return(datashare.LoginResult{}, datashare.ErrInvalidCredentials)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("POST", "/auth/login",
			jsonBody(`{"email":"alice@example.com","password":"nope"}`)))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, rec.Result().Cookies())
		assert.Equal(t, "Invalid email or password", decode[datasharehttp.ErrorResponse](t, rec).Message)
	})
}

func TestHandler_Me(t *testing.T) {
	router, _, _ := newTestHandler(nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, as(httptest.NewRequest("GET", "/auth/me", nil), "alice-cookie"))
	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decode[map[string]any](t, rec)
	assert.Equal(t, "alice@example.com", resp["email"])
	assert.Equal(t, []any{"ROLE_USER"}, resp["authorities"])

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandler_Logout(t *testing.T) {
	router, _, _ := newTestHandler(nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/auth/logout", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "AUTH-TOKEN", cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Less(t, cookies[0].MaxAge, 0, "Max-Age=0 on the wire")
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "Max-Age=0")
}

func TestHandler_Upload(t *testing.T) {
	expiresAt := time.Date(2025, 3, 8, 12, 0, 0, 0, time.UTC)

	t.Run("authenticated upload records owner", func(t *testing.T) {
		router, _, files := newTestHandler(nil)
		files.On("CreateUpload", mock.Anything, datashare.UploadRequest{
			Filename: "doc.pdf", ContentType: "application/pdf", Size: 1000,
		}, uuid.NullUUID{UUID: alice.ID, Valid: true}).Return(datashare.UploadResult{
			UploadURL: "https://store/put", Token: "ABC234", ExpiresAt: expiresAt,
		}, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, as(httptest.NewRequest("POST", "/files/upload",
			jsonBody(`{"filename":"doc.pdf","contentType":"application/pdf","size":1000}`)), "alice-cookie"))

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[map[string]string](t, rec)
		assert.Equal(t, "https://store/put", resp["uploadUrl"])
		assert.Equal(t, "ABC234", resp["tokenString"])
		assert.Equal(t, "2025-03-08T12:00:00Z", resp["expiresAt"])
		files.AssertExpectations(t)
	})

	t.Run("authenticated route rejects anonymous", func(t *testing.T) {
		router, _, files := newTestHandler(nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("POST", "/files/upload",
			jsonBody(`{"filename":"doc.pdf","size":1}`)))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		files.AssertNotCalled(t, "CreateUpload", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("public upload has no owner even when logged in", func(t *testing.T) {
		router, _, files := newTestHandler(nil)
		days := 3
		files.On("CreateUpload", mock.Anything, datashare.UploadRequest{
			Filename: "notes.txt", Size: 5, ExpirationDays: &days,
		}, uuid.NullUUID{}).Return(datashare.UploadResult{Token: "ZZZZZZ"}, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, as(httptest.NewRequest("POST", "/files/public/upload",
			jsonBody(`{"filename":"notes.txt","size":5,"expirationDays":3}`)), "alice-cookie"))

		assert.Equal(t, http.StatusOK, rec.Code)
		files.AssertExpectations(t)
	})

	t.Run("domain rejections", func(t *testing.T) {
		tests := []struct {
			name string
			body string
			err  error
			msg  string
		}{
			{"exe", `{"filename":"virus.exe","size":1}`, datashare.ErrForbiddenType, "File type not allowed"},
			{"upper exe", `{"filename":"VIRUS.EXE","size":1}`, datashare.ErrForbiddenType, "File type not allowed"},
			{"too large", `{"filename":"big.iso","size":1000000001}`, datashare.ErrFileTooLarge, "File too large (max 1 GB)"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				router, _, files := newTestHandler(nil)
				files.On("CreateUpload", mock.Anything, mock.Anything, mock.Anything).Return(datashare.UploadResult{}, tt.err)

				rec := httptest.NewRecorder()
				router.ServeHTTP(rec, httptest.NewRequest("POST", "/files/public/upload", jsonBody(tt.body)))

				assert.Equal(t, http.StatusBadRequest, rec.Code)
				assert.Equal(t, tt.msg, decode[datasharehttp.ErrorResponse](t, rec).Message)
			})
		}
	})

	t.Run("field validation", func(t *testing.T) {
		router, _, files := newTestHandler(nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("POST", "/files/public/upload",
			jsonBody(`{"filename":"a.txt","size":1,"expirationDays":400}`)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decode[datasharehttp.ValidationErrorResponse](t, rec)
		assert.Equal(t, "ExpirationDays must be at most 365", resp.Errors["expirationDays"])
		files.AssertNotCalled(t, "CreateUpload", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestHandler_Download(t *testing.T) {
	createdAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	for _, path := range []string{"/files/download/ABC234", "/files/public/download/ABC234"} {
		t.Run(path, func(t *testing.T) {
			router, _, files := newTestHandler(nil)
			files.On("CreateDownload", mock.Anything, "ABC234").Return(datashare.DownloadResult{
				Filename: "doc.pdf", ContentType: "application/pdf", Size: 1000,
				DownloadURL: "https://store/get", CreatedAt: createdAt, ExpiresAt: createdAt.Add(time.Hour),
			}, nil)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))

			require.Equal(t, http.StatusOK, rec.Code)
			resp := decode[map[string]any](t, rec)
			assert.Equal(t, "doc.pdf", resp["filename"])
			assert.Equal(t, "application/pdf", resp["contentType"])
			assert.EqualValues(t, 1000, resp["size"])
			assert.Equal(t, "https://store/get", resp["downloadUrl"])
			assert.Contains(t, resp, "createdAt")
			assert.Contains(t, resp, "expiresAt")
		})
	}

	t.Run("distinct token errors", func(t *testing.T) {
		router, _, files := newTestHandler(nil)
		files.On("CreateDownload", mock.Anything, "AAAAAA").Return(datashare.DownloadResult{}, datashare.ErrUnknownToken)
		files.On("CreateDownload", mock.Anything, "BBBBBB").Return(datashare.DownloadResult{}, datashare.ErrExpiredToken)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", "/files/download/AAAAAA", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Unknown token", decode[datasharehttp.ErrorResponse](t, rec).Message)

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", "/files/download/BBBBBB", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Expired token", decode[datasharehttp.ErrorResponse](t, rec).Message)
	})
}

func TestHandler_Delete(t *testing.T) {
	t.Run("not owner then owner", func(t *testing.T) {
		router, _, files := newTestHandler(nil)
		files.On("DeleteOwned", mock.Anything, bob, "ABC234").Return(datashare.ErrNotOwner)
		files.On("DeleteOwned", mock.Anything, alice, "ABC234").Return(nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, as(httptest.NewRequest("DELETE", "/files/my/ABC234", nil), "bob-cookie"))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "User is not owner of the file", decode[datasharehttp.ErrorResponse](t, rec).Message)

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, as(httptest.NewRequest("DELETE", "/files/my/ABC234", nil), "alice-cookie"))
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Body.String())
	})

	t.Run("anonymous", func(t *testing.T) {
		router, _, files := newTestHandler(nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("DELETE", "/files/my/ABC234", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		files.AssertNotCalled(t, "DeleteOwned", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestHandler_ListMine(t *testing.T) {
	router, _, files := newTestHandler(nil)
	createdAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	files.On("ListOwned", mock.Anything, alice, datashare.ListQuery{Limit: 1000, Cursor: "abc"}).Return(datashare.FileListResult{
		Items: []datashare.SharedFile{{
			StoredFile: datashare.StoredFile{Filename: "doc.pdf", ContentType: "application/pdf", Size: 10, CreatedAt: createdAt},
			Token:      datashare.ShareToken{Token: "ABC234", ExpiresAt: createdAt.Add(time.Hour)},
		}},
		NextCursor: "next",
	}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, as(httptest.NewRequest("GET", "/files/my?limit=5000&cursor=abc", nil), "alice-cookie"))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Items []struct {
			Token    string `json:"token"`
			Filename string `json:"filename"`
		} `json:"items"`
		NextCursor string `json:"next_cursor"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "ABC234", resp.Items[0].Token)
	assert.Equal(t, "doc.pdf", resp.Items[0].Filename)
	assert.Equal(t, "next", resp.NextCursor)
}

func TestHandler_Health(t *testing.T) {
	router, _, _ := newTestHandler(nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHandler_ObjectsMountedOnlyWhenConfigured(t *testing.T) {
	objects := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.URL.Path))
	})

	router, _, _ := newTestHandler(&datasharehttp.HandlerConfig{Objects: objects})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/uploads/x-doc.pdf", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/uploads/x-doc.pdf", rec.Body.String())

	router, _, _ = newTestHandler(nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/uploads/x-doc.pdf", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_PanicRecovered(t *testing.T) {
	router, _, files := newTestHandler(nil)
	files.On("CreateDownload", mock.Anything, "ABC234").Run(func(mock.Arguments) { panic("boom") })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/files/download/ABC234", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandler_CORS_Enabled_Preflight(t *testing.T) {
	router, _, _ := newTestHandler(&datasharehttp.HandlerConfig{
		CORS: datasharehttp.CORSConfig{
			Enabled:          true,
			AllowedOrigins:   []string{"http://localhost:4200"},
			AllowedMethods:   []string{"GET", "POST", "DELETE"},
			AllowedHeaders:   []string{"Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		},
	})

	req := httptest.NewRequest("OPTIONS", "/files/upload", nil)
	req.Header.Set("Origin", "http://localhost:4200")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:4200", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestHandler_CORS_Disabled(t *testing.T) {
	router, _, _ := newTestHandler(nil)

	req := httptest.NewRequest("GET", "/healthz", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
