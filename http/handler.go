package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sagarc03/datashare"
)

// AuthService is the account side of the API.
type AuthService interface {
	Authenticator
	Register(ctx context.Context, email, password string) (datashare.User, error)
	Login(ctx context.Context, email, password string) (datashare.LoginResult, error)
}

// FileService is the file sharing side of the API.
type FileService interface {
	CreateUpload(ctx context.Context, req datashare.UploadRequest, owner uuid.NullUUID) (datashare.UploadResult, error)
	CreateDownload(ctx context.Context, token string) (datashare.DownloadResult, error)
	DeleteOwned(ctx context.Context, principal datashare.Principal, token string) error
	ListOwned(ctx context.Context, principal datashare.Principal, q datashare.ListQuery) (datashare.FileListResult, error)
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// CookieConfig controls the session cookie set at login.
type CookieConfig struct {
	Name   string        // default: AUTH-TOKEN
	Secure bool          // HTTPS only
	MaxAge time.Duration // default: 7 days
}

type HandlerConfig struct {
	CORS   CORSConfig
	Cookie CookieConfig
	// Objects serves signed object URLs under /uploads/ when the local
	// storage driver is used. Nil for S3 and MinIO.
	Objects http.Handler
	// AccessLog enables RequestLogger.
	AccessLog bool
}

// Handler provides HTTP handlers for accounts and file sharing.
type Handler struct {
	config   HandlerConfig
	auth     AuthService
	files    FileService
	validate *validator.Validate
}

// NewHandler creates a new Handler with the given configuration and services.
func NewHandler(config *HandlerConfig, auth AuthService, files FileService) *Handler {
	cfg := *config
	if cfg.Cookie.Name == "" {
		cfg.Cookie.Name = DefaultCookieName
	}
	if cfg.Cookie.MaxAge <= 0 {
		cfg.Cookie.MaxAge = datashare.DefaultCredentialTTL
	}

	return &Handler{
		config:   cfg,
		auth:     auth,
		files:    files,
		validate: newValidator(),
	}
}

// Router returns an http.Handler with the full middleware chain:
// CORS, request id, panic recovery, credential resolution, then routes.
// Protected routes add RequireAuth.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.Use(middleware.RequestID)
	if h.config.AccessLog {
		r.Use(RequestLogger)
	}
	r.Use(middleware.Recoverer)
	r.Use(CredentialMiddleware(h.auth, h.config.Cookie.Name))

	r.Get("/healthz", h.handleHealth)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.handleRegister)
		r.Post("/login", h.handleLogin)
		r.Post("/logout", h.handleLogout)
		r.With(RequireAuth).Get("/me", h.handleMe)
	})

	r.Route("/files", func(r chi.Router) {
		r.Post("/public/upload", h.handlePublicUpload)
		r.Get("/download/{token}", h.handleDownload)
		r.Get("/public/download/{token}", h.handleDownload)

		r.Group(func(r chi.Router) {
			r.Use(RequireAuth)
			r.Post("/upload", h.handleUpload)
			r.Get("/my", h.handleListMine)
			r.Delete("/my/{token}", h.handleDelete)
		})
	})

	if h.config.Objects != nil {
		r.Handle("/uploads/*", h.config.Objects)
	}

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// principal returns the identity placed by CredentialMiddleware. Only
// called behind RequireAuth.
func principal(r *http.Request) datashare.Principal {
	p, _ := datashare.PrincipalFromContext(r.Context())
	return p
}
