package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sagarc03/datashare"
)

// DefaultCookieName carries the session credential.
const DefaultCookieName = "AUTH-TOKEN"

// Authenticator resolves a raw session credential to a principal.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (datashare.Principal, error)
}

// CredentialMiddleware attaches the principal named by the session cookie to
// the request context. It never rejects a request: a missing, malformed,
// forged or expired credential, or one whose subject no longer exists,
// leaves the request unauthenticated. Routes that need an identity add
// RequireAuth.
//
// If the context already carries a principal the request is passed on
// untouched, so stacking the middleware twice has no effect.
func CredentialMiddleware(auth Authenticator, cookieName string) func(http.Handler) http.Handler {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := datashare.PrincipalFromContext(r.Context()); ok {
				next.ServeHTTP(w, r)
				return
			}

			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := auth.Authenticate(r.Context(), cookie.Value)
			if err != nil {
				logCredentialFailure(r, err)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(datashare.WithPrincipal(r.Context(), principal)))
		})
	}
}

func logCredentialFailure(r *http.Request, err error) {
	switch {
	case errors.Is(err, datashare.ErrExpiredCredential):
		slog.Debug("expired credential", "path", r.URL.Path)
	case errors.Is(err, datashare.ErrNotFound):
		slog.Warn("credential subject not found", "path", r.URL.Path, "error", err)
	case errors.Is(err, datashare.ErrInvalidCredential):
		slog.Warn("invalid credential", "path", r.URL.Path, "error", err)
	default:
		slog.Error("credential check failed", "path", r.URL.Path, "error", err)
	}
}

// RequireAuth rejects requests without a principal with 401 before the
// wrapped handler runs.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := datashare.PrincipalFromContext(r.Context()); !ok {
			HandleError(w, datashare.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequestLogger logs method, path, status and duration of every request.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
