// Package http provides the REST API of datashare.
//
// # Routes
//
//	POST   /auth/register              create an account
//	POST   /auth/login                 check password, set the AUTH-TOKEN cookie
//	GET    /auth/me                    current principal (authenticated)
//	POST   /auth/logout                clear the cookie
//	POST   /files/upload               presigned upload owned by the caller (authenticated)
//	POST   /files/public/upload        anonymous presigned upload
//	GET    /files/download/{token}     presigned download for a share token
//	GET    /files/public/download/{token}
//	GET    /files/my                   caller's files with their tokens (authenticated)
//	DELETE /files/my/{token}           delete an owned file (authenticated)
//	GET    /healthz
//
// When the local storage driver is used, HandlerConfig.Objects serves the
// signed object URLs under /uploads/.
//
// # Middleware
//
// Router applies, in order: CORS (when enabled), request id, optional access
// log, panic recovery and CredentialMiddleware. CredentialMiddleware never
// rejects; it only attaches a datashare.Principal to the request context when
// the cookie verifies. Protected routes are wrapped in RequireAuth, which
// answers 401 before the handler runs.
//
// # Errors
//
// Handlers return domain errors to HandleError, which maps them to a status
// and a JSON body of the form {"error": code, "message": text}. Request
// bodies that fail validation get {"error": "validation_failed",
// "message": "Validation failed", "errors": {field: message}}.
//
// # Usage
//
//	handler := http.NewHandler(&http.HandlerConfig{
//	    Cookie: http.CookieConfig{Secure: true},
//	}, authService, fileService)
//	http.ListenAndServe(":8080", handler.Router())
package http
