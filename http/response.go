package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sagarc03/datashare"
)

// ErrorResponse represents a JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ValidationErrorResponse is returned for request bodies that fail validation.
type ValidationErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errCode,
		Message: message,
	}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// WriteValidationError writes a 400 listing the failing fields.
func WriteValidationError(w http.ResponseWriter, fields map[string]string) {
	if err := WriteJSON(w, http.StatusBadRequest, ValidationErrorResponse{
		Error:   "validation_failed",
		Message: "Validation failed",
		Errors:  fields,
	}); err != nil {
		slog.Error("failed to encode validation response", "error", err)
	}
}

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// Checked in order; the first match wins.
var errorMappings = []errorMapping{
	{datashare.ErrUnknownToken, http.StatusUnauthorized, "unknown_token", "Unknown token"},
	{datashare.ErrExpiredToken, http.StatusUnauthorized, "expired_token", "Expired token"},
	{datashare.ErrNotOwner, http.StatusForbidden, "not_owner", "User is not owner of the file"},
	{datashare.ErrFileTooLarge, http.StatusBadRequest, "file_too_large", "File too large (max 1 GB)"},
	{datashare.ErrForbiddenType, http.StatusBadRequest, "forbidden_type", "File type not allowed"},
	{datashare.ErrEmailInUse, http.StatusBadRequest, "email_in_use", "Email is already in use"},
	{datashare.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password"},
	{datashare.ErrUnauthorized, http.StatusUnauthorized, "unauthorized", "Full authentication is required to access this resource"},
	{datashare.ErrInvalidInput, http.StatusBadRequest, "invalid_input", "Invalid request"},
	{errBodyUnreadable, http.StatusBadRequest, "malformed_body", "Malformed JSON request"},
	{datashare.ErrNotFound, http.StatusNotFound, "not_found", "Resource not found"},
}

// HandleError writes appropriate error response based on error type.
// Expected domain errors are logged at debug level; anything else is
// logged in full and answered with a generic 500.
func HandleError(w http.ResponseWriter, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			slog.Debug("request rejected", "status", m.status, "error", err)
			WriteError(w, m.status, m.code, m.message)
			return
		}
	}

	if errors.Is(err, context.Canceled) {
		slog.Debug("request cancelled", "error", err)
		return
	}

	slog.Error("request error", "error", err)

	// Default internal error
	WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}
