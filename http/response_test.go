package http_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sagarc03/datashare"
	datasharehttp "github.com/sagarc03/datashare/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleError_Mapping(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		code    string
		message string
	}{
		{datashare.ErrUnknownToken, http.StatusUnauthorized, "unknown_token", "Unknown token"},
		{datashare.ErrExpiredToken, http.StatusUnauthorized, "expired_token", "Expired token"},
		{datashare.ErrNotOwner, http.StatusForbidden, "not_owner", "User is not owner of the file"},
		{datashare.ErrFileTooLarge, http.StatusBadRequest, "file_too_large", "File too large (max 1 GB)"},
		{datashare.ErrForbiddenType, http.StatusBadRequest, "forbidden_type", "File type not allowed"},
		{datashare.ErrEmailInUse, http.StatusBadRequest, "email_in_use", "Email is already in use"},
		{datashare.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password"},
		{datashare.ErrUnauthorized, http.StatusUnauthorized, "unauthorized", "Full authentication is required to access this resource"},
		{datashare.ErrInvalidInput, http.StatusBadRequest, "invalid_input", "Invalid request"},
		{datashare.ErrNotFound, http.StatusNotFound, "not_found", "Resource not found"},
		{errors.New("pq: connection refused"), http.StatusInternalServerError, "internal_error", "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			rec := httptest.NewRecorder()

			datasharehttp.HandleError(rec, fmt.Errorf("op: %w", tt.err))

			assert.Equal(t, tt.status, rec.Code)
			var body datasharehttp.ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.code, body.Error)
			assert.Equal(t, tt.message, body.Message)
		})
	}
}

func TestHandleError_InternalDetailNotLeaked(t *testing.T) {
	rec := httptest.NewRecorder()

	datasharehttp.HandleError(rec, errors.New("dial tcp 10.0.0.5:5432: secret-host"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret-host")
}

func TestWriteError_Success(t *testing.T) {
	rec := httptest.NewRecorder()

	datasharehttp.WriteError(rec, http.StatusBadRequest, "bad_request", "Invalid request")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"error":"bad_request"`)
	assert.Contains(t, rec.Body.String(), `"message":"Invalid request"`)
}

func TestWriteValidationError(t *testing.T) {
	rec := httptest.NewRecorder()

	datasharehttp.WriteValidationError(rec, map[string]string{"email": "Invalid email format"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body datasharehttp.ValidationErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "validation_failed", body.Error)
	assert.Equal(t, "Invalid email format", body.Errors["email"])
}

func TestWriteJSON_EncodingError(t *testing.T) {
	rec := httptest.NewRecorder()

	// Channels cannot be JSON encoded
	data := make(chan int)
	err := datasharehttp.WriteJSON(rec, http.StatusOK, data)

	assert.Error(t, err)
}

func TestIsStrongPassword(t *testing.T) {
	assert.True(t, datasharehttp.IsStrongPassword("Str0ng@Pass"))
	assert.False(t, datasharehttp.IsStrongPassword("str0ng@pass"), "no upper")
	assert.False(t, datasharehttp.IsStrongPassword("STR0NG@PASS"), "no lower")
	assert.False(t, datasharehttp.IsStrongPassword("Strong@Pass"), "no digit")
	assert.False(t, datasharehttp.IsStrongPassword("Str0ngPass"), "no special")
	assert.False(t, datasharehttp.IsStrongPassword("Str0ng*Pass"), "special not in set")
}
