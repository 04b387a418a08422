package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	warns  []string
	errors []string
}

func (l *recordingLogger) Warn(msg string, _ map[string]interface{})  { l.warns = append(l.warns, msg) }
func (l *recordingLogger) Error(msg string, _ map[string]interface{}) { l.errors = append(l.errors, msg) }

func TestNormalize(t *testing.T) {
	assert.Nil(t, Normalize(nil))

	raw := stderrors.New("nil pointer")
	norm := Normalize(raw)
	assert.Equal(t, ErrCodeInternalFailure, norm.Code)
	assert.True(t, stderrors.Is(norm, raw))

	wrapped := fmt.Errorf("scoring: %w", NewMalformedRecordError("x", "missing deadline"))
	assert.Equal(t, ErrCodeMalformedRecord, Normalize(wrapped).Code)
	assert.True(t, IsCode(wrapped, ErrCodeMalformedRecord))
	assert.False(t, IsCode(nil, ErrCodeMalformedRecord))
}

func TestHTTPStatusAndCategory(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		status   int
		category string
	}{
		{ErrCodeInvalidInput, http.StatusBadRequest, "VALIDATION"},
		{ErrCodeMissingProfile, http.StatusBadRequest, "VALIDATION"},
		{ErrCodeMethodNotAllowed, http.StatusMethodNotAllowed, "VALIDATION"},
		{ErrCodeRateLimited, http.StatusTooManyRequests, "THROTTLING"},
		{ErrCodeInternalFailure, http.StatusInternalServerError, "INTERNAL"},
		{ErrCodeCatalogUnavailable, http.StatusInternalServerError, "INTERNAL"},
		{ErrCodeMalformedRecord, http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.status, HTTPStatus(tt.code))
			assert.Equal(t, tt.category, GetErrorCategory(tt.code))
		})
	}
}

func TestToResponse_HidesInternalDetails(t *testing.T) {
	resp := ToResponse(NewCatalogUnavailableError("postgres", stderrors.New("dial tcp 10.0.0.1:5432")))
	assert.False(t, resp.Success)
	assert.Equal(t, "Internal server error", resp.Error)
	assert.Equal(t, string(ErrCodeInternalFailure), resp.Code)

	body, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "10.0.0.1")
}

func TestToResponse_ValidationFields(t *testing.T) {
	stdErr := NewInvalidInputError("academic.gpa: must be <= 4").
		WithMetadata("fields", []string{"academic.gpa"})
	resp := ToResponse(stdErr)
	assert.Equal(t, "Invalid user profile", resp.Error)
	assert.Equal(t, []string{"academic.gpa"}, resp.Fields)
}

func TestHandleHTTPError(t *testing.T) {
	t.Run("rate limited sets Retry-After", func(t *testing.T) {
		log := &recordingLogger{}
		h := NewErrorHandler(log)
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/scholarships/search", nil)

		h.HandleHTTPError(rec, req, NewRateLimitedError("1.2.3.4", 42*time.Second))

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "42", rec.Header().Get("Retry-After"))
		assert.JSONEq(t, `{"success":false,"error":"Too many requests","code":"RATE_LIMITED"}`, rec.Body.String())
		assert.Len(t, log.warns, 1)
		assert.Empty(t, log.errors)
	})

	t.Run("unknown error is a 500", func(t *testing.T) {
		log := &recordingLogger{}
		h := NewErrorHandler(log)
		rec := httptest.NewRecorder()

		h.HandleHTTPError(rec, nil, stderrors.New("index out of range"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "index out of range")
		assert.Len(t, log.errors, 1)
	})
}
