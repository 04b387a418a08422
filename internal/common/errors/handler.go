// internal/common/errors/handler.go
package errors

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// ErrorResponse is the public error body. Details never reach the caller.
type ErrorResponse struct {
	Success bool     `json:"success"`
	Error   string   `json:"error"`
	Code    string   `json:"code,omitempty"`
	Fields  []string `json:"fields,omitempty"`
}

// ErrorHandler writes StandardErrors to HTTP responses and logs them.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// ToResponse builds the public body for err. Internal failures collapse to
// the generic message.
func ToResponse(stdErr *StandardError) ErrorResponse {
	resp := ErrorResponse{
		Success: false,
		Error:   stdErr.Message,
		Code:    string(stdErr.Code),
	}
	if GetErrorCategory(stdErr.Code) == "INTERNAL" {
		resp.Error = "Internal server error"
		resp.Code = string(ErrCodeInternalFailure)
	}
	if fields, ok := stdErr.Metadata["fields"].([]string); ok && stdErr.Code == ErrCodeInvalidInput {
		resp.Fields = fields
	}
	return resp
}

// HandleHTTPError normalizes err, logs it and writes the mapped response.
func (h *ErrorHandler) HandleHTTPError(w http.ResponseWriter, r *http.Request, err error) {
	stdErr := Normalize(err)
	status := HTTPStatus(stdErr.Code)

	h.logError(r, stdErr, status)

	if stdErr.Code == ErrCodeRateLimited {
		if secs, ok := stdErr.Metadata["retryAfterSeconds"].(int); ok && secs > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(secs))
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ToResponse(stdErr))
}

func (h *ErrorHandler) logError(r *http.Request, stdErr *StandardError, status int) {
	fields := map[string]interface{}{
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"status":        status,
		"errorCategory": GetErrorCategory(stdErr.Code),
	}
	if r != nil {
		fields["method"] = r.Method
		fields["path"] = r.URL.Path
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", fields)
		return
	}
	h.logger.Warn("request rejected", fields)
}
