// internal/common/errors/handler.go
package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
)

// ErrorHandler renders failures as the API's {"detail": ...} body.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// ErrorBody is the wire form of an error response.
type ErrorBody struct {
	Detail string `json:"detail"`
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle normalizes err, logs it and writes the response.
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	stdErr := normalizeError(err)
	status := stdErr.HTTPStatus()

	h.logError(r, stdErr, status)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorBody{Detail: stdErr.Message})
}

// normalizeError ensures we always have a StandardError
func normalizeError(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

func (h *ErrorHandler) logError(r *http.Request, stdErr *StandardError, status int) {
	fields := map[string]interface{}{
		"method":        r.Method,
		"path":          r.URL.Path,
		"status":        status,
		"errorCode":     string(stdErr.Code),
		"details":       stdErr.Details,
		"errorCategory": GetErrorCategory(stdErr.Code),
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", fields)
		return
	}
	h.logger.Warn("request rejected", fields)
}

// GetRetryCount returns how many extra attempts a failure with this code deserves.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeNotificationSendFailed:
		return 2
	default:
		return 0
	}
}
