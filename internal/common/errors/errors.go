// internal/common/errors/errors.go
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"mergington-activities/internal/enrollment"
)

type ErrorCode string

const (
	// Enrollment
	ErrCodeActivityNotFound ErrorCode = "ACTIVITY_NOT_FOUND"
	ErrCodeAlreadyEnrolled  ErrorCode = "ALREADY_ENROLLED"
	ErrCodeNotEnrolled      ErrorCode = "NOT_ENROLLED"
	ErrCodeActivityFull     ErrorCode = "ACTIVITY_FULL"

	// Request
	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"

	// Infrastructure
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeSeedInvalid            ErrorCode = "SEED_INVALID"
	ErrCodeInternal               ErrorCode = "INTERNAL_ERROR"
)

// StandardError is the transport-neutral form of every failure the API reports.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// HTTPStatus returns the status code the API answers with for this error.
func (e *StandardError) HTTPStatus() int {
	return HTTPStatus(e.Code)
}

func NewActivityNotFoundError(activity string) *StandardError {
	return &StandardError{
		Code:      ErrCodeActivityNotFound,
		Message:   "Activity not found",
		Details:   fmt.Sprintf("activity: %s", activity),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewAlreadyEnrolledError(activity, email string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAlreadyEnrolled,
		Message:   "Student already signed up for this activity",
		Details:   fmt.Sprintf("activity: %s, email: %s", activity, email),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewNotEnrolledError(activity, email string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotEnrolled,
		Message:   "Student is not signed up for this activity",
		Details:   fmt.Sprintf("activity: %s, email: %s", activity, email),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewActivityFullError(activity string) *StandardError {
	return &StandardError{
		Code:      ErrCodeActivityFull,
		Message:   "Activity is full",
		Details:   fmt.Sprintf("activity: %s", activity),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidRequestError(message string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRequest,
		Message:   message,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewNotificationSendFailedError(sink string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("sink: %s, error: %s", sink, err.Error()),
		Retryable: true,
		Metadata:  map[string]interface{}{"sink": sink},
		Timestamp: time.Now().UTC(),
	}
}

func NewSeedInvalidError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSeedInvalid,
		Message:   "Activity seed is invalid",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInternalError(err error) *StandardError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Internal server error",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// FromEnrollment maps a registry error for the given activity and email.
func FromEnrollment(err error, activity, email string) *StandardError {
	var stdErr *StandardError
	switch {
	case err == nil:
		return nil
	case stderrors.As(err, &stdErr):
		return stdErr
	case stderrors.Is(err, enrollment.ErrActivityNotFound):
		return NewActivityNotFoundError(activity)
	case stderrors.Is(err, enrollment.ErrAlreadyEnrolled):
		return NewAlreadyEnrolledError(activity, email)
	case stderrors.Is(err, enrollment.ErrNotEnrolled):
		return NewNotEnrolledError(activity, email)
	case stderrors.Is(err, enrollment.ErrActivityFull):
		return NewActivityFullError(activity)
	default:
		return NewInternalError(err)
	}
}

func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeActivityNotFound:
		return http.StatusNotFound
	case ErrCodeAlreadyEnrolled, ErrCodeNotEnrolled, ErrCodeActivityFull:
		return http.StatusBadRequest
	case ErrCodeInvalidRequest:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "ENROLLED") || strings.Contains(codeStr, "ACTIVITY"):
		return "ENROLLMENT"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "SEED"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
