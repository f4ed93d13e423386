// internal/api/handler.go
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	apperrors "mergington-activities/internal/common/errors"
	"mergington-activities/internal/common/logger"
	"mergington-activities/internal/common/metrics"
	"mergington-activities/internal/enrollment"
)

const landingPage = "/static/index.html"

// Registry is the part of *enrollment.Registry the HTTP layer needs.
type Registry interface {
	List(ctx context.Context) enrollment.Snapshot
	Signup(ctx context.Context, name, email string) (enrollment.Confirmation, error)
	Unregister(ctx context.Context, name, email string) (enrollment.Confirmation, error)
}

// HealthChecker reports the state of external dependencies by name.
type HealthChecker interface {
	Check(ctx context.Context) map[string]error
}

// OperationRecorder receives the outcome of every registry mutation.
type OperationRecorder interface {
	RecordOperation(ctx context.Context, operation, result string, elapsed time.Duration)
}

type Handler struct {
	registry Registry
	health   HealthChecker
	recorder OperationRecorder
	errors   *apperrors.ErrorHandler
	logger   logger.Logger
}

type HandlerOption func(*Handler)

func WithHealthChecker(hc HealthChecker) HandlerOption {
	return func(h *Handler) { h.health = hc }
}

func WithRecorder(rec OperationRecorder) HandlerOption {
	return func(h *Handler) { h.recorder = rec }
}

func NewHandler(reg Registry, log logger.Logger, opts ...HandlerOption) *Handler {
	h := &Handler{
		registry: reg,
		errors:   apperrors.NewErrorHandler(log),
		logger:   log,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) root(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, landingPage, http.StatusTemporaryRedirect)
}

func (h *Handler) listActivities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.registry.List(r.Context()))
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "signup", h.registry.Signup)
}

func (h *Handler) unregister(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "unregister", h.registry.Unregister)
}

type mutation func(ctx context.Context, name, email string) (enrollment.Confirmation, error)

func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, operation string, op mutation) {
	name := r.PathValue("activity_name")
	query := r.URL.Query()
	if !query.Has("email") {
		h.errors.Handle(w, r, apperrors.NewInvalidRequestError("email query parameter is required"))
		return
	}
	email := query.Get("email")

	start := time.Now()
	confirmation, err := op(r.Context(), name, email)
	result := enrollment.Result(err)
	metrics.RecordEnrollment(operation, result)
	if h.recorder != nil {
		h.recorder.RecordOperation(r.Context(), operation, result, time.Since(start))
	}

	if err != nil {
		h.errors.Handle(w, r, apperrors.FromEnrollment(err, name, email))
		return
	}

	logger.FromContext(r.Context(), h.logger).Info("enrollment changed", map[string]interface{}{
		"operation": operation,
		"activity":  name,
		"email":     email,
	})
	writeJSON(w, http.StatusOK, confirmation)
}

type healthResponse struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "healthy"}
	status := http.StatusOK

	if h.health != nil {
		for name, err := range h.health.Check(r.Context()) {
			if resp.Dependencies == nil {
				resp.Dependencies = make(map[string]string)
			}
			if err != nil {
				resp.Dependencies[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Dependencies[name] = "ok"
		}
	}

	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
