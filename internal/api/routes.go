// internal/api/routes.go
package api

import (
	"context"
	"io/fs"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mergington-activities/internal/common/metrics"
	"mergington-activities/internal/enrollment"
)

type routeBinding struct {
	pattern string
	handler http.HandlerFunc
}

type RouterConfig struct {
	// StaticFS replaces the embedded landing page when set.
	StaticFS    fs.FS
	MetricsPath string // empty disables /metrics
}

// NewRouter mounts every route and wraps the mux in the middleware chain.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	h.registerRoutes(mux, []routeBinding{
		{pattern: "GET /{$}", handler: h.root},
		{pattern: "GET /activities", handler: h.listActivities},
		{pattern: "POST /activities/{activity_name}/signup", handler: h.signup},
		{pattern: "POST /activities/{activity_name}/unregister", handler: h.unregister},
		{pattern: "GET /health", handler: h.healthz},
	})

	staticFS := cfg.StaticFS
	if staticFS == nil {
		staticFS = embeddedStatic()
	}
	mountStatic(mux, staticFS)

	if cfg.MetricsPath != "" {
		mux.Handle("GET "+cfg.MetricsPath, promhttp.Handler())
	}

	// recoverer sits inside accessLog so recovered panics are still logged
	return chain(mux,
		requestID,
		accessLog(h.logger),
		recoverer(h.errors),
	)
}

func (h *Handler) registerRoutes(mux *http.ServeMux, routes []routeBinding) {
	for _, rb := range routes {
		mux.Handle(rb.pattern, instrument(routeLabel(rb.pattern), rb.handler))
	}
}

func mountStatic(mux *http.ServeMux, staticFS fs.FS) {
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
}

// routeLabel strips the method from a mux pattern: "GET /activities" -> "/activities".
func routeLabel(pattern string) string {
	if _, path, ok := strings.Cut(pattern, " "); ok {
		return path
	}
	return pattern
}

// ParticipantGauge keeps enrollment_participants in step with the registry.
func ParticipantGauge() enrollment.Observer {
	return enrollment.ObserverFunc(func(_ context.Context, c enrollment.Change) {
		metrics.SetParticipants(c.Activity, c.Participants)
	})
}

// PublishRoster sets the participant gauge for every activity in snap.
func PublishRoster(snap enrollment.Snapshot) {
	for _, name := range snap.Names() {
		a, _ := snap.Get(name)
		metrics.SetParticipants(name, len(a.Participants))
	}
}
