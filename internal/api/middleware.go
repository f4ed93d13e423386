// internal/api/middleware.go
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	apperrors "mergington-activities/internal/common/errors"
	"mergington-activities/internal/common/logger"
	"mergington-activities/internal/common/metrics"
)

const requestIDHeader = "X-Request-ID"

type middleware func(http.Handler) http.Handler

// chain applies mws so that the first one is outermost.
func chain(h http.Handler, mws ...middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

func (s *statusRecorder) Status() int {
	if s.status == 0 {
		return http.StatusOK
	}
	return s.status
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

func wrap(w http.ResponseWriter) *statusRecorder {
	if rec, ok := w.(*statusRecorder); ok {
		return rec
	}
	return &statusRecorder{ResponseWriter: w}
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// accessLog also installs a request-scoped logger carrying the request ID.
func accessLog(log logger.Logger) middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := wrap(w)
			reqLog := log.WithFields(map[string]interface{}{
				"requestId": w.Header().Get(requestIDHeader),
			})

			next.ServeHTTP(rec, r.WithContext(logger.IntoContext(r.Context(), reqLog)))

			reqLog.Info("http request", map[string]interface{}{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     rec.Status(),
				"bytes":      rec.bytes,
				"durationMs": time.Since(start).Milliseconds(),
			})
		})
	}
}

// instrument counts panicking requests as 500s before passing the panic on
// to recoverer.
func instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := wrap(w)
		defer func() {
			if v := recover(); v != nil {
				metrics.RecordHTTPRequest(route, r.Method, http.StatusInternalServerError, time.Since(start))
				panic(v)
			}
			metrics.RecordHTTPRequest(route, r.Method, rec.Status(), time.Since(start))
		}()
		next.ServeHTTP(rec, r)
	})
}

func recoverer(errs *apperrors.ErrorHandler) middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := wrap(w)
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if v == http.ErrAbortHandler {
					panic(v)
				}
				if rec.status != 0 {
					// headers already sent; nothing sensible left to write
					return
				}
				errs.Handle(rec, r, apperrors.NewInternalError(fmt.Errorf("panic: %v", v)))
			}()
			next.ServeHTTP(rec, r)
		})
	}
}
