// internal/common/metrics/metrics.go
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EnrollmentOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrollment_operations_total",
			Help: "Total number of signup and unregister attempts by result",
		},
		[]string{"operation", "result"},
	)

	EnrollmentParticipants = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "enrollment_participants",
			Help: "Current number of participants per activity",
		},
		[]string{"activity"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP request handling in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	NotificationDispatch = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_dispatch_total",
			Help: "Total number of notification deliveries per sink by result",
		},
		[]string{"sink", "result"},
	)

	NotificationsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notification_dropped_total",
			Help: "Enrollment changes discarded because the notification queue was full",
		},
	)
)

func RecordEnrollment(operation, result string) {
	EnrollmentOperations.WithLabelValues(operation, result).Inc()
}

func SetParticipants(activity string, count int) {
	EnrollmentParticipants.WithLabelValues(activity).Set(float64(count))
}

func RecordHTTPRequest(route, method string, status int, elapsed time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

func RecordDispatch(sink string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	NotificationDispatch.WithLabelValues(sink, result).Inc()
}

func RecordDropped() {
	NotificationsDropped.Inc()
}
