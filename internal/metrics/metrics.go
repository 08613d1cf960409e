package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	draws = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "raffle",
			Subsystem: "draws",
			Name:      "total",
			Help:      "Total number of draws by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "raffle",
			Subsystem: "lifecycle",
			Name:      "operations_total",
			Help:      "Raffle state operations by name and result.",
		},
		[]string{"operation", "result"},
	)

	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "raffle",
			Subsystem: "sessions",
			Name:      "active",
			Help:      "Raffle sessions currently held in memory.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "raffle",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "raffle",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path"},
	)
)

func init() {
	Registry.MustRegister(draws, transitions, activeSessions, httpRequests, httpDuration)
}

// Handler exposes the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordDraw counts one draw attempt. outcome is "ok" or an error kind.
func RecordDraw(kind, outcome string) {
	draws.WithLabelValues(kind, outcome).Inc()
}

// RecordOperation counts one state operation.
func RecordOperation(operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	transitions.WithLabelValues(operation, result).Inc()
}

// SetActiveSessions reports how many sessions are cached.
func SetActiveSessions(n int) {
	activeSessions.Set(float64(n))
}

// ObserveHTTP records one finished request.
func ObserveHTTP(method, path string, status int, elapsed time.Duration) {
	httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}
