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

	dealTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sonicpact",
			Subsystem: "deals",
			Name:      "transitions_total",
			Help:      "Total number of successful deal state transitions.",
		},
		[]string{"operation"},
	)

	escrowedFunds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "sonicpact",
			Subsystem: "deals",
			Name:      "escrowed_funds",
			Help:      "Native currency units currently held in deal vaults.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sonicpact",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sonicpact",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)
)

func init() {
	Registry.MustRegister(dealTransitions, escrowedFunds, httpRequests, httpDuration)
}

// ObserveDealTransition counts one successful transition.
func ObserveDealTransition(operation string) {
	dealTransitions.WithLabelValues(operation).Inc()
}

// AddEscrowedFunds adjusts the escrowed-funds gauge.
func AddEscrowedFunds(delta float64) {
	escrowedFunds.Add(delta)
}

// Handler serves the registry over HTTP.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware instruments an HTTP handler with request counters and
// latency histograms. The route template keeps label cardinality low.
func Middleware(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
