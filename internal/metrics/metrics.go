package metrics

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the review engine
type Metrics struct {
	RequestCounter  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ReviewsSettled  *prometheus.CounterVec
	OracleFallbacks *prometheus.CounterVec
	OracleLatency   *prometheus.HistogramVec
	TokensSunk      prometheus.Counter
	DBConnPoolStats *prometheus.GaugeVec
}

// New creates a new metrics instance registered on the given registerer
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "studystake",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "studystake",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		ReviewsSettled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "studystake",
				Name:      "reviews_settled_total",
				Help:      "Peer reviews reaching a terminal state, by outcome",
			},
			[]string{"outcome"},
		),
		OracleFallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "studystake",
				Name:      "oracle_fallbacks_total",
				Help:      "Oracle calls that degraded to the default verdict",
			},
			[]string{"oracle"},
		),
		OracleLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "studystake",
				Name:      "oracle_latency_seconds",
				Help:      "External oracle round trip duration in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"oracle"},
		),
		TokensSunk: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "studystake",
				Name:      "tokens_sunk_total",
				Help:      "Tokens removed from circulation by penalties and forfeits",
			},
		),
		DBConnPoolStats: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "studystake",
				Name:      "db_connection_pool",
				Help:      "Database connection pool statistics",
			},
			[]string{"stat"},
		),
	}
}

// ObserveOracle records one oracle round trip
func (m *Metrics) ObserveOracle(oracle string, start time.Time, fellBack bool) {
	m.OracleLatency.WithLabelValues(oracle).Observe(time.Since(start).Seconds())
	if fellBack {
		m.OracleFallbacks.WithLabelValues(oracle).Inc()
	}
}

// Handler instruments an HTTP handler with request count and duration
func (m *Metrics) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		m.RequestCounter.WithLabelValues(r.Method, strconv.Itoa(rw.status)).Inc()
		m.RequestDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}

// CollectDBStats samples connection pool stats until stop is closed
func (m *Metrics) CollectDBStats(db *sql.DB, interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			stats := db.Stats()
			m.DBConnPoolStats.WithLabelValues("open").Set(float64(stats.OpenConnections))
			m.DBConnPoolStats.WithLabelValues("in_use").Set(float64(stats.InUse))
			m.DBConnPoolStats.WithLabelValues("idle").Set(float64(stats.Idle))
			m.DBConnPoolStats.WithLabelValues("wait_count").Set(float64(stats.WaitCount))
		}
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
