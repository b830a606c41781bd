package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StoreBackend is 1 for the backend serving each store ("refresh_tokens",
	// "users", "revoked_sessions").
	StoreBackend = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "store_backend",
			Help: "Backend in use per store (1 = active)",
		},
		[]string{"store", "backend"},
	)

	DBPoolConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "db_pool_connections",
			Help: "Postgres pool connections by state (acquired, idle, total, max)",
		},
		[]string{"state"},
	)

	DBQueryDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Duration of refresh token and user store queries in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_query_errors_total",
			Help: "Total number of failed store queries",
		},
		[]string{"operation", "table", "error_type"},
	)

	RevokedSessionsPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "revoked_sessions_purged_total",
			Help: "Total number of expired revoked-session entries removed by cleanup",
		},
	)
)
