package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AuthRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_requests_total",
			Help: "Total number of auth requests",
		},
		[]string{"method", "path"},
	)

	AuthRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "auth_requests_in_flight",
			Help: "Number of auth requests currently being processed",
		},
	)

	AuthRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "auth_request_duration_seconds",
			Help:    "Duration of auth requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	AuthenticationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authentications_total",
			Help: "Total number of primary authentications by strategy and outcome",
		},
		[]string{"strategy", "outcome"},
	)

	RefreshTokensIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "refresh_tokens_issued_total",
			Help: "Total number of refresh tokens issued",
		},
	)

	RefreshTokensReused = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "refresh_tokens_reused_total",
			Help: "Total number of logins answered with an existing refresh token for the same device",
		},
	)

	RefreshTokensUsed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "refresh_tokens_used_total",
			Help: "Total number of refresh tokens exchanged for an access token",
		},
	)

	RefreshTokensRevoked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "refresh_tokens_revoked_total",
			Help: "Total number of refresh tokens revoked",
		},
	)

	RefreshTokensLoggedOut = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "refresh_tokens_logged_out_total",
			Help: "Total number of refresh tokens deleted by logout",
		},
	)

	RefreshTokensIssueCollapsed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "refresh_tokens_issue_collapsed_total",
			Help: "Total number of concurrent issuance calls that shared another call's result",
		},
	)

	RefreshTokensActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "refresh_tokens_active",
			Help: "Number of valid refresh token records in the store",
		},
	)

	AccessTokensIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "access_tokens_issued_total",
			Help: "Total number of access tokens issued",
		},
	)

	SessionsTerminated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sessions_terminated_total",
			Help: "Total number of authenticated sessions terminated by logout",
		},
	)

	JWTValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jwt_validations_total",
			Help: "Total number of JWT validations by token type",
		},
		[]string{"type"},
	)

	JWTValidationsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jwt_validations_failed_total",
			Help: "Total number of failed JWT validations by token type",
		},
		[]string{"type"},
	)

	JWTRevokedChecksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jwt_revoked_checks_total",
			Help: "Total number of revoked session checks",
		},
	)
)
