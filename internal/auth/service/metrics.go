package service

import (
	"github.com/AlibekovAA/refresh-token-service/internal/observability/metrics"
)

func incrementRefreshTokensIssued() {
	metrics.RefreshTokensIssued.Inc()
}

func incrementRefreshTokensReused() {
	metrics.RefreshTokensReused.Inc()
}

func incrementRefreshTokensIssueCollapsed() {
	metrics.RefreshTokensIssueCollapsed.Inc()
}

func incrementRefreshTokensUsed() {
	metrics.RefreshTokensUsed.Inc()
}

func incrementRefreshTokensRevoked() {
	metrics.RefreshTokensRevoked.Inc()
}

func incrementRefreshTokensLoggedOut() {
	metrics.RefreshTokensLoggedOut.Inc()
}

func incrementAccessTokensIssued() {
	metrics.AccessTokensIssued.Inc()
}

func incrementSessionsTerminated() {
	metrics.SessionsTerminated.Inc()
}

func incrementAuthentications(strategy, outcome string) {
	metrics.AuthenticationsTotal.WithLabelValues(strategy, outcome).Inc()
}

func incrementJWTValidations(tokenType string) {
	metrics.JWTValidationsTotal.WithLabelValues(tokenType).Inc()
}

func incrementJWTValidationsFailed(tokenType string) {
	metrics.JWTValidationsFailed.WithLabelValues(tokenType).Inc()
}

func incrementJWTRevokedChecks() {
	metrics.JWTRevokedChecksTotal.Inc()
}
