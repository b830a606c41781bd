package http

import (
	"net/http"
	"time"

	"github.com/AlibekovAA/refresh-token-service/internal/common/constants"
	"github.com/AlibekovAA/refresh-token-service/internal/common/httpmetrics"
	"github.com/AlibekovAA/refresh-token-service/internal/common/logger"
)

// BuildBaseHandler wraps the router with the middleware shared by every route.
func BuildBaseHandler(log *logger.Logger, handler http.Handler, requestTimeout time.Duration) http.Handler {
	collector := httpmetrics.New()
	recovery := RecoveryMiddleware(log)
	maxRequestSize := MaxRequestSizeMiddleware(constants.DefaultMaxRequestSize)
	timeout := RequestTimeoutMiddleware(requestTimeout)

	return SecurityHeadersMiddleware(TraceIDMiddleware(recovery(maxRequestSize(timeout(collector.Wrap(handler))))))
}
