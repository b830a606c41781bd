package constants

import "time"

const (
	JWTSecretMinLength = 32

	DefaultMaxRequestSize = 1 << 20

	DBPoolMaxOpenConns    = 25
	DBPoolMinOpenConns    = 5
	DBPoolConnMaxLifetime = time.Hour
	DBPoolConnMaxIdleTime = 30 * time.Minute
	DBPoolHealthCheck     = 1 * time.Minute
	DBPoolConnectTimeout  = 5 * time.Second
	DBPoolMaxAttempts     = 10
	DBPoolRetryDelay      = 1 * time.Second
	DBPoolMetricsInterval = 30 * time.Second
	DBQueryTimeout        = 30 * time.Second

	RefreshTokenIssueTimeout = 30 * time.Second

	ServerReadHeaderTimeout = 10 * time.Second
	ServerReadTimeout       = 30 * time.Second
	ServerWriteTimeout      = 30 * time.Second
	ServerIdleTimeout       = 120 * time.Second

	ShutdownTimeout = 30 * time.Second
	DrainTimeout    = 10 * time.Second

	DefaultAuthHTTPPort = "8081"

	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	DefaultCircuitBreakerThreshold = 500
	DefaultCircuitBreakerTimeout   = 15 * time.Second
	DefaultCircuitBreakerReset     = 10 * time.Second

	DefaultAuthRequestTimeout = 30 * time.Second
	DefaultAccessTokenTTL     = 24 * time.Hour
	DefaultRefreshTokenTTL    = 360 * 24 * time.Hour

	TokenStatsInterval     = 1 * time.Minute
	RevokedCleanupInterval = 1 * time.Hour

	RateLimitAuthRequestsPerSecond    = 5.0
	RateLimitAuthBurst                = 10
	RateLimitRefreshRequestsPerSecond = 10.0
	RateLimitRefreshBurst             = 20
	RateLimitCleanupInterval          = 5 * time.Minute

	AuthenticationServiceName = "authentication"
	RefreshTokenServiceName   = "refresh-tokens"
	UserServiceName           = "users"

	LogoutSuccessStatus = "Logout successfully"
)
