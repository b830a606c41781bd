package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/AlibekovAA/refresh-token-service/internal/common/constants"
)

var (
	ErrMissingRequiredEnv = errors.New("missing required environment variable")
	ErrInvalidJWTSecret   = errors.New("JWT_SECRET must be at least 32 bytes")
	ErrInvalidStoreDriver = errors.New("STORE_DRIVER must be postgres or memory")
)

type AuthConfig struct {
	HTTPPort                string
	DatabaseURL             string
	StoreDriver             string
	RedisURL                string
	LogDir                  string
	LogLevel                string
	RequestTimeout          time.Duration
	CircuitBreakerThreshold int32
	CircuitBreakerTimeout   time.Duration
	CircuitBreakerReset     time.Duration
	MigrateOnStart          bool
	BcryptCost              int
	SeedUsername            string
	SeedPassword            string
	Authentication          Authentication
}

// LoadAuthConfig reads the auth service configuration from the environment.
// A .env file in the working directory is loaded first when present; variables
// already set in the environment take precedence over it.
func LoadAuthConfig() (AuthConfig, error) {
	_ = godotenv.Load()

	jwtSecret, err := mustEnv("JWT_SECRET")
	if err != nil {
		return AuthConfig{}, err
	}

	if err := validateJWTSecret(jwtSecret); err != nil {
		return AuthConfig{}, err
	}

	driver := strings.ToLower(getEnv("STORE_DRIVER", constants.StoreDriverPostgres))
	if driver != constants.StoreDriverPostgres && driver != constants.StoreDriverMemory {
		return AuthConfig{}, fmt.Errorf("%w: got %q", ErrInvalidStoreDriver, driver)
	}

	var databaseURL string
	if driver == constants.StoreDriverPostgres {
		databaseURL, err = mustEnv("DATABASE_URL")
		if err != nil {
			return AuthConfig{}, err
		}
	}

	return AuthConfig{
		HTTPPort:                getEnv("AUTH_HTTP_PORT", constants.DefaultAuthHTTPPort),
		DatabaseURL:             databaseURL,
		StoreDriver:             driver,
		RedisURL:                getEnv("REDIS_URL", ""),
		LogDir:                  getEnv("LOG_DIR", ""),
		LogLevel:                getEnv("LOG_LEVEL", "INFO"),
		RequestTimeout:          getDurationEnv("AUTH_REQUEST_TIMEOUT", constants.DefaultAuthRequestTimeout),
		CircuitBreakerThreshold: int32(getIntEnv("CIRCUIT_BREAKER_THRESHOLD", constants.DefaultCircuitBreakerThreshold)),
		CircuitBreakerTimeout:   getDurationEnv("CIRCUIT_BREAKER_TIMEOUT", constants.DefaultCircuitBreakerTimeout),
		CircuitBreakerReset:     getDurationEnv("CIRCUIT_BREAKER_RESET", constants.DefaultCircuitBreakerReset),
		MigrateOnStart:          getBoolEnv("MIGRATE_ON_START", true),
		BcryptCost:              getIntEnv("BCRYPT_COST", 0),
		SeedUsername:            getEnv("AUTH_SEED_USERNAME", ""),
		SeedPassword:            getEnv("AUTH_SEED_PASSWORD", ""),
		Authentication:          loadAuthentication(jwtSecret),
	}, nil
}

func loadAuthentication(jwtSecret string) Authentication {
	auth := Authentication{
		Entity:         getEnv("AUTH_ENTITY", "user"),
		EntityID:       getEnv("AUTH_ENTITY_ID", ""),
		Service:        getEnv("AUTH_USER_SERVICE", "users"),
		Secret:         jwtSecret,
		AuthStrategies: getListEnv("AUTH_STRATEGIES", []string{"local", "jwt"}),
		AccessTokenTTL: getDurationEnv("ACCESS_TOKEN_TTL", constants.DefaultAccessTokenTTL),
		Issuer:         getEnv("ACCESS_TOKEN_ISSUER", ""),
		Audience:       getEnv("ACCESS_TOKEN_AUDIENCE", ""),
	}

	refresh := &RefreshTokenSettings{
		Service:  getEnv("REFRESH_TOKEN_SERVICE", ""),
		Entity:   getEnv("REFRESH_TOKEN_ENTITY", ""),
		EntityID: getEnv("REFRESH_TOKEN_ENTITY_ID", ""),
		Secret:   getEnv("REFRESH_TOKEN_SECRET", ""),
	}
	if v, ok := os.LookupEnv("STRICT_USER_ID"); ok && v != "" {
		strict := getBoolEnv("STRICT_USER_ID", true)
		refresh.StrictUserID = &strict
	}

	if hasAnyEnv("REFRESH_TOKEN_AUDIENCE", "REFRESH_TOKEN_ISSUER", "REFRESH_TOKEN_ALGORITHM", "REFRESH_TOKEN_EXPIRES_IN", "REFRESH_TOKEN_TYPE") {
		refresh.JWTOptions = &JWTSettings{
			Type:      getEnv("REFRESH_TOKEN_TYPE", "refresh"),
			Audience:  getEnv("REFRESH_TOKEN_AUDIENCE", ""),
			Issuer:    getEnv("REFRESH_TOKEN_ISSUER", ""),
			Algorithm: getEnv("REFRESH_TOKEN_ALGORITHM", "HS256"),
			ExpiresIn: getDurationEnv("REFRESH_TOKEN_EXPIRES_IN", constants.DefaultRefreshTokenTTL),
		}
	}

	auth.RefreshToken = refresh
	return auth
}

func validateJWTSecret(secret string) error {
	if len(secret) < constants.JWTSecretMinLength {
		return fmt.Errorf("%w: got %d bytes", ErrInvalidJWTSecret, len(secret))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func hasAnyEnv(keys ...string) bool {
	for _, key := range keys {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return true
		}
	}
	return false
}

func mustEnv(key string) (string, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingRequiredEnv, key)
	}
	return v, nil
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := parseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

// parseDuration accepts time.ParseDuration syntax plus a day suffix ("360d").
func parseDuration(v string) (time.Duration, error) {
	if strings.HasSuffix(v, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(v, "d"))
		if err != nil {
			return 0, err
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	return time.ParseDuration(v)
}

func getIntEnv(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func getBoolEnv(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getListEnv(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
