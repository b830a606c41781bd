package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"

	authrepo "github.com/AlibekovAA/refresh-token-service/internal/auth/repository"
	"github.com/AlibekovAA/refresh-token-service/internal/auth/service"
	"github.com/AlibekovAA/refresh-token-service/internal/common/clock"
	"github.com/AlibekovAA/refresh-token-service/internal/common/config"
	"github.com/AlibekovAA/refresh-token-service/internal/common/constants"
	commoncrypto "github.com/AlibekovAA/refresh-token-service/internal/common/crypto"
	"github.com/AlibekovAA/refresh-token-service/internal/common/db"
	"github.com/AlibekovAA/refresh-token-service/internal/common/logger"
	"github.com/AlibekovAA/refresh-token-service/internal/common/migrations"
	"github.com/AlibekovAA/refresh-token-service/internal/common/resilience"
	"github.com/AlibekovAA/refresh-token-service/internal/observability/metrics"
	userdomain "github.com/AlibekovAA/refresh-token-service/internal/user/domain"
	userrepo "github.com/AlibekovAA/refresh-token-service/internal/user/repository"
)

const applicationName = "refresh-token-service"

// AuthApp is the assembled auth service: stores, services and the
// application registry the refresh-token configuration is resolved from.
type AuthApp struct {
	Log      *logger.Logger
	Config   config.AuthConfig
	Registry *config.App
	Pool     *pgxpool.Pool
	Redis    *redis.Client

	Users    userrepo.Repository
	Tokens   authrepo.RefreshTokenStore
	Sessions authrepo.RevokedTokenRepository

	Auth          *service.AuthenticationService
	RefreshTokens *service.RefreshTokenService
	Manager       *service.RefreshTokenManager
}

func NewAuthApp(ctx context.Context) (*AuthApp, error) {
	log, err := initializeLogger("auth")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	cfg, err := config.LoadAuthConfig()
	if err != nil {
		log.Errorf("failed to load config: %v", err)
		return nil, err
	}
	log.SetLevel(cfg.LogLevel)

	app := &AuthApp{Log: log, Config: cfg}
	if err := app.initializeStores(ctx); err != nil {
		app.Close()
		return nil, err
	}
	if err := app.initializeServices(); err != nil {
		app.Close()
		return nil, err
	}
	if err := app.seedUser(ctx); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func (a *AuthApp) initializeStores(ctx context.Context) error {
	clk := clock.NewRealClock()
	idGen := commoncrypto.NewUUIDGenerator()

	var tokens authrepo.RefreshTokenStore
	switch a.Config.StoreDriver {
	case constants.StoreDriverPostgres:
		pool, err := db.NewPool(ctx, a.Log, a.Config.DatabaseURL, applicationName)
		if err != nil {
			return fmt.Errorf("failed to initialize database pool: %w", err)
		}
		a.Pool = pool

		if a.Config.MigrateOnStart {
			if err := migrations.Up(ctx, pool, a.Log); err != nil {
				return err
			}
		}

		db.StartPoolMetrics(ctx, pool, constants.DBPoolMetricsInterval)

		a.Users = userrepo.NewPgRepository(pool)
		a.Sessions = authrepo.NewPgRevokedTokenRepository(pool)
		tokens = authrepo.NewPgRefreshTokenRepository(pool, idGen, a.Log)
		setStoreBackend(constants.StoreDriverPostgres, "refresh_tokens", "users", "revoked_sessions")
	default:
		a.Log.Warn("using in-memory stores, data is lost on restart")
		a.Users = userrepo.NewMemoryRepository()
		a.Sessions = authrepo.NewMemoryRevokedTokenRepository(clk)
		tokens = authrepo.NewMemoryRefreshTokenRepository(idGen, clk)
		setStoreBackend(constants.StoreDriverMemory, "refresh_tokens", "users", "revoked_sessions")
	}

	if a.Config.RedisURL != "" {
		opts, err := redis.ParseURL(a.Config.RedisURL)
		if err != nil {
			return fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		a.Redis = redis.NewClient(opts)
		if err := a.Redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.Sessions = authrepo.NewRedisRevokedTokenRepository(a.Redis, clk)
		metrics.StoreBackend.WithLabelValues("revoked_sessions", a.Config.StoreDriver).Set(0)
		setStoreBackend("redis", "revoked_sessions")
		a.Log.Info("revoked sessions are stored in redis")
	}

	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Threshold:   a.Config.CircuitBreakerThreshold,
		Timeout:     a.Config.CircuitBreakerTimeout,
		ResetAfter:  a.Config.CircuitBreakerReset,
		Name:        "refresh_token_store",
		IgnoreError: authrepo.IsExpected,
		Logger:      a.Log,
	})
	a.Tokens = authrepo.NewBreakerRefreshTokenRepository(tokens, breaker)
	return nil
}

func (a *AuthApp) initializeServices() error {
	authCfg := a.Config.Authentication

	registry := config.NewApp()
	registry.SetAuthentication(constants.AuthenticationServiceName, authCfg)
	registry.RegisterService(constants.AuthenticationServiceName)
	registry.RegisterService(authCfg.Service)
	registry.RegisterService(refreshTokenServiceName(authCfg))
	a.Registry = registry

	resolver := service.NewConfigResolver(registry, a.Log)
	opts, err := resolver.Options()
	if err != nil {
		return fmt.Errorf("failed to resolve refresh token options: %w", err)
	}

	issuer := service.NewTokenIssuer(commoncrypto.NewUUIDGenerator(), clock.NewRealClock())
	a.Auth = service.NewAuthenticationService(constants.AuthenticationServiceName, authCfg, issuer, a.Sessions, a.Log)

	shape := service.EntityShape{Entity: opts.UserEntity, EntityID: opts.UserEntityID}
	a.Auth.Register(service.StrategyLocal, service.NewLocalStrategy(a.Users, a.hasher(), shape))
	a.Auth.Register(service.StrategyJWT, service.NewJWTStrategy(a.Auth, a.Users, shape))

	a.RefreshTokens = service.NewRefreshTokenService(opts.Service, a.Tokens, resolver, a.Log)
	a.Manager = service.NewRefreshTokenManager(resolver, a.Tokens, a.Auth, a.Log)
	service.Wire(a.Auth, a.RefreshTokens, a.Manager)
	return nil
}

// seedUser creates the configured bootstrap user if it does not exist yet.
func (a *AuthApp) seedUser(ctx context.Context) error {
	if a.Config.SeedUsername == "" || a.Config.SeedPassword == "" {
		return nil
	}

	hash, err := a.hasher().Hash(a.Config.SeedPassword)
	if err != nil {
		return fmt.Errorf("failed to hash seed password: %w", err)
	}
	id, err := commoncrypto.NewUUIDGenerator().NewID()
	if err != nil {
		return err
	}

	err = a.Users.Create(ctx, userdomain.User{
		ID:           userdomain.ID(id),
		Username:     a.Config.SeedUsername,
		PasswordHash: hash,
	})
	if errors.Is(err, userrepo.ErrUsernameAlreadyExists) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to seed user: %w", err)
	}
	a.Log.Infof("seeded user %s", a.Config.SeedUsername)
	return nil
}

func (a *AuthApp) hasher() commoncrypto.PasswordHasher {
	return commoncrypto.NewBcryptHasher(a.Config.BcryptCost)
}

func (a *AuthApp) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Log.Warnf("failed to close redis client: %v", err)
		}
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
}

func refreshTokenServiceName(cfg config.Authentication) string {
	if cfg.RefreshToken != nil && cfg.RefreshToken.Service != "" {
		return cfg.RefreshToken.Service
	}
	return constants.RefreshTokenServiceName
}

func initializeLogger(serviceName string) (*logger.Logger, error) {
	return logger.New(os.Getenv("LOG_DIR"), serviceName, os.Getenv("LOG_LEVEL"))
}

func setStoreBackend(backend string, stores ...string) {
	for _, store := range stores {
		metrics.StoreBackend.WithLabelValues(store, backend).Set(1)
	}
}
