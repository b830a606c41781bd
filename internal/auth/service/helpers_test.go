package service_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	authdomain "github.com/AlibekovAA/refresh-token-service/internal/auth/domain"
	authrepo "github.com/AlibekovAA/refresh-token-service/internal/auth/repository"
	"github.com/AlibekovAA/refresh-token-service/internal/auth/service"
	"github.com/AlibekovAA/refresh-token-service/internal/common/clock"
	"github.com/AlibekovAA/refresh-token-service/internal/common/config"
	commoncrypto "github.com/AlibekovAA/refresh-token-service/internal/common/crypto"
	"github.com/AlibekovAA/refresh-token-service/internal/common/logger"
)

const (
	testAccessSecret  = "access-secret-key-must-be-at-least-32-bytes"
	testRefreshSecret = "refresh-secret-key-must-be-at-least-32-bytes"
	fixtureStrategy   = "first"
)

// usernameStrategy answers the way a primary strategy can: David gets a
// nested user entity, Jacky a bare id and "other" no id at all.
type usernameStrategy struct{}

func (usernameStrategy) Authenticate(ctx context.Context, req service.AuthRequest) (service.AuthResult, error) {
	username, _ := req["username"].(string)
	switch username {
	case "David":
		return service.AuthResult{
			"user":          map[string]any{"id": 123, "name": "Dave"},
			"authenticated": true,
			"accessToken":   "fixture-access-token",
		}, nil
	case "Jacky":
		return service.AuthResult{"id": 456, "authenticated": true}, nil
	case "other":
		return service.AuthResult{"authenticated": true}, nil
	}
	return nil, service.ErrNotAuthenticated
}

func (usernameStrategy) Parse(r *http.Request) (service.AuthRequest, bool) {
	return nil, false
}

type testEnv struct {
	app      *config.App
	clock    *clock.MockClock
	store    *authrepo.MemoryRefreshTokenRepository
	sessions *authrepo.MemoryRevokedTokenRepository
	resolver *service.ConfigResolver
	auth     *service.AuthenticationService
	tokens   *service.RefreshTokenService
	manager  *service.RefreshTokenManager
}

func testAuthentication() config.Authentication {
	return config.Authentication{
		Entity:         "user",
		EntityID:       "id",
		Service:        "users",
		Secret:         testAccessSecret,
		AuthStrategies: []string{fixtureStrategy, service.StrategyJWT},
		AccessTokenTTL: time.Hour,
		RefreshToken:   &config.RefreshTokenSettings{Secret: testRefreshSecret},
	}
}

func newTestEnv(t *testing.T, configure ...func(*config.Authentication)) *testEnv {
	t.Helper()

	authCfg := testAuthentication()
	for _, fn := range configure {
		fn(&authCfg)
	}

	app := config.NewApp()
	app.SetAuthentication("authentication", authCfg)
	app.RegisterService("refresh-tokens")

	log := logger.Discard()
	clk := clock.NewMockClock(time.Now().Truncate(time.Second))
	ids := commoncrypto.NewUUIDGenerator()

	env := &testEnv{
		app:      app,
		clock:    clk,
		store:    authrepo.NewMemoryRefreshTokenRepository(ids, clk),
		sessions: authrepo.NewMemoryRevokedTokenRepository(clk),
		resolver: service.NewConfigResolver(app, log),
	}

	issuer := service.NewTokenIssuer(ids, clk)
	env.auth = service.NewAuthenticationService("authentication", authCfg, issuer, env.sessions, log)
	env.auth.Register(fixtureStrategy, usernameStrategy{})
	env.auth.Register(service.StrategyJWT, service.NewJWTStrategy(env.auth, nil, service.EntityShape{Entity: "user", EntityID: "id"}))

	env.tokens = service.NewRefreshTokenService("refresh-tokens", env.store, env.resolver, log)
	env.manager = service.NewRefreshTokenManager(env.resolver, env.store, env.auth, log)
	service.Wire(env.auth, env.tokens, env.manager, fixtureStrategy, service.StrategyJWT)

	return env
}

func (e *testEnv) login(t *testing.T, username, deviceID string) (service.AuthResult, error) {
	t.Helper()
	req := service.AuthRequest{"strategy": fixtureStrategy, "username": username}
	if deviceID != "" {
		req["deviceId"] = deviceID
	}
	return e.auth.Create(context.Background(), req, service.Params{External: true})
}

func (e *testEnv) mustLogin(t *testing.T, username, deviceID string) string {
	t.Helper()
	result, err := e.login(t, username, deviceID)
	require.NoError(t, err)
	token, ok := result["refreshToken"].(string)
	require.True(t, ok, "refreshToken missing from %v", result)
	require.NotEmpty(t, token)
	return token
}

func (e *testEnv) renew(userID any, refreshToken string) (map[string]any, error) {
	return e.tokens.Create(context.Background(), map[string]any{
		"id":           userID,
		"refreshToken": refreshToken,
	}, service.Params{External: true})
}

func (e *testEnv) revoke(username, refreshToken string) (map[string]any, error) {
	return e.tokens.Patch(context.Background(), "", map[string]any{
		"refreshToken": refreshToken,
	}, service.Params{
		External:       true,
		Authentication: service.AuthRequest{"strategy": fixtureStrategy, "username": username},
	})
}

func (e *testEnv) logout(userID, username, refreshToken string) (map[string]any, error) {
	return e.tokens.Remove(context.Background(), userID, service.Params{
		Query:          map[string]any{"refreshToken": refreshToken},
		Authentication: service.AuthRequest{"strategy": fixtureStrategy, "username": username},
	})
}

func (e *testEnv) records(t *testing.T, q authdomain.Query) []authdomain.RefreshToken {
	t.Helper()
	tokens, err := e.store.Find(context.Background(), q)
	require.NoError(t, err)
	return tokens
}
