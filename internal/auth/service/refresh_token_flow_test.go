package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authdomain "github.com/AlibekovAA/refresh-token-service/internal/auth/domain"
	"github.com/AlibekovAA/refresh-token-service/internal/auth/service"
	"github.com/AlibekovAA/refresh-token-service/internal/common/config"
)

func TestRefreshTokenLifecycle_DavidScenario(t *testing.T) {
	env := newTestEnv(t)

	t1 := env.mustLogin(t, "David", "device1")
	again := env.mustLogin(t, "David", "device1")
	assert.Equal(t, t1, again, "re-login on the same device must reuse the token")

	t2 := env.mustLogin(t, "David", "device2")
	assert.NotEqual(t, t1, t2, "each device gets its own token")

	assert.Len(t, env.records(t, authdomain.Query{UserID: "123"}), 2)

	_, err := env.revoke("David", t1)
	require.NoError(t, err)

	revoked := env.records(t, authdomain.Query{Token: authdomain.String(t1)})
	require.Len(t, revoked, 1)
	assert.False(t, revoked[0].IsValid)

	_, err = env.renew(123, t1)
	assert.ErrorIs(t, err, service.ErrNotAuthenticated)

	result, err := env.renew(123, t2)
	require.NoError(t, err)
	assert.NotEmpty(t, result["accessToken"])
}

func TestIssueRefreshToken_CreatesValidRecord(t *testing.T) {
	env := newTestEnv(t)

	token := env.mustLogin(t, "David", "device1")

	records := env.records(t, authdomain.Query{UserID: "123"})
	require.Len(t, records, 1)
	assert.Equal(t, token, records[0].Token)
	assert.True(t, records[0].IsValid)
	assert.Equal(t, "device1", records[0].DeviceID)
}

func TestIssueRefreshToken_StoresLocation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.auth.Create(context.Background(), service.AuthRequest{
		"strategy": fixtureStrategy,
		"username": "David",
		"deviceId": "laptop",
		"location": "Berlin",
	}, service.Params{External: true})
	require.NoError(t, err)

	records := env.records(t, authdomain.Query{UserID: "123"})
	require.Len(t, records, 1)
	assert.Equal(t, "Berlin", records[0].Location)
}

func TestIssueRefreshToken_ReplacesExpiredToken(t *testing.T) {
	env := newTestEnv(t)
	expired := env.mustLogin(t, "David", "device1")

	env.clock.Advance(361 * 24 * time.Hour)
	fresh := env.mustLogin(t, "David", "device1")

	assert.NotEqual(t, expired, fresh, "an expired stored token must not be handed out again")

	old := env.records(t, authdomain.Query{Token: authdomain.String(expired)})
	require.Len(t, old, 1)
	assert.False(t, old[0].IsValid)
	assert.Len(t, env.records(t, authdomain.Query{UserID: "123", IsValid: authdomain.Bool(true)}), 1)

	result, err := env.renew("123", fresh)
	require.NoError(t, err)
	assert.NotEmpty(t, result["accessToken"])
}

func TestIssueRefreshToken_BareUserID(t *testing.T) {
	env := newTestEnv(t)

	token := env.mustLogin(t, "Jacky", "")

	records := env.records(t, authdomain.Query{UserID: "456"})
	require.Len(t, records, 1)
	assert.Equal(t, token, records[0].Token)
}

func TestIssueRefreshToken_NoDeviceIsItsOwnDevice(t *testing.T) {
	env := newTestEnv(t)

	withoutDevice := env.mustLogin(t, "David", "")
	withDevice := env.mustLogin(t, "David", "device1")

	assert.NotEqual(t, withoutDevice, withDevice)
	assert.Equal(t, withoutDevice, env.mustLogin(t, "David", ""))
}

func TestIssueRefreshToken_MissingUserIDStrict(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.login(t, "other", "device1")

	assert.ErrorIs(t, err, service.ErrMissingUserID)
	assert.Empty(t, env.records(t, authdomain.Query{}))
}

func TestIssueRefreshToken_MissingUserIDLenient(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Authentication) {
		strict := false
		cfg.RefreshToken.StrictUserID = &strict
	})

	result, err := env.login(t, "other", "device1")

	require.NoError(t, err)
	assert.NotContains(t, result, "refreshToken")
	assert.Equal(t, true, result["authenticated"])
	assert.Empty(t, env.records(t, authdomain.Query{}))
}

func TestIssueRefreshToken_FailedAuthenticationIssuesNothing(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.login(t, "nobody", "device1")

	assert.ErrorIs(t, err, service.ErrNotAuthenticated)
	assert.Empty(t, env.records(t, authdomain.Query{}))
}

func TestIssueRefreshToken_ConcurrentLoginsCreateOneRecord(t *testing.T) {
	env := newTestEnv(t)

	const workers = 16
	tokens := make([]string, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := env.login(t, "David", "device1")
			errs[i] = err
			if err == nil {
				tokens[i], _ = result["refreshToken"].(string)
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, tokens[0], tokens[i])
	}
	assert.Len(t, env.records(t, authdomain.Query{UserID: "123", IsValid: authdomain.Bool(true)}), 1)
}

func TestRefreshAccessToken_RoundTrip(t *testing.T) {
	env := newTestEnv(t)
	token := env.mustLogin(t, "David", "device1")

	result, err := env.renew("123", token)
	require.NoError(t, err)
	require.Len(t, result, 1, "renewal returns only the access token")

	accessToken, ok := result["accessToken"].(string)
	require.True(t, ok)

	payload, err := env.auth.VerifyAccessToken(context.Background(), accessToken)
	require.NoError(t, err)
	assert.Equal(t, "123", payload.Subject)

	assert.Len(t, env.records(t, authdomain.Query{UserID: "123"}), 1, "renewal must not rotate the refresh token")
}

func TestRefreshAccessToken_UnknownToken(t *testing.T) {
	env := newTestEnv(t)
	env.mustLogin(t, "David", "device1")

	_, err := env.renew("123", "not-a-stored-token")

	assert.ErrorIs(t, err, service.ErrNotAuthenticated)
}

func TestRefreshAccessToken_OtherUsersToken(t *testing.T) {
	env := newTestEnv(t)
	davids := env.mustLogin(t, "David", "device1")
	env.mustLogin(t, "Jacky", "")

	_, err := env.renew(456, davids)

	assert.ErrorIs(t, err, service.ErrNotAuthenticated)
}

func TestRefreshAccessToken_MissingFields(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.tokens.Create(context.Background(), map[string]any{"refreshToken": "x"}, service.Params{External: true})
	assert.ErrorIs(t, err, service.ErrValidation)

	_, err = env.tokens.Create(context.Background(), map[string]any{"id": "123"}, service.Params{External: true})
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestRefreshAccessToken_SubjectMismatch(t *testing.T) {
	env := newTestEnv(t)
	opts, err := env.resolver.Options()
	require.NoError(t, err)

	forged, err := env.auth.IssueToken(context.Background(), "456", opts.JWTOptions, opts.Secret)
	require.NoError(t, err)
	_, err = env.tokens.Create(context.Background(), map[string]any{
		"userId":       "123",
		"refreshToken": forged,
	}, service.Params{})
	require.NoError(t, err)

	_, err = env.renew("123", forged)

	assert.ErrorIs(t, err, service.ErrInvalidToken)
}

func TestRefreshAccessToken_TamperedStoredToken(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.tokens.Create(context.Background(), map[string]any{
		"userId":       "123",
		"refreshToken": "garbage",
	}, service.Params{})
	require.NoError(t, err)

	_, err = env.renew("123", "garbage")

	assert.ErrorIs(t, err, service.ErrInvalidToken)
}

func TestRefreshAccessToken_InternalCreateReachesStore(t *testing.T) {
	env := newTestEnv(t)

	result, err := env.tokens.Create(context.Background(), map[string]any{
		"userId":       "789",
		"refreshToken": "seeded",
		"deviceId":     "kiosk",
	}, service.Params{})

	require.NoError(t, err)
	assert.Equal(t, "seeded", result["refreshToken"])
	assert.Equal(t, "kiosk", result["deviceId"])
	assert.NotEmpty(t, result["id"])
}

func TestRevokeRefreshToken_LeavesOtherRecordsAlone(t *testing.T) {
	env := newTestEnv(t)
	d1 := env.mustLogin(t, "David", "device1")
	d2 := env.mustLogin(t, "David", "device2")
	jacky := env.mustLogin(t, "Jacky", "")

	result, err := env.revoke("David", d1)
	require.NoError(t, err)
	assert.Equal(t, false, result["isValid"])

	for _, token := range []string{d2, jacky} {
		records := env.records(t, authdomain.Query{Token: authdomain.String(token)})
		require.Len(t, records, 1)
		assert.True(t, records[0].IsValid)
	}
}

func TestRevokeRefreshToken_AlreadyRevoked(t *testing.T) {
	env := newTestEnv(t)
	token := env.mustLogin(t, "David", "device1")

	_, err := env.revoke("David", token)
	require.NoError(t, err)

	_, err = env.revoke("David", token)
	assert.ErrorIs(t, err, service.ErrNotAuthenticated)
}

func TestRevokeRefreshToken_UnknownToken(t *testing.T) {
	env := newTestEnv(t)
	env.mustLogin(t, "David", "device1")

	_, err := env.revoke("David", "unknown")

	assert.ErrorIs(t, err, service.ErrNotAuthenticated)
}

func TestRevokeRefreshToken_CannotRevokeOtherUsersToken(t *testing.T) {
	env := newTestEnv(t)
	davids := env.mustLogin(t, "David", "device1")

	_, err := env.revoke("Jacky", davids)

	assert.ErrorIs(t, err, service.ErrNotAuthenticated)
	records := env.records(t, authdomain.Query{Token: authdomain.String(davids)})
	require.Len(t, records, 1)
	assert.True(t, records[0].IsValid)
}

func TestRevokeRefreshToken_RequiresAuthentication(t *testing.T) {
	env := newTestEnv(t)
	token := env.mustLogin(t, "David", "device1")

	_, err := env.tokens.Patch(context.Background(), "", map[string]any{"refreshToken": token}, service.Params{External: true})

	assert.ErrorIs(t, err, service.ErrNotAuthenticated)
}

func TestRevokeRefreshToken_MissingToken(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.tokens.Patch(context.Background(), "", map[string]any{}, service.Params{
		External:       true,
		Authentication: service.AuthRequest{"strategy": fixtureStrategy, "username": "David"},
	})

	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestPatch_CannotRevalidate(t *testing.T) {
	env := newTestEnv(t)
	env.mustLogin(t, "David", "device1")
	record := env.records(t, authdomain.Query{UserID: "123"})[0]

	_, err := env.tokens.Patch(context.Background(), record.ID, map[string]any{"isValid": true}, service.Params{})

	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestLogoutUser_DeletesRecord(t *testing.T) {
	env := newTestEnv(t)
	d1 := env.mustLogin(t, "David", "device1")
	d2 := env.mustLogin(t, "David", "device2")

	result, err := env.logout("123", "David", d1)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"status": "Logout successfully"}, result)

	assert.Empty(t, env.records(t, authdomain.Query{Token: authdomain.String(d1)}))
	assert.Len(t, env.records(t, authdomain.Query{Token: authdomain.String(d2)}), 1)

	_, err = env.renew("123", d1)
	assert.ErrorIs(t, err, service.ErrNotAuthenticated)
}

func TestLogoutUser_SecondLogoutFails(t *testing.T) {
	env := newTestEnv(t)
	token := env.mustLogin(t, "David", "device1")

	_, err := env.logout("123", "David", token)
	require.NoError(t, err)

	_, err = env.logout("123", "David", token)
	assert.ErrorIs(t, err, service.ErrNotAuthenticated)
}

func TestLogoutUser_MissingToken(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.tokens.Remove(context.Background(), "123", service.Params{
		External:       true,
		Authentication: service.AuthRequest{"strategy": fixtureStrategy, "username": "David"},
	})

	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestLogoutUser_TerminatesSession(t *testing.T) {
	env := newTestEnv(t)
	token := env.mustLogin(t, "David", "device1")

	accessToken, err := env.auth.CreateAccessToken(context.Background(), "123")
	require.NoError(t, err)

	result, err := env.tokens.Remove(context.Background(), "", service.Params{
		External:       true,
		Query:          map[string]any{"refreshToken": token},
		Authentication: service.AuthRequest{"strategy": service.StrategyJWT, "accessToken": accessToken},
	})
	require.NoError(t, err)
	assert.Equal(t, "Logout successfully", result["status"])

	_, err = env.auth.VerifyAccessToken(context.Background(), accessToken)
	assert.ErrorIs(t, err, service.ErrNotAuthenticated)

	_, err = env.auth.Create(context.Background(), service.AuthRequest{
		"strategy":    service.StrategyJWT,
		"accessToken": accessToken,
	}, service.Params{External: true})
	assert.ErrorIs(t, err, service.ErrNotAuthenticated)
}

func TestLogoutUser_InternalRemoveByID(t *testing.T) {
	env := newTestEnv(t)
	env.mustLogin(t, "David", "device1")
	record := env.records(t, authdomain.Query{UserID: "123"})[0]

	result, err := env.tokens.Remove(context.Background(), record.ID, service.Params{})

	require.NoError(t, err)
	assert.Equal(t, record.ID, result["id"])
	assert.Empty(t, env.records(t, authdomain.Query{}))
}

func TestLogoutUser_InternalRemoveWithToken(t *testing.T) {
	env := newTestEnv(t)
	d1 := env.mustLogin(t, "David", "device1")
	d2 := env.mustLogin(t, "David", "device2")

	result, err := env.tokens.Remove(context.Background(), "123", service.Params{
		Query: map[string]any{"refreshToken": d1},
	})

	require.NoError(t, err)
	assert.Equal(t, map[string]any{"status": "Logout successfully"}, result)
	assert.Empty(t, env.records(t, authdomain.Query{Token: authdomain.String(d1)}))
	assert.Len(t, env.records(t, authdomain.Query{Token: authdomain.String(d2)}), 1)
}

func TestFind_ScopedToAuthenticatedUser(t *testing.T) {
	env := newTestEnv(t)
	env.mustLogin(t, "David", "device1")
	env.mustLogin(t, "David", "device2")
	env.mustLogin(t, "Jacky", "")

	result, err := env.tokens.Find(context.Background(), service.Params{
		External:       true,
		Query:          map[string]any{"userId": "456"},
		Authentication: service.AuthRequest{"strategy": fixtureStrategy, "username": "David"},
	})

	require.NoError(t, err)
	assert.Equal(t, 2, result["total"])
	for _, record := range result["data"].([]map[string]any) {
		assert.Equal(t, "123", record["userId"])
	}
}

func TestHooks_Misuse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	err := env.manager.RevokeRefreshToken()(ctx, &service.HookContext{Method: service.MethodCreate, External: true})
	assert.ErrorIs(t, err, service.ErrHookMisuse)

	err = env.manager.LogoutUser()(ctx, &service.HookContext{Method: service.MethodPatch})
	assert.ErrorIs(t, err, service.ErrHookMisuse)

	err = env.manager.RefreshAccessToken()(ctx, &service.HookContext{Method: service.MethodCreate, Phase: service.PhaseAfter, External: true})
	assert.ErrorIs(t, err, service.ErrHookMisuse)

	err = env.manager.IssueRefreshToken()(ctx, &service.HookContext{Method: service.MethodCreate, Phase: service.PhaseBefore})
	assert.ErrorIs(t, err, service.ErrHookMisuse)
}

func TestHooks_InternalCallsBypassGuards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	hc := &service.HookContext{Method: service.MethodCreate, Data: map[string]any{}}
	require.NoError(t, env.manager.RefreshAccessToken()(ctx, hc))
	assert.Nil(t, hc.Result)

	hc = &service.HookContext{Method: service.MethodPatch, Data: map[string]any{"isValid": false}}
	require.NoError(t, env.manager.RevokeRefreshToken()(ctx, hc))
	assert.Equal(t, map[string]any{"isValid": false}, hc.Data)
}
