package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	authdomain "github.com/AlibekovAA/refresh-token-service/internal/auth/domain"
	"github.com/AlibekovAA/refresh-token-service/internal/auth/service"
	"github.com/AlibekovAA/refresh-token-service/internal/common/config"
	commonerrors "github.com/AlibekovAA/refresh-token-service/internal/common/errors"
	"github.com/AlibekovAA/refresh-token-service/internal/common/logger"
)

func newTestResolver(t *testing.T) *service.ConfigResolver {
	t.Helper()
	auth := testAuthentication()
	return service.NewConfigResolver(newResolverApp(&auth, "refresh-tokens"), logger.Discard())
}

func TestTokenLookup_FindValidDefaultsToValidRecords(t *testing.T) {
	store := &mockRefreshTokenStore{}
	var captured authdomain.Query
	store.findFunc = func(ctx context.Context, q authdomain.Query) ([]authdomain.RefreshToken, error) {
		captured = q
		return []authdomain.RefreshToken{{ID: "a"}, {ID: "b"}}, nil
	}
	lookup := service.NewTokenLookup(store, &mockAuthenticator{}, newTestResolver(t), logger.Discard())

	record, err := lookup.FindValid(context.Background(), "123", service.LookupParams{Token: "t"})

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if record == nil || record.ID != "a" {
		t.Fatalf("expected first record, got %v", record)
	}
	if captured.UserID != "123" || captured.IsValid == nil || !*captured.IsValid {
		t.Errorf("unexpected query %+v", captured)
	}
	if captured.Token == nil || *captured.Token != "t" {
		t.Errorf("expected token filter, got %+v", captured.Token)
	}
	if captured.DeviceID != nil {
		t.Errorf("expected no device filter, got %q", *captured.DeviceID)
	}
}

func TestTokenLookup_FindValidRequiresUserID(t *testing.T) {
	lookup := service.NewTokenLookup(&mockRefreshTokenStore{}, &mockAuthenticator{}, newTestResolver(t), logger.Discard())

	_, err := lookup.FindValid(context.Background(), "", service.LookupParams{})

	if !errors.Is(err, service.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestTokenLookup_StoreErrors(t *testing.T) {
	tests := []struct {
		name     string
		storeErr error
		want     error
	}{
		{name: "circuit open", storeErr: commonerrors.ErrCircuitOpen, want: service.ErrServiceUnavailable},
		{name: "outage", storeErr: errors.New("connection refused"), want: commonerrors.ErrInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockRefreshTokenStore{
				findFunc: func(ctx context.Context, q authdomain.Query) ([]authdomain.RefreshToken, error) {
					return nil, tt.storeErr
				},
			}
			lookup := service.NewTokenLookup(store, &mockAuthenticator{}, newTestResolver(t), logger.Discard())

			_, err := lookup.FindValid(context.Background(), "123", service.LookupParams{})

			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestTokenLookup_FindAndVerify(t *testing.T) {
	store := &mockRefreshTokenStore{
		findFunc: func(ctx context.Context, q authdomain.Query) ([]authdomain.RefreshToken, error) {
			return []authdomain.RefreshToken{{ID: "rec-1", UserID: "123", Token: "stored"}}, nil
		},
	}
	auth := &mockAuthenticator{}
	var verifiedWith string
	auth.verifyTokenFunc = func(ctx context.Context, token string, opts service.JWTOptions, secret string) (service.TokenPayload, error) {
		verifiedWith = secret
		return service.TokenPayload{Subject: "123"}, nil
	}
	lookup := service.NewTokenLookup(store, auth, newTestResolver(t), logger.Discard())

	record, payload, err := lookup.FindAndVerify(context.Background(), "123", service.LookupParams{})

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if record.ID != "rec-1" || payload.Subject != "123" {
		t.Errorf("unexpected result %v %v", record, payload)
	}
	if verifiedWith != testRefreshSecret {
		t.Errorf("expected verification with the refresh secret, got %q", verifiedWith)
	}

	id, err := lookup.FindValidID(context.Background(), "123", service.LookupParams{})
	if err != nil || id != "rec-1" {
		t.Errorf("expected rec-1, got %q (%v)", id, err)
	}
}

func TestTokenLookup_FindAndVerifyNotFound(t *testing.T) {
	lookup := service.NewTokenLookup(&mockRefreshTokenStore{}, &mockAuthenticator{}, newTestResolver(t), logger.Discard())

	record, payload, err := lookup.FindAndVerify(context.Background(), "123", service.LookupParams{})

	if err != nil || record != nil || payload != nil {
		t.Errorf("expected nil, nil, nil, got %v %v %v", record, payload, err)
	}
}

func TestTokenLookup_FindAndVerifyInvalid(t *testing.T) {
	store := &mockRefreshTokenStore{
		findFunc: func(ctx context.Context, q authdomain.Query) ([]authdomain.RefreshToken, error) {
			return []authdomain.RefreshToken{{ID: "rec-1", Token: "stored"}}, nil
		},
	}
	auth := &mockAuthenticator{
		verifyTokenFunc: func(ctx context.Context, token string, opts service.JWTOptions, secret string) (service.TokenPayload, error) {
			return service.TokenPayload{}, errors.New("signature is invalid")
		},
	}
	lookup := service.NewTokenLookup(store, auth, newTestResolver(t), logger.Discard())

	_, _, err := lookup.FindAndVerify(context.Background(), "123", service.LookupParams{})

	if !errors.Is(err, service.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenLookup_ConfigurationError(t *testing.T) {
	store := &mockRefreshTokenStore{
		findFunc: func(ctx context.Context, q authdomain.Query) ([]authdomain.RefreshToken, error) {
			return []authdomain.RefreshToken{{ID: "rec-1"}}, nil
		},
	}
	resolver := service.NewConfigResolver(config.NewApp(), logger.Discard())
	lookup := service.NewTokenLookup(store, &mockAuthenticator{}, resolver, logger.Discard())

	_, _, err := lookup.FindAndVerify(context.Background(), "123", service.LookupParams{})

	if !errors.Is(err, service.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}

func TestIssueRefreshToken_StoreOutage(t *testing.T) {
	store := &mockRefreshTokenStore{
		createFunc: func(ctx context.Context, token authdomain.RefreshToken) (authdomain.RefreshToken, error) {
			return authdomain.RefreshToken{}, commonerrors.ErrCircuitOpen
		},
	}
	manager := service.NewRefreshTokenManager(newTestResolver(t), store, &mockAuthenticator{}, logger.Discard())

	hc := &service.HookContext{
		Method: service.MethodCreate,
		Phase:  service.PhaseAfter,
		Data:   map[string]any{"deviceId": "device1"},
		Result: map[string]any{"user": map[string]any{"id": "123"}},
	}
	err := manager.IssueRefreshToken()(context.Background(), hc)

	if !errors.Is(err, service.ErrServiceUnavailable) {
		t.Errorf("expected ErrServiceUnavailable, got %v", err)
	}
	if _, ok := hc.Result["refreshToken"]; ok {
		t.Error("expected no refresh token on failure")
	}
}

func TestIssueRefreshToken_DuplicateReadsWinner(t *testing.T) {
	winner := authdomain.RefreshToken{ID: "rec-1", UserID: "123", Token: "winner", IsValid: true}
	finds := 0
	store := &mockRefreshTokenStore{
		findFunc: func(ctx context.Context, q authdomain.Query) ([]authdomain.RefreshToken, error) {
			finds++
			if finds == 1 {
				return nil, nil
			}
			return []authdomain.RefreshToken{winner}, nil
		},
		createFunc: func(ctx context.Context, token authdomain.RefreshToken) (authdomain.RefreshToken, error) {
			return authdomain.RefreshToken{}, errDuplicate
		},
	}
	manager := service.NewRefreshTokenManager(newTestResolver(t), store, &mockAuthenticator{}, logger.Discard())

	hc := &service.HookContext{
		Method: service.MethodCreate,
		Phase:  service.PhaseAfter,
		Data:   map[string]any{},
		Result: map[string]any{"id": 123},
	}
	err := manager.IssueRefreshToken()(context.Background(), hc)

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if hc.Result["refreshToken"] != "winner" {
		t.Errorf("expected the concurrent winner's token, got %v", hc.Result["refreshToken"])
	}
}

func TestIssueRefreshToken_CancelledCallerDoesNotFailOthers(t *testing.T) {
	gate := make(chan struct{})
	entered := make(chan struct{})
	var once sync.Once
	store := &mockRefreshTokenStore{
		findFunc: func(ctx context.Context, q authdomain.Query) ([]authdomain.RefreshToken, error) {
			once.Do(func() { close(entered) })
			<-gate
			return nil, ctx.Err()
		},
		createFunc: func(ctx context.Context, token authdomain.RefreshToken) (authdomain.RefreshToken, error) {
			if err := ctx.Err(); err != nil {
				return authdomain.RefreshToken{}, err
			}
			token.ID = "rec-1"
			return token, nil
		},
	}
	manager := service.NewRefreshTokenManager(newTestResolver(t), store, &mockAuthenticator{}, logger.Discard())
	issue := manager.IssueRefreshToken()

	newHC := func() *service.HookContext {
		return &service.HookContext{
			Method: service.MethodCreate,
			Phase:  service.PhaseAfter,
			Data:   map[string]any{"deviceId": "device1"},
			Result: map[string]any{"user": map[string]any{"id": "123"}},
		}
	}

	cancelCtx, cancel := context.WithCancel(context.Background())
	first := newHC()
	firstErr := make(chan error, 1)
	go func() { firstErr <- issue(cancelCtx, first) }()
	<-entered

	second := newHC()
	secondErr := make(chan error, 1)
	go func() { secondErr <- issue(context.Background(), second) }()
	time.Sleep(20 * time.Millisecond)

	cancel()
	select {
	case err := <-firstErr:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled for the cancelled caller, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(gate)
	select {
	case err := <-secondErr:
		if err != nil {
			t.Fatalf("expected the live caller to succeed, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("live caller did not return")
	}
	if second.Result["refreshToken"] != "token-for-123" {
		t.Errorf("expected issued token for the live caller, got %v", second.Result["refreshToken"])
	}
	if _, ok := first.Result["refreshToken"]; ok {
		t.Error("expected no refresh token for the cancelled caller")
	}
}

func TestIssueRefreshToken_InvalidatesUnverifiableToken(t *testing.T) {
	stale := authdomain.RefreshToken{ID: "rec-old", UserID: "123", Token: "stale", IsValid: true, DeviceID: "device1"}
	var patchedID string
	var patched authdomain.Patch
	store := &mockRefreshTokenStore{
		findFunc: func(ctx context.Context, q authdomain.Query) ([]authdomain.RefreshToken, error) {
			return []authdomain.RefreshToken{stale}, nil
		},
		patchFunc: func(ctx context.Context, id string, patch authdomain.Patch) (authdomain.RefreshToken, error) {
			patchedID, patched = id, patch
			return stale, nil
		},
		createFunc: func(ctx context.Context, token authdomain.RefreshToken) (authdomain.RefreshToken, error) {
			token.ID = "rec-new"
			return token, nil
		},
	}
	auth := &mockAuthenticator{
		verifyTokenFunc: func(ctx context.Context, token string, opts service.JWTOptions, secret string) (service.TokenPayload, error) {
			return service.TokenPayload{}, service.ErrInvalidToken.WithMessage("token has expired")
		},
	}
	manager := service.NewRefreshTokenManager(newTestResolver(t), store, auth, logger.Discard())

	hc := &service.HookContext{
		Method: service.MethodCreate,
		Phase:  service.PhaseAfter,
		Data:   map[string]any{"deviceId": "device1"},
		Result: map[string]any{"user": map[string]any{"id": "123"}},
	}
	err := manager.IssueRefreshToken()(context.Background(), hc)

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if hc.Result["refreshToken"] != "token-for-123" {
		t.Errorf("expected a newly issued token, got %v", hc.Result["refreshToken"])
	}
	if patchedID != "rec-old" || patched.IsValid == nil || *patched.IsValid {
		t.Errorf("expected rec-old to be invalidated, got id=%q patch=%+v", patchedID, patched)
	}
}
