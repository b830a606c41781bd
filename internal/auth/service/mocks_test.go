package service_test

import (
	"context"

	authdomain "github.com/AlibekovAA/refresh-token-service/internal/auth/domain"
	authrepo "github.com/AlibekovAA/refresh-token-service/internal/auth/repository"
	"github.com/AlibekovAA/refresh-token-service/internal/auth/service"
)

type mockRefreshTokenStore struct {
	findFunc       func(ctx context.Context, q authdomain.Query) ([]authdomain.RefreshToken, error)
	getFunc        func(ctx context.Context, id string) (authdomain.RefreshToken, error)
	createFunc     func(ctx context.Context, token authdomain.RefreshToken) (authdomain.RefreshToken, error)
	patchFunc      func(ctx context.Context, id string, patch authdomain.Patch) (authdomain.RefreshToken, error)
	removeFunc     func(ctx context.Context, id string) (authdomain.RefreshToken, error)
	countValidFunc func(ctx context.Context) (int64, error)
}

func (m *mockRefreshTokenStore) Find(ctx context.Context, q authdomain.Query) ([]authdomain.RefreshToken, error) {
	if m.findFunc != nil {
		return m.findFunc(ctx, q)
	}
	return nil, nil
}

func (m *mockRefreshTokenStore) Get(ctx context.Context, id string) (authdomain.RefreshToken, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return authdomain.RefreshToken{}, authrepo.ErrRefreshTokenNotFound
}

func (m *mockRefreshTokenStore) Create(ctx context.Context, token authdomain.RefreshToken) (authdomain.RefreshToken, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, token)
	}
	return token, nil
}

func (m *mockRefreshTokenStore) Patch(ctx context.Context, id string, patch authdomain.Patch) (authdomain.RefreshToken, error) {
	if m.patchFunc != nil {
		return m.patchFunc(ctx, id, patch)
	}
	return authdomain.RefreshToken{}, authrepo.ErrRefreshTokenNotFound
}

func (m *mockRefreshTokenStore) Remove(ctx context.Context, id string) (authdomain.RefreshToken, error) {
	if m.removeFunc != nil {
		return m.removeFunc(ctx, id)
	}
	return authdomain.RefreshToken{}, authrepo.ErrRefreshTokenNotFound
}

func (m *mockRefreshTokenStore) CountValid(ctx context.Context) (int64, error) {
	if m.countValidFunc != nil {
		return m.countValidFunc(ctx)
	}
	return 0, nil
}

type mockAuthenticator struct {
	issueTokenFunc        func(ctx context.Context, subject string, opts service.JWTOptions, secret string) (string, error)
	verifyTokenFunc       func(ctx context.Context, token string, opts service.JWTOptions, secret string) (service.TokenPayload, error)
	createAccessTokenFunc func(ctx context.Context, subject string) (string, error)
	terminateSessionFunc  func(ctx context.Context, authentication service.AuthRequest) error
}

func (m *mockAuthenticator) IssueToken(ctx context.Context, subject string, opts service.JWTOptions, secret string) (string, error) {
	if m.issueTokenFunc != nil {
		return m.issueTokenFunc(ctx, subject, opts, secret)
	}
	return "token-for-" + subject, nil
}

func (m *mockAuthenticator) VerifyToken(ctx context.Context, token string, opts service.JWTOptions, secret string) (service.TokenPayload, error) {
	if m.verifyTokenFunc != nil {
		return m.verifyTokenFunc(ctx, token, opts, secret)
	}
	return service.TokenPayload{}, nil
}

func (m *mockAuthenticator) CreateAccessToken(ctx context.Context, subject string) (string, error) {
	if m.createAccessTokenFunc != nil {
		return m.createAccessTokenFunc(ctx, subject)
	}
	return "access-for-" + subject, nil
}

func (m *mockAuthenticator) TerminateSession(ctx context.Context, authentication service.AuthRequest) error {
	if m.terminateSessionFunc != nil {
		return m.terminateSessionFunc(ctx, authentication)
	}
	return nil
}

var errDuplicate = authrepo.ErrDuplicateRefreshToken
