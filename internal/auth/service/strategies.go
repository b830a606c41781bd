package service

import (
	"context"
	"errors"
	"net/http"

	commoncrypto "github.com/AlibekovAA/refresh-token-service/internal/common/crypto"
	commonhttp "github.com/AlibekovAA/refresh-token-service/internal/common/http"
	userdomain "github.com/AlibekovAA/refresh-token-service/internal/user/domain"
	userrepo "github.com/AlibekovAA/refresh-token-service/internal/user/repository"
)

const (
	StrategyLocal = "local"
	StrategyJWT   = "jwt"
)

// EntityShape says how a user is exposed in authentication results:
// result[Entity] = {EntityID: id, "username": ...}.
type EntityShape struct {
	Entity   string
	EntityID string
}

func (e EntityShape) render(user userdomain.User) map[string]any {
	return user.Fields(e.EntityID)
}

// LocalStrategy checks a username and password against the user directory.
type LocalStrategy struct {
	users  userrepo.Repository
	hasher commoncrypto.PasswordHasher
	shape  EntityShape
}

func NewLocalStrategy(users userrepo.Repository, hasher commoncrypto.PasswordHasher, shape EntityShape) *LocalStrategy {
	return &LocalStrategy{users: users, hasher: hasher, shape: shape}
}

func (s *LocalStrategy) Authenticate(ctx context.Context, req AuthRequest) (AuthResult, error) {
	username, _ := field(req, "username")
	password, _ := field(req, "password")
	if username == "" || password == "" {
		return nil, ErrNotAuthenticated.WithMessage("invalid login")
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			return nil, ErrNotAuthenticated.WithMessage("invalid login")
		}
		return nil, handleStoreError(err, "find user by username")
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return nil, ErrNotAuthenticated.WithMessage("invalid login")
	}

	return AuthResult{
		"authentication": map[string]any{"strategy": StrategyLocal},
		s.shape.Entity:   s.shape.render(user),
	}, nil
}

// Parse is a no-op: local credentials only arrive in an authentication body.
func (s *LocalStrategy) Parse(r *http.Request) (AuthRequest, bool) {
	return nil, false
}

type accessTokenVerifier interface {
	VerifyAccessToken(ctx context.Context, token string) (TokenPayload, error)
}

// JWTStrategy authenticates a previously issued access token.
type JWTStrategy struct {
	verifier accessTokenVerifier
	users    userrepo.Repository
	shape    EntityShape
}

// NewJWTStrategy builds the strategy; users may be nil, in which case the
// entity carries only the subject id.
func NewJWTStrategy(verifier accessTokenVerifier, users userrepo.Repository, shape EntityShape) *JWTStrategy {
	return &JWTStrategy{verifier: verifier, users: users, shape: shape}
}

func (s *JWTStrategy) Authenticate(ctx context.Context, req AuthRequest) (AuthResult, error) {
	token, ok := field(req, "accessToken")
	if !ok {
		return nil, ErrNotAuthenticated.WithMessage("access token is missing")
	}

	payload, err := s.verifier.VerifyAccessToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if payload.Subject == "" {
		return nil, ErrInvalidToken.WithMessage("access token has no subject")
	}

	entity := map[string]any{s.shape.EntityID: payload.Subject}
	if s.users != nil {
		user, err := s.users.FindByID(ctx, userdomain.ID(payload.Subject))
		if err != nil {
			if errors.Is(err, userrepo.ErrUserNotFound) {
				return nil, ErrNotAuthenticated.WithMessage("user no longer exists")
			}
			return nil, handleStoreError(err, "find user by id")
		}
		entity = s.shape.render(user)
	}

	return AuthResult{
		"accessToken": token,
		"authentication": map[string]any{
			"strategy":    StrategyJWT,
			"accessToken": token,
			"payload":     payload.Map(),
		},
		s.shape.Entity: entity,
	}, nil
}

func (s *JWTStrategy) Parse(r *http.Request) (AuthRequest, bool) {
	token, ok := commonhttp.BearerToken(r)
	if !ok {
		return nil, false
	}
	return AuthRequest{"strategy": StrategyJWT, "accessToken": token}, true
}
