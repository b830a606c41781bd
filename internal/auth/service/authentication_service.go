package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"

	authrepo "github.com/AlibekovAA/refresh-token-service/internal/auth/repository"
	"github.com/AlibekovAA/refresh-token-service/internal/common/config"
	"github.com/AlibekovAA/refresh-token-service/internal/common/logger"
)

const accessTokenTyp = "access"

// AuthenticationService authenticates requests through registered strategies
// and issues access tokens. After-create hooks see the authentication result.
type AuthenticationService struct {
	name       string
	cfg        config.Authentication
	issuer     *TokenIssuer
	sessions   authrepo.RevokedTokenRepository
	strategies *StrategyRegistry
	hooks      Hooks
	log        *logger.Logger
}

func NewAuthenticationService(
	name string,
	cfg config.Authentication,
	issuer *TokenIssuer,
	sessions authrepo.RevokedTokenRepository,
	log *logger.Logger,
) *AuthenticationService {
	if cfg.EntityID == "" {
		cfg.EntityID = defaultEntityID
	}
	return &AuthenticationService{
		name:       name,
		cfg:        cfg,
		issuer:     issuer,
		sessions:   sessions,
		strategies: NewStrategyRegistry(),
		log:        log,
	}
}

func (s *AuthenticationService) Name() string {
	return s.name
}

func (s *AuthenticationService) Register(name string, strategy Strategy) {
	s.strategies.Register(name, strategy)
}

func (s *AuthenticationService) Hooks() *Hooks {
	return &s.hooks
}

func (s *AuthenticationService) AccessTokenOptions() JWTOptions {
	return JWTOptions{
		Header:    JWTHeader{Typ: accessTokenTyp},
		Audience:  s.cfg.Audience,
		Issuer:    s.cfg.Issuer,
		Algorithm: defaultAlg,
		ExpiresIn: s.cfg.AccessTokenTTL,
	}
}

// Create authenticates req with one of the configured strategies, attaches an
// access token for the authenticated entity and runs the after-create hooks.
func (s *AuthenticationService) Create(ctx context.Context, req AuthRequest, params Params) (AuthResult, error) {
	strategy := req.Strategy()

	s.log.WithFields(ctx, logger.Fields{
		"strategy": strategy,
		"action":   "authentication_attempt",
	}).Info("authentication attempt")

	result, err := s.Authenticate(ctx, req, s.cfg.AuthStrategies...)
	if err != nil {
		return nil, err
	}

	if _, ok := result["accessToken"]; !ok {
		subject, _ := s.subjectOf(result)
		issued, err := s.issuer.Issue(subject, s.AccessTokenOptions(), s.cfg.Secret)
		if err != nil {
			s.log.WithFields(ctx, logger.Fields{
				"strategy": strategy,
				"action":   "access_token_issue_failed",
			}).Errorf("failed to issue access token: %v", err)
			return nil, newInternalError("ACCESS_TOKEN_ISSUE_FAILED", "failed to issue access token", err)
		}
		incrementAccessTokensIssued()
		result["accessToken"] = issued.Value
	}

	hc := newHookContext(s.name, MethodCreate, "", map[string]any(req), params)
	hc.Authentication = req
	hc.Result = result
	if err := s.hooks.run(ctx, hc, nil); err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"strategy": strategy,
			"action":   "authentication_hook_failed",
		}).Warnf("authentication hook failed: %v", err)
		return nil, err
	}

	s.log.WithFields(ctx, logger.Fields{
		"strategy": strategy,
		"action":   "authentication_success",
	}).Info("authentication succeeded")

	return AuthResult(hc.Result), nil
}

// Authenticate runs the strategy named in req, which must be one of allowed
// (any registered strategy when allowed is empty).
func (s *AuthenticationService) Authenticate(ctx context.Context, req AuthRequest, allowed ...string) (AuthResult, error) {
	name := req.Strategy()
	if name == "" {
		return nil, ErrNotAuthenticated.WithMessage("authentication strategy is missing")
	}
	if len(allowed) > 0 && !slices.Contains(allowed, name) {
		incrementAuthentications(name, "not_allowed")
		return nil, ErrNotAuthenticated.WithMessage(fmt.Sprintf("strategy %q is not allowed", name))
	}

	strategy, ok := s.strategies.Get(name)
	if !ok {
		incrementAuthentications(name, "unknown")
		return nil, ErrNotAuthenticated.WithMessage(fmt.Sprintf("strategy %q is not registered", name))
	}

	result, err := strategy.Authenticate(ctx, req)
	if err != nil {
		incrementAuthentications(name, "failure")
		s.log.WithFields(ctx, logger.Fields{
			"strategy": name,
			"action":   "authentication_failed",
		}).Warnf("authentication failed: %v", err)
		return nil, err
	}
	if result == nil {
		result = AuthResult{}
	}

	incrementAuthentications(name, "success")
	return result, nil
}

func (s *AuthenticationService) Parse(r *http.Request, names ...string) (AuthRequest, bool) {
	return s.strategies.Parse(r, names...)
}

func (s *AuthenticationService) IssueToken(ctx context.Context, subject string, opts JWTOptions, secret string) (string, error) {
	issued, err := s.issuer.Issue(subject, opts, secret)
	if err != nil {
		return "", err
	}
	return issued.Value, nil
}

func (s *AuthenticationService) VerifyToken(ctx context.Context, token string, opts JWTOptions, secret string) (TokenPayload, error) {
	return s.issuer.Verify(token, opts, secret)
}

func (s *AuthenticationService) CreateAccessToken(ctx context.Context, subject string) (string, error) {
	issued, err := s.issuer.Issue(subject, s.AccessTokenOptions(), s.cfg.Secret)
	if err != nil {
		return "", newInternalError("ACCESS_TOKEN_ISSUE_FAILED", "failed to issue access token", err)
	}
	incrementAccessTokensIssued()
	return issued.Value, nil
}

// VerifyAccessToken verifies an access token and rejects terminated sessions.
func (s *AuthenticationService) VerifyAccessToken(ctx context.Context, token string) (TokenPayload, error) {
	payload, err := s.issuer.Verify(token, s.AccessTokenOptions(), s.cfg.Secret)
	if err != nil {
		return TokenPayload{}, err
	}

	if s.sessions != nil && payload.ID != "" {
		incrementJWTRevokedChecks()
		revoked, err := s.sessions.IsRevoked(ctx, payload.ID)
		if err != nil {
			return TokenPayload{}, handleStoreError(err, "check revoked session")
		}
		if revoked {
			return TokenPayload{}, ErrNotAuthenticated.WithMessage("session has been terminated")
		}
	}
	return payload, nil
}

// TerminateSession revokes the access token carried by authentication until
// it would have expired. Requests without an access token, or with one that
// no longer verifies, have no session left to end.
func (s *AuthenticationService) TerminateSession(ctx context.Context, authentication AuthRequest) error {
	token, ok := field(authentication, "accessToken")
	if !ok {
		return nil
	}

	payload, err := s.issuer.Verify(token, s.AccessTokenOptions(), s.cfg.Secret)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			s.log.WithFields(ctx, logger.Fields{
				"action": "session_terminate_skipped",
			}).Debugf("access token no longer valid, nothing to terminate: %v", err)
			return nil
		}
		return err
	}
	if payload.ID == "" || s.sessions == nil {
		return nil
	}

	if err := s.sessions.Revoke(ctx, payload.ID, payload.Subject, payload.ExpiresAt); err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": payload.Subject,
			"action":  "session_terminate_failed",
		}).Errorf("failed to terminate session: %v", err)
		return handleStoreError(err, "revoke session")
	}

	incrementSessionsTerminated()
	s.log.WithFields(ctx, logger.Fields{
		"user_id": payload.Subject,
		"action":  "session_terminated",
	}).Info("session terminated")
	return nil
}

func (s *AuthenticationService) subjectOf(result AuthResult) (string, bool) {
	if entity, ok := result[s.cfg.Entity].(map[string]any); ok {
		if id, ok := field(entity, s.cfg.EntityID); ok {
			return id, true
		}
	}
	return field(result, s.cfg.EntityID)
}
