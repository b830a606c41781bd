package service

import (
	"context"
	"errors"

	authdomain "github.com/AlibekovAA/refresh-token-service/internal/auth/domain"
	authrepo "github.com/AlibekovAA/refresh-token-service/internal/auth/repository"
	"github.com/AlibekovAA/refresh-token-service/internal/common/logger"
)

// LookupParams narrows a lookup. A nil DeviceID matches any device; IsValid
// defaults to true.
type LookupParams struct {
	DeviceID *string
	Token    string
	IsValid  *bool
}

type TokenLookup struct {
	store    authrepo.RefreshTokenStore
	auth     Authenticator
	resolver *ConfigResolver
	log      *logger.Logger
}

func NewTokenLookup(store authrepo.RefreshTokenStore, auth Authenticator, resolver *ConfigResolver, log *logger.Logger) *TokenLookup {
	return &TokenLookup{store: store, auth: auth, resolver: resolver, log: log}
}

// FindValid returns the first record matching the user and params, or nil.
func (l *TokenLookup) FindValid(ctx context.Context, userID string, params LookupParams) (*authdomain.RefreshToken, error) {
	if userID == "" {
		return nil, missingField("userId")
	}

	isValid := true
	if params.IsValid != nil {
		isValid = *params.IsValid
	}
	query := authdomain.Query{
		UserID:   userID,
		IsValid:  &isValid,
		DeviceID: params.DeviceID,
	}
	if params.Token != "" {
		query.Token = &params.Token
	}

	tokens, err := l.store.Find(ctx, query)
	if err != nil {
		l.log.WithFields(ctx, logger.Fields{
			"user_id": userID,
			"action":  "refresh_token_lookup_failed",
		}).Errorf("refresh token lookup failed: %v", err)
		return nil, handleStoreError(err, "find refresh token")
	}
	if len(tokens) == 0 {
		return nil, nil
	}
	return &tokens[0], nil
}

// FindAndVerify is FindValid plus verification of the stored token. A record
// whose token fails verification is an ErrInvalidToken; no record is (nil, nil, nil).
func (l *TokenLookup) FindAndVerify(ctx context.Context, userID string, params LookupParams) (*authdomain.RefreshToken, *TokenPayload, error) {
	record, err := l.FindValid(ctx, userID, params)
	if err != nil || record == nil {
		return nil, nil, err
	}

	opts, err := l.resolver.Options()
	if err != nil {
		return nil, nil, err
	}

	payload, err := l.auth.VerifyToken(ctx, record.Token, opts.JWTOptions, opts.Secret)
	if err != nil {
		l.log.WithFields(ctx, logger.Fields{
			"user_id":  userID,
			"token_id": record.ID,
			"action":   "refresh_token_verify_failed",
		}).Warnf("stored refresh token failed verification: %v", err)
		if errors.Is(err, ErrInvalidToken) {
			return nil, nil, err
		}
		return nil, nil, ErrInvalidToken.WithCause(err)
	}
	return record, &payload, nil
}

// FindValidID returns the id of the verified record, or "".
func (l *TokenLookup) FindValidID(ctx context.Context, userID string, params LookupParams) (string, error) {
	record, _, err := l.FindAndVerify(ctx, userID, params)
	if err != nil || record == nil {
		return "", err
	}
	return record.ID, nil
}
