package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/AlibekovAA/refresh-token-service/internal/common/clock"
	commoncrypto "github.com/AlibekovAA/refresh-token-service/internal/common/crypto"
	commonerrors "github.com/AlibekovAA/refresh-token-service/internal/common/errors"
)

// TokenPayload is the verified content of a signed token.
type TokenPayload struct {
	Subject   string
	ID        string
	Audience  []string
	Issuer    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

func (p TokenPayload) Map() map[string]any {
	out := map[string]any{
		"sub": p.Subject,
		"jti": p.ID,
		"iat": p.IssuedAt.Unix(),
		"exp": p.ExpiresAt.Unix(),
	}
	if len(p.Audience) > 0 {
		out["aud"] = p.Audience
	}
	if p.Issuer != "" {
		out["iss"] = p.Issuer
	}
	return out
}

type IssuedToken struct {
	Value     string
	ID        string
	ExpiresAt time.Time
}

// TokenIssuer signs and verifies HMAC JWTs for a given set of options.
type TokenIssuer struct {
	idGenerator commoncrypto.IDGenerator
	clock       clock.Clock
}

func NewTokenIssuer(idGenerator commoncrypto.IDGenerator, clock clock.Clock) *TokenIssuer {
	return &TokenIssuer{
		idGenerator: idGenerator,
		clock:       clock,
	}
}

// Issue signs {sub: subject} with a fresh jti. Two tokens issued for the same
// subject in the same second still differ.
func (ti *TokenIssuer) Issue(subject string, opts JWTOptions, secret string) (IssuedToken, error) {
	method, err := signingMethod(opts.Algorithm)
	if err != nil {
		return IssuedToken{}, err
	}

	jti, err := ti.idGenerator.NewID()
	if err != nil {
		return IssuedToken{}, err
	}

	now := ti.clock.Now()
	expiresAt := now.Add(opts.ExpiresIn)
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ID:        jti,
		Issuer:    opts.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	if opts.Audience != "" {
		claims.Audience = jwt.ClaimStrings{opts.Audience}
	}

	t := jwt.NewWithClaims(method, claims)
	if opts.Header.Typ != "" {
		t.Header["typ"] = opts.Header.Typ
	}

	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return IssuedToken{}, fmt.Errorf("sign token: %w", err)
	}

	return IssuedToken{Value: signed, ID: jti, ExpiresAt: expiresAt}, nil
}

// Verify checks signature, algorithm, header type, audience, issuer and expiry.
func (ti *TokenIssuer) Verify(tokenString string, opts JWTOptions, secret string) (TokenPayload, error) {
	tokenType := opts.Header.Typ
	if tokenType == "" {
		tokenType = "jwt"
	}
	incrementJWTValidations(tokenType)

	payload, err := ti.verify(tokenString, opts, secret)
	if err != nil {
		incrementJWTValidationsFailed(tokenType)
		return TokenPayload{}, err
	}
	return payload, nil
}

func (ti *TokenIssuer) verify(tokenString string, opts JWTOptions, secret string) (TokenPayload, error) {
	if _, err := signingMethod(opts.Algorithm); err != nil {
		return TokenPayload{}, err
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{opts.Algorithm}),
		jwt.WithTimeFunc(ti.clock.Now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if opts.Audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(opts.Audience))
	}
	if opts.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(opts.Issuer))
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, parserOpts...)
	if err != nil {
		return TokenPayload{}, ErrInvalidToken.WithCause(err)
	}
	if !parsed.Valid {
		return TokenPayload{}, ErrInvalidToken
	}

	if opts.Header.Typ != "" {
		if typ, _ := parsed.Header["typ"].(string); typ != opts.Header.Typ {
			return TokenPayload{}, ErrInvalidToken.WithMessage(fmt.Sprintf("unexpected token type %q", typ))
		}
	}

	payload := TokenPayload{
		Subject:  claims.Subject,
		ID:       claims.ID,
		Audience: claims.Audience,
		Issuer:   claims.Issuer,
	}
	if claims.IssuedAt != nil {
		payload.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		payload.ExpiresAt = claims.ExpiresAt.Time
	}
	return payload, nil
}

func signingMethod(alg string) (jwt.SigningMethod, error) {
	switch alg {
	case jwt.SigningMethodHS256.Alg():
		return jwt.SigningMethodHS256, nil
	case jwt.SigningMethodHS384.Alg():
		return jwt.SigningMethodHS384, nil
	case jwt.SigningMethodHS512.Alg():
		return jwt.SigningMethodHS512, nil
	}
	return nil, commonerrors.ErrInvalidTokenSigningMethod.WithMessage(fmt.Sprintf("unsupported signing algorithm %q", alg))
}
