package service

import (
	"context"
	"net/http"
)

// Authenticator is what the refresh-token operations need from the
// authentication component.
type Authenticator interface {
	IssueToken(ctx context.Context, subject string, opts JWTOptions, secret string) (string, error)
	VerifyToken(ctx context.Context, token string, opts JWTOptions, secret string) (TokenPayload, error)
	CreateAccessToken(ctx context.Context, subject string) (string, error)
	TerminateSession(ctx context.Context, authentication AuthRequest) error
}

// AuthRequest is the body of an authentication call: a strategy name plus
// whatever fields that strategy reads.
type AuthRequest map[string]any

func (r AuthRequest) Strategy() string {
	s, _ := field(r, "strategy")
	return s
}

// AuthResult is what a strategy (and then Create) returns to the caller.
type AuthResult map[string]any

// Strategy authenticates one kind of credential.
type Strategy interface {
	Authenticate(ctx context.Context, req AuthRequest) (AuthResult, error)
	// Parse extracts this strategy's credentials from a raw request, if present.
	Parse(r *http.Request) (AuthRequest, bool)
}
