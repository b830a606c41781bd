package service

import (
	"golang.org/x/sync/singleflight"

	authrepo "github.com/AlibekovAA/refresh-token-service/internal/auth/repository"
	"github.com/AlibekovAA/refresh-token-service/internal/common/logger"
)

// RefreshTokenManager holds the refresh-token operations. Each operation is
// exposed as a Hook to be registered on the authentication or refresh-tokens
// service.
type RefreshTokenManager struct {
	resolver *ConfigResolver
	store    authrepo.RefreshTokenStore
	auth     Authenticator
	lookup   *TokenLookup
	issuing  singleflight.Group
	log      *logger.Logger
}

func NewRefreshTokenManager(resolver *ConfigResolver, store authrepo.RefreshTokenStore, auth Authenticator, log *logger.Logger) *RefreshTokenManager {
	return &RefreshTokenManager{
		resolver: resolver,
		store:    store,
		auth:     auth,
		lookup:   NewTokenLookup(store, auth, resolver, log),
		log:      log,
	}
}

func (m *RefreshTokenManager) Lookup() *TokenLookup {
	return m.lookup
}
