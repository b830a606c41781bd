package repository

import (
	"context"
	"sync"
	"time"

	authdomain "github.com/AlibekovAA/refresh-token-service/internal/auth/domain"
	"github.com/AlibekovAA/refresh-token-service/internal/common/clock"
)

type MemoryRevokedTokenRepository struct {
	mu       sync.RWMutex
	sessions map[string]authdomain.RevokedSession
	clock    clock.Clock
}

func NewMemoryRevokedTokenRepository(clk clock.Clock) *MemoryRevokedTokenRepository {
	return &MemoryRevokedTokenRepository{
		sessions: make(map[string]authdomain.RevokedSession),
		clock:    clk,
	}
}

func (r *MemoryRevokedTokenRepository) Revoke(ctx context.Context, jti string, userID string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[jti]; !ok {
		r.sessions[jti] = authdomain.RevokedSession{JTI: jti, UserID: userID, ExpiresAt: expiresAt}
	}
	return nil
}

func (r *MemoryRevokedTokenRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[jti]
	return ok && session.ExpiresAt.After(r.clock.Now()), nil
}

func (r *MemoryRevokedTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	var deleted int64
	for jti, session := range r.sessions {
		if !session.ExpiresAt.After(now) {
			delete(r.sessions, jti)
			deleted++
		}
	}
	return deleted, nil
}
