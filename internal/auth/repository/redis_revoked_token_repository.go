package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AlibekovAA/refresh-token-service/internal/common/clock"
)

const revokedSessionKeyPrefix = "revoked_session:"

// RedisRevokedTokenRepository stores each revoked jti as a key that expires
// together with the access token, so DeleteExpired has nothing to do.
type RedisRevokedTokenRepository struct {
	client redis.UniversalClient
	clock  clock.Clock
}

func NewRedisRevokedTokenRepository(client redis.UniversalClient, clk clock.Clock) *RedisRevokedTokenRepository {
	return &RedisRevokedTokenRepository{client: client, clock: clk}
}

func (r *RedisRevokedTokenRepository) Revoke(ctx context.Context, jti string, userID string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(r.clock.Now())
	if ttl <= 0 {
		return nil
	}
	if err := r.client.SetNX(ctx, revokedSessionKeyPrefix+jti, userID, ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

func (r *RedisRevokedTokenRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, revokedSessionKeyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check revoked session: %w", err)
	}
	return n > 0, nil
}

func (r *RedisRevokedTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	return 0, nil
}
