package repository

import (
	"context"

	authdomain "github.com/AlibekovAA/refresh-token-service/internal/auth/domain"
	"github.com/AlibekovAA/refresh-token-service/internal/common/resilience"
)

// BreakerRefreshTokenRepository guards a store with a circuit breaker. Not-found
// and duplicate answers do not count as failures.
type BreakerRefreshTokenRepository struct {
	next    RefreshTokenStore
	breaker *resilience.CircuitBreaker
}

func NewBreakerRefreshTokenRepository(next RefreshTokenStore, breaker *resilience.CircuitBreaker) *BreakerRefreshTokenRepository {
	return &BreakerRefreshTokenRepository{next: next, breaker: breaker}
}

func (r *BreakerRefreshTokenRepository) Find(ctx context.Context, q authdomain.Query) ([]authdomain.RefreshToken, error) {
	var tokens []authdomain.RefreshToken
	err := r.breaker.Call(ctx, func(ctx context.Context) error {
		var err error
		tokens, err = r.next.Find(ctx, q)
		return err
	})
	return tokens, err
}

func (r *BreakerRefreshTokenRepository) Get(ctx context.Context, id string) (authdomain.RefreshToken, error) {
	return r.call(ctx, func(ctx context.Context) (authdomain.RefreshToken, error) {
		return r.next.Get(ctx, id)
	})
}

func (r *BreakerRefreshTokenRepository) Create(ctx context.Context, token authdomain.RefreshToken) (authdomain.RefreshToken, error) {
	return r.call(ctx, func(ctx context.Context) (authdomain.RefreshToken, error) {
		return r.next.Create(ctx, token)
	})
}

func (r *BreakerRefreshTokenRepository) Patch(ctx context.Context, id string, patch authdomain.Patch) (authdomain.RefreshToken, error) {
	return r.call(ctx, func(ctx context.Context) (authdomain.RefreshToken, error) {
		return r.next.Patch(ctx, id, patch)
	})
}

func (r *BreakerRefreshTokenRepository) Remove(ctx context.Context, id string) (authdomain.RefreshToken, error) {
	return r.call(ctx, func(ctx context.Context) (authdomain.RefreshToken, error) {
		return r.next.Remove(ctx, id)
	})
}

func (r *BreakerRefreshTokenRepository) CountValid(ctx context.Context) (int64, error) {
	var count int64
	err := r.breaker.Call(ctx, func(ctx context.Context) error {
		var err error
		count, err = r.next.CountValid(ctx)
		return err
	})
	return count, err
}

func (r *BreakerRefreshTokenRepository) call(ctx context.Context, fn func(context.Context) (authdomain.RefreshToken, error)) (authdomain.RefreshToken, error) {
	var token authdomain.RefreshToken
	err := r.breaker.Call(ctx, func(ctx context.Context) error {
		var err error
		token, err = fn(ctx)
		return err
	})
	return token, err
}
