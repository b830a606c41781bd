package repository_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authdomain "github.com/AlibekovAA/refresh-token-service/internal/auth/domain"
	"github.com/AlibekovAA/refresh-token-service/internal/auth/repository"
	commonerrors "github.com/AlibekovAA/refresh-token-service/internal/common/errors"
	"github.com/AlibekovAA/refresh-token-service/internal/common/resilience"
)

type failingStore struct {
	repository.RefreshTokenStore
	err error
}

func (s *failingStore) Find(ctx context.Context, q authdomain.Query) ([]authdomain.RefreshToken, error) {
	return nil, s.err
}

func newBreaker() *resilience.CircuitBreaker {
	return resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Threshold:   2,
		ResetAfter:  time.Hour,
		IgnoreError: repository.IsExpected,
	})
}

func TestBreakerRefreshTokenRepository_OpensOnOutage(t *testing.T) {
	ctx := context.Background()
	store := repository.NewBreakerRefreshTokenRepository(&failingStore{err: errors.New("connection refused")}, newBreaker())

	for i := 0; i < 2; i++ {
		_, err := store.Find(ctx, authdomain.Query{})
		require.Error(t, err)
		assert.NotErrorIs(t, err, commonerrors.ErrCircuitOpen)
	}

	_, err := store.Find(ctx, authdomain.Query{})
	assert.ErrorIs(t, err, commonerrors.ErrCircuitOpen)
}

func TestBreakerRefreshTokenRepository_IgnoresExpectedAnswers(t *testing.T) {
	ctx := context.Background()
	memory, _ := newMemoryStore()
	store := repository.NewBreakerRefreshTokenRepository(memory, newBreaker())

	for i := 0; i < 5; i++ {
		_, err := store.Get(ctx, "missing")
		assert.ErrorIs(t, err, repository.ErrRefreshTokenNotFound)
	}

	created, err := store.Create(ctx, authdomain.RefreshToken{UserID: "123", Token: "a", IsValid: true})
	require.NoError(t, err)

	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", got.Token)

	count, err := store.CountValid(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestBreakerRefreshTokenRepository_IgnoresCancelledCallers(t *testing.T) {
	ctx := context.Background()
	store := repository.NewBreakerRefreshTokenRepository(
		&failingStore{err: fmt.Errorf("query refresh tokens: %w", context.Canceled)},
		newBreaker(),
	)

	for i := 0; i < 5; i++ {
		_, err := store.Find(ctx, authdomain.Query{})
		assert.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, commonerrors.ErrCircuitOpen)
	}
}

func TestIsExpected(t *testing.T) {
	assert.True(t, repository.IsExpected(repository.ErrRefreshTokenNotFound))
	assert.True(t, repository.IsExpected(repository.ErrDuplicateRefreshToken))
	assert.True(t, repository.IsExpected(context.Canceled))
	assert.False(t, repository.IsExpected(context.DeadlineExceeded))
	assert.False(t, repository.IsExpected(errors.New("connection refused")))
}
