package repository

import (
	"context"
	"sync"

	authdomain "github.com/AlibekovAA/refresh-token-service/internal/auth/domain"
	"github.com/AlibekovAA/refresh-token-service/internal/common/clock"
	"github.com/AlibekovAA/refresh-token-service/internal/common/crypto"
)

// MemoryRefreshTokenRepository keeps records in insertion order and enforces
// the same one-valid-record-per-(user, device) constraint as the Postgres schema.
type MemoryRefreshTokenRepository struct {
	mu     sync.RWMutex
	tokens map[string]authdomain.RefreshToken
	order  []string
	idGen  crypto.IDGenerator
	clock  clock.Clock
}

func NewMemoryRefreshTokenRepository(idGen crypto.IDGenerator, clk clock.Clock) *MemoryRefreshTokenRepository {
	return &MemoryRefreshTokenRepository{
		tokens: make(map[string]authdomain.RefreshToken),
		idGen:  idGen,
		clock:  clk,
	}
}

func (r *MemoryRefreshTokenRepository) Find(ctx context.Context, q authdomain.Query) ([]authdomain.RefreshToken, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []authdomain.RefreshToken
	for _, id := range r.order {
		if token := r.tokens[id]; q.Matches(token) {
			out = append(out, token)
		}
	}
	return out, nil
}

func (r *MemoryRefreshTokenRepository) Get(ctx context.Context, id string) (authdomain.RefreshToken, error) {
	if err := ctx.Err(); err != nil {
		return authdomain.RefreshToken{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	token, ok := r.tokens[id]
	if !ok {
		return authdomain.RefreshToken{}, ErrRefreshTokenNotFound
	}
	return token, nil
}

func (r *MemoryRefreshTokenRepository) Create(ctx context.Context, token authdomain.RefreshToken) (authdomain.RefreshToken, error) {
	if err := ctx.Err(); err != nil {
		return authdomain.RefreshToken{}, err
	}

	if token.ID == "" {
		id, err := r.idGen.NewID()
		if err != nil {
			return authdomain.RefreshToken{}, err
		}
		token.ID = id
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tokens[token.ID]; exists {
		return authdomain.RefreshToken{}, ErrDuplicateRefreshToken
	}
	if token.IsValid {
		for _, id := range r.order {
			existing := r.tokens[id]
			if existing.IsValid && existing.UserID == token.UserID && existing.DeviceID == token.DeviceID {
				return authdomain.RefreshToken{}, ErrDuplicateRefreshToken
			}
		}
	}

	now := r.clock.Now()
	token.CreatedAt = now
	token.UpdatedAt = now
	r.tokens[token.ID] = token
	r.order = append(r.order, token.ID)
	return token, nil
}

func (r *MemoryRefreshTokenRepository) Patch(ctx context.Context, id string, patch authdomain.Patch) (authdomain.RefreshToken, error) {
	if err := ctx.Err(); err != nil {
		return authdomain.RefreshToken{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.tokens[id]
	if !ok {
		return authdomain.RefreshToken{}, ErrRefreshTokenNotFound
	}
	if patch.IsValid != nil {
		token.IsValid = *patch.IsValid
		token.UpdatedAt = r.clock.Now()
		r.tokens[id] = token
	}
	return token, nil
}

func (r *MemoryRefreshTokenRepository) Remove(ctx context.Context, id string) (authdomain.RefreshToken, error) {
	if err := ctx.Err(); err != nil {
		return authdomain.RefreshToken{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.tokens[id]
	if !ok {
		return authdomain.RefreshToken{}, ErrRefreshTokenNotFound
	}
	delete(r.tokens, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return token, nil
}

func (r *MemoryRefreshTokenRepository) CountValid(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, token := range r.tokens {
		if token.IsValid {
			count++
		}
	}
	return count, nil
}
