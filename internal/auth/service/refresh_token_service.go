package service

import (
	"context"
	"strconv"

	authdomain "github.com/AlibekovAA/refresh-token-service/internal/auth/domain"
	authrepo "github.com/AlibekovAA/refresh-token-service/internal/auth/repository"
	"github.com/AlibekovAA/refresh-token-service/internal/common/logger"
)

// RefreshTokenService exposes the token store through the hook pipeline.
// Records are rendered with the configured entity and id field names.
type RefreshTokenService struct {
	name     string
	store    authrepo.RefreshTokenStore
	resolver *ConfigResolver
	hooks    Hooks
	log      *logger.Logger
}

func NewRefreshTokenService(name string, store authrepo.RefreshTokenStore, resolver *ConfigResolver, log *logger.Logger) *RefreshTokenService {
	return &RefreshTokenService{name: name, store: store, resolver: resolver, log: log}
}

func (s *RefreshTokenService) Name() string {
	return s.name
}

func (s *RefreshTokenService) Hooks() *Hooks {
	return &s.hooks
}

// Find lists records matching the query and returns {"total", "data"}.
func (s *RefreshTokenService) Find(ctx context.Context, params Params) (map[string]any, error) {
	hc := newHookContext(s.name, MethodFind, "", nil, params)
	err := s.hooks.run(ctx, hc, func(ctx context.Context, hc *HookContext) error {
		opts, err := s.resolver.Options()
		if err != nil {
			return err
		}
		tokens, err := s.store.Find(ctx, queryFrom(hc.Query, opts))
		if err != nil {
			return handleStoreError(err, "find refresh tokens")
		}
		data := make([]map[string]any, 0, len(tokens))
		for _, t := range tokens {
			data = append(data, t.Fields(opts.Entity, opts.EntityID))
		}
		hc.Result = map[string]any{"total": len(data), "data": data}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return hc.Result, nil
}

func (s *RefreshTokenService) Get(ctx context.Context, id string, params Params) (map[string]any, error) {
	hc := newHookContext(s.name, MethodGet, id, nil, params)
	err := s.hooks.run(ctx, hc, func(ctx context.Context, hc *HookContext) error {
		return s.render(s.store.Get(ctx, hc.ID))(hc, "get refresh token")
	})
	if err != nil {
		return nil, err
	}
	return hc.Result, nil
}

// Create stores data as a new record. External creates are answered by the
// renewal hook and never reach the store.
func (s *RefreshTokenService) Create(ctx context.Context, data map[string]any, params Params) (map[string]any, error) {
	hc := newHookContext(s.name, MethodCreate, "", data, params)
	err := s.hooks.run(ctx, hc, func(ctx context.Context, hc *HookContext) error {
		opts, err := s.resolver.Options()
		if err != nil {
			return err
		}
		record, err := recordFrom(hc.Data, opts)
		if err != nil {
			return err
		}
		return s.render(s.store.Create(ctx, record))(hc, "create refresh token")
	})
	if err != nil {
		return nil, err
	}
	return hc.Result, nil
}

// Patch applies data to the record id. Only invalidation is accepted.
func (s *RefreshTokenService) Patch(ctx context.Context, id string, data map[string]any, params Params) (map[string]any, error) {
	hc := newHookContext(s.name, MethodPatch, id, data, params)
	err := s.hooks.run(ctx, hc, func(ctx context.Context, hc *HookContext) error {
		patch, err := patchFrom(hc.Data)
		if err != nil {
			return err
		}
		return s.render(s.store.Patch(ctx, hc.ID, patch))(hc, "patch refresh token")
	})
	if err != nil {
		return nil, err
	}
	return hc.Result, nil
}

func (s *RefreshTokenService) Remove(ctx context.Context, id string, params Params) (map[string]any, error) {
	hc := newHookContext(s.name, MethodRemove, id, nil, params)
	err := s.hooks.run(ctx, hc, func(ctx context.Context, hc *HookContext) error {
		return s.render(s.store.Remove(ctx, hc.ID))(hc, "remove refresh token")
	})
	if err != nil {
		return nil, err
	}
	return hc.Result, nil
}

func (s *RefreshTokenService) render(token authdomain.RefreshToken, err error) func(*HookContext, string) error {
	return func(hc *HookContext, op string) error {
		if err != nil {
			s.log.WithFields(context.Background(), logger.Fields{
				"service": s.name,
				"method":  string(hc.Method),
				"id":      hc.ID,
				"action":  "refresh_token_store_failed",
			}).Debugf("%s: %v", op, err)
			return handleStoreError(err, op)
		}
		opts, optsErr := s.resolver.Options()
		if optsErr != nil {
			return optsErr
		}
		hc.Result = token.Fields(opts.Entity, opts.EntityID)
		return nil
	}
}

func queryFrom(query map[string]any, opts Options) authdomain.Query {
	var q authdomain.Query
	q.UserID, _ = field(query, "userId")
	switch v := query["isValid"].(type) {
	case bool:
		q.IsValid = &v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			q.IsValid = &b
		}
	}
	if v, ok := query["deviceId"].(string); ok {
		q.DeviceID = &v
	}
	if v, ok := field(query, opts.Entity); ok {
		q.Token = &v
	}
	return q
}

func recordFrom(data map[string]any, opts Options) (authdomain.RefreshToken, error) {
	userID, ok := field(data, "userId")
	if !ok {
		return authdomain.RefreshToken{}, missingField("userId")
	}
	token, ok := field(data, opts.Entity)
	if !ok {
		return authdomain.RefreshToken{}, missingField(opts.Entity)
	}
	record := authdomain.RefreshToken{UserID: userID, Token: token, IsValid: true}
	if v, ok := data["isValid"].(bool); ok {
		record.IsValid = v
	}
	record.DeviceID, _ = field(data, "deviceId")
	record.Location, _ = field(data, "location")
	return record, nil
}

func patchFrom(data map[string]any) (authdomain.Patch, error) {
	raw, ok := data["isValid"]
	if !ok {
		return authdomain.Patch{}, nil
	}
	isValid, ok := raw.(bool)
	if !ok {
		return authdomain.Patch{}, ErrValidation.WithMessage("isValid must be a boolean")
	}
	if isValid {
		return authdomain.Patch{}, ErrValidation.WithMessage("a revoked refresh token cannot be made valid again")
	}
	return authdomain.Patch{IsValid: &isValid}, nil
}
