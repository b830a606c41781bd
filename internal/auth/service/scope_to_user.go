package service

import (
	"context"
)

// ScopeToUser is a before-find hook that limits external listings to the
// authenticated user's records.
func (m *RefreshTokenManager) ScopeToUser() Hook {
	return func(ctx context.Context, hc *HookContext) error {
		if !hc.External {
			return nil
		}

		opts, err := m.resolver.Options()
		if err != nil {
			return err
		}

		userID, ok := field(hc.User, opts.UserEntityID)
		if !ok {
			return ErrNotAuthenticated.WithMessage("user is not authenticated")
		}

		query := make(map[string]any, len(hc.Query)+1)
		for k, v := range hc.Query {
			query[k] = v
		}
		query["userId"] = userID
		hc.Query = query
		return nil
	}
}
