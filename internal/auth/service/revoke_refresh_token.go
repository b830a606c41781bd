package service

import (
	"context"

	"github.com/AlibekovAA/refresh-token-service/internal/common/logger"
)

// RevokeRefreshToken is a before-patch hook. It resolves the caller's valid
// record for the supplied token and rewrites the patch to invalidate it.
func (m *RefreshTokenManager) RevokeRefreshToken() Hook {
	return func(ctx context.Context, hc *HookContext) error {
		if hc.Method != MethodPatch {
			return ErrHookMisuse.WithMessage("revokeRefreshToken is only for the patch method")
		}
		if !hc.External {
			return nil
		}
		if hc.Phase != PhaseBefore {
			return ErrHookMisuse.WithMessage("revokeRefreshToken must be used as a before hook")
		}

		opts, err := m.resolver.Options()
		if err != nil {
			return err
		}

		userID, ok := field(hc.User, opts.UserEntityID)
		if !ok {
			return ErrNotAuthenticated.WithMessage("user is not authenticated")
		}
		refreshToken, ok := field(hc.Data, opts.Entity)
		if !ok {
			return missingField(opts.Entity)
		}

		id, err := m.lookup.FindValidID(ctx, userID, LookupParams{Token: refreshToken})
		if err != nil {
			return err
		}
		if id == "" {
			return ErrNotAuthenticated.WithMessage("invalid refresh token")
		}

		incrementRefreshTokensRevoked()
		m.log.WithFields(ctx, logger.Fields{
			"user_id":  userID,
			"token_id": id,
			"action":   "refresh_token_revoked",
		}).Info("refresh token revoked")

		hc.ID = id
		hc.Data = map[string]any{"isValid": false}
		return nil
	}
}
