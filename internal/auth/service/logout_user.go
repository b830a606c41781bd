package service

import (
	"context"

	"github.com/AlibekovAA/refresh-token-service/internal/common/constants"
	"github.com/AlibekovAA/refresh-token-service/internal/common/logger"
)

// LogoutUser is registered before and after remove. Before, it retargets the
// remove at the caller's valid record for the supplied token. After, it
// terminates the authenticated session and replaces the result with a status.
// Internal removes by id, without a token or authentication, pass through.
func (m *RefreshTokenManager) LogoutUser() Hook {
	return func(ctx context.Context, hc *HookContext) error {
		if hc.Method != MethodRemove {
			return ErrHookMisuse.WithMessage("logoutUser is only for the remove method")
		}
		if hc.Phase == PhaseAfter {
			if !hc.loggingOut {
				return nil
			}
			return m.finishLogout(ctx, hc)
		}

		opts, err := m.resolver.Options()
		if err != nil {
			return err
		}

		refreshToken, ok := field(hc.Query, opts.Entity)
		if !ok {
			if !hc.External && hc.Authentication == nil {
				return nil
			}
			return missingField(opts.Entity)
		}

		userID, ok := field(hc.User, opts.UserEntityID)
		if !ok {
			userID, ok = hc.ID, hc.ID != ""
		}
		if !ok {
			userID, ok = field(hc.Query, opts.UserEntityID)
		}
		if !ok {
			return missingField(opts.UserEntityID)
		}

		id, err := m.lookup.FindValidID(ctx, userID, LookupParams{Token: refreshToken})
		if err != nil {
			return err
		}
		if id == "" {
			return ErrNotAuthenticated.WithMessage("invalid refresh token")
		}

		m.log.WithFields(ctx, logger.Fields{
			"user_id":  userID,
			"token_id": id,
			"action":   "logout_requested",
		}).Debug("removing refresh token for logout")

		hc.ID = id
		hc.Query = nil
		hc.loggingOut = true
		return nil
	}
}

func (m *RefreshTokenManager) finishLogout(ctx context.Context, hc *HookContext) error {
	if err := m.auth.TerminateSession(ctx, hc.Authentication); err != nil {
		return err
	}

	incrementRefreshTokensLoggedOut()
	m.log.WithFields(ctx, logger.Fields{
		"token_id": hc.ID,
		"action":   "logout",
	}).Info("user logged out")

	hc.Result = map[string]any{"status": constants.LogoutSuccessStatus}
	return nil
}
