package service

import (
	"context"

	"github.com/AlibekovAA/refresh-token-service/internal/common/logger"
)

// RefreshAccessToken is a before-create hook for the refresh-tokens service.
// It exchanges a valid refresh token for a new access token and answers the
// call itself; the refresh token is not rotated.
func (m *RefreshTokenManager) RefreshAccessToken() Hook {
	return func(ctx context.Context, hc *HookContext) error {
		if !hc.External {
			return nil
		}
		if hc.Phase != PhaseBefore {
			return ErrHookMisuse.WithMessage("refreshAccessToken must be used as a before hook")
		}

		opts, err := m.resolver.Options()
		if err != nil {
			return err
		}

		userID, ok := field(hc.Data, opts.UserEntityID)
		if !ok {
			return missingField(opts.UserEntityID)
		}
		refreshToken, ok := field(hc.Data, opts.Entity)
		if !ok {
			return missingField(opts.Entity)
		}

		record, payload, err := m.lookup.FindAndVerify(ctx, userID, LookupParams{Token: refreshToken})
		if err != nil {
			return err
		}
		if record == nil {
			m.log.WithFields(ctx, logger.Fields{
				"user_id": userID,
				"action":  "refresh_token_not_found",
			}).Warn("refresh token not found for renewal")
			return ErrNotAuthenticated.WithMessage("invalid refresh token")
		}

		if payload.Subject != userID {
			m.log.WithFields(ctx, logger.Fields{
				"user_id":  userID,
				"token_id": record.ID,
				"action":   "refresh_token_subject_mismatch",
			}).Warn("refresh token subject does not match user")
			return ErrInvalidToken.WithMessage("refresh token does not belong to user")
		}

		accessToken, err := m.auth.CreateAccessToken(ctx, userID)
		if err != nil {
			return err
		}

		incrementRefreshTokensUsed()
		m.log.WithFields(ctx, logger.Fields{
			"user_id":  userID,
			"token_id": record.ID,
			"action":   "access_token_refreshed",
		}).Info("access token refreshed")

		hc.Result = map[string]any{"accessToken": accessToken}
		return nil
	}
}
