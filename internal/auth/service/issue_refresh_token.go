package service

import (
	"context"
	"errors"

	authdomain "github.com/AlibekovAA/refresh-token-service/internal/auth/domain"
	authrepo "github.com/AlibekovAA/refresh-token-service/internal/auth/repository"
	"github.com/AlibekovAA/refresh-token-service/internal/common/constants"
	"github.com/AlibekovAA/refresh-token-service/internal/common/logger"
)

// IssueRefreshToken is an after-create hook for the authentication service.
// It attaches the user's valid refresh token for the requesting device to the
// result, creating one only when none exists.
func (m *RefreshTokenManager) IssueRefreshToken() Hook {
	return func(ctx context.Context, hc *HookContext) error {
		if hc.Phase != PhaseAfter {
			return ErrHookMisuse.WithMessage("issueRefreshToken must be used as an after hook")
		}
		if hc.Result == nil {
			return nil
		}

		opts, err := m.resolver.Options()
		if err != nil {
			return err
		}

		userID, ok := userIDFromResult(hc.Result, opts)
		if !ok {
			if opts.StrictUserID {
				return ErrMissingUserID
			}
			m.log.WithFields(ctx, logger.Fields{
				"user_entity_id": opts.UserEntityID,
				"action":         "refresh_token_issue_skipped",
			}).Warn("authentication result has no user id, refresh token not issued")
			return nil
		}

		deviceID, _ := field(hc.Data, "deviceId")
		location, _ := field(hc.Data, "location")

		token, err := m.issue(ctx, opts, userID, deviceID, location)
		if err != nil {
			return err
		}

		hc.Result[opts.Entity] = token
		return nil
	}
}

// issue collapses concurrent calls for the same (user, device) into one
// find-or-create. The shared call runs detached from any single caller, so a
// caller that gives up only abandons its own wait.
func (m *RefreshTokenManager) issue(ctx context.Context, opts Options, userID, deviceID, location string) (string, error) {
	key := userID + "\x00" + deviceID
	ch := m.issuing.DoChan(key, func() (any, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constants.RefreshTokenIssueTimeout)
		defer cancel()
		return m.findOrCreate(flightCtx, opts, userID, deviceID, location)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Shared {
			incrementRefreshTokensIssueCollapsed()
		}
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (m *RefreshTokenManager) findOrCreate(ctx context.Context, opts Options, userID, deviceID, location string) (string, error) {
	params := LookupParams{DeviceID: &deviceID}

	existing, err := m.lookup.FindValid(ctx, userID, params)
	if err != nil {
		return "", err
	}
	if existing != nil {
		reusable, err := m.reusable(ctx, opts, existing)
		if err != nil {
			return "", err
		}
		if reusable {
			incrementRefreshTokensReused()
			m.log.WithFields(ctx, logger.Fields{
				"user_id":   userID,
				"device_id": deviceID,
				"token_id":  existing.ID,
				"action":    "refresh_token_reused",
			}).Debug("reusing existing refresh token")
			return existing.Token, nil
		}
	}

	token, err := m.auth.IssueToken(ctx, userID, opts.JWTOptions, opts.Secret)
	if err != nil {
		return "", newInternalError("REFRESH_TOKEN_ISSUE_FAILED", "failed to issue refresh token", err)
	}

	created, err := m.store.Create(ctx, authdomain.RefreshToken{
		UserID:   userID,
		Token:    token,
		IsValid:  true,
		DeviceID: deviceID,
		Location: location,
	})
	if errors.Is(err, authrepo.ErrDuplicateRefreshToken) {
		// another process created the record between our lookup and insert
		winner, lookupErr := m.lookup.FindValid(ctx, userID, params)
		if lookupErr != nil {
			return "", lookupErr
		}
		if winner != nil {
			incrementRefreshTokensReused()
			return winner.Token, nil
		}
	}
	if err != nil {
		m.log.WithFields(ctx, logger.Fields{
			"user_id":   userID,
			"device_id": deviceID,
			"action":    "refresh_token_create_failed",
		}).Errorf("failed to store refresh token: %v", err)
		return "", handleStoreError(err, "create refresh token")
	}

	incrementRefreshTokensIssued()
	m.log.WithFields(ctx, logger.Fields{
		"user_id":   userID,
		"device_id": deviceID,
		"token_id":  created.ID,
		"action":    "refresh_token_issued",
	}).Info("refresh token issued")

	return created.Token, nil
}

// reusable verifies a stored token before handing it out again. A token that
// no longer verifies (expired, or signed under old settings) is invalidated so
// the device can be issued a fresh one.
func (m *RefreshTokenManager) reusable(ctx context.Context, opts Options, record *authdomain.RefreshToken) (bool, error) {
	_, err := m.auth.VerifyToken(ctx, record.Token, opts.JWTOptions, opts.Secret)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, ErrInvalidToken) {
		return false, err
	}

	if _, err := m.store.Patch(ctx, record.ID, authdomain.Patch{IsValid: authdomain.Bool(false)}); err != nil &&
		!errors.Is(err, authrepo.ErrRefreshTokenNotFound) {
		return false, handleStoreError(err, "invalidate stale refresh token")
	}

	incrementRefreshTokensRevoked()
	m.log.WithFields(ctx, logger.Fields{
		"user_id":   record.UserID,
		"device_id": record.DeviceID,
		"token_id":  record.ID,
		"action":    "refresh_token_stale",
	}).Infof("stored refresh token no longer verifies, issuing a new one: %v", err)
	return false, nil
}
