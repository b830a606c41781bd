package service

import (
	"context"
)

// RequireAuthentication is a before hook that authenticates hc.Authentication
// with one of strategies and exposes the authenticated entity as hc.User.
// Internal calls without credentials are let through unauthenticated.
func (s *AuthenticationService) RequireAuthentication(strategies ...string) Hook {
	return func(ctx context.Context, hc *HookContext) error {
		if hc.Phase != PhaseBefore {
			return ErrHookMisuse.WithMessage("authenticate must be used as a before hook")
		}
		if hc.Authentication.Strategy() == "" {
			if !hc.External {
				return nil
			}
			return ErrNotAuthenticated.WithMessage("not authenticated")
		}

		result, err := s.Authenticate(ctx, hc.Authentication, strategies...)
		if err != nil {
			return err
		}

		if entity, ok := result[s.cfg.Entity].(map[string]any); ok {
			hc.User = entity
		} else if id, ok := s.subjectOf(result); ok {
			hc.User = map[string]any{s.cfg.EntityID: id}
		}

		if token, ok := field(result, "accessToken"); ok && !hasField(hc.Authentication, "accessToken") {
			authentication := make(AuthRequest, len(hc.Authentication)+1)
			for k, v := range hc.Authentication {
				authentication[k] = v
			}
			authentication["accessToken"] = token
			hc.Authentication = authentication
		}
		return nil
	}
}
