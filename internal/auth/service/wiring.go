package service

// Wire registers the refresh-token hooks: issuance after authentication,
// renewal on create, revocation on patch and logout around remove. Patch,
// remove and find authenticate with strategies first (jwt when none given).
func Wire(auth *AuthenticationService, tokens *RefreshTokenService, manager *RefreshTokenManager, strategies ...string) {
	if len(strategies) == 0 {
		strategies = []string{StrategyJWT}
	}
	authenticate := auth.RequireAuthentication(strategies...)

	auth.Hooks().Use(PhaseAfter, MethodCreate, manager.IssueRefreshToken())

	hooks := tokens.Hooks()
	hooks.Use(PhaseBefore, MethodCreate, manager.RefreshAccessToken())
	hooks.Use(PhaseBefore, MethodPatch, authenticate, manager.RevokeRefreshToken())
	hooks.Use(PhaseBefore, MethodRemove, authenticate, manager.LogoutUser())
	hooks.Use(PhaseAfter, MethodRemove, manager.LogoutUser())
	hooks.Use(PhaseBefore, MethodFind, authenticate, manager.ScopeToUser())
}
