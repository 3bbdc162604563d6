package flows

import "context"

type LogoutMetrics struct {
	Logout    int
	LogoutAll int
}

type LogoutErrors struct {
	EngineNotReady error
	InvalidToken   error
	Internal       error
}

// LogoutDeps captures logout dependencies.
type LogoutDeps struct {
	Sessions SessionService

	MetricInc  func(int)
	LogFailure FailureLogger

	Metrics LogoutMetrics
	Errors  LogoutErrors
}

// RunLogout revokes token. Unknown, expired and already revoked tokens fail
// alike with the invalid token error.
func RunLogout(ctx context.Context, token string, deps LogoutDeps) error {
	normalizeLogoutDeps(&deps)
	if deps.Sessions == nil {
		return deps.Errors.EngineNotReady
	}

	if err := deps.Sessions.Revoke(ctx, token); err != nil {
		return mapSessionErr(ctx, "logout.revoke", err, deps.Errors.InvalidToken, deps.Errors.Internal, deps.LogFailure)
	}

	deps.MetricInc(deps.Metrics.Logout)
	return nil
}

// RunLogoutAll revokes every active session of the user owning token, token
// included, and returns how many were revoked.
func RunLogoutAll(ctx context.Context, token string, deps LogoutDeps) (int, error) {
	normalizeLogoutDeps(&deps)
	if deps.Sessions == nil {
		return 0, deps.Errors.EngineNotReady
	}

	caller, err := deps.Sessions.Validate(ctx, token)
	if err != nil {
		return 0, mapSessionErr(ctx, "logout_all.validate", err, deps.Errors.InvalidToken, deps.Errors.Internal, deps.LogFailure)
	}

	n, err := deps.Sessions.RevokeAll(ctx, caller.UserID)
	if err != nil {
		deps.LogFailure(ctx, "logout_all.revoke", err)
		return 0, deps.Errors.Internal
	}

	deps.MetricInc(deps.Metrics.LogoutAll)
	return n, nil
}

func normalizeLogoutDeps(deps *LogoutDeps) {
	if deps.MetricInc == nil {
		deps.MetricInc = noopMetric
	}
	if deps.LogFailure == nil {
		deps.LogFailure = noopLogger
	}
}
