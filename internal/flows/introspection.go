package flows

import (
	"context"
	"time"

	"github.com/MrEthical07/authcore/session"
)

type IntrospectionErrors struct {
	EngineNotReady error
	InvalidToken   error
	Internal       error
}

type IntrospectionDeps struct {
	Sessions   SessionService
	LogFailure FailureLogger
	Errors     IntrospectionErrors
}

// HealthResult is the flow-local health report.
type HealthResult struct {
	Available bool
	Latency   time.Duration
}

// RunListSessions returns the active sessions of the user owning token.
func RunListSessions(ctx context.Context, token string, deps IntrospectionDeps) ([]*session.Session, error) {
	if deps.LogFailure == nil {
		deps.LogFailure = noopLogger
	}
	if deps.Sessions == nil {
		return nil, deps.Errors.EngineNotReady
	}

	caller, err := deps.Sessions.Validate(ctx, token)
	if err != nil {
		return nil, mapSessionErr(ctx, "sessions.validate", err, deps.Errors.InvalidToken, deps.Errors.Internal, deps.LogFailure)
	}

	sessions, err := deps.Sessions.List(ctx, caller.UserID)
	if err != nil {
		deps.LogFailure(ctx, "sessions.list", err)
		return nil, deps.Errors.Internal
	}
	return sessions, nil
}

// RunHealth pings the session backend.
func RunHealth(ctx context.Context, deps IntrospectionDeps) HealthResult {
	if deps.Sessions == nil {
		return HealthResult{}
	}

	latency, err := deps.Sessions.Ping(ctx)
	return HealthResult{
		Available: err == nil,
		Latency:   latency,
	}
}
