package flows

import (
	"context"
	"errors"
)

type AccessMetrics struct {
	AccessGranted   int
	AccessForbidden int
	AccessNotFound  int
}

type AccessErrors struct {
	EngineNotReady error
	InvalidToken   error
	NotFound       error
	Forbidden      error
	Internal       error

	StoreNotFound error
}

// AccessDeps captures the user lookup guard. An empty AdminRole means only
// self-lookups are allowed.
type AccessDeps struct {
	Sessions     SessionService
	FindUserByID func(ctx context.Context, id string) (UserRecord, error)
	AdminRole    string

	MetricInc  func(int)
	LogFailure FailureLogger

	Metrics AccessMetrics
	Errors  AccessErrors
}

// RunGetUserByID returns the user requestedID on behalf of the session behind
// callerToken. Checks run in a fixed order: the caller session must be
// active, then the user must exist, then the caller must be that user or hold
// the admin role.
func RunGetUserByID(ctx context.Context, callerToken, requestedID string, deps AccessDeps) (UserRecord, error) {
	normalizeAccessDeps(&deps)
	if deps.Sessions == nil || deps.FindUserByID == nil {
		return UserRecord{}, deps.Errors.EngineNotReady
	}

	caller, err := deps.Sessions.Validate(ctx, callerToken)
	if err != nil {
		return UserRecord{}, mapSessionErr(ctx, "access.validate", err, deps.Errors.InvalidToken, deps.Errors.Internal, deps.LogFailure)
	}

	target, err := deps.FindUserByID(ctx, requestedID)
	if err != nil {
		if deps.isNotFound(err) {
			deps.MetricInc(deps.Metrics.AccessNotFound)
			return UserRecord{}, deps.Errors.NotFound
		}
		deps.LogFailure(ctx, "access.find_target", err)
		return UserRecord{}, deps.Errors.Internal
	}

	if caller.UserID == target.ID {
		deps.MetricInc(deps.Metrics.AccessGranted)
		return target, nil
	}

	if deps.AdminRole != "" {
		self, err := deps.FindUserByID(ctx, caller.UserID)
		switch {
		case err == nil:
			if self.Role == deps.AdminRole {
				deps.MetricInc(deps.Metrics.AccessGranted)
				return target, nil
			}
		case deps.isNotFound(err):
		default:
			deps.LogFailure(ctx, "access.find_caller", err)
			return UserRecord{}, deps.Errors.Internal
		}
	}

	deps.MetricInc(deps.Metrics.AccessForbidden)
	return UserRecord{}, deps.Errors.Forbidden
}

func (deps AccessDeps) isNotFound(err error) bool {
	return deps.Errors.StoreNotFound != nil && errors.Is(err, deps.Errors.StoreNotFound)
}

func normalizeAccessDeps(deps *AccessDeps) {
	if deps.MetricInc == nil {
		deps.MetricInc = noopMetric
	}
	if deps.LogFailure == nil {
		deps.LogFailure = noopLogger
	}
}
