package flows

import (
	"context"
	"time"

	"github.com/MrEthical07/authcore/session"
)

type ValidateMetrics struct {
	ValidateSuccess int
	ValidateFailure int
	ValidateLatency int
}

type ValidateErrors struct {
	EngineNotReady error
	InvalidToken   error
	Internal       error
}

// ValidateDeps captures token validation dependencies.
type ValidateDeps struct {
	Sessions SessionService

	MetricInc  func(int)
	Observe    func(int, time.Duration)
	LogFailure FailureLogger

	Metrics ValidateMetrics
	Errors  ValidateErrors
}

// RunValidate returns the session behind an active token. Backend failures
// are not counted as validation failures.
func RunValidate(ctx context.Context, token string, deps ValidateDeps) (*session.Session, error) {
	normalizeValidateDeps(&deps)
	if deps.Sessions == nil {
		return nil, deps.Errors.EngineNotReady
	}

	start := time.Now()
	defer func() {
		deps.Observe(deps.Metrics.ValidateLatency, time.Since(start))
	}()

	sess, err := deps.Sessions.Validate(ctx, token)
	if err != nil {
		mapped := mapSessionErr(ctx, "validate", err, deps.Errors.InvalidToken, deps.Errors.Internal, deps.LogFailure)
		if mapped == deps.Errors.InvalidToken {
			deps.MetricInc(deps.Metrics.ValidateFailure)
		}
		return nil, mapped
	}

	deps.MetricInc(deps.Metrics.ValidateSuccess)
	return sess, nil
}

func normalizeValidateDeps(deps *ValidateDeps) {
	if deps.MetricInc == nil {
		deps.MetricInc = noopMetric
	}
	if deps.Observe == nil {
		deps.Observe = func(int, time.Duration) {}
	}
	if deps.LogFailure == nil {
		deps.LogFailure = noopLogger
	}
}
