package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/authcore/session"
)

// LoginMetrics carries metric IDs needed by the login flow.
type LoginMetrics struct {
	LoginSuccess     int
	LoginFailure     int
	SessionCreated   int
	PasswordUpgraded int
}

type LoginErrors struct {
	EngineNotReady     error
	InvalidCredentials error
	Internal           error

	StoreNotFound error
}

// LoginDeps captures login dependencies. UpdatePasswordHash may be nil, which
// disables hash upgrades.
type LoginDeps struct {
	NormalizeIdentity func(string) string
	FindUser          func(ctx context.Context, identity string) (UserRecord, error)

	VerifyPassword     func(password, hash string) bool
	DecoyHash          string
	NeedsUpgrade       func(hash string) bool
	HashPassword       func(string) (string, error)
	UpdatePasswordHash func(ctx context.Context, userID, hash string) error

	Sessions SessionService

	MetricInc  func(int)
	LogFailure FailureLogger
	LogWarning FailureLogger

	Metrics LoginMetrics
	Errors  LoginErrors
}

// RunLogin checks the password and issues a session. An unknown identity is
// still compared against the decoy hash, and every mismatch returns the same
// error, so neither the response nor its timing says whether the user exists.
func RunLogin(ctx context.Context, identity, password string, deps LoginDeps) (*session.Session, error) {
	normalizeLoginDeps(&deps)

	if deps.NormalizeIdentity == nil || deps.FindUser == nil || deps.VerifyPassword == nil || deps.Sessions == nil || deps.DecoyHash == "" {
		return nil, deps.Errors.EngineNotReady
	}

	identity = deps.NormalizeIdentity(identity)

	var (
		user  UserRecord
		found bool
	)
	if identity != "" {
		rec, err := deps.FindUser(ctx, identity)
		switch {
		case err == nil:
			user, found = rec, true
		case deps.Errors.StoreNotFound != nil && errors.Is(err, deps.Errors.StoreNotFound):
		default:
			deps.LogFailure(ctx, "login.find_user", err)
			return nil, deps.Errors.Internal
		}
	}

	if !found {
		deps.VerifyPassword(password, deps.DecoyHash)
		deps.MetricInc(deps.Metrics.LoginFailure)
		return nil, deps.Errors.InvalidCredentials
	}
	if !deps.VerifyPassword(password, user.PasswordHash) {
		deps.MetricInc(deps.Metrics.LoginFailure)
		return nil, deps.Errors.InvalidCredentials
	}

	upgradePasswordHash(ctx, user, password, deps)

	sess, err := deps.Sessions.Issue(ctx, user.ID)
	if err != nil {
		deps.LogFailure(ctx, "login.issue", err)
		return nil, deps.Errors.Internal
	}

	deps.MetricInc(deps.Metrics.SessionCreated)
	deps.MetricInc(deps.Metrics.LoginSuccess)
	return sess, nil
}

// upgradePasswordHash is best-effort: a failure is logged and login goes on.
func upgradePasswordHash(ctx context.Context, user UserRecord, password string, deps LoginDeps) {
	if deps.UpdatePasswordHash == nil || deps.NeedsUpgrade == nil || deps.HashPassword == nil {
		return
	}
	if !deps.NeedsUpgrade(user.PasswordHash) {
		return
	}

	hash, err := deps.HashPassword(password)
	if err == nil {
		err = deps.UpdatePasswordHash(ctx, user.ID, hash)
	}
	if err != nil {
		deps.LogWarning(ctx, "login.upgrade_hash", err)
		return
	}
	deps.MetricInc(deps.Metrics.PasswordUpgraded)
}

func normalizeLoginDeps(deps *LoginDeps) {
	if deps.MetricInc == nil {
		deps.MetricInc = noopMetric
	}
	if deps.LogFailure == nil {
		deps.LogFailure = noopLogger
	}
	if deps.LogWarning == nil {
		deps.LogWarning = noopLogger
	}
}
