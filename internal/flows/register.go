package flows

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"
)

type RegisterMetrics struct {
	RegisterSuccess   int
	RegisterDuplicate int
	RegisterRejected  int
}

type RegisterErrors struct {
	EngineNotReady    error
	WeakCredential    error
	DuplicateIdentity error
	Internal          error

	// Store-level sentinels recognized on CreateUser errors.
	StoreDuplicate       error
	StoreInvalidIdentity error
}

// RegisterDeps captures registration dependencies.
type RegisterDeps struct {
	MaxIdentityLength int

	NormalizeIdentity func(string) string
	CheckPassword     func(string) error
	HashPassword      func(string) (string, error)
	CreateUser        func(ctx context.Context, identity, passwordHash string) (UserRecord, error)

	MetricInc  func(int)
	LogFailure FailureLogger

	Metrics RegisterMetrics
	Errors  RegisterErrors
}

// RunRegister validates the identity and password, hashes the password and
// creates the user. Every rejection before the store is a weak credential;
// the store alone decides duplicates.
func RunRegister(ctx context.Context, identity, password string, deps RegisterDeps) (UserRecord, error) {
	normalizeRegisterDeps(&deps)

	if deps.NormalizeIdentity == nil || deps.CheckPassword == nil || deps.HashPassword == nil || deps.CreateUser == nil {
		return UserRecord{}, deps.Errors.EngineNotReady
	}

	identity = deps.NormalizeIdentity(identity)
	if identity == "" {
		deps.MetricInc(deps.Metrics.RegisterRejected)
		return UserRecord{}, fmt.Errorf("%w: identity is empty", deps.Errors.WeakCredential)
	}
	if deps.MaxIdentityLength > 0 && utf8.RuneCountInString(identity) > deps.MaxIdentityLength {
		deps.MetricInc(deps.Metrics.RegisterRejected)
		return UserRecord{}, fmt.Errorf("%w: identity longer than %d characters", deps.Errors.WeakCredential, deps.MaxIdentityLength)
	}
	if err := deps.CheckPassword(password); err != nil {
		deps.MetricInc(deps.Metrics.RegisterRejected)
		return UserRecord{}, fmt.Errorf("%w: %w", deps.Errors.WeakCredential, err)
	}

	hash, err := deps.HashPassword(password)
	if err != nil {
		deps.LogFailure(ctx, "register.hash", err)
		return UserRecord{}, deps.Errors.Internal
	}

	user, err := deps.CreateUser(ctx, identity, hash)
	if err != nil {
		switch {
		case deps.Errors.StoreDuplicate != nil && errors.Is(err, deps.Errors.StoreDuplicate):
			deps.MetricInc(deps.Metrics.RegisterDuplicate)
			return UserRecord{}, deps.Errors.DuplicateIdentity
		case deps.Errors.StoreInvalidIdentity != nil && errors.Is(err, deps.Errors.StoreInvalidIdentity):
			deps.MetricInc(deps.Metrics.RegisterRejected)
			return UserRecord{}, fmt.Errorf("%w: %w", deps.Errors.WeakCredential, err)
		default:
			deps.LogFailure(ctx, "register.create", err)
			return UserRecord{}, deps.Errors.Internal
		}
	}

	deps.MetricInc(deps.Metrics.RegisterSuccess)
	return user, nil
}

func normalizeRegisterDeps(deps *RegisterDeps) {
	if deps.MetricInc == nil {
		deps.MetricInc = noopMetric
	}
	if deps.LogFailure == nil {
		deps.LogFailure = noopLogger
	}
}
