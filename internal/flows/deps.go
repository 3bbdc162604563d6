package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/authcore/session"
)

// Deps groups flow dependency sets. The root engine builds this once and
// delegates request methods to the matching flow.
type Deps struct {
	Register      RegisterDeps
	Login         LoginDeps
	Logout        LogoutDeps
	Validate      ValidateDeps
	Access        AccessDeps
	Introspection IntrospectionDeps
}

// UserRecord is the flow-local user model. PasswordHash is read by the login
// flow only and must not reach host responses.
type UserRecord struct {
	ID           string
	Identity     string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// SessionService is the part of *session.Service the flows call.
type SessionService interface {
	Issue(ctx context.Context, userID string) (*session.Session, error)
	Validate(ctx context.Context, token string) (*session.Session, error)
	Revoke(ctx context.Context, token string) error
	RevokeAll(ctx context.Context, userID string) (int, error)
	List(ctx context.Context, userID string) ([]*session.Session, error)
	Ping(ctx context.Context) (time.Duration, error)
}

// FailureLogger receives failures the caller will only see as an opaque
// internal error. op names the step, for example "login.issue".
type FailureLogger func(ctx context.Context, op string, err error)

func noopMetric(int) {}

func noopLogger(context.Context, string, error) {}

// mapSessionErr turns a session service error into a host error. Token
// failures collapse to invalid; anything else is logged and hidden.
func mapSessionErr(ctx context.Context, op string, err error, invalid, internal error, log FailureLogger) error {
	if errors.Is(err, session.ErrInvalidToken) {
		return invalid
	}
	log(ctx, op, err)
	return internal
}
