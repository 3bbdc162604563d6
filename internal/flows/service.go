package flows

import (
	"context"

	"github.com/MrEthical07/authcore/session"
)

// Service is the centralized flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Validate.Sessions != nil
}

func (s Service) Register(ctx context.Context, identity, password string) (UserRecord, error) {
	return RunRegister(ctx, identity, password, s.deps.Register)
}

func (s Service) Login(ctx context.Context, identity, password string) (*session.Session, error) {
	return RunLogin(ctx, identity, password, s.deps.Login)
}

func (s Service) Logout(ctx context.Context, token string) error {
	return RunLogout(ctx, token, s.deps.Logout)
}

func (s Service) LogoutAll(ctx context.Context, token string) (int, error) {
	return RunLogoutAll(ctx, token, s.deps.Logout)
}

func (s Service) Validate(ctx context.Context, token string) (*session.Session, error) {
	return RunValidate(ctx, token, s.deps.Validate)
}

func (s Service) GetUserByID(ctx context.Context, callerToken, requestedID string) (UserRecord, error) {
	return RunGetUserByID(ctx, callerToken, requestedID, s.deps.Access)
}

func (s Service) ListSessions(ctx context.Context, token string) ([]*session.Session, error) {
	return RunListSessions(ctx, token, s.deps.Introspection)
}

func (s Service) Health(ctx context.Context) HealthResult {
	return RunHealth(ctx, s.deps.Introspection)
}
