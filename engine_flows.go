package authcore

import (
	"context"
	"time"

	internalflows "github.com/MrEthical07/authcore/internal/flows"
	"github.com/MrEthical07/authcore/session"
	"github.com/MrEthical07/authcore/userstore"
)

func (e *Engine) buildFlows() internalflows.Service {
	metricInc := func(id int) {
		e.metricInc(MetricID(id))
	}
	var sessions internalflows.SessionService = e.sessions

	return internalflows.New(internalflows.Deps{
		Register: internalflows.RegisterDeps{
			MaxIdentityLength: e.config.Credentials.MaxIdentityLength,
			NormalizeIdentity: userstore.NormalizeIdentity,
			CheckPassword:     e.config.Credentials.Policy.Check,
			HashPassword:      e.passwordHash.Hash,
			CreateUser:        e.createUser,
			MetricInc:         metricInc,
			LogFailure:        e.logFailure,
			Metrics: internalflows.RegisterMetrics{
				RegisterSuccess:   int(MetricRegisterSuccess),
				RegisterDuplicate: int(MetricRegisterDuplicate),
				RegisterRejected:  int(MetricRegisterRejected),
			},
			Errors: internalflows.RegisterErrors{
				EngineNotReady:       ErrEngineNotReady,
				WeakCredential:       ErrWeakCredential,
				DuplicateIdentity:    ErrDuplicateIdentity,
				Internal:             ErrInternal,
				StoreDuplicate:       userstore.ErrDuplicateIdentity,
				StoreInvalidIdentity: userstore.ErrInvalidIdentity,
			},
		},
		Login: internalflows.LoginDeps{
			NormalizeIdentity:  userstore.NormalizeIdentity,
			FindUser:           e.findUserByIdentity,
			VerifyPassword:     e.passwordHash.Verify,
			DecoyHash:          e.passwordHash.DecoyHash(),
			NeedsUpgrade:       e.passwordHash.NeedsUpgrade,
			HashPassword:       e.passwordHash.Hash,
			UpdatePasswordHash: e.passwordUpdater(),
			Sessions:           sessions,
			MetricInc:          metricInc,
			LogFailure:         e.logFailure,
			LogWarning:         e.logWarning,
			Metrics: internalflows.LoginMetrics{
				LoginSuccess:     int(MetricLoginSuccess),
				LoginFailure:     int(MetricLoginFailure),
				SessionCreated:   int(MetricSessionCreated),
				PasswordUpgraded: int(MetricPasswordUpgraded),
			},
			Errors: internalflows.LoginErrors{
				EngineNotReady:     ErrEngineNotReady,
				InvalidCredentials: ErrInvalidCredentials,
				Internal:           ErrInternal,
				StoreNotFound:      userstore.ErrNotFound,
			},
		},
		Logout: internalflows.LogoutDeps{
			Sessions:   sessions,
			MetricInc:  metricInc,
			LogFailure: e.logFailure,
			Metrics: internalflows.LogoutMetrics{
				Logout:    int(MetricLogout),
				LogoutAll: int(MetricLogoutAll),
			},
			Errors: internalflows.LogoutErrors{
				EngineNotReady: ErrEngineNotReady,
				InvalidToken:   ErrInvalidToken,
				Internal:       ErrInternal,
			},
		},
		Validate: internalflows.ValidateDeps{
			Sessions:  sessions,
			MetricInc: metricInc,
			Observe: func(id int, d time.Duration) {
				e.metrics.Observe(MetricID(id), d)
			},
			LogFailure: e.logFailure,
			Metrics: internalflows.ValidateMetrics{
				ValidateSuccess: int(MetricValidateSuccess),
				ValidateFailure: int(MetricValidateFailure),
				ValidateLatency: int(MetricValidateLatency),
			},
			Errors: internalflows.ValidateErrors{
				EngineNotReady: ErrEngineNotReady,
				InvalidToken:   ErrInvalidToken,
				Internal:       ErrInternal,
			},
		},
		Access: internalflows.AccessDeps{
			Sessions:     sessions,
			FindUserByID: e.findUserByID,
			AdminRole:    e.config.Access.AdminRole,
			MetricInc:    metricInc,
			LogFailure:   e.logFailure,
			Metrics: internalflows.AccessMetrics{
				AccessGranted:   int(MetricAccessGranted),
				AccessForbidden: int(MetricAccessForbidden),
				AccessNotFound:  int(MetricAccessNotFound),
			},
			Errors: internalflows.AccessErrors{
				EngineNotReady: ErrEngineNotReady,
				InvalidToken:   ErrInvalidToken,
				NotFound:       ErrNotFound,
				Forbidden:      ErrForbidden,
				Internal:       ErrInternal,
				StoreNotFound:  userstore.ErrNotFound,
			},
		},
		Introspection: internalflows.IntrospectionDeps{
			Sessions:   sessions,
			LogFailure: e.logFailure,
			Errors: internalflows.IntrospectionErrors{
				EngineNotReady: ErrEngineNotReady,
				InvalidToken:   ErrInvalidToken,
				Internal:       ErrInternal,
			},
		},
	})
}

func (e *Engine) createUser(ctx context.Context, identity, passwordHash string) (internalflows.UserRecord, error) {
	u, err := e.users.Create(ctx, userstore.CreateInput{
		Identity:     identity,
		PasswordHash: passwordHash,
	})
	if err != nil {
		return internalflows.UserRecord{}, err
	}
	return toUserRecord(u), nil
}

func (e *Engine) findUserByIdentity(ctx context.Context, identity string) (internalflows.UserRecord, error) {
	u, err := e.users.FindByIdentity(ctx, identity)
	if err != nil {
		return internalflows.UserRecord{}, err
	}
	return toUserRecord(u), nil
}

func (e *Engine) findUserByID(ctx context.Context, id string) (internalflows.UserRecord, error) {
	u, err := e.users.FindByID(ctx, id)
	if err != nil {
		return internalflows.UserRecord{}, err
	}
	return toUserRecord(u), nil
}

func (e *Engine) passwordUpdater() func(context.Context, string, string) error {
	if !e.config.Password.UpgradeOnLogin {
		return nil
	}
	updater, ok := e.users.(userstore.PasswordUpdater)
	if !ok {
		return nil
	}
	return updater.UpdatePasswordHash
}

func toUserRecord(u *userstore.User) internalflows.UserRecord {
	return internalflows.UserRecord{
		ID:           u.ID,
		Identity:     u.Identity,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		CreatedAt:    u.CreatedAt,
	}
}

var _ internalflows.SessionService = (*session.Service)(nil)
