package authcore

import (
	"context"
	"errors"

	internalflows "github.com/MrEthical07/authcore/internal/flows"
	"github.com/MrEthical07/authcore/password"
	"github.com/MrEthical07/authcore/session"
	"github.com/MrEthical07/authcore/userstore"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Engine registers users, logs them in and out, and validates their bearer
// tokens. It is safe for concurrent use.
type Engine struct {
	config       Config
	users        userstore.Store
	sessions     *session.Service
	memStore     *session.MemoryStore
	passwordHash *password.Argon2
	metrics      *Metrics
	logger       zerolog.Logger
	tracer       trace.Tracer
	flows        internalflows.Service
}

// Close stops background work owned by the engine. It does not close
// injected Redis clients or user stores.
func (e *Engine) Close() {
	if e == nil || e.memStore == nil {
		return
	}
	_ = e.memStore.Close()
}

// MetricsSnapshot returns a copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return (*Metrics)(nil).Snapshot()
	}
	return e.metrics.Snapshot()
}

// Config returns a copy of the active configuration.
func (e *Engine) Config() Config {
	if e == nil {
		return Config{}
	}
	return cloneConfig(e.config)
}

func (e *Engine) ready() bool {
	return e != nil && e.flows.Initialized()
}

// Register creates a user. The identity is trimmed and lower-cased before
// use. It fails with ErrWeakCredential for an empty or over-long identity or
// a password below policy, and with ErrDuplicateIdentity when the identity is
// taken.
func (e *Engine) Register(ctx context.Context, identity, password string) (*User, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	ctx, span := e.startSpan(ctx, "authcore.Register")
	rec, err := e.flows.Register(ctx, identity, password)
	if err == nil {
		span.SetAttributes(attribute.String("authcore.user_id", rec.ID))
	}
	endSpan(span, err)
	if err != nil {
		return nil, err
	}

	return toUser(rec), nil
}

// Login verifies the password and issues a session. Unknown identities and
// wrong passwords both fail with ErrInvalidCredentials after comparable work.
func (e *Engine) Login(ctx context.Context, identity, password string) (*Session, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	ctx, span := e.startSpan(ctx, "authcore.Login")
	sess, err := e.flows.Login(ctx, identity, password)
	if err == nil {
		span.SetAttributes(attribute.String("authcore.session_id", sess.ID))
	}
	endSpan(span, err)
	if err != nil {
		return nil, err
	}

	return toSession(sess, true), nil
}

// Logout revokes token. Revoking an unknown, expired or already revoked
// token fails with ErrInvalidToken every time.
func (e *Engine) Logout(ctx context.Context, token string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	ctx, span := e.startSpan(ctx, "authcore.Logout")
	err := e.flows.Logout(ctx, token)
	endSpan(span, err)
	return err
}

// Validate returns the session behind an active token. It fails with
// ErrInvalidToken or, when the backend cannot answer, ErrInternal.
func (e *Engine) Validate(ctx context.Context, token string) (*Session, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	ctx, span := e.startSpan(ctx, "authcore.Validate")
	sess, err := e.flows.Validate(ctx, token)
	endSpan(span, err)
	if err != nil {
		return nil, err
	}

	return toSession(sess, true), nil
}

// ValidateToken is Validate as a structured result. It never returns an
// invalid result with a reason beyond InvalidTokenMessage.
func (e *Engine) ValidateToken(ctx context.Context, token string) ValidationResult {
	sess, err := e.Validate(ctx, token)
	switch {
	case err == nil:
		return ValidationResult{Valid: true, Session: sess}
	case errors.Is(err, ErrInvalidToken):
		return ValidationResult{Message: InvalidTokenMessage}
	default:
		return ValidationResult{Err: err}
	}
}

func (e *Engine) metricInc(id MetricID) {
	e.metrics.Inc(id)
}

func (e *Engine) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	ctx, span := e.tracer.Start(ctx, name)
	if ip := clientIPFromContext(ctx); ip != "" {
		span.SetAttributes(attribute.String("client.address", ip))
	}
	return ctx, span
}

// endSpan marks only internal failures as span errors; credential and token
// rejections are normal outcomes.
func endSpan(span trace.Span, err error) {
	defer span.End()

	switch {
	case err == nil:
		span.SetStatus(codes.Ok, "")
	case errors.Is(err, ErrInternal), errors.Is(err, ErrEngineNotReady):
		span.SetStatus(codes.Error, err.Error())
	default:
		span.SetAttributes(attribute.String("authcore.rejection", err.Error()))
	}
}

func (e *Engine) logFailure(ctx context.Context, op string, err error) {
	e.metricInc(MetricInternalError)
	e.logEvent(ctx, e.logger.Error(), op, err).Msg("authcore operation failed")
}

func (e *Engine) logWarning(ctx context.Context, op string, err error) {
	e.logEvent(ctx, e.logger.Warn(), op, err).Msg("authcore best-effort step failed")
}

func (e *Engine) logEvent(ctx context.Context, ev *zerolog.Event, op string, err error) *zerolog.Event {
	ev = ev.Err(err).Str("op", op)
	if id := requestIDFromContext(ctx); id != "" {
		ev = ev.Str("request_id", id)
	}
	if ip := clientIPFromContext(ctx); ip != "" {
		ev = ev.Str("client_ip", ip)
	}
	return ev
}

func toUser(rec internalflows.UserRecord) *User {
	return &User{
		ID:        rec.ID,
		Identity:  rec.Identity,
		Role:      rec.Role,
		CreatedAt: rec.CreatedAt,
	}
}

func toSession(s *session.Session, withToken bool) *Session {
	out := &Session{
		ID:        s.ID,
		UserID:    s.UserID,
		IssuedAt:  s.IssuedAt,
		ExpiresAt: s.ExpiresAt,
	}
	if withToken {
		out.Token = s.Token
	}
	return out
}
