package authcore

import "context"

// LogoutAll revokes every active session of the user owning token, token
// included, and returns how many it revoked.
func (e *Engine) LogoutAll(ctx context.Context, token string) (int, error) {
	if !e.ready() {
		return 0, ErrEngineNotReady
	}

	ctx, span := e.startSpan(ctx, "authcore.LogoutAll")
	n, err := e.flows.LogoutAll(ctx, token)
	endSpan(span, err)
	return n, err
}

// ListSessions returns the active sessions of the user owning token, oldest
// first. Tokens are not included.
func (e *Engine) ListSessions(ctx context.Context, token string) ([]Session, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	ctx, span := e.startSpan(ctx, "authcore.ListSessions")
	list, err := e.flows.ListSessions(ctx, token)
	endSpan(span, err)
	if err != nil {
		return nil, err
	}

	out := make([]Session, 0, len(list))
	for _, s := range list {
		out = append(out, *toSession(s, false))
	}
	return out, nil
}

// Health pings the session backend.
func (e *Engine) Health(ctx context.Context) HealthStatus {
	if !e.ready() {
		return HealthStatus{}
	}

	h := e.flows.Health(ctx)
	return HealthStatus{
		SessionBackendAvailable: h.Available,
		SessionBackendLatency:   h.Latency,
	}
}
