package authcore

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
)

// GetUserByID returns the user requestedID to the holder of callerToken.
//
// Checks run in order. The caller's session must be active (ErrInvalidToken),
// the user must exist (ErrNotFound), and the caller must be that user or
// hold Access.AdminRole (ErrForbidden). A caller without a valid session
// learns nothing about whether requestedID exists.
func (e *Engine) GetUserByID(ctx context.Context, callerToken, requestedID string) (*User, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	ctx, span := e.startSpan(ctx, "authcore.GetUserByID")
	span.SetAttributes(attribute.String("authcore.requested_user_id", requestedID))
	rec, err := e.flows.GetUserByID(ctx, callerToken, requestedID)
	endSpan(span, err)
	if err != nil {
		return nil, err
	}

	return toUser(rec), nil
}

// GetUserByIDForSession is GetUserByID for a caller session already resolved
// by middleware. The session is validated again, so a token revoked since
// is refused.
func (e *Engine) GetUserByIDForSession(ctx context.Context, caller *Session, requestedID string) (*User, error) {
	if caller == nil || caller.Token == "" {
		return nil, ErrInvalidToken
	}
	return e.GetUserByID(ctx, caller.Token, requestedID)
}
