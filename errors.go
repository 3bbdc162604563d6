package authcore

import "errors"

var (
	// ErrDuplicateIdentity is returned by Register when the identity is taken.
	ErrDuplicateIdentity = errors.New("identity already registered")
	// ErrWeakCredential is returned by Register for an unusable identity or a
	// password below policy. The wrapped error names the rule that failed.
	ErrWeakCredential = errors.New("weak credential")
	// ErrInvalidCredentials is the single login failure. It never says whether
	// the identity exists.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken covers every token that is unknown, malformed, expired or revoked.
	ErrInvalidToken = errors.New("invalid token")
	// ErrNotFound is returned by the access guard for an unknown user id.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned by the access guard when the caller may not read the user.
	ErrForbidden = errors.New("forbidden")
	// ErrInternal hides storage and other unexpected failures from callers.
	// The cause is logged, never returned.
	ErrInternal = errors.New("internal error")
	// ErrEngineNotReady is returned by methods on a nil or partially built Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)
