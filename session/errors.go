package session

import "errors"

var (
	// ErrInvalidToken is the only failure a token operation reports to callers.
	// Unknown, malformed, expired and revoked tokens are indistinguishable.
	ErrInvalidToken = errors.New("invalid token")

	// ErrNotFound is returned by a Backend when no live record exists for a key.
	ErrNotFound = errors.New("session not found")

	// ErrRedisUnavailable wraps every transport failure of the Redis backend.
	ErrRedisUnavailable = errors.New("redis unavailable")

	// ErrCorrupt is returned when a stored record cannot be decoded.
	ErrCorrupt = errors.New("session record corrupt")

	// ErrTokenCollision is returned when Issue could not find a free key.
	ErrTokenCollision = errors.New("token collision")

	// ErrInvalidUserID is returned by Issue for an empty or oversized user id.
	ErrInvalidUserID = errors.New("invalid session user id")

	// ErrInvalidKey is returned by a Backend asked to store a key that is not a token hash.
	ErrInvalidKey = errors.New("invalid session key")
)
