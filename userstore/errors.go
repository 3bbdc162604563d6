package userstore

import "errors"

var (
	// ErrDuplicateIdentity is returned by Create when the normalized identity is taken.
	ErrDuplicateIdentity = errors.New("identity already exists")
	// ErrNotFound is returned by lookups that match no user.
	ErrNotFound = errors.New("user not found")
	// ErrInvalidIdentity is returned for an empty or oversized identity.
	ErrInvalidIdentity = errors.New("invalid identity")
	// ErrEmptyPasswordHash is returned when Create gets no hash.
	ErrEmptyPasswordHash = errors.New("password hash is required")
)
