package userstore

import (
	"context"
	"strings"
	"time"
)

// MaxIdentityBytes is the storage limit on a normalized identity.
const MaxIdentityBytes = 320

// User is a stored account. PasswordHash is an opaque PHC string.
type User struct {
	ID           string
	Identity     string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// CreateInput carries the fields a caller chooses when creating a user.
// ID and CreatedAt are assigned by the store.
type CreateInput struct {
	Identity     string
	PasswordHash string
	Role         string
}

// Store persists users. Identities are compared after NormalizeIdentity, and
// uniqueness is enforced by the store itself.
type Store interface {
	Create(ctx context.Context, in CreateInput) (*User, error)
	FindByIdentity(ctx context.Context, identity string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
}

// PasswordUpdater is implemented by stores that can replace a password hash
// in place, which lets the engine upgrade hashes after a successful login.
type PasswordUpdater interface {
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error
}

// NormalizeIdentity trims surrounding whitespace and lower-cases identity.
func NormalizeIdentity(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}

func validateInput(in CreateInput) (CreateInput, error) {
	in.Identity = NormalizeIdentity(in.Identity)
	if in.Identity == "" || len(in.Identity) > MaxIdentityBytes {
		return in, ErrInvalidIdentity
	}
	if in.PasswordHash == "" {
		return in, ErrEmptyPasswordHash
	}
	return in, nil
}
