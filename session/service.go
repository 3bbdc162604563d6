package session

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/authcore/internal"
)

// DefaultTTL is the session lifetime used when Options.TTL is zero.
const DefaultTTL = 24 * time.Hour

const maxIssueAttempts = 3

// Backend persists session records. Implementations must make each method
// atomic with respect to the others for the same key.
type Backend interface {
	// Create stores rec if no record exists under rec.Key and reports
	// whether it did.
	Create(ctx context.Context, rec *Record, ttl time.Duration) (bool, error)
	// Get returns the live record under key or ErrNotFound.
	Get(ctx context.Context, key string, now time.Time) (*Record, error)
	// Revoke marks an unexpired, unrevoked record revoked or returns ErrNotFound.
	Revoke(ctx context.Context, key string, now time.Time) error
	// ListForUser returns the user's unexpired records, revoked included.
	ListForUser(ctx context.Context, userID string, now time.Time) ([]*Record, error)
	Ping(ctx context.Context) (time.Duration, error)
}

// Options configures a Service.
type Options struct {
	TTL time.Duration
	// Now is the single clock for issuing and validating. Defaults to time.Now.
	Now func() time.Time
}

// Service issues, validates and revokes opaque bearer tokens. A session is
// ACTIVE until it expires or is revoked, and never becomes ACTIVE again.
type Service struct {
	backend Backend
	ttl     time.Duration
	now     func() time.Time
}

// NewService wires a Service over backend.
func NewService(backend Backend, opts Options) (*Service, error) {
	if backend == nil {
		return nil, errors.New("session backend is required")
	}
	if opts.TTL < 0 {
		return nil, errors.New("session ttl must be >= 0")
	}
	if opts.TTL == 0 {
		opts.TTL = DefaultTTL
	}
	if opts.TTL < time.Millisecond {
		return nil, errors.New("session ttl must be at least 1ms")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Service{
		backend: backend,
		ttl:     opts.TTL,
		now:     opts.Now,
	}, nil
}

// TTL returns the configured session lifetime.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Issue mints a token for userID and stores its session. A key collision is
// retried with a fresh token; it is not expected to happen in practice.
func (s *Service) Issue(ctx context.Context, userID string) (*Session, error) {
	if userID == "" || len(userID) > maxUserIDLen {
		return nil, ErrInvalidUserID
	}

	now := s.now()
	for attempt := 0; attempt < maxIssueAttempts; attempt++ {
		token, hash, err := internal.NewToken()
		if err != nil {
			return nil, err
		}

		rec := &Record{
			Key:       hash.Hex(),
			UserID:    userID,
			IssuedAt:  now.UnixMilli(),
			ExpiresAt: now.Add(s.ttl).UnixMilli(),
		}

		created, err := s.backend.Create(ctx, rec, s.ttl)
		if err != nil {
			return nil, err
		}
		if created {
			return newSession(rec, token), nil
		}
	}

	return nil, ErrTokenCollision
}

// Validate returns the session behind an active token. Any token that is not
// active yields ErrInvalidToken; other errors are backend failures.
func (s *Service) Validate(ctx context.Context, token string) (*Session, error) {
	hash, ok := internal.HashToken(token)
	if !ok {
		return nil, ErrInvalidToken
	}

	now := s.now()
	rec, err := s.backend.Get(ctx, hash.Hex(), now)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !rec.Active(now) {
		return nil, ErrInvalidToken
	}

	return newSession(rec, token), nil
}

// Revoke ends an active session. Revoking a token that is unknown, expired or
// already revoked fails with ErrInvalidToken.
func (s *Service) Revoke(ctx context.Context, token string) error {
	hash, ok := internal.HashToken(token)
	if !ok {
		return ErrInvalidToken
	}

	if err := s.backend.Revoke(ctx, hash.Hex(), s.now()); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidToken
		}
		return err
	}
	return nil
}

// List returns the active sessions of userID, oldest first, without tokens.
func (s *Service) List(ctx context.Context, userID string) ([]*Session, error) {
	now := s.now()
	recs, err := s.backend.ListForUser(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	sessions := make([]*Session, 0, len(recs))
	for _, rec := range recs {
		if rec.Active(now) {
			sessions = append(sessions, newSession(rec, ""))
		}
	}
	return sessions, nil
}

// RevokeAll revokes every active session of userID and returns how many it
// revoked. Sessions issued while it runs may survive.
func (s *Service) RevokeAll(ctx context.Context, userID string) (int, error) {
	now := s.now()
	recs, err := s.backend.ListForUser(ctx, userID, now)
	if err != nil {
		return 0, err
	}

	revoked := 0
	for _, rec := range recs {
		if !rec.Active(now) {
			continue
		}
		if err := s.backend.Revoke(ctx, rec.Key, now); err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return revoked, err
		}
		revoked++
	}
	return revoked, nil
}

// Ping reports backend reachability and latency.
func (s *Service) Ping(ctx context.Context) (time.Duration, error) {
	return s.backend.Ping(ctx)
}
