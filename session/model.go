package session

import (
	"time"

	"github.com/MrEthical07/authcore/internal"
)

// Record is the stored form of a session. Key is the hex SHA-256 of the
// bearer token; the token itself is never stored.
type Record struct {
	Key       string
	UserID    string
	IssuedAt  int64 // unix ms
	ExpiresAt int64 // unix ms
	Revoked   bool
}

// Expired reports whether the record is past its expiry at now.
func (r *Record) Expired(now time.Time) bool {
	return now.UnixMilli() >= r.ExpiresAt
}

// Active reports whether the record may still authenticate a request.
func (r *Record) Active(now time.Time) bool {
	return !r.Revoked && !r.Expired(now)
}

// Session is the caller-facing view of a record. Token is only populated on
// the paths where the caller already holds it (Issue and Validate).
type Session struct {
	ID        string
	Token     string
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Revoked   bool
}

func newSession(rec *Record, token string) *Session {
	return &Session{
		ID:        sessionID(rec.Key),
		Token:     token,
		UserID:    rec.UserID,
		IssuedAt:  time.UnixMilli(rec.IssuedAt),
		ExpiresAt: time.UnixMilli(rec.ExpiresAt),
		Revoked:   rec.Revoked,
	}
}

func sessionID(key string) string {
	h, err := internal.ParseTokenHashHex(key)
	if err != nil {
		return ""
	}
	return h.SessionID()
}
