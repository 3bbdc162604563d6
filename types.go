package authcore

import "time"

// User is the public view of an account. It never carries the password hash.
type User struct {
	ID        string    `json:"id"`
	Identity  string    `json:"identity"`
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Session describes one login. Token is set only where the caller already
// holds it: the Login result and a successful validation.
type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"token,omitempty"`
	UserID    string    `json:"userId"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// InvalidTokenMessage is the message of every failed ValidationResult.
const InvalidTokenMessage = "Invalid token"

// ValidationResult is the outcome of ValidateToken. Err is non-nil only for
// ErrInternal, when the token could not be checked at all.
type ValidationResult struct {
	Valid   bool     `json:"valid"`
	Session *Session `json:"session,omitempty"`
	Message string   `json:"message,omitempty"`
	Err     error    `json:"-"`
}

// HealthStatus reports session backend reachability.
type HealthStatus struct {
	SessionBackendAvailable bool
	SessionBackendLatency   time.Duration
}
