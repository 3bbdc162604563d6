package authcore

import (
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/authcore/password"
	"github.com/MrEthical07/authcore/session"
	"github.com/MrEthical07/authcore/userstore"
)

// Config holds every engine setting.
//
// Config instances are intended to be configured during initialization and then treated as immutable.
type Config struct {
	Session     SessionConfig
	Password    PasswordConfig
	Credentials CredentialsConfig
	Access      AccessConfig
	Metrics     MetricsConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls token lifetime and the session backend.
type SessionConfig struct {
	TTL         time.Duration
	RedisPrefix string
	// ReapInterval is how often the in-memory backend sweeps expired
	// sessions. It is ignored when Redis is configured; Redis expires keys itself.
	ReapInterval time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds the Argon2id cost parameters.
type PasswordConfig struct {
	Memory         uint32 // in KB
	Time           uint32
	Parallelism    uint8
	SaltLength     uint32
	KeyLength      uint32
	UpgradeOnLogin bool
}

/*
====================================
CREDENTIALS CONFIG
====================================
*/

// CredentialsConfig bounds what Register accepts.
type CredentialsConfig struct {
	// MaxIdentityLength is counted in characters after normalization.
	MaxIdentityLength int
	Policy            password.Policy
}

/*
====================================
ACCESS CONFIG
====================================
*/

// AccessConfig controls the user lookup guard.
type AccessConfig struct {
	// AdminRole lets users with this role read any user. Empty disables it,
	// so only self-lookups succeed.
	AdminRole string
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig toggles the in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

const defaultMaxIdentityLength = 254

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			TTL:          session.DefaultTTL,
			RedisPrefix:  session.DefaultRedisPrefix,
			ReapInterval: time.Minute,
		},
		Password: PasswordConfig{
			Memory:         65536,
			Time:           3,
			Parallelism:    2,
			SaltLength:     16,
			KeyLength:      32,
			UpgradeOnLogin: true,
		},
		Credentials: CredentialsConfig{
			MaxIdentityLength: defaultMaxIdentityLength,
			Policy:            password.DefaultPolicy(),
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// DefaultConfig returns the configuration used by New.
func DefaultConfig() Config {
	return defaultConfig()
}

func cloneConfig(cfg Config) Config {
	return cfg
}

func (c PasswordConfig) argon2() password.Config {
	return password.Config{
		Memory:      c.Memory,
		Time:        c.Time,
		Parallelism: c.Parallelism,
		SaltLength:  c.SaltLength,
		KeyLength:   c.KeyLength,
	}
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	// Session
	if c.Session.TTL < time.Second {
		return errors.New("Session TTL must be >= 1s")
	}
	if c.Session.RedisPrefix == "" {
		return errors.New("Session RedisPrefix must not be empty")
	}
	if c.Session.ReapInterval < 0 {
		return errors.New("Session ReapInterval must be >= 0")
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}

	// Credentials
	if c.Credentials.MaxIdentityLength < 1 {
		return errors.New("Credentials MaxIdentityLength must be >= 1")
	}
	if c.Credentials.MaxIdentityLength > userstore.MaxIdentityBytes {
		return fmt.Errorf("Credentials MaxIdentityLength must be <= %d", userstore.MaxIdentityBytes)
	}
	if c.Credentials.Policy.MinLength < 1 {
		return errors.New("Credentials Policy MinLength must be >= 1")
	}
	if c.Credentials.Policy.MaxBytes < c.Credentials.Policy.MinLength {
		return errors.New("Credentials Policy MaxBytes must be >= MinLength")
	}
	if c.Credentials.Policy.MaxBytes > password.DefaultMaxPasswordBytes {
		return fmt.Errorf("Credentials Policy MaxBytes must be <= %d", password.DefaultMaxPasswordBytes)
	}
	if c.Credentials.Policy.MinClasses < 0 || c.Credentials.Policy.MinClasses > 4 {
		return errors.New("Credentials Policy MinClasses must be between 0 and 4")
	}

	// Metrics
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}
