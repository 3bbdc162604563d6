package authcore

import (
	"errors"
	"time"

	"github.com/MrEthical07/authcore/password"
	"github.com/MrEthical07/authcore/session"
	"github.com/MrEthical07/authcore/userstore"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/MrEthical07/authcore"

// Builder assembles an Engine. A Builder can build exactly once.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	users          userstore.Store
	logger         zerolog.Logger
	clock          func() time.Time
	tracerProvider trace.TracerProvider

	built bool
}

// New returns a Builder holding DefaultConfig, an in-memory user store and
// an in-memory session backend.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
		logger: zerolog.Nop(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis stores sessions in Redis instead of process memory.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithUserStore sets the credential store. Stores that also implement
// userstore.PasswordUpdater get hashes upgraded on login.
func (b *Builder) WithUserStore(store userstore.Store) *Builder {
	b.users = store
	return b
}

// WithLogger sets the logger for internal failures. Plaintext passwords and
// tokens are never logged.
func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock replaces time.Now for session issuing, validation and reaping.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// WithTracerProvider sets where engine spans go. Defaults to the global provider.
func (b *Builder) WithTracerProvider(tp trace.TracerProvider) *Builder {
	b.tracerProvider = tp
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the validate latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the Engine. Without Redis it
// starts a reaper for the in-memory session backend; Engine.Close stops it.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	clock := b.clock
	if clock == nil {
		clock = time.Now
	}
	tp := b.tracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	// -------- PASSWORD HASHER --------
	hasher, err := password.NewArgon2(cfg.Password.argon2())
	if err != nil {
		return nil, err
	}

	// -------- SESSION BACKEND --------
	var (
		backend  session.Backend
		memStore *session.MemoryStore
	)
	if b.redis != nil {
		backend = session.NewRedisStore(b.redis, cfg.Session.RedisPrefix)
	} else {
		memStore = session.NewMemoryStore()
		backend = memStore
	}

	sessions, err := session.NewService(backend, session.Options{
		TTL: cfg.Session.TTL,
		Now: clock,
	})
	if err != nil {
		return nil, err
	}

	if memStore != nil && cfg.Session.ReapInterval > 0 {
		if err := memStore.StartReaper(cfg.Session.ReapInterval, clock); err != nil {
			return nil, err
		}
	}

	// -------- USER STORE --------
	users := b.users
	if users == nil {
		users = userstore.NewMemoryStore()
	}

	engine := &Engine{
		config:       cfg,
		users:        users,
		sessions:     sessions,
		memStore:     memStore,
		passwordHash: hasher,
		metrics:      NewMetrics(cfg.Metrics),
		logger:       b.logger,
		tracer:       tp.Tracer(tracerName),
	}
	engine.flows = engine.buildFlows()

	b.built = true

	return engine, nil
}
