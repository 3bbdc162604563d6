// Package config loads the authcored process settings from the environment.
package config

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/authcore"
	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Config holds runtime configuration for the authcored service. An empty
// RedisAddr keeps sessions in process memory; an empty DBDSN keeps users in
// process memory.
type Config struct {
	Addr           string   `env:"ADDR,default=:8080"`
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS,default=*"`
	OTLPEndpoint   string   `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	LogLevel       string   `env:"LOG_LEVEL,default=info"`
	LogFormat      string   `env:"LOG_FORMAT,default=json"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB,default=0"`
	DBDSN         string `env:"DB_DSN"`

	SessionTTL          time.Duration `env:"SESSION_TTL,default=24h"`
	SessionReapInterval time.Duration `env:"SESSION_REAP_INTERVAL,default=1m"`
	AdminRole           string        `env:"ADMIN_ROLE"`
	MetricsEnabled      bool          `env:"METRICS_ENABLED,default=true"`
	MetricsPushInterval time.Duration `env:"METRICS_PUSH_INTERVAL,default=30s"`

	Argon2MemoryKB    uint32 `env:"ARGON2_MEMORY_KB,default=65536"`
	Argon2Time        uint32 `env:"ARGON2_TIME,default=3"`
	Argon2Parallelism uint8  `env:"ARGON2_PARALLELISM,default=2"`
}

// Load reads .env when present, then the environment.
func Load(ctx context.Context) (Config, error) {
	_ = godotenv.Load()
	return Process(ctx, nil)
}

// Process populates a Config from lookuper, or from the OS environment when
// lookuper is nil.
func Process(ctx context.Context, lookuper envconfig.Lookuper) (Config, error) {
	if lookuper == nil {
		lookuper = envconfig.OsLookuper()
	}

	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return Config{}, err
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		return Config{}, errors.New("LOG_FORMAT must be json or console")
	}
	return cfg, nil
}

// Engine maps the process settings onto an engine configuration.
func (c Config) Engine() authcore.Config {
	cfg := authcore.DefaultConfig()
	cfg.Session.TTL = c.SessionTTL
	cfg.Session.ReapInterval = c.SessionReapInterval
	cfg.Password.Memory = c.Argon2MemoryKB
	cfg.Password.Time = c.Argon2Time
	cfg.Password.Parallelism = c.Argon2Parallelism
	cfg.Access.AdminRole = c.AdminRole
	cfg.Metrics.Enabled = c.MetricsEnabled
	return cfg
}
