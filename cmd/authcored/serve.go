package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/httpapi"
	"github.com/MrEthical07/authcore/internal/config"
	"github.com/MrEthical07/authcore/internal/telemetry"
	authotel "github.com/MrEthical07/authcore/metrics/export/otel"
	"github.com/MrEthical07/authcore/userstore"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, logger, migrate)
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", true, "apply database migrations before serving when DB_DSN is set")
	return cmd
}

func serve(ctx context.Context, cfg config.Config, logger zerolog.Logger, migrate bool) error {
	shutdownTracing, err := telemetry.Init(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown tracing")
		}
	}()

	meterProvider, shutdownMetrics, err := telemetry.InitMetrics(ctx, serviceName, cfg.OTLPEndpoint, cfg.MetricsPushInterval)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownMetrics(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown metrics")
		}
	}()

	builder := authcore.New().
		WithConfig(cfg.Engine()).
		WithLogger(logger)

	if cfg.DBDSN != "" {
		db, err := openDB(ctx, cfg.DBDSN)
		if err != nil {
			return err
		}
		defer func() {
			if err := db.Close(); err != nil {
				logger.Error().Err(err).Msg("close database")
			}
		}()
		if migrate {
			if err := userstore.RunMigrations(ctx, db); err != nil {
				return err
			}
		}
		builder = builder.WithUserStore(userstore.NewPostgresStore(db))
		logger.Info().Msg("using postgres credential store")
	} else {
		logger.Warn().Msg("DB_DSN not set, users are kept in memory")
	}

	if cfg.RedisAddr != "" {
		client, err := openRedis(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := client.Close(); err != nil {
				logger.Error().Err(err).Msg("close redis")
			}
		}()
		builder = builder.WithRedis(client)
		logger.Info().Str("addr", cfg.RedisAddr).Msg("using redis session backend")
	} else {
		logger.Warn().Msg("REDIS_ADDR not set, sessions are kept in memory")
	}

	engine, err := builder.Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	if meterProvider != nil {
		exporter, err := authotel.NewOTelExporter(meterProvider.Meter(serviceName), engine)
		if err != nil {
			return err
		}
		defer func() { _ = exporter.Close() }()
		logger.Info().Str("endpoint", cfg.OTLPEndpoint).Msg("pushing engine metrics over OTLP")
	}

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: httpapi.Router(httpapi.RouterOptions{
			Engine:         engine,
			AllowedOrigins: cfg.AllowedOrigins,
			Logger:         logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Addr).Msg("starting " + serviceName)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown server")
	}
	return nil
}
