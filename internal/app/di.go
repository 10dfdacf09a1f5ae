package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"stock-trades/internal/manifest"
	"stock-trades/internal/metrics"
	"stock-trades/internal/pipeline"
	"stock-trades/internal/redisx"
	"stock-trades/internal/simulate"
	"stock-trades/internal/slogx"
	"stock-trades/internal/storage"
	"stock-trades/internal/storage/s3blob"
	"stock-trades/internal/tickers"
)

// ProvideConfig loads config from .env, config.yaml and environment (for Wire).
func ProvideConfig() (*Config, error) {
	return LoadConfig()
}

// ProvideLogger builds the process logger from config (for Wire).
func ProvideLogger(cfg *Config) *slog.Logger {
	return slogx.NewDefault(cfg.LogLevel, cfg.LogFormat)
}

// ProvideBackend creates the storage backend selected by storage.backend (for Wire).
func ProvideBackend(ctx context.Context, cfg *Config, log *slog.Logger) (storage.Backend, error) {
	switch cfg.Storage.Backend {
	case "s3":
		s := cfg.Storage.S3
		b, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       s.Endpoint,
			Region:         s.Region,
			Bucket:         s.Bucket,
			Prefix:         s.Prefix,
			AccessKey:      s.AccessKey,
			SecretKey:      s.SecretKey,
			UseSSL:         s.UseSSL,
			ForcePathStyle: s.ForcePathStyle,
		})
		if err != nil {
			return nil, err
		}
		if err := b.Health(ctx); err != nil {
			return nil, err
		}
		log.Info("storage", "backend", "s3", "bucket", s.Bucket, "prefix", s.Prefix)
		return b, nil
	default:
		log.Info("storage", "backend", "local", "root", cfg.Storage.LocalRoot)
		return storage.NewLocal(cfg.Storage.LocalRoot), nil
	}
}

// ProvideRedis connects to Redis when redis.addr is set. It returns a nil client otherwise;
// consumers fall back to their local implementations (for Wire).
func ProvideRedis(ctx context.Context, cfg *Config) (*redisx.Client, func(), error) {
	if cfg.Redis.Addr == "" {
		return nil, func() {}, nil
	}
	c, err := redisx.New(ctx, redisx.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		return nil, nil, err
	}
	return c, func() { _ = c.Close() }, nil
}

// ProvideTickerStore picks the ticker store from tickers.store (for Wire).
func ProvideTickerStore(ctx context.Context, cfg *Config, rc *redisx.Client) (tickers.Store, error) {
	if cfg.Tickers.Store != "redis" {
		return tickers.NewFileStore(cfg.Tickers.File), nil
	}
	if rc == nil {
		return nil, fmt.Errorf("app: tickers.store=redis needs redis.addr")
	}
	s := tickers.NewRedisStore(rc, cfg.Tickers.RedisPrefix)
	if err := s.Seed(ctx, tickers.DefaultTickers); err != nil {
		return nil, err
	}
	return s, nil
}

// ProvideLocker returns a Redis lock manager, or a no-op locker without Redis (for Wire).
func ProvideLocker(rc *redisx.Client) redisx.Locker {
	if rc == nil {
		return redisx.NopLocker{}
	}
	return redisx.NewLockManager(rc, "stock-trades:lock")
}

// ProvideManifest picks the run manifest store from manifest.backend (for Wire).
func ProvideManifest(ctx context.Context, cfg *Config, b storage.Backend) (manifest.Store, func(), error) {
	switch cfg.Manifest.Backend {
	case "postgres":
		s, err := manifest.NewPostgresStore(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case "none":
		return manifest.Nop{}, func() {}, nil
	default:
		return manifest.NewFileStore(b), func() {}, nil
	}
}

// ProvideMetrics creates the stage metrics registry (for Wire).
func ProvideMetrics() *metrics.Metrics {
	return metrics.New()
}

// ProvidePusher returns nil when no Pushgateway is configured (for Wire).
func ProvidePusher(cfg *Config) *metrics.Pusher {
	return metrics.NewPusher(cfg.Metrics.PushgatewayURL, cfg.Metrics.Job)
}

// ProvideSimulator builds the trade simulator from simulator.* (for Wire).
func ProvideSimulator(cfg *Config) (*simulate.Simulator, error) {
	p := simulate.DefaultParams()
	s := cfg.Simulator
	if s.PriceStepStd > 0 {
		p.StepStdDev = s.PriceStepStd
	}
	if s.MinPrice > 0 {
		p.MinPrice = s.MinPrice
	}
	if s.DefaultBasePrice > 0 {
		p.DefaultBasePrice = s.DefaultBasePrice
	}
	// viper lower-cases map keys
	for sym, price := range s.BasePrices {
		p.BasePrices[strings.ToUpper(sym)] = price
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return simulate.New(p, s.Seed), nil
}

// ProvidePipeline assembles the stage runner (for Wire).
func ProvidePipeline(
	cfg *Config,
	b storage.Backend,
	ts tickers.Store,
	sim *simulate.Simulator,
	ms manifest.Store,
	locker redisx.Locker,
	m *metrics.Metrics,
	pusher *metrics.Pusher,
	log *slog.Logger,
) (*pipeline.Pipeline, error) {
	return pipeline.New(pipeline.Deps{
		Backend:   b,
		Tickers:   ts,
		Simulator: sim,
		Manifest:  ms,
		Locker:    locker,
		Metrics:   m,
		Pusher:    pusher,
		Logger:    log,
	}, pipeline.Settings{
		Format:    cfg.SaveFormat,
		Discovery: pipeline.Discovery(cfg.Manifest.Discovery),
		Interval:  cfg.Bars.Interval,
		Workers:   cfg.Workers,
		LockTTL:   cfg.LockTTL,
	})
}
