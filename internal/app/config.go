package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"stock-trades/internal/pipeline"
	"stock-trades/internal/saver"
)

// Config holds application configuration. Every key can be set in config.yaml or overridden
// by the upper-cased env var with dots replaced by underscores (storage.s3.bucket →
// STORAGE_S3_BUCKET).
type Config struct {
	Profile    string        `mapstructure:"profile"`
	LogLevel   string        `mapstructure:"log_level"` // debug | info | warn | error
	LogFormat  string        `mapstructure:"log_format"` // text | json
	SaveFormat string        `mapstructure:"save_format"`
	Workers    int           `mapstructure:"workers"`
	LockTTL    time.Duration `mapstructure:"lock_ttl"`

	Storage   StorageConfig   `mapstructure:"storage"`
	Tickers   TickersConfig   `mapstructure:"tickers"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Manifest  ManifestConfig  `mapstructure:"manifest"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	Simulator SimulatorConfig `mapstructure:"simulator"`
	Bars      BarsConfig      `mapstructure:"bars"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type StorageConfig struct {
	Backend   string   `mapstructure:"backend"` // local | s3
	LocalRoot string   `mapstructure:"local_root"`
	S3        S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Endpoint       string `mapstructure:"endpoint"`
	Region         string `mapstructure:"region"`
	Bucket         string `mapstructure:"bucket"`
	Prefix         string `mapstructure:"prefix"`
	AccessKey      string `mapstructure:"access_key"`
	SecretKey      string `mapstructure:"secret_key"`
	UseSSL         bool   `mapstructure:"use_ssl"`
	ForcePathStyle bool   `mapstructure:"force_path_style"`
}

type TickersConfig struct {
	Store       string `mapstructure:"store"` // file | redis
	File        string `mapstructure:"file"`
	RedisPrefix string `mapstructure:"redis_prefix"`
}

type RedisConfig struct {
	Addr       string `mapstructure:"addr"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db"`
	PoolSize   int    `mapstructure:"pool_size"`
	MaxRetries int    `mapstructure:"max_retries"`
	TLSEnabled bool   `mapstructure:"tls_enabled"`
}

type ManifestConfig struct {
	Backend   string `mapstructure:"backend"`   // file | postgres | none
	Discovery string `mapstructure:"discovery"` // glob | manifest
}

type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

type SimulatorConfig struct {
	TradesPerSymbol  int                `mapstructure:"trades_per_symbol"`
	MinutesBack      int                `mapstructure:"minutes_back"`
	PriceStepStd     float64            `mapstructure:"price_step_std"`
	MinPrice         float64            `mapstructure:"min_price"`
	DefaultBasePrice float64            `mapstructure:"default_base_price"`
	BasePrices       map[string]float64 `mapstructure:"base_prices"`
	Seed             uint64             `mapstructure:"seed"`
}

type BarsConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type MetricsConfig struct {
	PushgatewayURL string `mapstructure:"pushgateway_url"`
	Job            string `mapstructure:"job"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("profile", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("save_format", "")
	v.SetDefault("workers", 0)
	v.SetDefault("lock_ttl", "10m")

	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.local_root", "data")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.prefix", "stock-trades-platform")
	v.SetDefault("storage.s3.access_key", "")
	v.SetDefault("storage.s3.secret_key", "")
	v.SetDefault("storage.s3.use_ssl", true)
	v.SetDefault("storage.s3.force_path_style", false)

	v.SetDefault("tickers.store", "file")
	v.SetDefault("tickers.file", "config/tickers.json")
	v.SetDefault("tickers.redis_prefix", "stock-trades:tickers")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.tls_enabled", false)

	v.SetDefault("manifest.backend", "file")
	v.SetDefault("manifest.discovery", string(pipeline.DiscoverGlob))
	v.SetDefault("postgres.dsn", "")

	v.SetDefault("simulator.trades_per_symbol", 200)
	v.SetDefault("simulator.minutes_back", 30)
	v.SetDefault("simulator.price_step_std", 0.3)
	v.SetDefault("simulator.min_price", 1.0)
	v.SetDefault("simulator.default_base_price", 100.0)
	v.SetDefault("simulator.base_prices", map[string]float64{})
	v.SetDefault("simulator.seed", 0)

	v.SetDefault("bars.interval", "5m")

	v.SetDefault("metrics.pushgateway_url", "")
	v.SetDefault("metrics.job", "stock_trades")
}

// LoadConfig reads .env, then config.yaml from . or ./config, then the environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("app: load .env: %w", err)
	}
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	return loadConfig(v)
}

func loadConfig(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("app: read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("app: decode config: %w", err)
	}
	if cfg.SaveFormat == "" {
		cfg.SaveFormat = saveFormatForProfile(cfg.Profile)
	}
	cfg.SaveFormat = strings.ToLower(strings.TrimSpace(cfg.SaveFormat))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// saveFormatForProfile: dev writes csv for easy inspection, everything else parquet.
func saveFormatForProfile(profile string) string {
	switch strings.ToLower(profile) {
	case "dev", "development":
		return saver.FormatCSV
	default:
		return saver.FormatParquet
	}
}

// Validate rejects unsupported backends, formats and incomplete connection settings.
func (c *Config) Validate() error {
	var errs []error
	if !saver.Supported(c.SaveFormat) {
		errs = append(errs, fmt.Errorf("unsupported SAVE_FORMAT %q (use: %s)", c.SaveFormat, strings.Join(saver.Formats, ", ")))
	}
	switch c.Storage.Backend {
	case "local":
	case "s3":
		if c.Storage.S3.Bucket == "" {
			errs = append(errs, errors.New("storage.s3.bucket is required for the s3 backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported storage.backend %q (use: local, s3)", c.Storage.Backend))
	}
	switch c.Tickers.Store {
	case "file":
	case "redis":
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("redis.addr is required for the redis ticker store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported tickers.store %q (use: file, redis)", c.Tickers.Store))
	}
	switch c.Manifest.Backend {
	case "file", "none":
	case "postgres":
		if c.Postgres.DSN == "" {
			errs = append(errs, errors.New("postgres.dsn is required for the postgres manifest"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported manifest.backend %q (use: file, postgres, none)", c.Manifest.Backend))
	}
	switch pipeline.Discovery(c.Manifest.Discovery) {
	case pipeline.DiscoverGlob:
	case pipeline.DiscoverManifest:
		if c.Manifest.Backend == "none" {
			errs = append(errs, errors.New("manifest discovery needs a manifest backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported manifest.discovery %q (use: glob, manifest)", c.Manifest.Discovery))
	}
	if c.Simulator.TradesPerSymbol < 0 {
		errs = append(errs, errors.New("simulator.trades_per_symbol must not be negative"))
	}
	if c.Bars.Interval <= 0 {
		errs = append(errs, errors.New("bars.interval must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("app: invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// SimulateOptions returns the default batch size from config.
func (c *Config) SimulateOptions() pipeline.SimulateOptions {
	return pipeline.SimulateOptions{
		TradesPerSymbol: c.Simulator.TradesPerSymbol,
		MinutesBack:     time.Duration(c.Simulator.MinutesBack) * time.Minute,
	}
}
