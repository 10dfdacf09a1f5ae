package tickers

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"stock-trades/internal/redisx"
)

// RedisStore keeps the configuration in two Redis sets, <prefix>:default and <prefix>:extra,
// so the list can be edited from outside the pipeline host.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisStore(c *redisx.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "stock-trades:tickers"
	}
	return &RedisStore{rdb: c.Underlying(), prefix: prefix}
}

func (s *RedisStore) defaultKey() string { return s.prefix + ":default" }
func (s *RedisStore) extraKey() string   { return s.prefix + ":extra" }

func (s *RedisStore) Load(ctx context.Context) (Config, error) {
	defaults, err := s.rdb.SMembers(ctx, s.defaultKey()).Result()
	if err != nil {
		return Config{}, fmt.Errorf("tickers: redis load defaults: %w", err)
	}
	extras, err := s.rdb.SMembers(ctx, s.extraKey()).Result()
	if err != nil {
		return Config{}, fmt.Errorf("tickers: redis load extras: %w", err)
	}
	return Config{DefaultTickers: Normalize(defaults), ExtraTickers: Normalize(extras)}, nil
}

// Seed writes the default list when the default set is empty.
func (s *RedisStore) Seed(ctx context.Context, defaults []string) error {
	n, err := s.rdb.Exists(ctx, s.defaultKey()).Result()
	if err != nil {
		return fmt.Errorf("tickers: redis seed: %w", err)
	}
	syms := Normalize(defaults)
	if n > 0 || len(syms) == 0 {
		return nil
	}
	return s.rdb.SAdd(ctx, s.defaultKey(), toAny(syms)...).Err()
}

func (s *RedisStore) AddExtra(ctx context.Context, symbols ...string) (Config, error) {
	if syms := Normalize(symbols); len(syms) > 0 {
		if err := s.rdb.SAdd(ctx, s.extraKey(), toAny(syms)...).Err(); err != nil {
			return Config{}, fmt.Errorf("tickers: redis add: %w", err)
		}
	}
	return s.Load(ctx)
}

func (s *RedisStore) RemoveExtra(ctx context.Context, symbols ...string) (Config, error) {
	if syms := Normalize(symbols); len(syms) > 0 {
		if err := s.rdb.SRem(ctx, s.extraKey(), toAny(syms)...).Err(); err != nil {
			return Config{}, fmt.Errorf("tickers: redis remove: %w", err)
		}
	}
	return s.Load(ctx)
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

var _ Store = (*RedisStore)(nil)
