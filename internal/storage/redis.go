package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// RedisStorage keeps records in Redis, using native key expiry for TTLs.
type RedisStorage struct {
	rdb    goredis.UniversalClient
	prefix string
	logger *zap.Logger
}

func NewRedisStorage(cfg RedisConfig, logger *zap.Logger) (*RedisStorage, error) {
	if cfg.Addr == "" {
		return nil, errors.New("missing redis address")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisStorageWithClient(rdb, cfg.KeyPrefix, logger), nil
}

// NewRedisStorageWithClient wraps an existing client.
func NewRedisStorageWithClient(rdb goredis.UniversalClient, prefix string, logger *zap.Logger) *RedisStorage {
	return &RedisStorage{
		rdb:    rdb,
		prefix: prefix,
		logger: logger.With(zap.String("component", "redis")),
	}
}

func (s *RedisStorage) key(k string) string {
	return s.prefix + k
}

func (s *RedisStorage) Get(ctx context.Context, key string) (string, error) {
	value, err := s.rdb.Get(ctx, s.key(key)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, nil
}

func (s *RedisStorage) Put(ctx context.Context, key, value string, opts ...PutOption) error {
	o := applyPutOptions(opts)
	if err := s.rdb.Set(ctx, s.key(key), value, o.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStorage) Close() error {
	return s.rdb.Close()
}
