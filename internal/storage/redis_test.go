package storage

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewRedisStorageRequiresAddr(t *testing.T) {
	_, err := NewRedisStorage(RedisConfig{}, zap.NewNop())
	require.Error(t, err)
}

func TestRedisStorageUnreachable(t *testing.T) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	s := NewRedisStorageWithClient(rdb, "coach:", zap.NewNop())
	defer s.Close()

	assert.Equal(t, "coach:profile:u1", s.key(ProfileKey("u1")))

	ctx := context.Background()
	_, err := s.Get(ctx, "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "redis get k")

	err = s.Put(ctx, "k", "v", WithTTL(time.Minute))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis set k")
}

func TestDatabaseConfigConnString(t *testing.T) {
	cfg := DatabaseConfig{Host: "db", Port: 5432, User: "coach", Password: "secret", DBName: "coach", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=coach password=secret dbname=coach sslmode=disable", cfg.ConnString())
}
