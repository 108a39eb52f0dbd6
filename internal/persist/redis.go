package persist

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "commandzone:session:"

// RedisKV persists identity keys in Redis under a fixed namespace.
type RedisKV struct {
	rdb *redis.Client
}

func NewRedisKV(url string) (*RedisKV, error) {
	opts, err := redis.ParseURL(strings.TrimSpace(url))
	if err != nil {
		return nil, err
	}
	return &RedisKV{rdb: redis.NewClient(opts)}, nil
}

// NewRedisKVFromClient wraps an existing client. Tests use this with
// miniredis.
func NewRedisKVFromClient(rdb *redis.Client) *RedisKV {
	return &RedisKV{rdb: rdb}
}

func (s *RedisKV) Get(ctx context.Context, key string) (string, error) {
	v, err := s.rdb.Get(ctx, keyPrefix+key).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

func (s *RedisKV) Set(ctx context.Context, key, value string) error {
	return s.rdb.Set(ctx, keyPrefix+key, value, 0).Err()
}

func (s *RedisKV) Delete(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, keyPrefix+key).Err()
}

func (s *RedisKV) Close() error { return s.rdb.Close() }
