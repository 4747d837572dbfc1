package book

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisPrefix = "connect4:book:"

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) Get(ctx context.Context, key string) (int, bool, error) {
	col, err := r.client.Get(ctx, redisPrefix+key).Int()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read book entry: %w", err)
	}
	if !validColumn(col) {
		return 0, false, nil
	}
	return col, true, nil
}

func (r *RedisStore) Put(ctx context.Context, key string, col int) error {
	if err := r.client.Set(ctx, redisPrefix+key, col, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write book entry: %w", err)
	}
	return nil
}
