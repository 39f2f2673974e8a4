package cache

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "reconciler:inflight:"

// RedisInflight shares in-flight marks between server instances.
type RedisInflight struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, errors.Wrap(err, "ping redis")
	}
	return client, nil
}

func NewRedisInflight(client *redis.Client, ttl time.Duration) *RedisInflight {
	return &RedisInflight{client: client, ttl: ttl}
}

func (r *RedisInflight) Acquire(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, keyPrefix+key, time.Now().Unix(), r.ttl).Result()
	if err != nil {
		return false, errors.Wrapf(err, "acquire %s", key)
	}
	return ok, nil
}

func (r *RedisInflight) Release(ctx context.Context, key string) error {
	return errors.Wrapf(r.client.Del(ctx, keyPrefix+key).Err(), "release %s", key)
}
