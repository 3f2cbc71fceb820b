package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/julianstephens/habitual/internal/constants"
)

// Redis keeps values as plain Redis strings under a fixed key prefix.
type Redis struct {
	url    string
	prefix string
	rdb    *redis.Client
}

func NewRedis(redisURL string) *Redis {
	return &Redis{url: redisURL, prefix: constants.RedisKeyPrefix}
}

func (r *Redis) Location() string { return r.url }

func (r *Redis) connect(ctx context.Context) error {
	if r.rdb != nil {
		return nil
	}
	opts, err := redis.ParseURL(r.url)
	if err != nil {
		return fmt.Errorf("failed to parse redis URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	r.rdb = rdb
	return nil
}

// Init has nothing to create; it only verifies the server is reachable.
func (r *Redis) Init(ctx context.Context) error { return r.connect(ctx) }

func (r *Redis) Open(ctx context.Context) error { return r.connect(ctx) }

func (r *Redis) Ping(ctx context.Context) error {
	if r.rdb == nil {
		return errors.New("storage not loaded")
	}
	return r.rdb.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	if r.rdb == nil {
		return nil
	}
	err := r.rdb.Close()
	r.rdb = nil
	return err
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	if r.rdb == nil {
		return "", false, errors.New("storage not loaded")
	}
	value, err := r.rdb.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read key %s: %w", key, err)
	}
	return value, true, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	if r.rdb == nil {
		return errors.New("storage not loaded")
	}
	if err := r.rdb.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	return nil
}
