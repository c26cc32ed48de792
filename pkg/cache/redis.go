package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Store backed by a shared Redis server.
type Redis struct {
	rdb *redis.Client
}

func NewRedis(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb}
}

func (r *Redis) Driver() string { return "redis" }

func (r *Redis) Get(ctx context.Context, key string, dest interface{}) bool {
	val, err := r.rdb.Get(ctx, key).Bytes()
	hit := err == nil && json.Unmarshal(val, dest) == nil
	record(r.Driver(), hit)
	return hit
}

func (r *Redis) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, key, data, ttl).Err()
}

func (r *Redis) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.rdb.Del(ctx, keys...).Err()
}

// Client exposes the underlying connection so the queue can share it.
func (r *Redis) Client() *redis.Client { return r.rdb }
