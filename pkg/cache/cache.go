// Package cache stores JSON-encoded values under string keys with a TTL.
//
// Two drivers are available: "memory" (process local) and "redis". Open
// picks one from CACHE_DRIVER:
//
//	store, err := cache.Open(config.CacheDriver())
//	var resumo Resumo
//	if !store.Get(ctx, key, &resumo) {
//	    resumo = compute()
//	    _ = store.Set(ctx, key, resumo, 30*time.Second)
//	}
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/multidelivery/painel/config"
	"github.com/multidelivery/painel/pkg/metrics"
)

// Store is implemented by every cache driver.
type Store interface {
	// Get unmarshals the value under key into dest and reports a hit.
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Driver() string
}

// Open returns the store for driver. "redis" connects to REDIS_ADDR and
// fails when the server does not answer a ping.
func Open(driver string) (Store, error) {
	switch driver {
	case "", "memory":
		return NewMemory(), nil
	case "redis":
		rdb, err := Connect()
		if err != nil {
			return nil, err
		}
		return NewRedis(rdb), nil
	default:
		return nil, fmt.Errorf("cache: unsupported CACHE_DRIVER %q (supported: memory, redis)", driver)
	}
}

// Connect opens a Redis client from config and pings it.
func Connect() (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr(),
		Password: config.RedisPassword(),
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("cache: redis ping: %w", err)
	}
	return rdb, nil
}

func record(driver string, hit bool) {
	if hit {
		metrics.CacheHits.WithLabelValues(driver).Inc()
		return
	}
	metrics.CacheMisses.WithLabelValues(driver).Inc()
}
