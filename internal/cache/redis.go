// Package cache implements the TTL key-value session cache on Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/UNI-BIG-CAT/gatekeeper/internal/config"
)

// NewClient builds a pooled Redis client from cfg. No connection is made
// until the first command.
func NewClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:            cfg.Addr,
		Password:        cfg.Password,
		DB:              cfg.DB,
		PoolSize:        cfg.PoolSize,
		MinIdleConns:    cfg.MinIdleConns,
		DialTimeout:     cfg.DialTimeout,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		PoolTimeout:     cfg.PoolTimeout,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
	})
}

// RedisCache is a JSON-valued TTL cache. Transport and decode failures are
// logged and reported as false or a miss; callers cannot tell "absent" from
// "unreachable" on reads.
type RedisCache struct {
	client  redis.UniversalClient
	logger  *slog.Logger
	onError func(op string)
}

// Option configures a RedisCache.
type Option func(*RedisCache)

// WithLogger sets the logger used for swallowed failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *RedisCache) { c.logger = l }
}

// WithErrorHook registers fn to be called with the operation name on every
// swallowed failure.
func WithErrorHook(fn func(op string)) Option {
	return func(c *RedisCache) { c.onError = fn }
}

// NewRedisCache wraps client.
func NewRedisCache(client redis.UniversalClient, opts ...Option) *RedisCache {
	c := &RedisCache{
		client:  client,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		onError: func(string) {},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetWithExpiry stores value as JSON under key for ttl.
func (c *RedisCache) SetWithExpiry(ctx context.Context, key string, value interface{}, ttl time.Duration) bool {
	data, err := json.Marshal(value)
	if err != nil {
		c.fail(ctx, "set", key, err)
		return false
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.fail(ctx, "set", key, err)
		return false
	}
	return true
}

// SetManyWithExpiry stores every entry with the same ttl inside one
// MULTI/EXEC transaction. Either all keys are written or none are.
func (c *RedisCache) SetManyWithExpiry(ctx context.Context, entries map[string]interface{}, ttl time.Duration) bool {
	encoded := make(map[string][]byte, len(entries))
	for k, v := range entries {
		data, err := json.Marshal(v)
		if err != nil {
			c.fail(ctx, "mset", k, err)
			return false
		}
		encoded[k] = data
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, data := range encoded {
			pipe.Set(ctx, k, data, ttl)
		}
		return nil
	})
	if err != nil {
		c.fail(ctx, "mset", "", err)
		return false
	}
	return true
}

// Get decodes the JSON value under key into dst. It reports false on a miss,
// a transport failure or a decode failure alike.
func (c *RedisCache) Get(ctx context.Context, key string, dst interface{}) bool {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.fail(ctx, "get", key, err)
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		c.fail(ctx, "decode", key, err)
		return false
	}
	return true
}

// Delete removes key and reports whether a key was actually deleted.
func (c *RedisCache) Delete(ctx context.Context, key string) bool {
	n, err := c.client.Del(ctx, key).Result()
	if err != nil {
		c.fail(ctx, "del", key, err)
		return false
	}
	return n > 0
}

// deleteIfEqual removes KEYS[1] only while it still holds ARGV[1].
var deleteIfEqual = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// DeleteIfEqual removes key only if its stored JSON equals the encoding of
// value. The comparison and the delete run as one script on the server.
func (c *RedisCache) DeleteIfEqual(ctx context.Context, key string, value interface{}) bool {
	data, err := json.Marshal(value)
	if err != nil {
		c.fail(ctx, "cas_del", key, err)
		return false
	}
	n, err := deleteIfEqual.Run(ctx, c.client, []string{key}, string(data)).Int64()
	if err != nil {
		c.fail(ctx, "cas_del", key, err)
		return false
	}
	return n > 0
}

// Ping checks connectivity. Unlike the other operations it returns the error.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) fail(ctx context.Context, op, key string, err error) {
	c.onError(op)
	c.logger.WarnContext(ctx, "cache operation failed", "op", op, "key", key, "error", err)
}
