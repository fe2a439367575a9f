package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Cache backed by a remote Redis instance, shared across
// engine instances.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

// bumpScript adjusts a counter, clamps it at zero, and refreshes the TTL in
// one atomic call. A plain DECR on an absent key would yield -1.
var bumpScript = redis.NewScript(`
local v = redis.call('INCRBY', KEYS[1], ARGV[1])
if v < 0 then
	redis.call('SET', KEYS[1], '0')
	v = 0
end
redis.call('PEXPIRE', KEYS[1], ARGV[2])
return v
`)

// NewRedis creates a Redis cache from a redis:// URL
func NewRedis(url string, ttl time.Duration) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	return &Redis{
		rdb: redis.NewClient(opt),
		ttl: ttl,
	}, nil
}

// Ping verifies the connection
func (c *Redis) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// GetLike returns the state entry for a like key and whether it was present
func (c *Redis) GetLike(ctx context.Context, key string) (*Entry, bool, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read like entry: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false, fmt.Errorf("corrupt like entry at %s: %w", key, err)
	}
	return &entry, true, nil
}

// SetLike writes a state entry and resets its TTL
func (c *Redis) SetLike(ctx context.Context, key string, entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode like entry: %w", err)
	}

	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write like entry: %w", err)
	}
	return nil
}

// BumpCount atomically adjusts a counter with a zero floor and TTL refresh
func (c *Redis) BumpCount(ctx context.Context, key string, delta int64) (int64, error) {
	val, err := bumpScript.Run(ctx, c.rdb, []string{key}, delta, c.ttl.Milliseconds()).Int64()
	if err != nil {
		return 0, fmt.Errorf("failed to bump counter: %w", err)
	}
	return val, nil
}

// GetCount returns the cached counter, or 0 when absent
func (c *Redis) GetCount(ctx context.Context, key string) (int64, error) {
	data, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read counter: %w", err)
	}

	val, err := strconv.ParseInt(data, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt counter at %s: %w", key, err)
	}
	return val, nil
}

// Close closes the underlying client
func (c *Redis) Close() error {
	return c.rdb.Close()
}
