// Package redis holds the redis-backed pieces of the registry: the shared room
// sequence and the idempotency key store used by check-in.
package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Counter hands out a process-independent sequence with INCR. Numbers are never
// reused.
type Counter struct {
	client goredis.Cmdable
	key    string
}

func NewCounter(client goredis.Cmdable, key string) *Counter {
	return &Counter{client: client, key: key}
}

// raiseTo sets KEYS[1] to ARGV[1] unless it already holds a larger value.
var raiseTo = goredis.NewScript(`
local cur = tonumber(redis.call('GET', KEYS[1]) or '0')
local floor = tonumber(ARGV[1])
if cur < floor then
	redis.call('SET', KEYS[1], floor)
	return floor
end
return cur
`)

// Seed makes sure the next value handed out is above n.
func (c *Counter) Seed(ctx context.Context, n int64) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return raiseTo.Run(ctx, c.client, []string{c.key}, n).Err()
}

func (c *Counter) Next(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return c.client.Incr(ctx, c.key).Result()
}

type IdempotencyStore struct {
	client goredis.Cmdable
}

func NewIdempotencyStore(client goredis.Cmdable) *IdempotencyStore {
	return &IdempotencyStore{client: client}
}

// Get returns "" with no error when the key has not been seen.
func (s *IdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", nil
	}
	return v, err
}

func (s *IdempotencyStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *IdempotencyStore) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, key, value, ttl).Result()
}

func (s *IdempotencyStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}
