package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "matchday:gate:"

// reserveScript hands out the next free slot of an upstream, honouring any active block.
// Slots are computed on the Redis clock so every process agrees on them.
var reserveScript = goredis.NewScript(`
	local t = redis.call("TIME")
	local now = tonumber(t[1]) * 1000 + math.floor(tonumber(t[2]) / 1000)
	local interval = tonumber(ARGV[1])

	local start = now
	local nextFree = tonumber(redis.call("GET", KEYS[1]) or "0")
	if nextFree > start then
		start = nextFree
	end
	local blocked = redis.call("PTTL", KEYS[2])
	if blocked > 0 and now + blocked > start then
		start = now + blocked
	end

	redis.call("SET", KEYS[1], start + interval, "PX", (start - now) + interval + 1000)
	return start - now
`)

// RedisSlotStore shares fetch-gate slots between processes calling the same upstream.
type RedisSlotStore struct {
	client    goredis.UniversalClient
	keyPrefix string
}

func NewRedisSlotStore(client goredis.UniversalClient, keyPrefix string) *RedisSlotStore {
	if strings.TrimSpace(keyPrefix) == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisSlotStore{client: client, keyPrefix: keyPrefix}
}

// Reserve claims the next slot for key and returns how long the caller waits for it.
func (s *RedisSlotStore) Reserve(ctx context.Context, key string, interval time.Duration) (time.Duration, error) {
	if interval < 0 {
		interval = 0
	}
	waitMs, err := reserveScript.Run(ctx, s.client, []string{s.slotKey(key), s.blockKey(key)}, interval.Milliseconds()).Int64()
	if err != nil {
		return 0, fmt.Errorf("reserve rate limit slot key=%s: %w", key, err)
	}
	if waitMs < 0 {
		waitMs = 0
	}
	return time.Duration(waitMs) * time.Millisecond, nil
}

// BlockFor keeps every process away from key for d, e.g. after a 429.
func (s *RedisSlotStore) BlockFor(ctx context.Context, key string, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, s.blockKey(key), "1", d).Err(); err != nil {
		return fmt.Errorf("block rate limit key=%s: %w", key, err)
	}
	return nil
}

// IsBlocked returns whether key is blocked and for how much longer.
func (s *RedisSlotStore) IsBlocked(ctx context.Context, key string) (bool, time.Duration, error) {
	ttl, err := s.client.PTTL(ctx, s.blockKey(key)).Result()
	if err != nil {
		return false, 0, fmt.Errorf("read rate limit block key=%s: %w", key, err)
	}
	if ttl <= 0 {
		return false, 0, nil
	}
	return true, ttl, nil
}

func (s *RedisSlotStore) slotKey(key string) string {
	return s.keyPrefix + key + ":next"
}

func (s *RedisSlotStore) blockKey(key string) string {
	return s.keyPrefix + key + ":block"
}
