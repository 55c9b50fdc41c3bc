package cache

import (
	"context"
	"time"

	"github.com/chatdesk/pkg/config"
	"github.com/redis/go-redis/v9"
)

// Deduper reports whether a key was already seen. The first call for a key
// returns false; later calls within the TTL return true.
type Deduper interface {
	Seen(ctx context.Context, key string) (bool, error)
}

type redisDeduper struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewDeduper returns a Redis-backed deduper, or a no-op one when no Redis
// address is configured. The second value closes the client.
func NewDeduper(rc config.Redis) (Deduper, func() error) {
	if rc.Addr == "" {
		return NopDeduper{}, func() error { return nil }
	}
	client := redis.NewClient(&redis.Options{
		Addr:     rc.Addr,
		Password: rc.Password,
		DB:       rc.DB,
	})
	return NewRedisDeduper(client, rc.DedupeTTL), client.Close
}

func NewRedisDeduper(client *redis.Client, ttl time.Duration) Deduper {
	return &redisDeduper{client: client, prefix: "chatdesk:wamid:", ttl: ttl}
}

func (d *redisDeduper) Seen(ctx context.Context, key string) (bool, error) {
	ok, err := d.client.SetNX(ctx, d.prefix+key, 1, d.ttl).Result()
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// NopDeduper never reports a key as seen.
type NopDeduper struct{}

func (NopDeduper) Seen(context.Context, string) (bool, error) { return false, nil }
