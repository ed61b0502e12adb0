package ingest

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisDeduper remembers payload hashes so a scraper retry or an
// at-least-once queue redelivery does not hit the pipeline twice.
// Entries expire; a genuinely fresh payload for the same tender always
// differs in the expedient update timestamp.
type RedisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDeduper(client *redis.Client, ttl time.Duration) *RedisDeduper {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisDeduper{client: client, ttl: ttl}
}

// Seen atomically records the payload and reports whether it was
// already known.
func (d *RedisDeduper) Seen(ctx context.Context, source string, payload []byte) (bool, error) {
	sum := sha256.Sum256(payload)
	key := fmt.Sprintf("ingest:%s:%x", source, sum)
	set, err := d.client.SetNX(ctx, key, 1, d.ttl).Result()
	if err != nil {
		return false, err
	}
	return !set, nil
}

// NewRedisClient connects and verifies the connection before anyone
// depends on it.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
