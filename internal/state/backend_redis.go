package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// DefaultRedisKey is the key used when none is configured.
const DefaultRedisKey = "alpha2:device"

// RedisBackend stores the device document as a string value under one key.
type RedisBackend struct {
	client *redis.Client
	key    string
}

// NewRedisBackend creates a backend on client. An empty key selects DefaultRedisKey.
func NewRedisBackend(client *redis.Client, key string) *RedisBackend {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisBackend{client: client, key: key}
}

// Load fetches and decodes the document.
func (b *RedisBackend) Load(ctx context.Context) (*Device, error) {
	doc, err := b.client.Get(ctx, b.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get %s: %w", b.key, err)
	}

	dev := &Device{}
	if err := dev.UnmarshalJSON(doc); err != nil {
		return nil, err
	}
	return dev, nil
}

// Save stores the document without expiry.
func (b *RedisBackend) Save(ctx context.Context, dev *Device) error {
	doc, err := dev.MarshalJSON()
	if err != nil {
		return err
	}
	if err := b.client.Set(ctx, b.key, doc, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", b.key, err)
	}
	return nil
}
