// Package redis connects to the Redis server backing the redis store
// backend.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/nerrad567/alpha2-bridge/internal/infrastructure/config"
)

const connectTimeout = 5 * time.Second

// ErrConnectionFailed is returned when the initial ping fails.
var ErrConnectionFailed = errors.New("redis: connection failed")

// Client is the go-redis client type.
type Client = goredis.Client

// NewClient builds a client from the redis config section without
// contacting the server.
func NewClient(cfg config.RedisConfig) *Client {
	return goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// Connect builds a client and verifies it with PING.
func Connect(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	client := NewClient(cfg)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := Ping(pingCtx, client); err != nil {
		client.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("%w: %s: %w", ErrConnectionFailed, cfg.Addr, err)
	}
	return client, nil
}

// Ping tests the connection.
func Ping(ctx context.Context, client *Client) error {
	return client.Ping(ctx).Err()
}
