package redis

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/nerrad567/alpha2-bridge/internal/infrastructure/config"
)

func TestNewClient_UsesConfig(t *testing.T) {
	c := NewClient(config.RedisConfig{Addr: "redis.local:6380", Password: "secret", DB: 2})
	defer c.Close()

	opts := c.Options()
	if opts.Addr != "redis.local:6380" || opts.Password != "secret" || opts.DB != 2 {
		t.Errorf("Options() = %+v", opts)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	_, err := Connect(context.Background(), config.RedisConfig{Addr: "127.0.0.1:1"})
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestConnect_Server(t *testing.T) {
	addr := os.Getenv("ALPHA2_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("ALPHA2_TEST_REDIS_ADDR not set")
	}

	c, err := Connect(context.Background(), config.RedisConfig{Addr: addr})
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer c.Close()

	if err := Ping(context.Background(), c); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}
