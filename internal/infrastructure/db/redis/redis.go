// Package redis backs the notification outbox with a Redis list.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultPingTimeout = 5 * time.Second
	defaultReadTimeout = 3 * time.Second
)

// Config holds the connection settings of the outbox client.
type Config struct {
	Addr     string
	Password string
	DB       int
	// PoolSize bounds open connections. Every dispatcher worker holds one
	// while it blocks in BRPOP, so it must exceed the worker count.
	PoolSize int
	// ReadTimeout applies to non-blocking commands; go-redis extends it by
	// the wait of each blocking pop.
	ReadTimeout time.Duration
	PingTimeout time.Duration
}

func options(cfg Config) *redis.Options {
	readTimeout := cfg.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = defaultReadTimeout
	}
	return &redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		ReadTimeout:  readTimeout,
		WriteTimeout: readTimeout,
	}
}

// Connect opens the outbox client and checks it with a ping.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	timeout := cfg.PingTimeout
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}

	client := redis.NewClient(options(cfg))

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return client, nil
}
