package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/webster-hq/webster/internal/core/domain"
)

func TestOptions_Defaults(t *testing.T) {
	opts := options(Config{Addr: "cache:6379", DB: 2})
	if opts.Addr != "cache:6379" || opts.DB != 2 {
		t.Fatalf("unexpected address options %+v", opts)
	}
	if opts.ReadTimeout != defaultReadTimeout || opts.WriteTimeout != defaultReadTimeout {
		t.Fatalf("expected default timeouts, got read=%s write=%s", opts.ReadTimeout, opts.WriteTimeout)
	}
}

func TestOptions_Explicit(t *testing.T) {
	opts := options(Config{Addr: "cache:6379", Password: "pw", PoolSize: 12, ReadTimeout: time.Second})
	if opts.Password != "pw" || opts.PoolSize != 12 || opts.ReadTimeout != time.Second {
		t.Fatalf("options not carried through: %+v", opts)
	}
}

// unreachable returns a client for a port nothing listens on.
func unreachable(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestConnect_FailsWithoutServer(t *testing.T) {
	if _, err := Connect(context.Background(), Config{Addr: "127.0.0.1:1", PingTimeout: 200 * time.Millisecond}); err == nil {
		t.Fatalf("expected ping failure")
	}
}

func TestOutbox_ErrorsWithoutServer(t *testing.T) {
	ctx := context.Background()
	o := NewOutbox(unreachable(t), "")
	if o.key != defaultOutboxKey {
		t.Fatalf("expected default key, got %q", o.key)
	}

	if err := o.Push(ctx, domain.Notification{ID: "n1", Kind: domain.NotifyDirect, To: "a@example.com"}); err == nil {
		t.Fatalf("expected push failure")
	}
	if _, err := o.Len(ctx); err == nil {
		t.Fatalf("expected len failure")
	}
	if err := o.Check(ctx); err == nil {
		t.Fatalf("readiness must fail when the outbox is unreachable")
	}
}
