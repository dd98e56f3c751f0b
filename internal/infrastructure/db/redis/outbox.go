package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/webster-hq/webster/internal/core/domain"
	"github.com/webster-hq/webster/internal/metrics"
)

const defaultOutboxKey = "webster:outbox"

// Outbox is a FIFO list of pending notifications.
// Producers LPUSH JSON documents; consumers BRPOP them.
type Outbox struct {
	client *redis.Client
	key    string
}

// NewOutbox creates an Outbox on the given list key.
func NewOutbox(client *redis.Client, key string) *Outbox {
	if key == "" {
		key = defaultOutboxKey
	}
	return &Outbox{client: client, key: key}
}

// Push appends n to the outbox.
func (o *Outbox) Push(ctx context.Context, n domain.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("outbox encode: %w", err)
	}
	if err := o.client.LPush(ctx, o.key, payload).Err(); err != nil {
		return fmt.Errorf("outbox push: %w", err)
	}
	return nil
}

// Pop removes the oldest notification, blocking up to wait. It reports false
// when nothing arrived in time.
func (o *Outbox) Pop(ctx context.Context, wait time.Duration) (domain.Notification, bool, error) {
	res, err := o.client.BRPop(ctx, wait, o.key).Result()
	if errors.Is(err, redis.Nil) {
		return domain.Notification{}, false, nil
	}
	if err != nil {
		return domain.Notification{}, false, fmt.Errorf("outbox pop: %w", err)
	}
	// BRPOP replies with [key, value].
	if len(res) != 2 {
		return domain.Notification{}, false, fmt.Errorf("outbox pop: unexpected reply of %d elements", len(res))
	}

	var n domain.Notification
	if err := json.Unmarshal([]byte(res[1]), &n); err != nil {
		return domain.Notification{}, false, fmt.Errorf("outbox decode: %w", err)
	}
	return n, true, nil
}

// Len returns the number of queued notifications.
func (o *Outbox) Len(ctx context.Context) (int64, error) {
	n, err := o.client.LLen(ctx, o.key).Result()
	if err != nil {
		return 0, fmt.Errorf("outbox len: %w", err)
	}
	return n, nil
}

// Check is the readiness probe of the outbox. It refreshes the queue depth
// gauge on success.
func (o *Outbox) Check(ctx context.Context) error {
	n, err := o.Len(ctx)
	if err != nil {
		return err
	}
	metrics.OutboxDepth.Set(float64(n))
	return nil
}
