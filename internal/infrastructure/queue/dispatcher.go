package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/webster-hq/webster/internal/core/domain"
	"github.com/webster-hq/webster/internal/metrics"
)

const (
	defaultWorkers = 2
	defaultWait    = 5 * time.Second
	sendRetries    = 3
	retryBase      = 500 * time.Millisecond
	popErrorPause  = time.Second
)

// Queue is a durable FIFO of notifications.
type Queue interface {
	Push(ctx context.Context, n domain.Notification) error
	Pop(ctx context.Context, wait time.Duration) (domain.Notification, bool, error)
}

// Sender delivers one notification.
type Sender interface {
	Send(ctx context.Context, n domain.Notification) error
}

// Dispatcher is the post-commit notification pipeline. Notify enqueues;
// a fixed set of workers drain the queue and hand each message to the
// sender, retrying with exponential backoff. Delivery failures are logged
// and counted only.
type Dispatcher struct {
	queue   Queue
	sender  Sender
	workers int
	wait    time.Duration
	backoff func() retry.Backoff
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, queue Queue, sender Sender, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	return &Dispatcher{
		queue:   queue,
		sender:  sender,
		workers: numWorkers,
		wait:    defaultWait,
		backoff: func() retry.Backoff {
			return retry.WithMaxRetries(sendRetries, retry.NewExponential(retryBase))
		},
		log: log,
	}
}

// Notify enqueues n for delivery.
func (d *Dispatcher) Notify(ctx context.Context, n domain.Notification) error {
	if err := d.queue.Push(ctx, n); err != nil {
		metrics.NotificationsTotal.WithLabelValues(string(n.Kind), metrics.ResultFailure).Inc()
		return fmt.Errorf("enqueue notification: %w", err)
	}
	d.log.Debug().Str("notification_id", n.ID).Str("kind", string(n.Kind)).Msg("notification queued")
	return nil
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go func(id int) {
			defer d.wg.Done()
			d.runWorker(ctx, id)
		}(i)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) runWorker(ctx context.Context, id int) {
	for {
		if ctx.Err() != nil {
			return
		}
		n, ok, err := d.queue.Pop(ctx, d.wait)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			d.log.Error().Err(err).Int("worker_id", id).Msg("outbox read failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(popErrorPause):
			}
			continue
		}
		if !ok {
			continue
		}
		d.deliver(ctx, id, n)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, id int, n domain.Notification) {
	err := retry.Do(ctx, d.backoff(), func(ctx context.Context) error {
		if err := d.sender.Send(ctx, n); err != nil {
			if errors.Is(err, ErrPermanent) {
				return err
			}
			return retry.RetryableError(err)
		}
		return nil
	})

	metrics.NotificationsTotal.WithLabelValues(string(n.Kind), metrics.Result(err)).Inc()
	if err != nil {
		d.log.Warn().Err(err).
			Str("notification_id", n.ID).
			Str("kind", string(n.Kind)).
			Int("worker_id", id).
			Msg("notification delivery failed")
		return
	}
	d.log.Info().
		Str("notification_id", n.ID).
		Str("kind", string(n.Kind)).
		Int("worker_id", id).
		Msg("notification delivered")
}

// ErrPermanent marks a send failure that retrying cannot fix, such as an
// unknown template or a malformed address.
var ErrPermanent = errors.New("permanent delivery failure")

// Discard is the notifier used when email is disabled. It drops every
// notification.
type Discard struct {
	Log zerolog.Logger
}

func (d Discard) Notify(_ context.Context, n domain.Notification) error {
	metrics.NotificationsTotal.WithLabelValues(string(n.Kind), "dropped").Inc()
	d.Log.Debug().Str("notification_id", n.ID).Str("kind", string(n.Kind)).Msg("email disabled, notification dropped")
	return nil
}
