package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/webster-hq/webster/internal/core/domain"
	"github.com/webster-hq/webster/internal/core/ports"
)

const notifyTimeout = 5 * time.Second

// notify hands n to the notifier after the triggering state change has been
// committed. Failures are logged and never returned.
func notify(ctx context.Context, notifier ports.Notifier, log zerolog.Logger, now time.Time, kind domain.NotificationKind, to string, data map[string]string) {
	if notifier == nil || to == "" {
		return
	}
	n := domain.Notification{
		ID:        uuid.NewString(),
		Kind:      kind,
		To:        to,
		Data:      data,
		CreatedAt: now,
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	if err := notifier.Notify(ctx, n); err != nil {
		log.Warn().Err(err).
			Str("notification_id", n.ID).
			Str("kind", string(kind)).
			Msg("notification not queued")
	}
}
