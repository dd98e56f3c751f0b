package ports

import (
	"context"

	"github.com/webster-hq/webster/internal/core/domain"
)

// Notifier delivers a templated message to one address. Callers treat every
// error as non-fatal.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}

// AllowList grants server access for the handles of an accepted request.
type AllowList interface {
	Allow(ctx context.Context, acceptance domain.Acceptance) ([]string, error)
}
