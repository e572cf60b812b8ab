// Package controller implements the core business logic (service
// layer): license allocation, device-agent binding, login, tenant
// lifecycle, and the company-scoped CRUD around them. Each service
// orchestrates repository operations and sends relevant events.
package controller

import (
	"context"
	"errors"

	"github.com/cenkalti/backoff/v4"

	e "github.com/incidia/backend/internal/errors"
	"github.com/incidia/backend/internal/events"
)

// EventProducer is satisfied by events.Producer and events.NopProducer.
type EventProducer interface {
	Produce(eventType events.EventType, entityID string, payload interface{})
}

// RetryOnContention re-runs op with exponential backoff while it
// keeps failing with ErrContention. Any other error aborts
// immediately. The core itself never retries; this is the thin wrapper
// callers opt into.
func RetryOnContention(ctx context.Context, maxRetries uint64, op func() error) error {
	return backoff.Retry(func() error {
		err := op()
		if err != nil && !errors.Is(err, e.ErrContention) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), ctx))
}
