// Package service contains the business logic for the bus schedule service.
// Services validate inputs, enforce business rules, and orchestrate repo calls.
// No SQL lives here. Services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/tornimae/busboard/internal/domain"
)

// EventPublisher receives committed schedule changes.
// events.NATSPublisher and events.Nop satisfy it.
type EventPublisher interface {
	Publish(ctx context.Context, ev domain.Event) error
}

// notify publishes ev and logs a failure. Events are best effort: the change
// is already committed, so a publish error never fails the request.
func notify(ctx context.Context, p EventPublisher, ev domain.Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, ev); err != nil {
		slog.WarnContext(ctx, "publish schedule event failed",
			"kind", ev.Kind,
			"stop_id", ev.StopID,
			"error", err,
		)
	}
}

// clock is swapped out by tests that need a fixed "now".
type clock func() time.Time
