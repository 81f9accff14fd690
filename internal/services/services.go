// Package services holds the application logic behind the HTTP handlers:
// input normalization, store access and sync notifications.
package services

import (
	"context"
	"log/slog"

	applog "retireplan/internal/log"
)

// Publisher announces changes that invalidate the exported summary.
// amqp.Client implements it.
type Publisher interface {
	PublishSummarySync(ctx context.Context, entity string, id int64, year int) error
}

// notify publishes best effort. Writes never fail because the broker is down.
func notify(ctx context.Context, p Publisher, entity string, id int64, year int) {
	if p == nil {
		slog.DebugContext(ctx, "AMQP publisher not configured, skipping sync message", "entity", entity, "id", id)
		return
	}
	if err := p.PublishSummarySync(ctx, entity, id, year); err != nil {
		slog.WarnContext(ctx, "Failed to publish summary sync message",
			"entity", entity,
			applog.FieldID, id,
			applog.FieldError, err)
	}
}

func structuredLogger(l *applog.StructuredLogger) *applog.StructuredLogger {
	if l != nil {
		return l
	}
	return applog.NewStructuredLogger(applog.New(applog.DefaultConfig()))
}
