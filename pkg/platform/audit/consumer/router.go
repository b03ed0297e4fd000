// Package consumer materializes the audit topic: records are decoded, routed by
// category and handed to category-specific handlers.
package consumer

import (
	"context"
	"log/slog"

	audit "bloodledger/pkg/platform/audit"
)

// Handler processes one decoded audit event. Returning an error stops the
// consumer before offsets are committed, so the event is redelivered.
type Handler interface {
	Handle(ctx context.Context, event audit.Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, event audit.Event) error

func (f HandlerFunc) Handle(ctx context.Context, event audit.Event) error {
	return f(ctx, event)
}

// Router dispatches events to category handlers.
type Router struct {
	handlers map[audit.EventCategory]Handler
	fallback Handler
	logger   *slog.Logger
}

// NewRouter creates a category router with an optional fallback handler.
func NewRouter(logger *slog.Logger, fallback Handler) *Router {
	return &Router{
		handlers: make(map[audit.EventCategory]Handler),
		fallback: fallback,
		logger:   logger,
	}
}

// Register adds a handler for a category.
func (r *Router) Register(category audit.EventCategory, handler Handler) {
	r.handlers[category] = handler
}

func (r *Router) Handle(ctx context.Context, event audit.Event) error {
	handler, ok := r.handlers[event.Category]
	if !ok {
		if r.fallback != nil {
			return r.fallback.Handle(ctx, event)
		}
		r.logger.Warn("no handler for category, skipping event",
			"category", event.Category,
			"action", event.Action,
		)
		return nil
	}
	return handler.Handle(ctx, event)
}
