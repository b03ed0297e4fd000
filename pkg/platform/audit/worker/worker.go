package worker

import (
	"context"
	"log/slog"

	audit "bloodledger/pkg/platform/audit"
)

// Worker consumes audit events from a channel and persists them. A failed append
// is logged and skipped; audit is observational and must not stall the inbox.
type Worker struct {
	store  audit.Store
	inbox  <-chan audit.Event
	logger *slog.Logger
}

func NewWorker(store audit.Store, inbox <-chan audit.Event, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{store: store, inbox: inbox, logger: logger}
}

// Run persists events until the inbox is closed. Closing the inbox is the only
// way to stop it, so queued events are always drained.
func (w *Worker) Run(ctx context.Context) {
	for event := range w.inbox {
		if err := w.store.Append(ctx, event); err != nil {
			w.logger.WarnContext(ctx, "audit append failed",
				"action", event.Action,
				"donation_id", event.DonationID,
				"error", err,
			)
		}
	}
}
