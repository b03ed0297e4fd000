package consumer

import (
	"context"
	"log/slog"

	audit "bloodledger/pkg/platform/audit"
)

// NewStoreHandler appends every event to store. Store appends must be idempotent
// on the event id; the consumer delivers at least once.
func NewStoreHandler(store audit.Store) Handler {
	return HandlerFunc(store.Append)
}

// SafetyHandler raises a cold-chain alert in the logs before passing the event on.
type SafetyHandler struct {
	next   Handler
	logger *slog.Logger
}

func NewSafetyHandler(next Handler, logger *slog.Logger) *SafetyHandler {
	return &SafetyHandler{next: next, logger: logger}
}

func (h *SafetyHandler) Handle(ctx context.Context, event audit.Event) error {
	h.logger.WarnContext(ctx, "cold chain violation",
		"donation_id", event.DonationID,
		"detail", event.Detail,
		"ledger_time", event.LedgerTime,
	)
	return h.next.Handle(ctx, event)
}

// OpsHandler records routine readings at debug level only; they are sampled
// out of the durable trail.
type OpsHandler struct {
	logger *slog.Logger
}

func NewOpsHandler(logger *slog.Logger) *OpsHandler {
	return &OpsHandler{logger: logger}
}

func (h *OpsHandler) Handle(ctx context.Context, event audit.Event) error {
	h.logger.DebugContext(ctx, "storage reading",
		"donation_id", event.DonationID,
		"detail", event.Detail,
	)
	return nil
}
