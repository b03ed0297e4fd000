package consumer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	kafkastore "bloodledger/pkg/platform/audit/store/kafka"
)

// Fetcher is the subset of *kgo.Client the consumer needs. The client must be
// created with auto-commit disabled.
type Fetcher interface {
	PollFetches(ctx context.Context) kgo.Fetches
	CommitUncommittedOffsets(ctx context.Context) error
}

// Consumer polls the audit topic and routes every record. Offsets are committed
// only after a whole poll was handled.
type Consumer struct {
	client  Fetcher
	handler Handler
	logger  *slog.Logger
}

func New(client Fetcher, handler Handler, logger *slog.Logger) *Consumer {
	return &Consumer{client: client, handler: handler, logger: logger}
}

// Run consumes until ctx is cancelled or a handler fails.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if ctx.Err() != nil {
			return nil
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.WarnContext(ctx, "audit fetch failed",
				"topic", topic,
				"partition", partition,
				"error", err,
			)
		})

		var handleErr error
		fetches.EachRecord(func(record *kgo.Record) {
			if handleErr != nil {
				return
			}
			event, err := kafkastore.Decode(record)
			if err != nil {
				// Malformed records can never succeed; skip them.
				c.logger.WarnContext(ctx, "skipping undecodable audit record",
					"partition", record.Partition,
					"offset", record.Offset,
					"error", err,
				)
				return
			}
			if err := c.handler.Handle(ctx, event); err != nil {
				handleErr = fmt.Errorf("handle audit event %s at offset %d: %w", event.ID, record.Offset, err)
			}
		})
		if handleErr != nil {
			return handleErr
		}

		if err := c.client.CommitUncommittedOffsets(ctx); err != nil && ctx.Err() == nil {
			c.logger.WarnContext(ctx, "audit offset commit failed", "error", err)
		}
	}
}
