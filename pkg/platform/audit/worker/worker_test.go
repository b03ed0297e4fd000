package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "bloodledger/pkg/platform/audit"
	"bloodledger/pkg/platform/audit/store/memory"
)

type failingStore struct{ calls int }

func (f *failingStore) Append(context.Context, audit.Event) error {
	f.calls++
	return errors.New("sink down")
}

func TestWorker_DrainsInboxUntilClosed(t *testing.T) {
	store := memory.NewInMemoryStore()
	inbox := make(chan audit.Event, 3)
	for i := uint64(1); i <= 3; i++ {
		inbox <- audit.Event{DonationID: i, Action: string(audit.EventDonationRegistered)}
	}
	close(inbox)

	NewWorker(store, inbox, nil).Run(context.Background())

	events, err := store.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, events, 3)
}

func TestWorker_ContinuesAfterAppendFailure(t *testing.T) {
	store := &failingStore{}
	inbox := make(chan audit.Event, 2)
	inbox <- audit.Event{DonationID: 1}
	inbox <- audit.Event{DonationID: 2}
	close(inbox)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	NewWorker(store, inbox, logger).Run(context.Background())

	assert.Equal(t, 2, store.calls, "a failed append must not stop the worker")
}
