package audit_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "bloodledger/pkg/platform/audit"
	"bloodledger/pkg/platform/audit/store/memory"
)

type failingStore struct{ err error }

func (s failingStore) Append(context.Context, audit.Event) error { return s.err }

func TestFanout_AppendsToEveryStore(t *testing.T) {
	first, second := memory.NewInMemoryStore(), memory.NewInMemoryStore()
	event := audit.Event{DonationID: 4, Action: string(audit.EventDonationRegistered)}

	require.NoError(t, audit.Fanout{first, second}.Append(context.Background(), event))

	for _, s := range []*memory.InMemoryStore{first, second} {
		events, err := s.ListByDonation(context.Background(), 4)
		require.NoError(t, err)
		assert.Len(t, events, 1)
	}
}

func TestFanout_StopsAtFirstFailure(t *testing.T) {
	boom := errors.New("disk full")
	after := memory.NewInMemoryStore()

	err := audit.Fanout{failingStore{err: boom}, after}.Append(context.Background(), audit.Event{DonationID: 1})
	require.ErrorIs(t, err, boom)

	events, err := after.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestAuditEvent_Category(t *testing.T) {
	assert.Equal(t, audit.CategoryCustody, audit.EventDonationRegistered.Category())
	assert.Equal(t, audit.CategoryCustody, audit.EventDonationTransferred.Category())
	assert.Equal(t, audit.CategorySafety, audit.EventDonationContaminated.Category())
	assert.Equal(t, audit.CategoryOperations, audit.EventStorageUpdated.Category())
	assert.Equal(t, audit.CategoryOperations, audit.AuditEvent("unknown").Category())
}
