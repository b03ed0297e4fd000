package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "bloodledger/pkg/platform/audit"
)

type fakeProducer struct {
	records []*kgo.Record
	err     error
}

func (f *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	var results kgo.ProduceResults
	for _, r := range rs {
		f.records = append(f.records, r)
		results = append(results, kgo.ProduceResult{Record: r, Err: f.err})
	}
	return results
}

func TestStore_AppendProducesKeyedRecord(t *testing.T) {
	producer := &fakeProducer{}
	store := New(producer, "donation-audit")

	event := audit.Event{
		ID:         uuid.New(),
		Category:   audit.CategorySafety,
		Timestamp:  time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC),
		LedgerTime: 1700,
		DonationID: 42,
		Action:     string(audit.EventDonationContaminated),
		Detail:     "temp=9",
	}
	require.NoError(t, store.Append(context.Background(), event))

	require.Len(t, producer.records, 1)
	rec := producer.records[0]
	assert.Equal(t, "donation-audit", rec.Topic)
	assert.Equal(t, "42", string(rec.Key))
	require.Len(t, rec.Headers, 1)
	assert.Equal(t, "safety", string(rec.Headers[0].Value))

	var got payload
	require.NoError(t, json.Unmarshal(rec.Value, &got))
	assert.Equal(t, event.ID.String(), got.ID)
	assert.Equal(t, uint64(42), got.DonationID)
	assert.Equal(t, uint64(1700), got.LedgerTime)
	assert.Equal(t, "donation_contaminated", got.Action)
	assert.Equal(t, "2025-03-01T08:00:00Z", got.Timestamp)
}

func TestStore_AppendSurfacesProduceError(t *testing.T) {
	producer := &fakeProducer{err: errors.New("broker unreachable")}
	store := New(producer, "donation-audit")

	err := store.Append(context.Background(), audit.Event{DonationID: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker unreachable")
}

func TestDecode_RoundTripsAppendedRecord(t *testing.T) {
	producer := &fakeProducer{}
	store := New(producer, "donation-audit")

	event := audit.Event{
		ID:         uuid.New(),
		Category:   audit.CategoryCustody,
		Timestamp:  time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC),
		LedgerTime: 1700,
		DonationID: 42,
		Subject:    "GHOSPITAL",
		Action:     string(audit.EventDonationTransferred),
		RequestID:  "req-9",
	}
	require.NoError(t, store.Append(context.Background(), event))
	require.Len(t, producer.records, 1)

	got, err := Decode(producer.records[0])
	require.NoError(t, err)
	assert.Equal(t, event, got)
}

func TestDecode_RejectsMalformedRecords(t *testing.T) {
	for name, value := range map[string]string{
		"not json":      `{`,
		"bad id":        `{"id":"nope","timestamp":"2025-03-01T08:00:00Z"}`,
		"bad timestamp": `{"id":"` + uuid.NewString() + `","timestamp":"yesterday"}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(&kgo.Record{Value: []byte(value)})
			assert.Error(t, err)
		})
	}
}
