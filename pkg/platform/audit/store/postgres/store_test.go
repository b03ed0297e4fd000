package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "bloodledger/pkg/platform/audit"
)

var columns = []string{"id", "category", "timestamp", "ledger_time", "donation_id", "subject", "action", "detail", "request_id"}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return New(db), mock
}

func TestStore_AppendIsIdempotentInsert(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()
	ts := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta(`ON CONFLICT (id) DO NOTHING`)).
		WithArgs(id, "safety", ts, int64(1700), int64(42), "", "donation_contaminated", "temp=9", "req-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Append(context.Background(), audit.Event{
		ID:         id,
		Timestamp:  ts,
		LedgerTime: 1700,
		DonationID: 42,
		Action:     string(audit.EventDonationContaminated),
		Detail:     "temp=9",
		RequestID:  "req-1",
	})
	require.NoError(t, err)
}

func TestStore_AppendWrapsDatabaseError(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO audit_events`)).WillReturnError(errors.New("connection reset"))

	err := store.Append(context.Background(), audit.Event{Action: string(audit.EventStorageUpdated)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert audit event")
}

func TestStore_ListByDonation(t *testing.T) {
	store, mock := newMockStore(t)
	first, second := uuid.New(), uuid.New()
	ts := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE donation_id = $1`)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(first.String(), "custody", ts, int64(100), int64(7), "GDONOR", "donation_registered", "blood_type=O+ temp=4", "").
			AddRow(second.String(), "custody", ts.Add(time.Minute), int64(160), int64(7), "GHOSPITAL", "donation_transferred", "", "req-2"))

	events, err := store.ListByDonation(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, first, events[0].ID)
	assert.Equal(t, audit.CategoryCustody, events[0].Category)
	assert.Equal(t, uint64(100), events[0].LedgerTime)
	assert.Equal(t, "GHOSPITAL", events[1].Subject)
	assert.Equal(t, uint64(7), events[1].DonationID)
}

func TestStore_ListRecent(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(`LIMIT $1`)).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows(columns))

	events, err := store.ListRecent(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, events)
}
