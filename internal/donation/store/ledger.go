// Package store persists the donation registry as ledger instance storage: one
// singleton entry for the id counter, one for the aggregate stats and one entry per
// donation, all sharing a single retention window. Backends differ only in how
// they stage, commit and expire those entries.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"bloodledger/internal/donation/models"
	"bloodledger/internal/donation/ports"
	"bloodledger/pkg/platform/sentinel"
)

const (
	counterKey     = "D_COUNT"
	statsKey       = "STATS"
	donationPrefix = "DONATION:"
)

func donationKey(id models.DonationID) string {
	return donationPrefix + strconv.FormatUint(uint64(id), 10)
}

// entries is the raw key-value surface a backend exposes inside one call.
// get returns sentinel.ErrNotFound for missing keys.
type entries interface {
	get(ctx context.Context, key string) ([]byte, error)
	set(ctx context.Context, key string, value []byte) error
	extendRetention(ctx context.Context, policy models.RetentionPolicy, now uint64) error
}

// readOnly rejects every mutation; used for View calls.
type readOnly struct {
	entries
}

func (readOnly) set(context.Context, string, []byte) error {
	return sentinel.ErrReadOnly
}

func (readOnly) extendRetention(context.Context, models.RetentionPolicy, uint64) error {
	return sentinel.ErrReadOnly
}

// ledgerStore adapts raw entries to the typed ports.Store with a JSON codec.
type ledgerStore struct {
	e entries
}

var _ ports.Store = (*ledgerStore)(nil)

func newLedgerStore(e entries) *ledgerStore {
	return &ledgerStore{e: e}
}

func (s *ledgerStore) LoadCounter(ctx context.Context) (models.DonationID, error) {
	var count uint64
	found, err := s.load(ctx, counterKey, &count)
	if err != nil || !found {
		return 0, err
	}
	return models.DonationID(count), nil
}

func (s *ledgerStore) SaveCounter(ctx context.Context, id models.DonationID) error {
	return s.save(ctx, counterKey, uint64(id))
}

func (s *ledgerStore) FindRecord(ctx context.Context, id models.DonationID) (*models.DonationRecord, error) {
	var record models.DonationRecord
	found, err := s.load(ctx, donationKey(id), &record)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, sentinel.ErrNotFound
	}
	return &record, nil
}

func (s *ledgerStore) SaveRecord(ctx context.Context, record *models.DonationRecord) error {
	if record == nil {
		return fmt.Errorf("donation record is required")
	}
	return s.save(ctx, donationKey(record.ID), record)
}

func (s *ledgerStore) LoadStats(ctx context.Context) (models.DonationStats, error) {
	var stats models.DonationStats
	if _, err := s.load(ctx, statsKey, &stats); err != nil {
		return models.DonationStats{}, err
	}
	return stats, nil
}

func (s *ledgerStore) SaveStats(ctx context.Context, stats models.DonationStats) error {
	return s.save(ctx, statsKey, stats)
}

func (s *ledgerStore) ExtendRetention(ctx context.Context, policy models.RetentionPolicy, now uint64) error {
	return s.e.extendRetention(ctx, policy, now)
}

func (s *ledgerStore) load(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := s.e.get(ctx, key)
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *ledgerStore) save(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.e.set(ctx, key, raw); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// extendedLiveUntil applies the host's TTL rule: when fewer than Threshold
// seconds remain, the window is pushed to now+ExtendTo. It never shrinks.
func extendedLiveUntil(liveUntil uint64, policy models.RetentionPolicy, now uint64) uint64 {
	if liveUntil >= now+policy.ThresholdSeconds() {
		return liveUntil
	}
	target := now + policy.ExtendSeconds()
	if target < liveUntil {
		return liveUntil
	}
	return target
}
