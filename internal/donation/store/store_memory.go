package store

import (
	"context"
	"sync"

	"bloodledger/internal/donation/models"
	"bloodledger/internal/donation/ports"
	"bloodledger/pkg/platform/sentinel"
)

// InMemory is a single-process host: calls are serialized by one lock and each
// call's writes are staged until it returns nil, so an aborted call leaves no
// trace. Retention is tracked but never enforced.
type InMemory struct {
	mu        sync.RWMutex
	entries   map[string][]byte
	liveUntil uint64
}

var _ ports.Ledger = (*InMemory)(nil)

func NewInMemory() *InMemory {
	return &InMemory{entries: make(map[string][]byte)}
}

func (s *InMemory) RunInTx(ctx context.Context, fn func(store ports.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &memoryTx{base: s, writes: make(map[string][]byte), liveUntil: s.liveUntil}
	if err := fn(newLedgerStore(tx)); err != nil {
		return err
	}
	for k, v := range tx.writes {
		s.entries[k] = v
	}
	s.liveUntil = tx.liveUntil
	return nil
}

func (s *InMemory) View(ctx context.Context, fn func(store ports.Store) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(newLedgerStore(readOnly{&memoryTx{base: s, liveUntil: s.liveUntil}}))
}

// LiveUntil reports the ledger timestamp instance storage is retained until.
func (s *InMemory) LiveUntil() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.liveUntil
}

// Len reports the number of committed entries.
func (s *InMemory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// memoryTx is only used while the owning InMemory lock is held.
type memoryTx struct {
	base      *InMemory
	writes    map[string][]byte
	liveUntil uint64
}

func (t *memoryTx) get(_ context.Context, key string) ([]byte, error) {
	if v, ok := t.writes[key]; ok {
		return append([]byte(nil), v...), nil
	}
	if v, ok := t.base.entries[key]; ok {
		return append([]byte(nil), v...), nil
	}
	return nil, sentinel.ErrNotFound
}

func (t *memoryTx) set(_ context.Context, key string, value []byte) error {
	t.writes[key] = append([]byte(nil), value...)
	return nil
}

func (t *memoryTx) extendRetention(_ context.Context, policy models.RetentionPolicy, now uint64) error {
	t.liveUntil = extendedLiveUntil(t.liveUntil, policy, now)
	return nil
}
