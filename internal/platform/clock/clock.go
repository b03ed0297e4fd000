// Package clock supplies ledger timestamps to the registry.
package clock

import (
	"context"
	"sync"
	"time"

	"bloodledger/pkg/requestcontext"
)

// Ledger derives ledger timestamps (unix seconds) from wall time. A timestamp
// pinned on the context by the host wins. Values never go backwards, even if the
// wall clock does.
type Ledger struct {
	mu   sync.Mutex
	now  func() time.Time
	last uint64
}

type Option func(*Ledger)

// WithNow overrides the wall clock, for tests.
func WithNow(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

func New(opts ...Option) *Ledger {
	l := &Ledger{now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) Now(ctx context.Context) uint64 {
	if ts, ok := requestcontext.LedgerTime(ctx); ok {
		return ts
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	ts := uint64(l.now().Unix())
	if ts < l.last {
		ts = l.last
	}
	l.last = ts
	return ts
}
