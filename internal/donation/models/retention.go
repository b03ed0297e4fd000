package models

import "time"

// RetentionPolicy is the TTL hint passed to the host store on every mutating call.
// Threshold and ExtendTo are counted in ledgers; LedgerInterval converts them to
// wall time for backends that expire by duration.
type RetentionPolicy struct {
	Threshold      uint32
	ExtendTo       uint32
	LedgerInterval time.Duration
}

// DefaultRetention keeps instance storage alive for 5000 ledgers of ~5s each.
func DefaultRetention() RetentionPolicy {
	return RetentionPolicy{Threshold: 5000, ExtendTo: 5000, LedgerInterval: 5 * time.Second}
}

func (p RetentionPolicy) ThresholdDuration() time.Duration {
	return time.Duration(p.Threshold) * p.LedgerInterval
}

func (p RetentionPolicy) ExtendDuration() time.Duration {
	return time.Duration(p.ExtendTo) * p.LedgerInterval
}

// ThresholdSeconds and ExtendSeconds express the window in ledger-timestamp units.
func (p RetentionPolicy) ThresholdSeconds() uint64 {
	return uint64(p.ThresholdDuration() / time.Second)
}

func (p RetentionPolicy) ExtendSeconds() uint64 {
	return uint64(p.ExtendDuration() / time.Second)
}
