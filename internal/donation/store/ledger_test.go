package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"bloodledger/internal/donation/models"
)

func TestExtendedLiveUntil(t *testing.T) {
	policy := models.RetentionPolicy{Threshold: 10, ExtendTo: 20, LedgerInterval: time.Second}

	tests := []struct {
		name      string
		liveUntil uint64
		now       uint64
		want      uint64
	}{
		{name: "fresh instance is extended", liveUntil: 0, now: 100, want: 120},
		{name: "plenty remaining is left alone", liveUntil: 115, now: 100, want: 115},
		{name: "exactly threshold remaining is left alone", liveUntil: 110, now: 100, want: 110},
		{name: "below threshold is extended", liveUntil: 109, now: 100, want: 120},
		{name: "expired window is extended from now", liveUntil: 50, now: 100, want: 120},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extendedLiveUntil(tt.liveUntil, policy, tt.now))
		})
	}

	t.Run("never shrinks", func(t *testing.T) {
		wide := models.RetentionPolicy{Threshold: 50, ExtendTo: 5, LedgerInterval: time.Second}
		assert.Equal(t, uint64(140), extendedLiveUntil(140, wide, 100))
	})
}

func TestDonationKey(t *testing.T) {
	assert.Equal(t, "DONATION:17", donationKey(17))
}
