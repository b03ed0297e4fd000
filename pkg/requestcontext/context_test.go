package requestcontext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLedgerTime(t *testing.T) {
	_, ok := LedgerTime(context.Background())
	assert.False(t, ok, "unset ledger time must report absence")

	ts, ok := LedgerTime(WithLedgerTime(context.Background(), 1234))
	assert.True(t, ok)
	assert.Equal(t, uint64(1234), ts)
}

func TestApprovalsAccumulate(t *testing.T) {
	ctx := WithApprovals(context.Background(), "a")
	ctx = WithApprovals(ctx, "b", "c")
	assert.Equal(t, []string{"a", "b", "c"}, Approvals(ctx))
	assert.Nil(t, Approvals(context.Background()))
}

func TestRequestID(t *testing.T) {
	assert.Empty(t, RequestID(context.Background()))
	assert.Equal(t, "req-1", RequestID(WithRequestID(context.Background(), "req-1")))
}
