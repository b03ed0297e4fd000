package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeterministicClock(t *testing.T) {
	c := NewDeterministicClock(100)
	assert.Equal(t, uint64(100), c.Now(context.Background()))
	assert.Equal(t, uint64(100), c.Now(context.Background()), "Now must not advance the clock")
	assert.Equal(t, uint64(105), c.Advance(5))
	assert.Equal(t, uint64(105), c.Now(context.Background()))
}

func TestDeterministicClock_ConcurrentAdvance(t *testing.T) {
	c := NewDeterministicClock(0)
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Advance(1)
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(50), c.Now(context.Background()))
}
