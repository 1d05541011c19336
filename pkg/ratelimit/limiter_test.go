package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	assert.IsType(t, Unlimited{}, New(0))
	assert.IsType(t, Unlimited{}, New(-5))
	assert.IsType(t, &SlidingWindow{}, New(60))
}

func TestUnlimitedHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, Unlimited{}.Wait(ctx))
	cancel()
	assert.ErrorIs(t, Unlimited{}.Wait(ctx), context.Canceled)
}

func TestSlidingWindow(t *testing.T) {
	sw := NewSlidingWindow(3, 150*time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, sw.Wait(ctx))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	// fourth request must wait for the window to slide
	require.NoError(t, sw.Wait(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 140*time.Millisecond)

	sw.Reset()
	assert.Empty(t, sw.requests)
}

func TestSlidingWindowCancelled(t *testing.T) {
	sw := NewSlidingWindow(1, time.Hour)
	require.NoError(t, sw.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, sw.Wait(ctx), context.DeadlineExceeded)
}

func TestCleanOldRequests(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sw := NewSlidingWindow(2, time.Minute)
	sw.now = func() time.Time { return base }

	assert.Zero(t, sw.reserve())
	assert.Zero(t, sw.reserve())
	assert.Equal(t, time.Minute, sw.reserve())

	sw.now = func() time.Time { return base.Add(45 * time.Second) }
	assert.Equal(t, 15*time.Second, sw.reserve())

	sw.now = func() time.Time { return base.Add(time.Minute) }
	assert.Zero(t, sw.reserve())
}
