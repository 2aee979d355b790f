package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances by a small step on every Now call, which stands in for
// the time a spin iteration takes, and oversleeps by late on every Sleep.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	step   time.Duration
	late   time.Duration
	sleeps int
}

func newFakeClock(late time.Duration) *fakeClock {
	return &fakeClock{
		now:  time.Unix(1700000000, 0),
		step: time.Microsecond,
		late: late,
	}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(c.step)
	return c.now
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps++
	c.now = c.now.Add(d + c.late)
}

func (c *fakeClock) peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func TestTickClockDriftSaturates(t *testing.T) {
	start := time.Unix(0, 0)
	tc := NewTickClock(60, start)
	require.Equal(t, time.Second/60, tc.Interval)

	now := start
	for i := 0; i < 1000; i++ {
		now = now.Add(tc.Interval + time.Millisecond)
		elapsed := tc.Advance(now)
		assert.Equal(t, tc.Interval+time.Millisecond, elapsed)
		require.LessOrEqual(t, tc.Drift, tc.Interval)
	}
	assert.Equal(t, tc.Interval, tc.Drift)
}

func TestTickClockNegativeDriftSaturates(t *testing.T) {
	start := time.Unix(0, 0)
	tc := NewTickClock(120, start)

	now := start
	for i := 0; i < 1000; i++ {
		now = now.Add(tc.Interval / 4)
		tc.Advance(now)
	}
	assert.Equal(t, -tc.Interval, tc.Drift)
}

func TestTickClockRemainingAccountsForDrift(t *testing.T) {
	start := time.Unix(0, 0)
	tc := NewTickClock(100, start)
	tc.Advance(start.Add(13 * time.Millisecond))

	assert.Equal(t, 3*time.Millisecond, tc.Drift)
	assert.Equal(t, 7*time.Millisecond, tc.Remaining(tc.Last))
	assert.Equal(t, -3*time.Millisecond, tc.Remaining(tc.Last.Add(10*time.Millisecond)))
}

func TestNewRejectsBadArguments(t *testing.T) {
	_, err := New(0, nil, func() {})
	assert.Error(t, err)

	_, err = New(60, nil, nil)
	assert.Error(t, err)

	s, err := New(60, nil, func() {})
	require.NoError(t, err)
	assert.Equal(t, 60.0, s.FPS())
	assert.NoError(t, s.Close())
}

func TestRunCompensatesForOversleep(t *testing.T) {
	clock := newFakeClock(time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const ticks = 300
	var s *Scheduler
	var count int
	var states []State
	s, err := New(60, clock, func() {
		count++
		states = append(states, s.State())
		if count == ticks {
			cancel()
		}
	})
	require.NoError(t, err)
	defer s.Close()

	begin := clock.peek()
	require.NoError(t, s.Run(ctx))
	total := clock.peek().Sub(begin)

	stats := s.Stats()
	assert.Equal(t, uint64(ticks), stats.Ticks)
	assert.Equal(t, ticks, count)
	assert.LessOrEqual(t, stats.Drift, time.Second/60)
	assert.GreaterOrEqual(t, stats.Drift, -time.Second/60)
	assert.Positive(t, clock.sleeps)

	// Each sleep overshoots by 1ms, yet the long-run rate holds.
	ideal := time.Duration(ticks) * (time.Second / 60)
	assert.InDelta(t, float64(ideal), float64(total), float64(3*time.Millisecond))
	assert.InDelta(t, 60, stats.FPS, 1)

	for _, st := range states {
		require.Equal(t, StateTicking, st)
	}
	assert.Equal(t, StateWaiting, s.State())
}

func TestRunReturnsWhenCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, err := New(30, newFakeClock(0), func() { t.Fatal("frame ran after cancel") })
	require.NoError(t, err)
	assert.NoError(t, s.Run(ctx))
	assert.Zero(t, s.Stats().Ticks)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "waiting", StateWaiting.String())
	assert.Equal(t, "ticking", StateTicking.String())
}
