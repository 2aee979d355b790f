package scheduler

import "time"

// Clock abstracts wall time so the loop can be driven by a fake in tests.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type SystemClock struct{}

func (SystemClock) Now() time.Time        { return time.Now() }
func (SystemClock) Sleep(d time.Duration) { time.Sleep(d) }

// TickClock tracks the last tick instant and the accumulated drift between
// ideal and actual tick spacing.
type TickClock struct {
	Interval time.Duration
	Last     time.Time
	Drift    time.Duration
}

func NewTickClock(fps float64, now time.Time) TickClock {
	return TickClock{
		Interval: time.Duration(float64(time.Second) / fps),
		Last:     now,
	}
}

// Remaining is the time left until the next tick boundary, shortened by
// positive drift so that late ticks are caught up.
func (c *TickClock) Remaining(now time.Time) time.Duration {
	return c.Interval - now.Sub(c.Last) - c.Drift
}

// Advance records a tick at now and returns the elapsed time since the
// previous one. Drift is clamped to plus or minus one interval.
func (c *TickClock) Advance(now time.Time) time.Duration {
	elapsed := now.Sub(c.Last)
	c.Drift += elapsed - c.Interval
	if c.Drift > c.Interval {
		c.Drift = c.Interval
	} else if c.Drift < -c.Interval {
		c.Drift = -c.Interval
	}
	c.Last = now
	return elapsed
}
