// Package scheduler runs a fixed-rate tick loop that compensates for sleep
// overshoot by accumulating drift.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type State int

const (
	StateWaiting State = iota
	StateTicking
)

func (s State) String() string {
	if s == StateTicking {
		return "ticking"
	}
	return "waiting"
}

const (
	// Below this remaining time the loop spins instead of sleeping.
	spinThreshold = 500 * time.Microsecond
	tickEpsilon   = 100 * time.Nanosecond
)

// Stats is a snapshot of the loop's timing.
type Stats struct {
	Ticks       uint64
	Drift       time.Duration
	LastElapsed time.Duration
	LastWork    time.Duration
	FPS         float64
}

// Scheduler calls frame once per tick at a fixed rate. Run and frame share
// one goroutine; Stats and State may be read from any goroutine.
type Scheduler struct {
	fps   float64
	clock Clock
	frame func()

	mu    sync.Mutex
	state State
	tc    TickClock
	stats Stats

	tickCount    metric.Int64Counter
	tickDuration metric.Float64Histogram
	driftGauge   metric.Float64ObservableGauge
	registration metric.Registration
	attrs        metric.MeasurementOption
}

// New creates a scheduler. It uses the global OTel meter for metrics, which
// is a no-op unless a provider is installed.
func New(fps float64, clock Clock, frame func()) (*Scheduler, error) {
	if fps <= 0 {
		return nil, fmt.Errorf("scheduler: fps must be positive, got %v", fps)
	}
	if frame == nil {
		return nil, errors.New("scheduler: nil frame func")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	s := &Scheduler{
		fps:   fps,
		clock: clock,
		frame: frame,
		attrs: metric.WithAttributes(attribute.Float64("fps", fps)),
	}

	m := meter()
	var err error

	s.tickCount, err = m.Int64Counter(
		"arenaview.tick.count",
		metric.WithDescription("Total ticks executed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tick counter: %w", err)
	}

	s.tickDuration, err = m.Float64Histogram(
		"arenaview.tick.duration",
		metric.WithDescription("Time spent inside one tick"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tick duration histogram: %w", err)
	}

	s.driftGauge, err = m.Float64ObservableGauge(
		"arenaview.tick.drift",
		metric.WithDescription("Accumulated tick drift"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating drift gauge: %w", err)
	}

	s.registration, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			st := s.Stats()
			o.ObserveFloat64(s.driftGauge, durationMillis(st.Drift), s.attrs)
			return nil
		},
		s.driftGauge,
	)
	if err != nil {
		return nil, fmt.Errorf("registering drift callback: %w", err)
	}

	return s, nil
}

func (s *Scheduler) FPS() float64 { return s.fps }

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stats
	st.Drift = s.tc.Drift
	return st
}

// Run ticks until ctx is done. A tick in progress always completes first.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	s.tc = NewTickClock(s.fps, s.clock.Now())
	s.mu.Unlock()

	for {
		if !s.wait(ctx) {
			return nil
		}
		s.tick(ctx)
	}
}

// wait blocks in StateWaiting until the next tick boundary. It sleeps while
// far from the boundary and spins for the last stretch.
func (s *Scheduler) wait(ctx context.Context) bool {
	s.setState(StateWaiting)
	for {
		if ctx.Err() != nil {
			return false
		}
		s.mu.Lock()
		remaining := s.tc.Remaining(s.clock.Now())
		s.mu.Unlock()

		switch {
		case remaining < tickEpsilon:
			return true
		case remaining > spinThreshold:
			s.clock.Sleep(remaining - spinThreshold)
		default:
			runtime.Gosched()
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	start := s.clock.Now()
	s.mu.Lock()
	s.state = StateTicking
	elapsed := s.tc.Advance(start)
	s.mu.Unlock()

	s.frame()

	work := s.clock.Now().Sub(start)

	s.mu.Lock()
	s.stats.Ticks++
	s.stats.LastElapsed = elapsed
	s.stats.LastWork = work
	if elapsed > 0 {
		s.stats.FPS = float64(time.Second) / float64(elapsed)
	}
	s.mu.Unlock()

	s.tickCount.Add(ctx, 1, s.attrs)
	s.tickDuration.Record(ctx, durationMillis(work), s.attrs)
}

func (s *Scheduler) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Close unregisters the metric callback.
func (s *Scheduler) Close() error {
	if s.registration == nil {
		return nil
	}
	return s.registration.Unregister()
}

func durationMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
