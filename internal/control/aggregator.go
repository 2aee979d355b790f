package control

import (
	"context"
	"errors"
	"fmt"
)

// Aggregator merges several sources into one vector. It is itself a Source,
// so aggregators can be nested.
type Aggregator struct {
	sources []Source
}

func NewAggregator(sources ...Source) *Aggregator {
	a := &Aggregator{}
	for _, s := range sources {
		a.Add(s)
	}
	return a
}

func (a *Aggregator) Add(s Source) {
	if s == nil {
		return
	}
	a.sources = append(a.sources, s)
}

func (a *Aggregator) Sources() []Source {
	return append([]Source(nil), a.sources...)
}

// Poll sums the continuous fields, ORs the buttons and clamps the result.
func (a *Aggregator) Poll() Vector {
	var out Vector
	for _, s := range a.sources {
		out = out.Add(s.Poll())
	}
	out.ClampFix()
	return out
}

func (a *Aggregator) Reset() {
	for _, s := range a.sources {
		s.Reset()
	}
}

// Start starts every source that runs in the background. Sources already
// started are closed again if a later one fails.
func (a *Aggregator) Start(ctx context.Context) error {
	var started []Runner
	for _, s := range a.sources {
		r, ok := s.(Runner)
		if !ok {
			continue
		}
		if err := r.Start(ctx); err != nil {
			for _, prev := range started {
				_ = prev.Close()
			}
			return fmt.Errorf("start source %T: %w", s, err)
		}
		started = append(started, r)
	}
	return nil
}

func (a *Aggregator) Close() error {
	var errs []error
	for _, s := range a.sources {
		if r, ok := s.(Runner); ok {
			if err := r.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
