package control

import "context"

// Source produces a control vector from one input modality.
type Source interface {
	// Poll returns the most recent state without blocking.
	Poll() Vector
	// Reset drops all held state, e.g. after the window loses focus.
	Reset()
}

// Runner is implemented by sources that own a background loop.
type Runner interface {
	Start(ctx context.Context) error
	Close() error
}
