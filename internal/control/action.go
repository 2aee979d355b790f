package control

import (
	"fmt"
	"sync"
)

// Action is a discrete, edge-triggered command emitted by a Source.
type Action int

const (
	ActionSwitchCar Action = iota + 1
	ActionSwitchTarget
	ActionToggleTargetCam
	ActionToggleFreeCam
)

func (a Action) String() string {
	switch a {
	case ActionSwitchCar:
		return "switch_car"
	case ActionSwitchTarget:
		return "switch_target"
	case ActionToggleTargetCam:
		return "toggle_target_cam"
	case ActionToggleFreeCam:
		return "toggle_free_cam"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// ParseAction is the inverse of Action.String.
func ParseAction(s string) (Action, error) {
	for a := ActionSwitchCar; a <= ActionToggleFreeCam; a++ {
		if a.String() == s {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownAction, s)
}

// ActionSink receives actions. Sources hold a sink supplied at construction.
type ActionSink interface {
	HandleAction(Action)
}

type ActionSinkFunc func(Action)

func (f ActionSinkFunc) HandleAction(a Action) { f(a) }

type discardSink struct{}

func (discardSink) HandleAction(Action) {}

func sinkOrDiscard(s ActionSink) ActionSink {
	if s == nil {
		return discardSink{}
	}
	return s
}

// ActionQueue buffers actions from any goroutine until the tick thread drains
// them, so handlers always run on the thread that owns the simulation.
type ActionQueue struct {
	mu      sync.Mutex
	pending []Action
}

func NewActionQueue() *ActionQueue {
	return &ActionQueue{}
}

func (q *ActionQueue) HandleAction(a Action) {
	q.mu.Lock()
	q.pending = append(q.pending, a)
	q.mu.Unlock()
}

// Drain returns queued actions in arrival order and empties the queue.
func (q *ActionQueue) Drain() []Action {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil
	}
	out := q.pending
	q.pending = nil
	return out
}

func (q *ActionQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
