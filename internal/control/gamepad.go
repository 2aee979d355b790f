package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
)

const (
	MaxJoyValue     = 1 << 15
	MaxTriggerValue = 1 << 8
)

// GamepadCode identifies a gamepad axis or button.
type GamepadCode int

const (
	PadLeftX GamepadCode = iota + 1
	PadLeftY
	PadRightX
	PadRightY
	PadLeftTrigger
	PadRightTrigger
	PadLeftBumper
	PadRightBumper
	PadA
	PadB
	PadX
	PadY
	PadLeftThumb
	PadRightThumb
	PadBack
	PadStart
	PadDPadLeft
	PadDPadRight
	PadDPadUp
	PadDPadDown
)

type GamepadEvent struct {
	Code  GamepadCode
	Value int32
}

// Device delivers raw gamepad events. ReadEvents may block until events
// arrive; it returns an error once the device is gone.
type Device interface {
	ReadEvents(ctx context.Context) ([]GamepadEvent, error)
	Close() error
}

var ErrDeviceGone = errors.New("gamepad device unavailable")

// padEdges lists the debounced buttons and the action each one fires.
var padEdges = []struct {
	code   GamepadCode
	action Action
}{
	{PadY, ActionToggleTargetCam},
	{PadStart, ActionSwitchTarget},
	{PadBack, ActionSwitchCar},
}

// Gamepad polls a Device on its own goroutine and publishes the latest
// normalized vector for the tick thread to read without locking.
type Gamepad struct {
	device Device
	sink   ActionSink

	latest    atomic.Pointer[Vector]
	available atomic.Bool
	onLost    func(error)

	// owned by the polling goroutine
	raw   map[GamepadCode]int32
	fired map[GamepadCode]bool

	startOnce sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewGamepad(device Device, sink ActionSink) *Gamepad {
	g := &Gamepad{
		device: device,
		sink:   sinkOrDiscard(sink),
		raw:    make(map[GamepadCode]int32),
		fired:  make(map[GamepadCode]bool),
	}
	g.latest.Store(&Vector{})
	g.available.Store(device != nil)
	return g
}

func (g *Gamepad) Poll() Vector {
	return *g.latest.Load()
}

func (g *Gamepad) Reset() {
	g.latest.Store(&Vector{})
}

// OnLost registers fn to run on the polling goroutine when the device
// fails. Call it before Start.
func (g *Gamepad) OnLost(fn func(error)) {
	g.onLost = fn
}

// Available reports whether the device is still delivering events.
func (g *Gamepad) Available() bool {
	return g.available.Load()
}

func (g *Gamepad) Start(ctx context.Context) error {
	if g.device == nil {
		return fmt.Errorf("gamepad: %w", ErrDeviceGone)
	}
	started := false
	g.startOnce.Do(func() {
		started = true
		loopCtx, cancel := context.WithCancel(ctx)
		g.cancel = cancel
		g.done = make(chan struct{})
		go g.pollLoop(loopCtx)
	})
	if !started {
		return errors.New("gamepad already started")
	}
	return nil
}

func (g *Gamepad) Close() error {
	if g.cancel == nil {
		if g.device != nil {
			return g.device.Close()
		}
		return nil
	}
	g.cancel()
	err := g.device.Close()
	<-g.done
	return err
}

func (g *Gamepad) pollLoop(ctx context.Context) {
	defer close(g.done)
	for {
		events, err := g.device.ReadEvents(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			slog.Warn("Gamepad disconnected, controls neutral", "error", err)
			g.available.Store(false)
			g.latest.Store(&Vector{})
			if g.onLost != nil {
				g.onLost(err)
			}
			return
		}
		if len(events) > 0 {
			g.apply(events)
		}
	}
}

// apply folds a batch of raw events into the published state.
func (g *Gamepad) apply(events []GamepadEvent) {
	for _, ev := range events {
		g.raw[ev.Code] = ev.Value
	}

	v := g.derive()
	g.latest.Store(&v)

	for _, edge := range padEdges {
		down := g.raw[edge.code] != 0
		switch {
		case down && !g.fired[edge.code]:
			g.fired[edge.code] = true
			g.sink.HandleAction(edge.action)
		case !down && g.fired[edge.code]:
			g.fired[edge.code] = false
		}
	}
}

func (g *Gamepad) derive() Vector {
	leftX := normalizeAxis(g.raw[PadLeftX])
	leftY := normalizeAxis(g.raw[PadLeftY])
	lt := normalizeTrigger(g.raw[PadLeftTrigger])
	rt := normalizeTrigger(g.raw[PadRightTrigger])

	throttle := rt
	if throttle == 0 {
		throttle = -lt
	}
	roll := float64(g.button(PadRightBumper))
	if roll == 0 {
		roll = -float64(g.button(PadLeftBumper))
	}

	return Vector{
		Throttle:  throttle,
		Steer:     leftX,
		Roll:      roll,
		Pitch:     -leftY,
		Yaw:       leftX,
		Jump:      g.raw[PadA] != 0,
		Handbrake: g.raw[PadX] != 0,
		Boost:     g.raw[PadB] != 0,
	}
}

func (g *Gamepad) button(code GamepadCode) int {
	if g.raw[code] != 0 {
		return 1
	}
	return 0
}

func normalizeAxis(raw int32) float64 {
	return math.Max(-1, math.Min(1, float64(raw)/MaxJoyValue))
}

func normalizeTrigger(raw int32) float64 {
	return math.Max(0, math.Min(1, float64(raw)/MaxTriggerValue))
}
