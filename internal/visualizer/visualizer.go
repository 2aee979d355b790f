// Package visualizer drives the per-tick loop: it steps the simulation,
// forwards merged controls to the spectated car, mirrors entities into
// render proxies, aims the camera and hands a frame to the renderer.
package visualizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/Versifine/arenaview/internal/camera"
	"github.com/Versifine/arenaview/internal/control"
	"github.com/Versifine/arenaview/internal/event"
	"github.com/Versifine/arenaview/internal/mathx"
	"github.com/Versifine/arenaview/internal/scene"
	"github.com/Versifine/arenaview/internal/scheduler"
	"github.com/Versifine/arenaview/internal/sim"
)

type Options struct {
	FPS float64
	// TickSkip is the number of simulation ticks per frame. Zero derives it
	// from the arena tick rate and FPS.
	TickSkip          int
	StepArena         bool
	OverwriteControls bool
	DebugText         bool
	Camera            camera.Config
	Clock             scheduler.Clock
}

func DefaultOptions() Options {
	return Options{
		FPS:               60,
		StepArena:         true,
		OverwriteControls: true,
		Camera:            camera.DefaultConfig(),
	}
}

type Visualizer struct {
	arena    sim.Arena
	source   control.Source
	actions  *control.ActionQueue
	renderer Renderer
	bus      *event.Bus
	opts     Options

	recon   *scene.Reconciler
	tracker *camera.Tracker

	stepArena atomic.Bool
	overwrite atomic.Bool
	manual    atomic.Bool

	orbitMu sync.Mutex
	orbitAz float64
	orbitEl float64

	statsMu sync.RWMutex
	stats   func() scheduler.Stats

	ticks        uint64
	lastControls control.Vector
}

// New builds a visualizer and performs the initial entity sync. source,
// actions, renderer and bus may be nil.
func New(arena sim.Arena, source control.Source, actions *control.ActionQueue, renderer Renderer, bus *event.Bus, opts Options) (*Visualizer, error) {
	if arena == nil {
		return nil, errors.New("visualizer: nil arena")
	}
	if opts.FPS <= 0 {
		return nil, fmt.Errorf("visualizer: fps must be positive, got %v", opts.FPS)
	}
	if opts.TickSkip <= 0 {
		opts.TickSkip = max(1, int(math.Round(arena.TickRate()/opts.FPS)))
	}
	if source == nil {
		source = control.NewAggregator()
	}
	if actions == nil {
		actions = control.NewActionQueue()
	}
	if renderer == nil {
		renderer = discardRenderer{}
	}

	v := &Visualizer{
		arena:    arena,
		source:   source,
		actions:  actions,
		renderer: renderer,
		bus:      bus,
		opts:     opts,
		recon:    scene.NewReconciler(arena),
		tracker:  camera.NewTracker(opts.Camera),
	}
	v.stepArena.Store(opts.StepArena)
	v.overwrite.Store(opts.OverwriteControls)

	v.publishSync(v.recon.Sync(arena.CarIDs()))
	v.recon.SyncPads(arena.BoostPads())
	v.recon.UpdateTransforms()
	return v, nil
}

func (v *Visualizer) Options() Options { return v.opts }

func (v *Visualizer) Reconciler() *scene.Reconciler { return v.recon }

func (v *Visualizer) Tracker() *camera.Tracker { return v.tracker }

// Actions is the sink sources should fire into.
func (v *Visualizer) Actions() *control.ActionQueue { return v.actions }

func (v *Visualizer) SetStepArena(on bool) { v.stepArena.Store(on) }

func (v *Visualizer) SetOverwriteControls(on bool) { v.overwrite.Store(on) }

// SetManualOrbit marks whether the user is dragging the view.
func (v *Visualizer) SetManualOrbit(on bool) { v.manual.Store(on) }

// Orbit queues a manual drag delta, applied on the next tick.
func (v *Visualizer) Orbit(dAzimuth, dElevation float64) {
	v.orbitMu.Lock()
	v.orbitAz += dAzimuth
	v.orbitEl += dElevation
	v.orbitMu.Unlock()
}

// FocusLost drops all held input so no key stays stuck.
func (v *Visualizer) FocusLost() {
	v.source.Reset()
}

// Observer exposes the spectated car and the ball to scripted sources. It
// reads simulation state and must only be polled from the tick goroutine.
func (v *Visualizer) Observer() control.Observer {
	return control.ObserverFunc(func() (control.Pose, mathx.Vec3, bool) {
		id, ok := v.recon.Selection().Car()
		if !ok {
			return control.Pose{}, mathx.Vec3{}, false
		}
		state, err := v.arena.CarState(id)
		if err != nil {
			return control.Pose{}, mathx.Vec3{}, false
		}
		pose := control.Pose{Position: state.Pos, Velocity: state.Vel, Rotation: state.Rot}
		return pose, v.arena.Ball().Pos, true
	})
}

// Run starts background sources, then ticks at the configured rate until
// ctx is done. Sources are closed before Run returns.
func (v *Visualizer) Run(ctx context.Context) error {
	if r, ok := v.source.(control.Runner); ok {
		if err := r.Start(ctx); err != nil {
			return fmt.Errorf("start control sources: %w", err)
		}
		defer func() {
			if err := r.Close(); err != nil {
				slog.Warn("Closing control sources failed", "error", err)
			}
		}()
	}

	sched, err := scheduler.New(v.opts.FPS, v.opts.Clock, v.Tick)
	if err != nil {
		return err
	}
	defer sched.Close()

	v.statsMu.Lock()
	v.stats = sched.Stats
	v.statsMu.Unlock()

	slog.Info("Visualizer running", "fps", v.opts.FPS, "tick_skip", v.opts.TickSkip,
		"step_arena", v.stepArena.Load(), "overwrite_controls", v.overwrite.Load())
	return sched.Run(ctx)
}

func (v *Visualizer) schedulerStats() scheduler.Stats {
	v.statsMu.RLock()
	defer v.statsMu.RUnlock()
	if v.stats == nil {
		return scheduler.Stats{}
	}
	return v.stats()
}

// Tick runs one frame. It must be called from a single goroutine.
func (v *Visualizer) Tick() {
	for _, a := range v.actions.Drain() {
		v.handleAction(a)
	}

	if v.stepArena.Load() {
		v.arena.Step(v.opts.TickSkip)
	}

	v.lastControls = v.source.Poll()
	if v.overwrite.Load() {
		if id, ok := v.recon.Selection().Car(); ok {
			if err := v.arena.SetCarControls(id, v.lastControls); err != nil {
				slog.Debug("Forwarding controls failed", "car", id, "error", err)
			}
		}
	}

	v.publishSync(v.recon.Sync(v.arena.CarIDs()))
	v.recon.SyncPads(v.arena.BoostPads())
	v.recon.UpdateTransforms()
	v.updateCamera()

	v.ticks++
	if err := v.renderer.Render(v.frame()); err != nil {
		slog.Debug("Render failed", "tick", v.ticks, "error", err)
	}
}

func (v *Visualizer) handleAction(a control.Action) {
	sel := v.recon.Selection()
	switch a {
	case control.ActionSwitchCar:
		if id, ok := sel.Car(); ok && v.overwrite.Load() {
			if err := v.arena.SetCarControls(id, control.Vector{}); err != nil {
				slog.Debug("Clearing controls failed", "car", id, "error", err)
			}
		}
		sel.SwitchCar(v.recon.TrackedIDs())
		v.publishSelection()
	case control.ActionSwitchTarget:
		sel.SwitchTarget(v.recon.TrackedIDs())
		v.publishSelection()
	case control.ActionToggleTargetCam:
		v.tracker.ToggleTargetCam()
	case control.ActionToggleFreeCam:
		v.tracker.ToggleFreeCam()
	default:
		slog.Warn("Unknown action", "action", a.String())
	}
}

func (v *Visualizer) updateCamera() {
	v.orbitMu.Lock()
	dAz, dEl := v.orbitAz, v.orbitEl
	v.orbitAz, v.orbitEl = 0, 0
	v.orbitMu.Unlock()
	if dAz != 0 || dEl != 0 {
		v.tracker.Orbit(dAz, dEl)
	}

	sel := v.recon.Selection()
	in := camera.Input{
		CameraPos: v.tracker.Params().Position(),
		Manual:    v.manual.Load(),
	}
	in.TargetPos, in.HasTarget = v.recon.TargetPosition(sel.Target())
	if id, ok := sel.Car(); ok {
		if state, err := v.arena.CarState(id); err == nil {
			in.HasBody = true
			in.BodyPos = state.Pos
			in.BodyVel = state.Vel
			in.Supersonic = state.IsSupersonic
		}
	}
	v.tracker.Update(in)
}

func (v *Visualizer) frame() Frame {
	sel := v.recon.Selection()
	f := Frame{
		Tick:       v.ticks,
		Camera:     v.tracker.Params(),
		Cars:       v.recon.Cars(),
		Ball:       v.recon.Ball(),
		BallShadow: v.recon.BallShadow(),
		Pads:       v.recon.Pads(),
		Target:     sel.Target(),
		TargetCam:  v.tracker.TargetCam(),
		FreeCam:    v.tracker.FreeCam(),
		Controls:   v.lastControls,
		Stats:      v.schedulerStats(),
	}
	f.Spectated, f.HasSpectated = sel.Car()

	if v.opts.DebugText {
		var car *sim.CarState
		if f.HasSpectated {
			if state, err := v.arena.CarState(f.Spectated); err == nil {
				car = &state
			}
		}
		f.Debug = debugFields(f.Stats, v.arena.Ball(), car, f.Spectated, v.lastControls)
	}
	return f
}

func (v *Visualizer) publishSync(res scene.SyncResult) {
	if v.bus == nil || res.Empty() {
		return
	}
	for _, id := range res.Added {
		team, _ := v.arena.CarTeam(id)
		v.bus.Publish(event.EventEntityAdded, &event.EntityEvent{CarID: id, Team: team})
	}
	for _, id := range res.Removed {
		v.bus.Publish(event.EventEntityRemoved, &event.EntityEvent{CarID: id})
	}
	if res.SelectionChanged {
		v.publishSelection()
	}
}

func (v *Visualizer) publishSelection() {
	if v.bus == nil {
		return
	}
	sel := v.recon.Selection()
	id, ok := sel.Car()
	v.bus.Publish(event.EventSelectionChanged, &event.SelectionEvent{
		Car:    id,
		HasCar: ok,
		Target: sel.Target().String(),
	})
}
