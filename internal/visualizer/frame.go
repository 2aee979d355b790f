package visualizer

import (
	"errors"

	"github.com/Versifine/arenaview/internal/camera"
	"github.com/Versifine/arenaview/internal/control"
	"github.com/Versifine/arenaview/internal/scene"
	"github.com/Versifine/arenaview/internal/scheduler"
	"github.com/Versifine/arenaview/internal/sim"
)

// Frame is everything a renderer needs to draw one tick. It holds copies,
// so renderers may keep it after Render returns.
type Frame struct {
	Tick         uint64
	Camera       camera.Params
	Cars         []scene.Proxy
	Ball         scene.Proxy
	BallShadow   scene.Proxy
	Pads         []scene.Proxy
	Spectated    sim.CarID
	HasSpectated bool
	Target       scene.Target
	TargetCam    bool
	FreeCam      bool
	Controls     control.Vector
	Stats        scheduler.Stats
	Debug        []DebugField
}

// Renderer draws frames. Render is called on the tick goroutine and must
// not block.
type Renderer interface {
	Render(f Frame) error
}

type RendererFunc func(f Frame) error

func (fn RendererFunc) Render(f Frame) error { return fn(f) }

// Renderers fans a frame out to several renderers.
type Renderers []Renderer

func (rs Renderers) Render(f Frame) error {
	var errs []error
	for _, r := range rs {
		if err := r.Render(f); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type discardRenderer struct{}

func (discardRenderer) Render(Frame) error { return nil }
