// Package camera orients an orbit camera around the spectated car.
package camera

import (
	"math"

	"github.com/Versifine/arenaview/internal/mathx"
)

// Config holds orbit camera parameters. Angles are degrees.
type Config struct {
	FOV                float64
	Distance           float64
	BaseAngle          float64
	Height             float64
	MinFollowSpeed     float64
	ElevationDamping   float64
	SupersonicFOVBoost float64
}

func DefaultConfig() Config {
	return Config{
		FOV:              80,
		Distance:         800,
		BaseAngle:        15,
		Height:           150,
		MinFollowSpeed:   50,
		ElevationDamping: 2.0 / 3.0,
	}
}

// Params is the orbit camera state handed to the renderer. Center is in
// render space; Azimuth and Elevation are degrees.
type Params struct {
	Center    mathx.Vec3
	Distance  float64
	Azimuth   float64
	Elevation float64
	FOV       float64
}

// Position returns the eye position in render space.
func (p Params) Position() mathx.Vec3 {
	az := mathx.Rad(p.Azimuth)
	el := mathx.Rad(p.Elevation)
	return p.Center.Add(mathx.Vec3{
		X: p.Distance * math.Cos(el) * math.Cos(az),
		Y: p.Distance * math.Cos(el) * math.Sin(az),
		Z: p.Distance * math.Sin(el),
	})
}

// Input is what the tracker sees each tick. CameraPos and TargetPos are in
// render space; BodyPos and BodyVel are in simulation space.
type Input struct {
	CameraPos  mathx.Vec3
	TargetPos  mathx.Vec3
	HasTarget  bool
	BodyPos    mathx.Vec3
	BodyVel    mathx.Vec3
	HasBody    bool
	Supersonic bool
	// Manual is set while the user drags the view.
	Manual bool
}

// Tracker owns the camera params. It is used from the tick goroutine only.
type Tracker struct {
	cfg       Config
	params    Params
	targetCam bool
	freeCam   bool
}

func NewTracker(cfg Config) *Tracker {
	return &Tracker{
		cfg: cfg,
		params: Params{
			Distance:  cfg.Distance,
			Elevation: cfg.BaseAngle,
			FOV:       cfg.FOV,
		},
		targetCam: true,
	}
}

func (t *Tracker) Params() Params { return t.params }

func (t *Tracker) TargetCam() bool { return t.targetCam }

func (t *Tracker) ToggleTargetCam() { t.targetCam = !t.targetCam }

func (t *Tracker) FreeCam() bool { return t.freeCam }

func (t *Tracker) ToggleFreeCam() { t.freeCam = !t.freeCam }

// Orbit rotates the view by a manual drag delta.
// Non-finite deltas are ignored.
func (t *Tracker) Orbit(dAzimuth, dElevation float64) {
	if !finite(dAzimuth) || !finite(dElevation) {
		return
	}
	t.params.Azimuth = mathx.NormalizeAngle(t.params.Azimuth + dAzimuth)
	t.params.Elevation = mathx.Clamp(t.params.Elevation+dElevation, -90, 90)
}

func (t *Tracker) Update(in Input) Params {
	if t.freeCam {
		return t.params
	}

	if in.HasBody {
		t.params.Center = mathx.ToRender(in.BodyPos).Add(mathx.Vec3{Z: t.cfg.Height})
		t.params.FOV = t.cfg.FOV
		if in.Supersonic {
			t.params.FOV += t.cfg.SupersonicFOVBoost
		}
	}

	if in.Manual {
		return t.params
	}

	switch {
	case t.targetCam && in.HasTarget:
		t.followTarget(in.CameraPos, in.TargetPos)
	case !t.targetCam && in.HasBody:
		t.followVelocity(in.BodyVel)
	}
	return t.params
}

func (t *Tracker) followTarget(cameraPos, targetPos mathx.Vec3) {
	rel := targetPos.Sub(cameraPos).Mul(mathx.Vec3{X: -1, Y: 1, Z: 1})
	dist := rel.Len()
	if dist == 0 {
		t.params.Elevation = t.cfg.BaseAngle
		return
	}
	azimuth := math.Atan2(rel.Y, rel.X)
	elevation := math.Asin(mathx.Clamp(rel.Z/dist, -1, 1))
	t.params.Azimuth = -mathx.Deg(azimuth)
	t.params.Elevation = t.cfg.BaseAngle - mathx.Deg(elevation)*t.cfg.ElevationDamping
}

func (t *Tracker) followVelocity(vel mathx.Vec3) {
	if vel.Len2D() <= t.cfg.MinFollowSpeed {
		return
	}
	t.params.Azimuth = -mathx.Deg(math.Atan2(vel.Y, vel.X))
	t.params.Elevation = t.cfg.BaseAngle
}

func finite(v float64) bool { return !math.IsInf(v, 0) && !math.IsNaN(v) }
