// Package kinematic is a small deterministic arena simulation. It models
// enough car, ball and boost pad behavior to drive the visualizer without
// an external physics engine.
package kinematic

import (
	"fmt"
	"math"
	"slices"

	"github.com/Versifine/arenaview/internal/control"
	"github.com/Versifine/arenaview/internal/mathx"
	"github.com/Versifine/arenaview/internal/sim"
)

type car struct {
	team     sim.Team
	config   sim.CarConfig
	state    sim.CarState
	angles   mathx.Angles
	controls control.Vector
	jumpHeld bool
}

type pad struct {
	sim.BoostPad
	cooldown float64
}

// Arena implements sim.Arena. It is not safe for concurrent use.
type Arena struct {
	tickRate  float64
	tickCount uint64
	cars      map[sim.CarID]*car
	ball      sim.BallState
	pads      []pad
}

var _ sim.Arena = (*Arena)(nil)

// New creates an empty arena with the ball at center and the given pads.
// A non-positive tick rate selects DefaultTickRate.
func New(tickRate float64, pads []sim.BoostPad) *Arena {
	if tickRate <= 0 {
		tickRate = DefaultTickRate
	}
	a := &Arena{
		tickRate: tickRate,
		cars:     make(map[sim.CarID]*car),
		pads:     make([]pad, 0, len(pads)),
	}
	for _, p := range pads {
		p.Active = true
		a.pads = append(a.pads, pad{BoostPad: p})
	}
	a.ResetBall()
	return a
}

// OctaneConfig returns the hitbox and wheel layout of the default car body.
func OctaneConfig() sim.CarConfig {
	return sim.CarConfig{
		HitboxSize:   mathx.Vec3{X: 120.507, Y: 86.6994, Z: 38.6591},
		HitboxOffset: mathx.Vec3{X: 13.8757, Z: 20.755},
		FrontWheels: sim.WheelPair{
			Radius:           12.5,
			ConnectionOffset: mathx.Vec3{X: 51.25, Y: 25.9, Z: 20.755},
		},
		BackWheels: sim.WheelPair{
			Radius:           15.0,
			ConnectionOffset: mathx.Vec3{X: -33.75, Y: 29.5, Z: 20.755},
		},
	}
}

// DefaultPads is a reduced standard pad layout: the six big pads and a ring
// of small ones around midfield.
func DefaultPads() []sim.BoostPad {
	pads := []sim.BoostPad{
		{Pos: mathx.Vec3{X: -3584, Y: 0, Z: 73}, IsBig: true},
		{Pos: mathx.Vec3{X: 3584, Y: 0, Z: 73}, IsBig: true},
		{Pos: mathx.Vec3{X: -3072, Y: -4096, Z: 73}, IsBig: true},
		{Pos: mathx.Vec3{X: 3072, Y: -4096, Z: 73}, IsBig: true},
		{Pos: mathx.Vec3{X: -3072, Y: 4096, Z: 73}, IsBig: true},
		{Pos: mathx.Vec3{X: 3072, Y: 4096, Z: 73}, IsBig: true},
	}
	for i := 0; i < 8; i++ {
		angle := float64(i) * math.Pi / 4
		pads = append(pads, sim.BoostPad{
			Pos: mathx.Vec3{X: 1792 * math.Cos(angle), Y: 2048 * math.Sin(angle), Z: 70},
		})
	}
	return pads
}

func (a *Arena) TickRate() float64 { return a.tickRate }

func (a *Arena) TickCount() uint64 { return a.tickCount }

func (a *Arena) CarIDs() []sim.CarID {
	ids := make([]sim.CarID, 0, len(a.cars))
	for id := range a.cars {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (a *Arena) lookup(id sim.CarID) (*car, error) {
	c, ok := a.cars[id]
	if !ok {
		return nil, fmt.Errorf("car %d: %w", id, sim.ErrNoSuchCar)
	}
	return c, nil
}

func (a *Arena) CarState(id sim.CarID) (sim.CarState, error) {
	c, err := a.lookup(id)
	if err != nil {
		return sim.CarState{}, err
	}
	return c.state, nil
}

func (a *Arena) CarConfig(id sim.CarID) (sim.CarConfig, error) {
	c, err := a.lookup(id)
	if err != nil {
		return sim.CarConfig{}, err
	}
	return c.config, nil
}

func (a *Arena) CarTeam(id sim.CarID) (sim.Team, error) {
	c, err := a.lookup(id)
	if err != nil {
		return 0, err
	}
	return c.team, nil
}

func (a *Arena) Ball() sim.BallState { return a.ball }

func (a *Arena) BallRadius() float64 { return BallRadius }

func (a *Arena) BoostPads() []sim.BoostPad {
	out := make([]sim.BoostPad, len(a.pads))
	for i, p := range a.pads {
		out[i] = p.BoostPad
	}
	return out
}

func (a *Arena) SetCarControls(id sim.CarID, v control.Vector) error {
	c, err := a.lookup(id)
	if err != nil {
		return err
	}
	v.ClampFix()
	c.controls = v
	return nil
}

// AddCar spawns a car on its team's side and returns the lowest unused id.
func (a *Arena) AddCar(team sim.Team, config sim.CarConfig) sim.CarID {
	id := sim.CarID(1)
	for {
		if _, taken := a.cars[id]; !taken {
			break
		}
		id++
	}

	spawnY, yaw := -2560.0, math.Pi/2
	if team == sim.TeamOrange {
		spawnY, yaw = 2560.0, -math.Pi/2
	}
	slot := float64(int(id)%5 - 2)
	angles := mathx.Angles{Yaw: yaw}
	a.cars[id] = &car{
		team:   team,
		config: config,
		angles: angles,
		state: sim.CarState{
			Pos:      mathx.Vec3{X: slot * 512, Y: spawnY, Z: CarRestHeight},
			Rot:      mathx.FromAngles(angles),
			Boost:    StartingBoost,
			OnGround: true,
		},
	}
	return id
}

func (a *Arena) RemoveCar(id sim.CarID) error {
	if _, err := a.lookup(id); err != nil {
		return err
	}
	delete(a.cars, id)
	return nil
}

// SetCarState overrides position, velocity and orientation of a car.
func (a *Arena) SetCarState(id sim.CarID, state sim.CarState) error {
	c, err := a.lookup(id)
	if err != nil {
		return err
	}
	c.state = state
	c.angles = state.Rot.Angles()
	return nil
}

func (a *Arena) SetBall(state sim.BallState) {
	if state.Rot == (mathx.RotMat{}) {
		state.Rot = mathx.Identity()
	}
	a.ball = state
}

func (a *Arena) ResetBall() {
	a.SetBall(sim.BallState{Pos: mathx.Vec3{Z: BallRadius}})
}
