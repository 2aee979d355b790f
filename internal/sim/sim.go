// Package sim describes the simulation engine the visualizer drives.
package sim

import (
	"errors"

	"github.com/Versifine/arenaview/internal/control"
	"github.com/Versifine/arenaview/internal/mathx"
)

// CarID identifies a car. IDs may be reused after a car is removed and are
// not assumed to be dense.
type CarID uint32

type Team int

const (
	TeamBlue Team = iota
	TeamOrange
)

func (t Team) String() string {
	if t == TeamOrange {
		return "orange"
	}
	return "blue"
}

var ErrNoSuchCar = errors.New("no such car")

type CarState struct {
	Pos          mathx.Vec3
	Vel          mathx.Vec3
	AngVel       mathx.Vec3
	Rot          mathx.RotMat
	IsSupersonic bool
	Boost        float64
	OnGround     bool
	LastControls control.Vector
}

type WheelPair struct {
	Radius           float64
	ConnectionOffset mathx.Vec3
}

type CarConfig struct {
	HitboxSize   mathx.Vec3
	HitboxOffset mathx.Vec3
	FrontWheels  WheelPair
	BackWheels   WheelPair
}

type BallState struct {
	Pos    mathx.Vec3
	Vel    mathx.Vec3
	AngVel mathx.Vec3
	Rot    mathx.RotMat
}

type BoostPad struct {
	Pos    mathx.Vec3
	IsBig  bool
	Active bool
}

// Arena is the query and command surface of a running simulation. All
// methods are called from the tick goroutine only.
type Arena interface {
	TickRate() float64
	CarIDs() []CarID
	CarState(id CarID) (CarState, error)
	CarConfig(id CarID) (CarConfig, error)
	CarTeam(id CarID) (Team, error)
	Ball() BallState
	BallRadius() float64
	BoostPads() []BoostPad
	SetCarControls(id CarID, v control.Vector) error
	Step(ticks int)
}
