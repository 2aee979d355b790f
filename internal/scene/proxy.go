// Package scene mirrors simulation entities into render proxies.
package scene

import (
	"github.com/Versifine/arenaview/internal/mathx"
	"github.com/Versifine/arenaview/internal/sim"
)

type Kind int

const (
	KindCar Kind = iota + 1
	KindBall
	KindBallShadow
	KindPad
)

func (k Kind) String() string {
	switch k {
	case KindCar:
		return "car"
	case KindBall:
		return "ball"
	case KindBallShadow:
		return "ball_shadow"
	case KindPad:
		return "pad"
	default:
		return "unknown"
	}
}

// Transform places a proxy in render space. Angles are degrees.
type Transform struct {
	Position mathx.Vec3
	Yaw      float64
	Pitch    float64
	Roll     float64
}

type Color struct {
	R, G, B, A float64
}

var (
	ColorBlue     = Color{0, 0.4, 0.8, 1}
	ColorOrange   = Color{1, 0.2, 0.1, 1}
	ColorBall     = Color{0.1, 0.1, 0.1, 1}
	ColorShadow   = Color{0.125, 0.125, 0.125, 0.5}
	ColorWhite    = Color{1, 1, 1, 1}
	ColorDimWhite = Color{0.5, 0.5, 0.5, 1}
)

func TeamColor(team sim.Team) Color {
	if team == sim.TeamOrange {
		return ColorOrange
	}
	return ColorBlue
}

// Part is a child primitive of a proxy, positioned in the proxy's local
// render frame.
type Part struct {
	Name   string
	Offset mathx.Vec3
	Radius float64
}

type Box struct {
	Size   mathx.Vec3
	Offset mathx.Vec3
}

// Proxy is the renderable counterpart of one simulation entity.
type Proxy struct {
	ID            sim.CarID
	Kind          Kind
	Team          sim.Team
	Serial        uint64
	Transform     Transform
	Color         Color
	EdgeHighlight bool
	Visible       bool
	Hitbox        Box
	Radius        float64
	Parts         []Part
}

// Wheel suspension is drawn slightly compressed.
const wheelDrop = 4.0

const (
	padHalfBig   = 160.0
	padHalfSmall = 120.0
	padHeight    = 64.0
)

func newCarProxy(id sim.CarID, serial uint64, team sim.Team, cfg sim.CarConfig) *Proxy {
	parts := make([]Part, 0, 5)
	wheels := []struct {
		name string
		pair sim.WheelPair
	}{
		{"front", cfg.FrontWheels},
		{"back", cfg.BackWheels},
	}
	for _, w := range wheels {
		for _, side := range []struct {
			name string
			sign float64
		}{{"left", 1}, {"right", -1}} {
			off := w.pair.ConnectionOffset.Scale(-1)
			off.Y *= side.sign
			off.Z += w.pair.Radius + wheelDrop
			parts = append(parts, Part{
				Name:   "wheel_" + w.name + "_" + side.name,
				Offset: off,
				Radius: w.pair.Radius,
			})
		}
	}
	parts = append(parts, Part{
		Name:   "axis",
		Offset: cfg.HitboxSize.Scale(0.5).Add(cfg.HitboxOffset),
	})

	return &Proxy{
		ID:      id,
		Kind:    KindCar,
		Serial:  serial,
		Team:    team,
		Color:   TeamColor(team),
		Visible: true,
		Hitbox: Box{
			Size:   cfg.HitboxSize,
			Offset: cfg.HitboxOffset.Mul(mathx.Vec3{X: -1, Y: 1, Z: 1}),
		},
		Parts: parts,
	}
}

func newPadProxy(serial uint64, pad sim.BoostPad) *Proxy {
	half, edge := padHalfSmall, ColorDimWhite
	if pad.IsBig {
		half, edge = padHalfBig, ColorWhite
	}
	return &Proxy{
		Kind:      KindPad,
		Serial:    serial,
		Transform: Transform{Position: mathx.ToRender(pad.Pos)},
		Color:     edge,
		Visible:   pad.Active,
		Hitbox:    Box{Size: mathx.Vec3{X: half * 2, Y: half * 2, Z: padHeight * 2}},
	}
}

func transformFrom(pos mathx.Vec3, rot mathx.RotMat) Transform {
	a := rot.Angles()
	return Transform{
		Position: mathx.ToRender(pos),
		Yaw:      mathx.Deg(a.Yaw),
		Pitch:    mathx.Deg(a.Pitch),
		Roll:     mathx.Deg(a.Roll),
	}
}
