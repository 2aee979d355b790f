package mathx

import "math"

type Vec3 struct {
	X float64
	Y float64
	Z float64
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z} }

func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z} }

func (v Vec3) Scale(s float64) Vec3 { return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s} }

// Mul multiplies component-wise.
func (v Vec3) Mul(o Vec3) Vec3 { return Vec3{X: v.X * o.X, Y: v.Y * o.Y, Z: v.Z * o.Z} }

func (v Vec3) Dot(o Vec3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

func (v Vec3) Len() float64 { return math.Sqrt(v.Dot(v)) }

// Len2D is the length of the horizontal (XY) component.
func (v Vec3) Len2D() float64 { return math.Hypot(v.X, v.Y) }

// ToRender converts a simulation-space point to render space. The simulation
// uses a left-handed frame, so the X axis is mirrored.
func ToRender(v Vec3) Vec3 { return Vec3{X: -v.X, Y: v.Y, Z: v.Z} }

// RotMat is an orientation expressed as its basis vectors. The identity has
// Forward=+X, Right=+Y, Up=+Z.
type RotMat struct {
	Forward Vec3
	Right   Vec3
	Up      Vec3
}

func Identity() RotMat {
	return RotMat{
		Forward: Vec3{X: 1},
		Right:   Vec3{Y: 1},
		Up:      Vec3{Z: 1},
	}
}

// Angles are Euler angles in radians.
type Angles struct {
	Yaw   float64
	Pitch float64
	Roll  float64
}

func FromAngles(a Angles) RotMat {
	cy, sy := math.Cos(a.Yaw), math.Sin(a.Yaw)
	cp, sp := math.Cos(a.Pitch), math.Sin(a.Pitch)
	cr, sr := math.Cos(a.Roll), math.Sin(a.Roll)
	return RotMat{
		Forward: Vec3{X: cp * cy, Y: cp * sy, Z: sp},
		Right:   Vec3{X: cy*sp*sr - cr*sy, Y: sy*sp*sr + cr*cy, Z: -cp * sr},
		Up:      Vec3{X: -cr*cy*sp - sr*sy, Y: -cr*sy*sp + sr*cy, Z: cp * cr},
	}
}

func (m RotMat) Angles() Angles {
	f := m.Forward
	return Angles{
		Yaw:   math.Atan2(f.Y, f.X),
		Pitch: math.Atan2(f.Z, math.Hypot(f.X, f.Y)),
		Roll:  math.Atan2(-m.Right.Z, m.Up.Z),
	}
}

// Local expresses a world-space vector in this basis.
func (m RotMat) Local(v Vec3) Vec3 {
	return Vec3{X: m.Forward.Dot(v), Y: m.Right.Dot(v), Z: m.Up.Dot(v)}
}
