package control

import "math"

// Vector is the normalized control input applied to one car per tick.
type Vector struct {
	Throttle  float64
	Steer     float64
	Roll      float64
	Pitch     float64
	Yaw       float64
	Jump      bool
	Handbrake bool
	Boost     bool
}

// Add sums continuous fields and ORs the buttons. The result may be out of
// range until ClampFix is applied.
func (v Vector) Add(o Vector) Vector {
	return Vector{
		Throttle:  v.Throttle + o.Throttle,
		Steer:     v.Steer + o.Steer,
		Roll:      v.Roll + o.Roll,
		Pitch:     v.Pitch + o.Pitch,
		Yaw:       v.Yaw + o.Yaw,
		Jump:      v.Jump || o.Jump,
		Handbrake: v.Handbrake || o.Handbrake,
		Boost:     v.Boost || o.Boost,
	}
}

// ClampFix clips every continuous field to [-1, 1]. Buttons are untouched.
func (v *Vector) ClampFix() {
	v.Throttle = clampUnit(v.Throttle)
	v.Steer = clampUnit(v.Steer)
	v.Roll = clampUnit(v.Roll)
	v.Pitch = clampUnit(v.Pitch)
	v.Yaw = clampUnit(v.Yaw)
}

func (v Vector) IsZero() bool {
	return v == Vector{}
}

func clampUnit(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	if x > 1 {
		return 1
	}
	if x < -1 {
		return -1
	}
	return x
}

func boolAxis(pos, neg bool) float64 {
	var v float64
	if pos {
		v++
	}
	if neg {
		v--
	}
	return v
}
