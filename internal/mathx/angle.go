package mathx

import "math"

func Deg(rad float64) float64 { return rad * 180.0 / math.Pi }

func Rad(deg float64) float64 { return deg * math.Pi / 180.0 }

// Sign returns -1 for negative values and 1 otherwise, including zero.
func Sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// NormalizeAngle wraps degrees into (-180, 180]. Non-finite input yields NaN.
func NormalizeAngle(v float64) float64 {
	if v > -180 && v <= 180 {
		return v
	}
	v = math.Mod(v+180, 360)
	if v <= 0 {
		v += 360
	}
	return v - 180
}

// WrapPi wraps radians into (-pi, pi].
func WrapPi(v float64) float64 {
	return Rad(NormalizeAngle(Deg(v)))
}

func nearlyZero(v float64) bool {
	return math.Abs(v) < 1e-9
}

// NearlyZero reports whether every component is within 1e-9 of zero.
func (v Vec3) NearlyZero() bool {
	return nearlyZero(v.X) && nearlyZero(v.Y) && nearlyZero(v.Z)
}
