package mathx

import (
	"math"
	"testing"
)

func approxEqual(t *testing.T, got, want, tol float64, field string) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Fatalf("%s = %.8f, want %.8f (tol=%.8f)", field, got, want, tol)
	}
}

func TestNormalizeAngle(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{180, 180},
		{-180, 180},
		{190, -170},
		{-190, 170},
		{720, 0},
		{540, 180},
		{-540, 180},
		{3.6e12 + 90, 90},
		{-3.6e12 - 90, -90},
	}
	for _, tt := range tests {
		if got := NormalizeAngle(tt.in); got != tt.want {
			t.Errorf("NormalizeAngle(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeAngleHugeAndNonFinite(t *testing.T) {
	got := NormalizeAngle(1e300)
	if got <= -180 || got > 180 {
		t.Fatalf("NormalizeAngle(1e300) = %v, outside (-180, 180]", got)
	}
	for _, v := range []float64{math.Inf(1), math.Inf(-1), math.NaN()} {
		if got := NormalizeAngle(v); !math.IsNaN(got) {
			t.Errorf("NormalizeAngle(%v) = %v, want NaN", v, got)
		}
	}
}

func TestSignTreatsZeroAsPositive(t *testing.T) {
	if Sign(0) != 1 || Sign(3) != 1 || Sign(-0.1) != -1 {
		t.Fatalf("unexpected sign results")
	}
}

func TestFromAnglesRoundTrip(t *testing.T) {
	in := Angles{Yaw: 0.7, Pitch: -0.3, Roll: 1.1}
	out := FromAngles(in).Angles()
	approxEqual(t, out.Yaw, in.Yaw, 1e-9, "yaw")
	approxEqual(t, out.Pitch, in.Pitch, 1e-9, "pitch")
	approxEqual(t, out.Roll, in.Roll, 1e-9, "roll")
}

func TestIdentityLocal(t *testing.T) {
	m := FromAngles(Angles{})
	if m != Identity() {
		approxEqual(t, m.Right.Y, 1, 1e-12, "right.y")
		approxEqual(t, m.Up.Z, 1, 1e-12, "up.z")
	}
	local := m.Local(Vec3{X: 3, Y: -2, Z: 1})
	approxEqual(t, local.X, 3, 1e-12, "local.x")
	approxEqual(t, local.Y, -2, 1e-12, "local.y")
	approxEqual(t, local.Z, 1, 1e-12, "local.z")
}

func TestLocalAfterYaw(t *testing.T) {
	// Facing +Y, a point at +X lies to the left.
	m := FromAngles(Angles{Yaw: math.Pi / 2})
	local := m.Local(Vec3{X: 10})
	approxEqual(t, local.X, 0, 1e-9, "local.x")
	approxEqual(t, local.Y, -10, 1e-9, "local.y")
}

func TestToRenderMirrorsX(t *testing.T) {
	got := ToRender(Vec3{X: 1, Y: 2, Z: 3})
	if got != (Vec3{X: -1, Y: 2, Z: 3}) {
		t.Fatalf("ToRender = %+v", got)
	}
}

func TestWrapPi(t *testing.T) {
	approxEqual(t, WrapPi(3*math.Pi/2), -math.Pi/2, 1e-9, "wrap(3pi/2)")
	approxEqual(t, WrapPi(-math.Pi/4), -math.Pi/4, 1e-9, "wrap(-pi/4)")
	approxEqual(t, WrapPi(5*math.Pi), math.Pi, 1e-9, "wrap(5pi)")
}
