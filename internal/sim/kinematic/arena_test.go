package kinematic

import (
	"errors"
	"math"
	"testing"

	"github.com/Versifine/arenaview/internal/control"
	"github.com/Versifine/arenaview/internal/mathx"
	"github.com/Versifine/arenaview/internal/sim"
)

func approxEqual(t *testing.T, got, want, tol float64, field string) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Fatalf("%s = %.8f, want %.8f (tol=%.8f)", field, got, want, tol)
	}
}

func TestAddCarReusesLowestFreeID(t *testing.T) {
	a := New(0, nil)
	if a.TickRate() != DefaultTickRate {
		t.Fatalf("TickRate() = %v, want %v", a.TickRate(), DefaultTickRate)
	}

	first := a.AddCar(sim.TeamBlue, OctaneConfig())
	second := a.AddCar(sim.TeamOrange, OctaneConfig())
	third := a.AddCar(sim.TeamBlue, OctaneConfig())
	if first != 1 || second != 2 || third != 3 {
		t.Fatalf("ids = %d %d %d, want 1 2 3", first, second, third)
	}

	if err := a.RemoveCar(second); err != nil {
		t.Fatalf("RemoveCar() error = %v", err)
	}
	if got := a.AddCar(sim.TeamBlue, OctaneConfig()); got != second {
		t.Fatalf("AddCar() = %d, want reused id %d", got, second)
	}
	ids := a.CarIDs()
	if len(ids) != 3 || ids[0] != 1 || ids[1] != 2 || ids[2] != 3 {
		t.Fatalf("CarIDs() = %v, want sorted [1 2 3]", ids)
	}
}

func TestUnknownCarErrors(t *testing.T) {
	a := New(DefaultTickRate, nil)
	if _, err := a.CarState(9); !errors.Is(err, sim.ErrNoSuchCar) {
		t.Fatalf("CarState() error = %v, want ErrNoSuchCar", err)
	}
	if err := a.SetCarControls(9, control.Vector{}); !errors.Is(err, sim.ErrNoSuchCar) {
		t.Fatalf("SetCarControls() error = %v, want ErrNoSuchCar", err)
	}
	if err := a.RemoveCar(9); !errors.Is(err, sim.ErrNoSuchCar) {
		t.Fatalf("RemoveCar() error = %v, want ErrNoSuchCar", err)
	}
}

func TestThrottleAcceleratesAlongHeading(t *testing.T) {
	a := New(DefaultTickRate, nil)
	id := a.AddCar(sim.TeamBlue, OctaneConfig())
	if err := a.SetCarControls(id, control.Vector{Throttle: 1}); err != nil {
		t.Fatal(err)
	}

	a.Step(120)

	state, err := a.CarState(id)
	if err != nil {
		t.Fatal(err)
	}
	// Blue spawns facing +Y.
	approxEqual(t, state.Vel.X, 0, 1e-6, "velocity.x")
	approxEqual(t, state.Vel.Y, ThrottleAccel, 1e-6, "velocity.y")
	if !state.OnGround {
		t.Fatal("onGround = false, want true")
	}
	if state.LastControls.Throttle != 1 {
		t.Fatalf("LastControls.Throttle = %v, want 1", state.LastControls.Throttle)
	}
	if a.TickCount() != 120 {
		t.Fatalf("TickCount() = %d, want 120", a.TickCount())
	}
}

func TestBoostReachesSupersonic(t *testing.T) {
	a := New(DefaultTickRate, nil)
	id := a.AddCar(sim.TeamBlue, OctaneConfig())
	_ = a.SetCarState(id, sim.CarState{
		Pos:      mathx.Vec3{Y: -4000, Z: CarRestHeight},
		Rot:      mathx.FromAngles(mathx.Angles{Yaw: math.Pi / 2}),
		Boost:    MaxBoost,
		OnGround: true,
	})
	_ = a.SetCarControls(id, control.Vector{Throttle: 1, Boost: true})

	a.Step(240)

	state, _ := a.CarState(id)
	if !state.IsSupersonic {
		t.Fatalf("IsSupersonic = false at speed %.1f", state.Vel.Len())
	}
	if state.Boost >= MaxBoost {
		t.Fatalf("boost = %v, want consumed", state.Boost)
	}
}

func TestJumpLeavesAndReturnsToGround(t *testing.T) {
	a := New(DefaultTickRate, nil)
	id := a.AddCar(sim.TeamBlue, OctaneConfig())
	_ = a.SetCarControls(id, control.Vector{Jump: true})

	a.Step(1)
	state, _ := a.CarState(id)
	if state.OnGround {
		t.Fatal("onGround = true right after jump")
	}
	if state.Pos.Z <= CarRestHeight {
		t.Fatalf("z = %v, want above rest height", state.Pos.Z)
	}

	// Holding jump must not re-trigger after landing.
	a.Step(240)
	state, _ = a.CarState(id)
	if !state.OnGround {
		t.Fatal("onGround = false after landing")
	}
	approxEqual(t, state.Pos.Z, CarRestHeight, 1e-9, "position.z")
}

func TestBallBouncesAndSettles(t *testing.T) {
	a := New(DefaultTickRate, nil)
	a.SetBall(sim.BallState{Pos: mathx.Vec3{Z: 1000}})

	maxZ := 0.0
	bounced := false
	prev := a.Ball().Vel.Z
	for i := 0; i < 120*10; i++ {
		a.Step(1)
		b := a.Ball()
		if prev < 0 && b.Vel.Z > 0 {
			bounced = true
		}
		if bounced {
			maxZ = math.Max(maxZ, b.Pos.Z)
		}
		prev = b.Vel.Z
	}
	if !bounced {
		t.Fatal("ball never bounced")
	}
	if maxZ >= 1000 {
		t.Fatalf("bounce apex = %v, want below drop height", maxZ)
	}
	approxEqual(t, a.Ball().Pos.Z, BallRadius, 1e-6, "ball.z")
}

func TestCarPushesBall(t *testing.T) {
	a := New(DefaultTickRate, nil)
	id := a.AddCar(sim.TeamBlue, OctaneConfig())
	_ = a.SetCarState(id, sim.CarState{
		Pos:      mathx.Vec3{Y: -200, Z: CarRestHeight},
		Vel:      mathx.Vec3{Y: 1400},
		Rot:      mathx.FromAngles(mathx.Angles{Yaw: math.Pi / 2}),
		OnGround: true,
	})
	_ = a.SetCarControls(id, control.Vector{Throttle: 1})

	a.Step(30)

	if vy := a.Ball().Vel.Y; vy <= 0 {
		t.Fatalf("ball velocity.y = %v, want pushed toward +Y", vy)
	}
}

func TestBoostPadPickupAndRespawn(t *testing.T) {
	padPos := mathx.Vec3{X: 1000, Y: 1000, Z: 70}
	a := New(DefaultTickRate, []sim.BoostPad{{Pos: padPos}})
	id := a.AddCar(sim.TeamBlue, OctaneConfig())
	_ = a.SetCarState(id, sim.CarState{
		Pos:      mathx.Vec3{X: 1000, Y: 1000, Z: CarRestHeight},
		Rot:      mathx.Identity(),
		Boost:    50,
		OnGround: true,
	})

	a.Step(1)
	if a.BoostPads()[0].Active {
		t.Fatal("pad still active after pickup")
	}
	state, _ := a.CarState(id)
	approxEqual(t, state.Boost, 50+SmallPadAmount, 1e-9, "boost")

	_ = a.RemoveCar(id)
	a.Step(int(SmallPadCooldown*DefaultTickRate) + 1)
	if !a.BoostPads()[0].Active {
		t.Fatal("pad not respawned after cooldown")
	}
}

func TestDefaultPads(t *testing.T) {
	big := 0
	for _, p := range DefaultPads() {
		if p.IsBig {
			big++
		}
	}
	if big != 6 {
		t.Fatalf("big pads = %d, want 6", big)
	}
}
