package control

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/Versifine/arenaview/internal/mathx"
)

type stubSource struct {
	v      Vector
	resets int
}

func (s *stubSource) Poll() Vector { return s.v }
func (s *stubSource) Reset()       { s.resets++; s.v = Vector{} }

type stubRunner struct {
	stubSource
	startErr error
	started  bool
	closed   bool
}

func (r *stubRunner) Start(context.Context) error {
	if r.startErr != nil {
		return r.startErr
	}
	r.started = true
	return nil
}

func (r *stubRunner) Close() error {
	r.closed = true
	return nil
}

func TestAggregatorSumsAndClamps(t *testing.T) {
	tests := []struct {
		name string
		a, b Vector
		want Vector
	}{
		{
			name: "cancel",
			a:    Vector{Throttle: 1, Steer: -1},
			b:    Vector{Throttle: -1, Steer: 1},
			want: Vector{},
		},
		{
			name: "saturate",
			a:    Vector{Throttle: 1, Pitch: -0.75, Boost: true},
			b:    Vector{Throttle: 0.5, Pitch: -0.75, Jump: true},
			want: Vector{Throttle: 1, Pitch: -1, Boost: true, Jump: true},
		},
		{
			name: "partial",
			a:    Vector{Roll: 0.25},
			b:    Vector{Roll: 0.5, Handbrake: true},
			want: Vector{Roll: 0.75, Handbrake: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := NewAggregator(&stubSource{v: tt.a}, &stubSource{v: tt.b})
			if got := agg.Poll(); got != tt.want {
				t.Fatalf("Poll() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestAggregatorOutputAlwaysInRange(t *testing.T) {
	values := []float64{-3, -1, -0.4, 0, 0.6, 1, 7, math.NaN()}
	for _, x := range values {
		for _, y := range values {
			agg := NewAggregator(&stubSource{v: Vector{Throttle: x, Yaw: y}}, &stubSource{v: Vector{Throttle: y, Steer: x}})
			v := agg.Poll()
			for _, f := range []float64{v.Throttle, v.Steer, v.Roll, v.Pitch, v.Yaw} {
				if math.IsNaN(f) || f < -1 || f > 1 {
					t.Fatalf("x=%v y=%v: field %v out of range in %+v", x, y, f, v)
				}
			}
		}
	}
}

func TestAggregatorResetForwardsToAllSources(t *testing.T) {
	a := &stubSource{v: Vector{Throttle: 1}}
	b := &stubSource{v: Vector{Boost: true}}
	inner := NewAggregator(b)
	agg := NewAggregator(a, inner)

	agg.Reset()
	if a.resets != 1 || b.resets != 1 {
		t.Fatalf("resets = %d, %d, want 1, 1", a.resets, b.resets)
	}
	if v := agg.Poll(); !v.IsZero() {
		t.Fatalf("Poll() after Reset = %+v, want zero", v)
	}
}

func TestAggregatorNested(t *testing.T) {
	inner := NewAggregator(&stubSource{v: Vector{Steer: 0.75}}, &stubSource{v: Vector{Steer: 0.75}})
	outer := NewAggregator(inner, &stubSource{v: Vector{Steer: -0.5}})
	if got := outer.Poll().Steer; got != 0.5 {
		t.Fatalf("Steer = %v, want 0.5 (inner clamps before the outer sum)", got)
	}
}

func TestAggregatorSkipsNilSources(t *testing.T) {
	agg := NewAggregator(nil, &stubSource{v: Vector{Jump: true}})
	if n := len(agg.Sources()); n != 1 {
		t.Fatalf("len(Sources()) = %d, want 1", n)
	}
}

func TestAggregatorStartRollsBackOnFailure(t *testing.T) {
	first := &stubRunner{}
	broken := &stubRunner{startErr: errors.New("no device")}
	agg := NewAggregator(first, &stubSource{}, broken)

	err := agg.Start(context.Background())
	if err == nil {
		t.Fatal("Start() error = nil")
	}
	if !first.started || !first.closed {
		t.Fatalf("first runner started=%v closed=%v, want both true", first.started, first.closed)
	}

	ok := &stubRunner{}
	agg = NewAggregator(ok)
	if err := agg.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := agg.Close(); err != nil || !ok.closed {
		t.Fatalf("Close() err=%v closed=%v", err, ok.closed)
	}
}

func TestSharedQueueCollectsActionsFromAllSources(t *testing.T) {
	q := NewActionQueue()
	bindings, err := NewBindings(DefaultBindings())
	if err != nil {
		t.Fatal(err)
	}
	kb := NewKeyboard(bindings, q)
	pad := NewGamepad(newFakeDevice(), q)

	kb.HandleKey(KeyEvent{Key: "C", Down: true})
	pad.apply([]GamepadEvent{{Code: PadBack, Value: 1}})

	got := q.Drain()
	if len(got) != 2 || got[0] != ActionSwitchCar || got[1] != ActionSwitchCar {
		t.Fatalf("actions = %v, want two switch_car", got)
	}
	if q.Drain() != nil {
		t.Fatal("second Drain() not empty")
	}
}

func TestBallChaserSteersTowardBall(t *testing.T) {
	tests := []struct {
		name      string
		ball      mathx.Vec3
		wantSteer float64
	}{
		{name: "left", ball: mathx.Vec3{X: 100, Y: 50}, wantSteer: 1},
		{name: "right", ball: mathx.Vec3{X: 100, Y: -50}, wantSteer: -1},
		{name: "ahead", ball: mathx.Vec3{X: 100}, wantSteer: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := ObserverFunc(func() (Pose, mathx.Vec3, bool) {
				return Pose{Rotation: mathx.Identity()}, tt.ball, true
			})
			v := NewProgrammatic(obs, nil).Poll()
			if v.Throttle != 1 || v.Steer != tt.wantSteer {
				t.Fatalf("Poll() = %+v, want throttle 1 steer %v", v, tt.wantSteer)
			}
		})
	}
}

func TestProgrammaticWithoutTarget(t *testing.T) {
	obs := ObserverFunc(func() (Pose, mathx.Vec3, bool) { return Pose{}, mathx.Vec3{}, false })
	if v := NewProgrammatic(obs, BallChaser{}).Poll(); !v.IsZero() {
		t.Fatalf("Poll() = %+v, want zero", v)
	}
}

func TestParseActionRoundTrip(t *testing.T) {
	for _, a := range []Action{ActionSwitchCar, ActionSwitchTarget, ActionToggleTargetCam, ActionToggleFreeCam} {
		got, err := ParseAction(a.String())
		if err != nil || got != a {
			t.Fatalf("ParseAction(%q) = %v, %v", a.String(), got, err)
		}
	}
	if _, err := ParseAction("warp"); !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("ParseAction(warp) error = %v, want ErrUnknownAction", err)
	}
}
