package control

import "github.com/Versifine/arenaview/internal/mathx"

// Pose is what a scripted policy sees of the body it drives.
type Pose struct {
	Position mathx.Vec3
	Velocity mathx.Vec3
	Rotation mathx.RotMat
}

// Observer supplies the controlled body and the ball each tick. ok is false
// when nothing is currently controlled.
type Observer interface {
	Observe() (self Pose, ball mathx.Vec3, ok bool)
}

type ObserverFunc func() (Pose, mathx.Vec3, bool)

func (f ObserverFunc) Observe() (Pose, mathx.Vec3, bool) { return f() }

// Policy turns an observation into controls.
type Policy interface {
	Controls(self Pose, ball mathx.Vec3) Vector
}

// BallChaser drives at full throttle and steers toward the ball.
type BallChaser struct{}

func (BallChaser) Controls(self Pose, ball mathx.Vec3) Vector {
	local := self.Rotation.Local(ball.Sub(self.Position))
	return Vector{
		Throttle: 1,
		Steer:    mathx.Sign(local.Y),
	}
}

// Programmatic is a Source computed from simulation state instead of a
// device. It is polled on the tick thread.
type Programmatic struct {
	observer Observer
	policy   Policy
}

func NewProgrammatic(observer Observer, policy Policy) *Programmatic {
	if policy == nil {
		policy = BallChaser{}
	}
	return &Programmatic{observer: observer, policy: policy}
}

func (p *Programmatic) Poll() Vector {
	if p.observer == nil {
		return Vector{}
	}
	self, ball, ok := p.observer.Observe()
	if !ok {
		return Vector{}
	}
	v := p.policy.Controls(self, ball)
	v.ClampFix()
	return v
}

func (p *Programmatic) Reset() {}
