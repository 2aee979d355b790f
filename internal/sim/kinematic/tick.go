package kinematic

import (
	"math"

	"github.com/Versifine/arenaview/internal/mathx"
)

// Step advances the arena by ticks fixed sub-steps.
func (a *Arena) Step(ticks int) {
	dt := 1.0 / a.tickRate
	for i := 0; i < ticks; i++ {
		ids := a.CarIDs()
		for _, id := range ids {
			stepCar(a.cars[id], dt)
		}
		for _, id := range ids {
			pushBall(&a.ball.Pos, &a.ball.Vel, a.cars[id])
		}
		stepBall(a, dt)
		for _, id := range ids {
			a.collectBoost(a.cars[id])
		}
		a.tickPads(dt)
		a.tickCount++
	}
}

func stepCar(c *car, dt float64) {
	s := &c.state
	in := c.controls
	boosting := in.Boost && s.Boost > 0

	if s.OnGround {
		forward := mathx.Vec3{X: math.Cos(c.angles.Yaw), Y: math.Sin(c.angles.Yaw)}
		speed := s.Vel.Dot(forward)

		if in.Throttle == 0 && !boosting {
			speed = approach(speed, 0, CoastDecel*dt)
		} else {
			accel := groundAcceleration(speed, in.Throttle)
			if boosting {
				accel += BoostAccel
			}
			speed += accel * dt
		}
		if in.Handbrake {
			speed = approach(speed, 0, HandbrakeDrag*dt)
		}
		speed = mathx.Clamp(speed, -CarMaxSpeed, CarMaxSpeed)

		turn := in.Steer * MaxTurnRate * math.Min(1, math.Abs(speed)/FullTurnSpeed)
		if speed < 0 {
			turn = -turn
		}
		if in.Handbrake {
			turn *= HandbrakeTurn
		}
		c.angles.Yaw = mathx.WrapPi(c.angles.Yaw + turn*dt)
		c.angles.Pitch = 0
		c.angles.Roll = 0
		s.AngVel = mathx.Vec3{Z: turn}

		heading := mathx.Vec3{X: math.Cos(c.angles.Yaw), Y: math.Sin(c.angles.Yaw)}
		s.Vel = heading.Scale(speed)

		if in.Jump && !c.jumpHeld {
			s.Vel.Z = JumpVelocity
			s.OnGround = false
		}
	} else {
		c.angles.Pitch = mathx.WrapPi(c.angles.Pitch + in.Pitch*AirPitchRate*dt)
		c.angles.Roll = mathx.WrapPi(c.angles.Roll + in.Roll*AirRollRate*dt)
		c.angles.Yaw = mathx.WrapPi(c.angles.Yaw + in.Yaw*MaxTurnRate*dt)
		s.AngVel = mathx.Vec3{X: in.Roll * AirRollRate, Y: in.Pitch * AirPitchRate, Z: in.Yaw * MaxTurnRate}
		if boosting {
			s.Vel = s.Vel.Add(mathx.FromAngles(c.angles).Forward.Scale(BoostAccel * dt))
		}
		s.Vel.Z += Gravity * dt
	}
	c.jumpHeld = in.Jump

	if boosting {
		s.Boost = math.Max(0, s.Boost-BoostPerSecond*dt)
	}
	if speed := s.Vel.Len(); speed > CarMaxSpeed {
		s.Vel = s.Vel.Scale(CarMaxSpeed / speed)
	}

	s.Pos = s.Pos.Add(s.Vel.Scale(dt))
	confineCar(c)

	s.Rot = mathx.FromAngles(c.angles)
	s.IsSupersonic = s.Vel.Len() >= SupersonicSpeed
	s.LastControls = in
}

func groundAcceleration(speed, throttle float64) float64 {
	switch {
	case speed != 0 && mathx.Sign(speed) != mathx.Sign(throttle):
		return throttle * BrakeAccel
	default:
		return throttle * ThrottleAccel
	}
}

func confineCar(c *car) {
	s := &c.state
	if s.Pos.Z <= CarRestHeight {
		s.Pos.Z = CarRestHeight
		if s.Vel.Z < 0 {
			s.Vel.Z = 0
		}
		if !s.OnGround {
			c.angles.Pitch = 0
			c.angles.Roll = 0
		}
		s.OnGround = true
	} else if s.Vel.Z != 0 {
		s.OnGround = false
	}
	s.Pos.X, s.Vel.X = clampAxis(s.Pos.X, s.Vel.X, ArenaHalfX, 0)
	s.Pos.Y, s.Vel.Y = clampAxis(s.Pos.Y, s.Vel.Y, ArenaHalfY, 0)
}

// clampAxis keeps pos inside [-limit, limit], reflecting vel by restitution.
func clampAxis(pos, vel, limit, restitution float64) (float64, float64) {
	if pos > limit {
		return limit, -math.Abs(vel) * restitution
	}
	if pos < -limit {
		return -limit, math.Abs(vel) * restitution
	}
	return pos, vel
}

func stepBall(a *Arena, dt float64) {
	b := &a.ball
	b.Vel.Z += Gravity * dt
	if speed := b.Vel.Len(); speed > BallMaxSpeed {
		b.Vel = b.Vel.Scale(BallMaxSpeed / speed)
	}
	b.Pos = b.Pos.Add(b.Vel.Scale(dt))

	b.Pos.X, b.Vel.X = clampAxis(b.Pos.X, b.Vel.X, ArenaHalfX-BallRadius, BallRestitution)
	b.Pos.Y, b.Vel.Y = clampAxis(b.Pos.Y, b.Vel.Y, ArenaHalfY-BallRadius, BallRestitution)
	if b.Pos.Z < BallRadius {
		b.Pos.Z = BallRadius
		b.Vel.Z = math.Abs(b.Vel.Z) * BallRestitution
		if b.Vel.Z < -Gravity*dt*2 {
			b.Vel.Z = 0
		}
	}
	if b.Pos.Z > ArenaHeight-BallRadius {
		b.Pos.Z = ArenaHeight - BallRadius
		b.Vel.Z = -math.Abs(b.Vel.Z) * BallRestitution
	}

	// Visual spin: roll about the axis perpendicular to horizontal travel.
	b.AngVel = mathx.Vec3{X: -b.Vel.Y / BallRadius, Y: b.Vel.X / BallRadius}
}

// pushBall separates the ball from a touching car and transfers the car's
// closing speed along the contact normal.
func pushBall(pos, vel *mathx.Vec3, c *car) {
	minDist := BallRadius + CarReach
	delta := pos.Sub(c.state.Pos)
	dist := delta.Len()
	if dist >= minDist {
		return
	}
	normal := mathx.Vec3{X: 1}
	if dist > 1e-9 {
		normal = delta.Scale(1 / dist)
	}
	*pos = c.state.Pos.Add(normal.Scale(minDist))

	closing := c.state.Vel.Sub(*vel).Dot(normal)
	if closing > 0 {
		*vel = vel.Add(normal.Scale(closing * BallHitBoost))
	}
}

func (a *Arena) collectBoost(c *car) {
	if c.state.Boost >= MaxBoost {
		return
	}
	for i := range a.pads {
		p := &a.pads[i]
		if !p.Active {
			continue
		}
		radius, amount, cooldown := SmallPadRadius, SmallPadAmount, SmallPadCooldown
		if p.IsBig {
			radius, amount, cooldown = BigPadRadius, BigPadAmount, BigPadCooldown
		}
		if c.state.Pos.Sub(p.Pos).Len2D() > radius {
			continue
		}
		c.state.Boost = math.Min(MaxBoost, c.state.Boost+amount)
		p.Active = false
		p.cooldown = cooldown
		return
	}
}

func (a *Arena) tickPads(dt float64) {
	for i := range a.pads {
		p := &a.pads[i]
		if p.Active {
			continue
		}
		p.cooldown -= dt
		if p.cooldown <= 0 {
			p.cooldown = 0
			p.Active = true
		}
	}
}

func approach(v, target, step float64) float64 {
	if v < target {
		return math.Min(v+step, target)
	}
	return math.Max(v-step, target)
}
