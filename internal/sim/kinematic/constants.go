package kinematic

// Units are unreal units (cm), seconds and radians.
const (
	DefaultTickRate = 120.0

	Gravity = -650.0

	ArenaHalfX  = 4096.0
	ArenaHalfY  = 5120.0
	ArenaHeight = 2044.0

	CarRestHeight   = 17.0
	CarMaxSpeed     = 2300.0
	SupersonicSpeed = 2200.0
	ThrottleAccel   = 1600.0
	BrakeAccel      = 3500.0
	CoastDecel      = 525.0
	BoostAccel      = 991.666
	BoostPerSecond  = 33.3
	JumpVelocity    = 292.0
	MaxTurnRate     = 2.6
	FullTurnSpeed   = 500.0
	HandbrakeTurn   = 1.6
	HandbrakeDrag   = 900.0
	AirPitchRate    = 2.5
	AirRollRate     = 3.0
	CarReach        = 60.0
	StartingBoost   = 33.0
	MaxBoost        = 100.0

	BallRadius      = 91.25
	BallRestitution = 0.6
	BallMaxSpeed    = 6000.0
	BallHitBoost    = 1.5

	BigPadRadius     = 208.0
	SmallPadRadius   = 144.0
	BigPadAmount     = 100.0
	SmallPadAmount   = 12.0
	BigPadCooldown   = 10.0
	SmallPadCooldown = 4.0
)
