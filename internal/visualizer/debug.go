package visualizer

import (
	"fmt"
	"strings"

	"github.com/Versifine/arenaview/internal/control"
	"github.com/Versifine/arenaview/internal/mathx"
	"github.com/Versifine/arenaview/internal/scheduler"
	"github.com/Versifine/arenaview/internal/sim"
)

// DebugField is one line of the debug overlay.
type DebugField struct {
	Group string
	Name  string
	Value string
}

func vec(v mathx.Vec3) string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", v.X, v.Y, v.Z)
}

func num(f float64) string { return fmt.Sprintf("%.2f", f) }

// debugFields lists the overlay fields. The list is maintained by hand.
func debugFields(stats scheduler.Stats, ball sim.BallState, car *sim.CarState, carID sim.CarID, controls control.Vector) []DebugField {
	fields := []DebugField{
		{"", "fps", fmt.Sprintf("%.0f", stats.FPS)},
		{"", "tick_time_drift", fmt.Sprintf("%.3f ms", float64(stats.Drift.Microseconds())/1000)},
		{"ball_state", "pos", vec(ball.Pos)},
		{"ball_state", "vel", vec(ball.Vel)},
		{"ball_state", "ang_vel", vec(ball.AngVel)},
	}
	if car == nil {
		return fields
	}
	fields = append(fields,
		DebugField{"car_state", "id", fmt.Sprint(carID)},
		DebugField{"car_state", "pos", vec(car.Pos)},
		DebugField{"car_state", "vel", vec(car.Vel)},
		DebugField{"car_state", "ang_vel", vec(car.AngVel)},
		DebugField{"car_state", "boost", num(car.Boost)},
		DebugField{"car_state", "is_supersonic", fmt.Sprint(car.IsSupersonic)},
		DebugField{"car_state", "is_on_ground", fmt.Sprint(car.OnGround)},
		DebugField{"last_controls", "throttle", num(controls.Throttle)},
		DebugField{"last_controls", "steer", num(controls.Steer)},
		DebugField{"last_controls", "pitch", num(controls.Pitch)},
		DebugField{"last_controls", "yaw", num(controls.Yaw)},
		DebugField{"last_controls", "roll", num(controls.Roll)},
		DebugField{"last_controls", "jump", fmt.Sprint(controls.Jump)},
		DebugField{"last_controls", "handbrake", fmt.Sprint(controls.Handbrake)},
		DebugField{"last_controls", "boost", fmt.Sprint(controls.Boost)},
	)
	return fields
}

// FormatDebug renders fields as overlay text, one group header per group.
func FormatDebug(fields []DebugField) string {
	var b strings.Builder
	group := ""
	for _, f := range fields {
		if f.Group != group {
			group = f.Group
			fmt.Fprintf(&b, "\n%s:\n", group)
		}
		fmt.Fprintf(&b, "%s = %s\n", f.Name, f.Value)
	}
	return b.String()
}
