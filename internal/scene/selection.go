package scene

import (
	"fmt"
	"slices"

	"github.com/Versifine/arenaview/internal/sim"
)

// Target is a camera target: the ball or a car id.
type Target int64

// BallTarget sorts before every car id.
const BallTarget Target = -1

func CarTarget(id sim.CarID) Target { return Target(id) }

func (t Target) IsBall() bool { return t == BallTarget }

func (t Target) Car() (sim.CarID, bool) {
	if t < 0 {
		return 0, false
	}
	return sim.CarID(t), true
}

func (t Target) String() string {
	if t.IsBall() {
		return "ball"
	}
	return fmt.Sprintf("car %d", int64(t))
}

// Selection tracks the spectated car and the camera target. live slices
// passed to its methods must be sorted ascending.
type Selection struct {
	car    sim.CarID
	hasCar bool
	target Target
}

func NewSelection() *Selection {
	return &Selection{target: BallTarget}
}

func (s *Selection) Car() (sim.CarID, bool) { return s.car, s.hasCar }

func (s *Selection) Target() Target { return s.target }

// Targets lists the ball followed by every live car except the spectated
// one, in ascending order.
func (s *Selection) Targets(live []sim.CarID) []Target {
	out := make([]Target, 0, len(live)+1)
	out = append(out, BallTarget)
	for _, id := range live {
		if s.hasCar && id == s.car {
			continue
		}
		out = append(out, CarTarget(id))
	}
	return out
}

// SwitchCar advances the spectated car to the next live id, wrapping.
func (s *Selection) SwitchCar(live []sim.CarID) {
	switch {
	case len(live) == 0:
		s.hasCar = false
	case !s.hasCar:
		s.car, s.hasCar = live[0], true
	default:
		i, found := slices.BinarySearch(live, s.car)
		if found {
			i++
		}
		s.car = live[i%len(live)]
	}
	if s.hasCar && s.target == CarTarget(s.car) {
		s.SwitchTarget(live)
	}
}

// SwitchTarget advances the target through Targets, wrapping. A target
// outside the cycle falls back to the ball.
func (s *Selection) SwitchTarget(live []sim.CarID) {
	targets := s.Targets(live)
	i := slices.Index(targets, s.target)
	if i < 0 {
		s.target = BallTarget
		return
	}
	s.target = targets[(i+1)%len(targets)]
}

// Remap repairs the selection after the live set changed. A vanished id is
// replaced by the next live id after it in sort order, wrapping. It reports
// whether anything changed.
func (s *Selection) Remap(live []sim.CarID) bool {
	prevCar, prevHas, prevTarget := s.car, s.hasCar, s.target

	switch {
	case len(live) == 0:
		s.hasCar = false
	case !s.hasCar:
		s.car, s.hasCar = live[0], true
	case !slices.Contains(live, s.car):
		s.car = successor(live, s.car)
	}

	if id, ok := s.target.Car(); ok {
		targets := s.Targets(live)
		if !slices.Contains(targets, s.target) {
			s.target = successor(targets, CarTarget(id))
		}
	}

	return s.car != prevCar || s.hasCar != prevHas || s.target != prevTarget
}

// successor returns the first element of sorted greater than v, wrapping
// to the first element. sorted must be non-empty.
func successor[T ~int64 | ~uint32](sorted []T, v T) T {
	i, found := slices.BinarySearch(sorted, v)
	if found {
		i++
	}
	return sorted[i%len(sorted)]
}
