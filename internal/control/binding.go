package control

import (
	"errors"
	"fmt"
	"sort"
)

// Logical input names used in the input binding table.
const (
	InputForward      = "FORWARD"
	InputBackward     = "BACKWARD"
	InputLeft         = "LEFT"
	InputRight        = "RIGHT"
	InputRollLeft     = "ROLL_LEFT"
	InputRollRight    = "ROLL_RIGHT"
	InputJump         = "JUMP"
	InputPowerslide   = "POWERSLIDE"
	InputBoost        = "BOOST"
	InputSwitchCar    = "SWITCH_CAR"
	InputSwitchTarget = "SWITCH_TARGET"
	InputTargetCam    = "TARGET_CAM"
	InputFreeCam      = "FREE_CAM"
)

var ErrUnknownAction = errors.New("unknown input action")

// edgeActions maps edge-triggered logical names to the action they fire.
var edgeActions = map[string]Action{
	InputSwitchCar:    ActionSwitchCar,
	InputSwitchTarget: ActionSwitchTarget,
	InputTargetCam:    ActionToggleTargetCam,
	InputFreeCam:      ActionToggleFreeCam,
}

var heldInputs = map[string]struct{}{
	InputForward:    {},
	InputBackward:   {},
	InputLeft:       {},
	InputRight:      {},
	InputRollLeft:   {},
	InputRollRight:  {},
	InputJump:       {},
	InputPowerslide: {},
	InputBoost:      {},
}

// IsKnownInput reports whether name is a logical input name.
func IsKnownInput(name string) bool {
	if _, ok := heldInputs[name]; ok {
		return true
	}
	_, ok := edgeActions[name]
	return ok
}

// EdgeAction returns the action fired by an edge-triggered input.
func EdgeAction(name string) (Action, bool) {
	a, ok := edgeActions[name]
	return a, ok
}

// Bindings maps physical key identifiers to logical input names. It is
// immutable once built and safe to share between sources.
type Bindings struct {
	keys map[string]string
}

func NewBindings(keys map[string]string) (Bindings, error) {
	copied := make(map[string]string, len(keys))
	for key, name := range keys {
		if !IsKnownInput(name) {
			return Bindings{}, fmt.Errorf("key %q: %w: %s", key, ErrUnknownAction, name)
		}
		copied[key] = name
	}
	return Bindings{keys: copied}, nil
}

func (b Bindings) Lookup(key string) (string, bool) {
	name, ok := b.keys[key]
	return name, ok
}

// Names lists the distinct logical names referenced by the bindings, sorted.
func (b Bindings) Names() []string {
	seen := make(map[string]struct{}, len(b.keys))
	out := make([]string, 0, len(b.keys))
	for _, name := range b.keys {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// DefaultBindings is the built-in keyboard layout.
func DefaultBindings() map[string]string {
	return map[string]string{
		"W":     InputForward,
		"S":     InputBackward,
		"A":     InputLeft,
		"D":     InputRight,
		"Q":     InputRollLeft,
		"E":     InputRollRight,
		"Space": InputJump,
		"Shift": InputPowerslide,
		"B":     InputBoost,
		"C":     InputSwitchCar,
		"T":     InputSwitchTarget,
		"Y":     InputTargetCam,
		"F":     InputFreeCam,
	}
}

// PressState tracks, per logical input, whether it is held and whether its
// edge action already fired during the current hold.
type PressState struct {
	held  map[string]bool
	fired map[string]bool
}

func NewPressState() *PressState {
	return &PressState{
		held:  make(map[string]bool),
		fired: make(map[string]bool),
	}
}

// Press marks name held. It returns true only for the first press of a hold.
func (p *PressState) Press(name string) bool {
	p.held[name] = true
	if p.fired[name] {
		return false
	}
	p.fired[name] = true
	return true
}

func (p *PressState) Release(name string) {
	delete(p.held, name)
	delete(p.fired, name)
}

func (p *PressState) Held(name string) bool {
	return p.held[name]
}

func (p *PressState) Reset() {
	clear(p.held)
	clear(p.fired)
}
