package control

import "sync"

// KeyEvent is one physical key transition.
type KeyEvent struct {
	Key        string
	Down       bool
	AutoRepeat bool
}

// KeyHandler accepts key transitions from a window or terminal.
type KeyHandler interface {
	HandleKey(ev KeyEvent)
	Reset()
}

// Keyboard derives controls from held keys. Key events may arrive on any
// goroutine; actions are forwarded to the sink as they happen.
type Keyboard struct {
	bindings Bindings
	sink     ActionSink

	mu       sync.Mutex
	press    *PressState
	controls Vector
}

func NewKeyboard(bindings Bindings, sink ActionSink) *Keyboard {
	return &Keyboard{
		bindings: bindings,
		sink:     sinkOrDiscard(sink),
		press:    NewPressState(),
	}
}

func (k *Keyboard) HandleKey(ev KeyEvent) {
	if ev.AutoRepeat {
		return
	}
	name, ok := k.bindings.Lookup(ev.Key)
	if !ok {
		return
	}

	fire := false
	k.mu.Lock()
	if ev.Down {
		first := k.press.Press(name)
		_, edge := EdgeAction(name)
		fire = first && edge
	} else {
		k.press.Release(name)
	}
	k.controls = k.derive()
	k.mu.Unlock()

	// The sink runs outside the lock so handlers may call back into Poll.
	if fire {
		action, _ := EdgeAction(name)
		k.sink.HandleAction(action)
	}
}

func (k *Keyboard) Poll() Vector {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.controls
}

func (k *Keyboard) Reset() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.press.Reset()
	k.controls = Vector{}
}

// derive recomputes every field from the whole press table.
func (k *Keyboard) derive() Vector {
	p := k.press
	v := Vector{
		Throttle:  boolAxis(p.Held(InputForward), p.Held(InputBackward)),
		Steer:     boolAxis(p.Held(InputRight), p.Held(InputLeft)),
		Roll:      boolAxis(p.Held(InputRollRight), p.Held(InputRollLeft)),
		Jump:      p.Held(InputJump),
		Handbrake: p.Held(InputPowerslide),
		Boost:     p.Held(InputBoost),
	}
	v.Pitch = -v.Throttle
	v.Yaw = v.Steer
	return v
}
