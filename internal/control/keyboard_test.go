package control

import "testing"

func newTestKeyboard(t *testing.T) (*Keyboard, *ActionQueue) {
	t.Helper()
	bindings, err := NewBindings(DefaultBindings())
	if err != nil {
		t.Fatalf("NewBindings() error = %v", err)
	}
	q := NewActionQueue()
	return NewKeyboard(bindings, q), q
}

func press(k *Keyboard, key string) { k.HandleKey(KeyEvent{Key: key, Down: true}) }

func release(k *Keyboard, key string) { k.HandleKey(KeyEvent{Key: key, Down: false}) }

func TestKeyboardOppositeKeysCancel(t *testing.T) {
	pairs := [][2]string{{"W", "S"}, {"A", "D"}, {"Q", "E"}}
	for mask := 0; mask < 1<<len(pairs); mask++ {
		k, _ := newTestKeyboard(t)
		for i, pair := range pairs {
			if mask&(1<<i) != 0 {
				press(k, pair[0])
				press(k, pair[1])
			}
		}
		v := k.Poll()
		v.ClampFix()
		if v.Throttle != 0 || v.Steer != 0 || v.Roll != 0 || v.Pitch != 0 || v.Yaw != 0 {
			t.Fatalf("mask %b: got %+v, want all continuous fields 0", mask, v)
		}
	}
}

func TestKeyboardDerivesPitchAndYaw(t *testing.T) {
	k, _ := newTestKeyboard(t)
	press(k, "W")
	press(k, "D")
	press(k, "Space")

	v := k.Poll()
	if v.Throttle != 1 || v.Pitch != -1 {
		t.Fatalf("throttle=%v pitch=%v, want 1 and -1", v.Throttle, v.Pitch)
	}
	if v.Steer != 1 || v.Yaw != 1 {
		t.Fatalf("steer=%v yaw=%v, want 1 and 1", v.Steer, v.Yaw)
	}
	if !v.Jump {
		t.Fatalf("jump = false, want true")
	}

	release(k, "W")
	if got := k.Poll(); got.Throttle != 0 || got.Steer != 1 {
		t.Fatalf("after release got %+v", got)
	}
}

func TestKeyboardEdgeActionFiresOncePerHold(t *testing.T) {
	k, q := newTestKeyboard(t)

	for cycle := 0; cycle < 5; cycle++ {
		press(k, "C")
		for i := 0; i < 10; i++ {
			_ = k.Poll()
			// repeated key-down without release, as some backends report it
			press(k, "C")
		}
		release(k, "C")

		got := q.Drain()
		if len(got) != 1 || got[0] != ActionSwitchCar {
			t.Fatalf("cycle %d: actions = %v, want [switch_car]", cycle, got)
		}
	}
}

func TestKeyboardIgnoresAutoRepeatAndUnboundKeys(t *testing.T) {
	k, q := newTestKeyboard(t)
	k.HandleKey(KeyEvent{Key: "W", Down: true, AutoRepeat: true})
	k.HandleKey(KeyEvent{Key: "T", Down: true, AutoRepeat: true})
	k.HandleKey(KeyEvent{Key: "Z", Down: true})

	if v := k.Poll(); !v.IsZero() {
		t.Fatalf("Poll() = %+v, want zero", v)
	}
	if q.Len() != 0 {
		t.Fatalf("queued %d actions, want 0", q.Len())
	}

	// An auto-repeat release must not end the hold.
	press(k, "W")
	k.HandleKey(KeyEvent{Key: "W", Down: false, AutoRepeat: true})
	if v := k.Poll(); v.Throttle != 1 {
		t.Fatalf("throttle = %v after auto-repeat release, want 1", v.Throttle)
	}
}

func TestKeyboardResetClearsHeldKeys(t *testing.T) {
	k, q := newTestKeyboard(t)
	press(k, "W")
	press(k, "B")
	press(k, "Y")
	q.Drain()

	k.Reset()
	if v := k.Poll(); !v.IsZero() {
		t.Fatalf("Poll() after Reset = %+v, want zero", v)
	}

	// The lost key-up never arrives; the next press must fire again.
	press(k, "Y")
	if got := q.Drain(); len(got) != 1 || got[0] != ActionToggleTargetCam {
		t.Fatalf("actions = %v, want [toggle_target_cam]", got)
	}
}

func TestNewBindingsRejectsUnknownAction(t *testing.T) {
	_, err := NewBindings(map[string]string{"W": "FLY"})
	if err == nil {
		t.Fatal("NewBindings() error = nil, want error")
	}
}

func TestPressStateFirstPressOnly(t *testing.T) {
	p := NewPressState()
	if !p.Press(InputSwitchCar) {
		t.Fatal("first Press() = false")
	}
	if p.Press(InputSwitchCar) {
		t.Fatal("second Press() during hold = true")
	}
	p.Release(InputSwitchCar)
	if p.Held(InputSwitchCar) {
		t.Fatal("Held() after Release = true")
	}
	if !p.Press(InputSwitchCar) {
		t.Fatal("Press() after release = false")
	}
}
