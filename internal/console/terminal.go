// Package console drives the visualizer from a text terminal.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/Versifine/arenaview/internal/control"
)

const (
	defaultPulse = 180 * time.Millisecond
	sweepEvery   = 20 * time.Millisecond
	readChunk    = 64
)

const (
	byteCtrlC = 3
	byteCtrlD = 4
	byteTab   = 9
	byteLF    = 10
	byteCR    = 13
	byteEsc   = 27
	byteDel   = 127
)

// ErrInterrupted is returned by Run when the user presses Ctrl-C or Ctrl-D.
var ErrInterrupted = errors.New("console: interrupted")

// Terminal turns terminal key presses into key events. Terminals report no
// key release, so each press is held for a pulse and then released;
// pressing again before the pulse ends extends it.
type Terminal struct {
	keys  control.KeyHandler
	in    io.Reader
	pulse time.Duration
	now   func() time.Time

	mu   sync.Mutex
	held map[string]time.Time
}

type Option func(*Terminal)

// WithInput reads keys from r instead of stdin.
func WithInput(r io.Reader) Option {
	return func(t *Terminal) { t.in = r }
}

func WithPulse(d time.Duration) Option {
	return func(t *Terminal) {
		if d > 0 {
			t.pulse = d
		}
	}
}

func NewTerminal(keys control.KeyHandler, opts ...Option) *Terminal {
	t := &Terminal{
		keys:  keys,
		in:    os.Stdin,
		pulse: defaultPulse,
		now:   time.Now,
		held:  make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// IsTerminal reports whether the input is an interactive terminal.
func (t *Terminal) IsTerminal() bool {
	f, ok := t.in.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Run reads keys until ctx is done, the input ends, or the user interrupts.
// An interactive input is switched to raw mode for the duration.
func (t *Terminal) Run(ctx context.Context) error {
	if t.keys == nil {
		return fmt.Errorf("console key handler is nil")
	}

	if f, ok := t.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		oldState, err := term.MakeRaw(fd)
		if err != nil {
			return fmt.Errorf("set terminal raw mode: %w", err)
		}
		defer func() {
			_ = term.Restore(fd, oldState)
			fmt.Print("\r\n")
		}()
	}
	defer t.releaseAll()

	chunks := make(chan []byte)
	readErr := make(chan error, 1)
	go t.readLoop(ctx, chunks, readErr)

	ticker := time.NewTicker(sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read console input: %w", err)
		case chunk := <-chunks:
			if interrupted(chunk) {
				return ErrInterrupted
			}
			now := t.now()
			for _, key := range ParseKeys(chunk) {
				t.press(key, now)
			}
		case <-ticker.C:
			t.sweep(t.now())
		}
	}
}

func (t *Terminal) readLoop(ctx context.Context, chunks chan<- []byte, errs chan<- error) {
	for {
		buf := make([]byte, readChunk)
		n, err := t.in.Read(buf)
		if n > 0 {
			select {
			case chunks <- buf[:n]:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			errs <- err
			return
		}
	}
}

func interrupted(chunk []byte) bool {
	for _, b := range chunk {
		if b == byteCtrlC || b == byteCtrlD {
			return true
		}
	}
	return false
}

// ParseKeys maps raw terminal bytes to key identifiers. Letters are upper
// cased; arrow escape sequences become Up, Down, Left and Right.
func ParseKeys(chunk []byte) []string {
	var keys []string
	for i := 0; i < len(chunk); i++ {
		b := chunk[i]
		switch {
		case b == byteEsc:
			if i+2 < len(chunk) && (chunk[i+1] == '[' || chunk[i+1] == 'O') {
				if name, ok := arrowKey(chunk[i+2]); ok {
					keys = append(keys, name)
					i += 2
					continue
				}
			}
			keys = append(keys, "Esc")
		case b == ' ':
			keys = append(keys, "Space")
		case b == byteTab:
			keys = append(keys, "Tab")
		case b == byteCR || b == byteLF:
			keys = append(keys, "Enter")
		case b == byteDel || b == 8:
			keys = append(keys, "Backspace")
		case b >= 'a' && b <= 'z':
			keys = append(keys, string(rune(b-'a'+'A')))
		case b > ' ' && b < byteDel:
			keys = append(keys, string(rune(b)))
		}
	}
	return keys
}

func arrowKey(b byte) (string, bool) {
	switch b {
	case 'A':
		return "Up", true
	case 'B':
		return "Down", true
	case 'C':
		return "Right", true
	case 'D':
		return "Left", true
	}
	return "", false
}

func (t *Terminal) press(key string, now time.Time) {
	t.mu.Lock()
	_, already := t.held[key]
	t.held[key] = now.Add(t.pulse)
	t.mu.Unlock()

	if !already {
		t.keys.HandleKey(control.KeyEvent{Key: key, Down: true})
	}
}

// sweep releases every key whose pulse ended before now.
func (t *Terminal) sweep(now time.Time) {
	var released []string
	t.mu.Lock()
	for key, until := range t.held {
		if !now.Before(until) {
			released = append(released, key)
			delete(t.held, key)
		}
	}
	t.mu.Unlock()

	for _, key := range released {
		t.keys.HandleKey(control.KeyEvent{Key: key})
	}
}

func (t *Terminal) releaseAll() {
	t.mu.Lock()
	n := len(t.held)
	clear(t.held)
	t.mu.Unlock()

	if n > 0 {
		slog.Debug("Released held terminal keys", "count", n)
	}
	t.keys.Reset()
}

// Held returns the keys currently inside their pulse.
func (t *Terminal) Held() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.held))
	for key := range t.held {
		out = append(out, key)
	}
	slices.Sort(out)
	return out
}
