package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/Versifine/arenaview/internal/visualizer"
)

// StatusRenderer redraws a single status line for every Nth frame.
type StatusRenderer struct {
	w     io.Writer
	every uint64

	mu    sync.Mutex
	width int
}

func NewStatusRenderer(w io.Writer, every int) *StatusRenderer {
	if every < 1 {
		every = 1
	}
	return &StatusRenderer{w: w, every: uint64(every)}
}

func (s *StatusRenderer) Render(f visualizer.Frame) error {
	if f.Tick%s.every != 0 {
		return nil
	}
	line := StatusLine(f)

	s.mu.Lock()
	defer s.mu.Unlock()
	padding := ""
	if s.width > len(line) {
		padding = strings.Repeat(" ", s.width-len(line))
	}
	if len(line) > s.width {
		s.width = len(line)
	}
	_, err := fmt.Fprintf(s.w, "\r%s%s", line, padding)
	return err
}

// StatusLine summarises a frame in one line.
func StatusLine(f visualizer.Frame) string {
	car := "-"
	if f.HasSpectated {
		car = fmt.Sprintf("%d", f.Spectated)
	}
	cam := "target"
	switch {
	case f.FreeCam:
		cam = "free"
	case !f.TargetCam:
		cam = "follow"
	}
	ball := f.Ball.Transform.Position
	c := f.Controls
	return fmt.Sprintf(
		"[fps:%.1f drift:%s | car:%s tgt:%s cam:%s | THR:%+.1f STR:%+.1f BST:%s JMP:%s | ball:%.0f,%.0f,%.0f]",
		f.Stats.FPS, f.Stats.Drift,
		car, f.Target, cam,
		c.Throttle, c.Steer, boolLabel(c.Boost), boolLabel(c.Jump),
		ball.X, ball.Y, ball.Z,
	)
}

func boolLabel(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
