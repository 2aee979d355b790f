package stream

import (
	"encoding/json"

	"github.com/Versifine/arenaview/internal/control"
	"github.com/Versifine/arenaview/internal/mathx"
	"github.com/Versifine/arenaview/internal/scene"
	"github.com/Versifine/arenaview/internal/visualizer"
)

// Message types sent by clients.
const (
	TypeKey       = "key"
	TypeFocusLost = "focus_lost"
	TypeOrbit     = "orbit"
)

// Message types sent by the server.
const (
	TypeFrame = "frame"
)

// ClientMessage is a remote input event.
type ClientMessage struct {
	Type   string `json:"type"`
	Key    string `json:"key,omitempty"`
	Down   bool   `json:"down,omitempty"`
	Repeat bool   `json:"repeat,omitempty"`

	// Orbit drag deltas in degrees.
	DAzimuth   float64 `json:"d_azimuth,omitempty"`
	DElevation float64 `json:"d_elevation,omitempty"`
	Dragging   bool    `json:"dragging,omitempty"`
}

type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func toVec3(v mathx.Vec3) Vec3 { return Vec3{X: v.X, Y: v.Y, Z: v.Z} }

type Camera struct {
	Center    Vec3    `json:"center"`
	Eye       Vec3    `json:"eye"`
	Distance  float64 `json:"distance"`
	Azimuth   float64 `json:"azimuth"`
	Elevation float64 `json:"elevation"`
	FOV       float64 `json:"fov"`
}

type Part struct {
	Name   string  `json:"name"`
	Offset Vec3    `json:"offset"`
	Radius float64 `json:"radius"`
}

// Proxy is the wire form of a scene proxy. Angles are degrees.
type Proxy struct {
	ID        uint32     `json:"id,omitempty"`
	Kind      string     `json:"kind"`
	Team      string     `json:"team,omitempty"`
	Position  Vec3       `json:"position"`
	Yaw       float64    `json:"yaw"`
	Pitch     float64    `json:"pitch"`
	Roll      float64    `json:"roll"`
	Color     [4]float64 `json:"color"`
	Highlight bool       `json:"highlight,omitempty"`
	Visible   bool       `json:"visible"`
	Size      *Vec3      `json:"size,omitempty"`
	Radius    float64    `json:"radius,omitempty"`
	Parts     []Part     `json:"parts,omitempty"`
}

type Controls struct {
	Throttle  float64 `json:"throttle"`
	Steer     float64 `json:"steer"`
	Roll      float64 `json:"roll"`
	Pitch     float64 `json:"pitch"`
	Yaw       float64 `json:"yaw"`
	Jump      bool    `json:"jump"`
	Handbrake bool    `json:"handbrake"`
	Boost     bool    `json:"boost"`
}

type DebugField struct {
	Group string `json:"group"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// FrameMessage is the wire form of one rendered tick.
type FrameMessage struct {
	Type      string       `json:"type"`
	Tick      uint64       `json:"tick"`
	Camera    Camera       `json:"camera"`
	Cars      []Proxy      `json:"cars"`
	Ball      Proxy        `json:"ball"`
	Shadow    Proxy        `json:"shadow"`
	Pads      []Proxy      `json:"pads,omitempty"`
	Spectated *uint32      `json:"spectated,omitempty"`
	Target    string       `json:"target"`
	TargetCam bool         `json:"target_cam"`
	FreeCam   bool         `json:"free_cam"`
	Controls  Controls     `json:"controls"`
	FPS       float64      `json:"fps"`
	Debug     []DebugField `json:"debug,omitempty"`
}

func toProxy(p scene.Proxy) Proxy {
	out := Proxy{
		ID:        uint32(p.ID),
		Kind:      p.Kind.String(),
		Position:  toVec3(p.Transform.Position),
		Yaw:       p.Transform.Yaw,
		Pitch:     p.Transform.Pitch,
		Roll:      p.Transform.Roll,
		Color:     [4]float64{p.Color.R, p.Color.G, p.Color.B, p.Color.A},
		Highlight: p.EdgeHighlight,
		Visible:   p.Visible,
		Radius:    p.Radius,
	}
	if p.Kind == scene.KindCar {
		out.Team = p.Team.String()
	}
	if p.Hitbox.Size != (mathx.Vec3{}) {
		size := toVec3(p.Hitbox.Size)
		out.Size = &size
	}
	for _, part := range p.Parts {
		out.Parts = append(out.Parts, Part{Name: part.Name, Offset: toVec3(part.Offset), Radius: part.Radius})
	}
	return out
}

func toControls(v control.Vector) Controls {
	return Controls{
		Throttle:  v.Throttle,
		Steer:     v.Steer,
		Roll:      v.Roll,
		Pitch:     v.Pitch,
		Yaw:       v.Yaw,
		Jump:      v.Jump,
		Handbrake: v.Handbrake,
		Boost:     v.Boost,
	}
}

// NewFrameMessage converts a frame to its wire form.
func NewFrameMessage(f visualizer.Frame) FrameMessage {
	msg := FrameMessage{
		Type: TypeFrame,
		Tick: f.Tick,
		Camera: Camera{
			Center:    toVec3(f.Camera.Center),
			Eye:       toVec3(f.Camera.Position()),
			Distance:  f.Camera.Distance,
			Azimuth:   f.Camera.Azimuth,
			Elevation: f.Camera.Elevation,
			FOV:       f.Camera.FOV,
		},
		Cars:      make([]Proxy, 0, len(f.Cars)),
		Ball:      toProxy(f.Ball),
		Shadow:    toProxy(f.BallShadow),
		Target:    f.Target.String(),
		TargetCam: f.TargetCam,
		FreeCam:   f.FreeCam,
		Controls:  toControls(f.Controls),
		FPS:       f.Stats.FPS,
	}
	for _, c := range f.Cars {
		msg.Cars = append(msg.Cars, toProxy(c))
	}
	for _, p := range f.Pads {
		msg.Pads = append(msg.Pads, toProxy(p))
	}
	if f.HasSpectated {
		id := uint32(f.Spectated)
		msg.Spectated = &id
	}
	for _, d := range f.Debug {
		msg.Debug = append(msg.Debug, DebugField{Group: d.Group, Name: d.Name, Value: d.Value})
	}
	return msg
}

func encodeFrame(f visualizer.Frame) ([]byte, error) {
	return json.Marshal(NewFrameMessage(f))
}
