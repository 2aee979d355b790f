package scene

import (
	"log/slog"
	"slices"

	"github.com/Versifine/arenaview/internal/mathx"
	"github.com/Versifine/arenaview/internal/sim"
)

// SyncResult reports the car ids added and removed by one Sync, ascending.
type SyncResult struct {
	Added            []sim.CarID
	Removed          []sim.CarID
	SelectionChanged bool
}

func (r SyncResult) Empty() bool {
	return len(r.Added) == 0 && len(r.Removed) == 0 && !r.SelectionChanged
}

// Reconciler owns every render proxy and keeps the car proxies in step with
// the simulation's live car set. It is used from the tick goroutine only.
type Reconciler struct {
	arena  sim.Arena
	serial uint64

	cars   map[sim.CarID]*Proxy
	ball   *Proxy
	shadow *Proxy
	pads   []*Proxy

	selection *Selection
}

func NewReconciler(arena sim.Arena) *Reconciler {
	r := &Reconciler{
		arena:     arena,
		cars:      make(map[sim.CarID]*Proxy),
		selection: NewSelection(),
	}
	r.ball = &Proxy{
		Kind:    KindBall,
		Serial:  r.nextSerial(),
		Color:   ColorBall,
		Visible: true,
		Radius:  arena.BallRadius(),
	}
	r.shadow = &Proxy{
		Kind:    KindBallShadow,
		Serial:  r.nextSerial(),
		Color:   ColorShadow,
		Visible: true,
		Radius:  arena.BallRadius(),
	}
	return r
}

func (r *Reconciler) nextSerial() uint64 {
	r.serial++
	return r.serial
}

func (r *Reconciler) Selection() *Selection { return r.selection }

// TrackedIDs returns the ids of all car proxies, ascending.
func (r *Reconciler) TrackedIDs() []sim.CarID {
	ids := make([]sim.CarID, 0, len(r.cars))
	for id := range r.cars {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Sync makes the tracked set equal to live. Tracked proxies are never
// rebuilt; new ones are built from the car's static config. Calling Sync
// twice with the same set is a no-op the second time.
func (r *Reconciler) Sync(live []sim.CarID) SyncResult {
	liveSet := make(map[sim.CarID]struct{}, len(live))
	for _, id := range live {
		liveSet[id] = struct{}{}
	}

	var res SyncResult
	for _, id := range r.TrackedIDs() {
		if _, ok := liveSet[id]; !ok {
			delete(r.cars, id)
			res.Removed = append(res.Removed, id)
		}
	}

	sorted := make([]sim.CarID, 0, len(liveSet))
	for id := range liveSet {
		sorted = append(sorted, id)
	}
	slices.Sort(sorted)

	for _, id := range sorted {
		if _, ok := r.cars[id]; ok {
			continue
		}
		cfg, err := r.arena.CarConfig(id)
		if err != nil {
			slog.Debug("Skipping car that vanished during sync", "car", id, "error", err)
			continue
		}
		team, err := r.arena.CarTeam(id)
		if err != nil {
			slog.Debug("Skipping car that vanished during sync", "car", id, "error", err)
			continue
		}
		r.cars[id] = newCarProxy(id, r.nextSerial(), team, cfg)
		res.Added = append(res.Added, id)
	}

	res.SelectionChanged = r.selection.Remap(r.TrackedIDs())
	return res
}

// SyncPads rebuilds the pad proxies when the pad count changes and shows
// only active pads.
func (r *Reconciler) SyncPads(pads []sim.BoostPad) {
	if len(pads) != len(r.pads) {
		r.pads = make([]*Proxy, len(pads))
		for i, p := range pads {
			r.pads[i] = newPadProxy(r.nextSerial(), p)
		}
	}
	for i, p := range pads {
		r.pads[i].Visible = p.Active
		r.pads[i].Transform.Position = mathx.ToRender(p.Pos)
	}
}

// UpdateTransforms copies current simulation state into every proxy.
func (r *Reconciler) UpdateTransforms() {
	ball := r.arena.Ball()
	rot := ball.Rot
	if rot == (mathx.RotMat{}) {
		rot = mathx.Identity()
	}
	r.ball.Transform = transformFrom(ball.Pos, rot)
	r.ball.Radius = r.arena.BallRadius()
	r.shadow.Transform = Transform{Position: mathx.ToRender(mathx.Vec3{X: ball.Pos.X, Y: ball.Pos.Y})}

	for id, p := range r.cars {
		state, err := r.arena.CarState(id)
		if err != nil {
			p.Visible = false
			continue
		}
		team, err := r.arena.CarTeam(id)
		if err == nil {
			p.Team = team
			p.Color = TeamColor(team)
		}
		p.Visible = true
		p.Transform = transformFrom(state.Pos, state.Rot)
		p.EdgeHighlight = state.IsSupersonic
	}
}

// Cars returns copies of the car proxies, ascending by id.
func (r *Reconciler) Cars() []Proxy {
	out := make([]Proxy, 0, len(r.cars))
	for _, id := range r.TrackedIDs() {
		out = append(out, *r.cars[id])
	}
	return out
}

func (r *Reconciler) Car(id sim.CarID) (Proxy, bool) {
	p, ok := r.cars[id]
	if !ok {
		return Proxy{}, false
	}
	return *p, true
}

func (r *Reconciler) Ball() Proxy { return *r.ball }

func (r *Reconciler) BallShadow() Proxy { return *r.shadow }

func (r *Reconciler) Pads() []Proxy {
	out := make([]Proxy, len(r.pads))
	for i, p := range r.pads {
		out[i] = *p
	}
	return out
}

// TargetPosition returns the render-space position of a camera target.
func (r *Reconciler) TargetPosition(t Target) (mathx.Vec3, bool) {
	if t.IsBall() {
		return r.ball.Transform.Position, true
	}
	id, _ := t.Car()
	p, ok := r.cars[id]
	if !ok {
		return mathx.Vec3{}, false
	}
	return p.Transform.Position, true
}
