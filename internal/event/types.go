package event

import "github.com/Versifine/arenaview/internal/sim"

const (
	EventEntityAdded      = "entity.added"
	EventEntityRemoved    = "entity.removed"
	EventSelectionChanged = "selection.changed"
	EventSourceLost       = "source.lost"
)

type EntityEvent struct {
	CarID sim.CarID
	Team  sim.Team
}

type SelectionEvent struct {
	Car    sim.CarID
	HasCar bool
	Target string
}

type SourceLostEvent struct {
	Source string
	Reason string
}
