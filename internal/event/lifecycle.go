package event

import "log/slog"

// LogHandler logs lifecycle events at info level.
func LogHandler(raw any) {
	switch evt := raw.(type) {
	case *EntityEvent:
		slog.Info("Car tracked", "car", evt.CarID, "team", evt.Team.String())
	case *SelectionEvent:
		if !evt.HasCar {
			slog.Info("Selection changed", "car", "none", "target", evt.Target)
			return
		}
		slog.Info("Selection changed", "car", evt.Car, "target", evt.Target)
	case *SourceLostEvent:
		slog.Warn("Control source lost", "source", evt.Source, "reason", evt.Reason)
	default:
		slog.Error("Invalid event type for LogHandler")
	}
}

// RemovedLogHandler logs car removal.
func RemovedLogHandler(raw any) {
	evt, ok := raw.(*EntityEvent)
	if !ok {
		slog.Error("Invalid event type for RemovedLogHandler")
		return
	}
	slog.Info("Car untracked", "car", evt.CarID)
}

// SubscribeLogging wires the log handlers for every lifecycle event.
func SubscribeLogging(b *Bus) {
	b.Subscribe(EventEntityAdded, LogHandler)
	b.Subscribe(EventEntityRemoved, RemovedLogHandler)
	b.Subscribe(EventSelectionChanged, LogHandler)
	b.Subscribe(EventSourceLost, LogHandler)
}
