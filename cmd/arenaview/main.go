package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Versifine/arenaview/internal/camera"
	"github.com/Versifine/arenaview/internal/config"
	"github.com/Versifine/arenaview/internal/console"
	"github.com/Versifine/arenaview/internal/control"
	"github.com/Versifine/arenaview/internal/event"
	"github.com/Versifine/arenaview/internal/logger"
	"github.com/Versifine/arenaview/internal/mathx"
	"github.com/Versifine/arenaview/internal/sim"
	"github.com/Versifine/arenaview/internal/sim/kinematic"
	"github.com/Versifine/arenaview/internal/stream"
	"github.com/Versifine/arenaview/internal/telemetry"
	"github.com/Versifine/arenaview/internal/visualizer"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "path", *configPath, "error", err)
		os.Exit(1)
	}

	keyboardOn := cfg.HasController(config.ControllerKeyboard)
	var terminal *console.Terminal
	bindings, err := control.NewBindings(cfg.Input)
	if err != nil {
		slog.Error("Invalid input bindings", "error", err)
		os.Exit(1)
	}
	actions := control.NewActionQueue()
	keyboard := control.NewKeyboard(bindings, actions)
	if keyboardOn {
		terminal = console.NewTerminal(keyboard)
	}
	interactive := terminal != nil && terminal.IsTerminal()

	if err := logger.Init(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		File:        cfg.Logging.File,
		RawTerminal: interactive,
	}); err != nil {
		slog.Error("Failed to initialise logging", "error", err)
		os.Exit(1)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := event.NewBus()
	event.SubscribeLogging(bus)

	arena := newArena(cfg.Arena)
	source := control.NewAggregator()
	if keyboardOn {
		source.Add(keyboard)
	}
	if cfg.HasController(config.ControllerGamepad) {
		if pad := openGamepad(cfg.Gamepad, actions, bus); pad != nil {
			source.Add(pad)
		}
	}

	var renderers visualizer.Renderers
	var hub *stream.Hub
	if cfg.Stream.Enabled {
		var keys control.KeyHandler
		if keyboardOn {
			keys = keyboard
		}
		hub = stream.NewHub(keys)
		renderers = append(renderers, hub)
	}
	if cfg.Metrics.Enabled {
		if rec := openRecorder(ctx, cfg.Metrics); rec != nil {
			defer rec.Close()
			renderers = append(renderers, rec)
		}
	}
	if interactive {
		renderers = append(renderers, console.NewStatusRenderer(os.Stdout, int(cfg.Loop.FPS/10)))
	}

	vis, err := visualizer.New(arena, source, actions, renderers, bus, visualizerOptions(cfg))
	if err != nil {
		slog.Error("Failed to create visualizer", "error", err)
		os.Exit(1)
	}
	if hub != nil {
		hub.SetViewControl(vis)
	}
	if cfg.HasController(config.ControllerBallChaser) {
		source.Add(control.NewProgrammatic(vis.Observer(), control.BallChaser{}))
	}

	if hub != nil {
		go func() {
			if err := hub.Serve(ctx, cfg.Stream.Listen); err != nil {
				slog.Error("Stream server failed", "error", err)
				stop()
			}
		}()
	}
	if terminal != nil {
		go func() {
			err := terminal.Run(ctx)
			switch {
			case errors.Is(err, console.ErrInterrupted):
				stop()
			case err != nil:
				slog.Warn("Terminal input stopped", "error", err)
			}
		}()
	}

	slog.Info("Arena ready",
		"tick_rate", arena.TickRate(),
		"cars", len(arena.CarIDs()),
		"pads", len(arena.BoostPads()),
		"controllers", cfg.Controllers,
	)
	if err := vis.Run(ctx); err != nil {
		slog.Error("Visualizer stopped with error", "error", err)
		os.Exit(1)
	}
	bus.Wait()
	slog.Info("Visualizer stopped", "ticks", arena.TickCount())
}

func newArena(cfg config.ArenaConfig) *kinematic.Arena {
	var pads []sim.BoostPad
	if cfg.Pads {
		pads = kinematic.DefaultPads()
	}
	arena := kinematic.New(cfg.TickRate, pads)
	for i := range cfg.Cars {
		team := sim.TeamBlue
		if i%2 == 1 {
			team = sim.TeamOrange
		}
		arena.AddCar(team, kinematic.OctaneConfig())
	}
	if start := cfg.BallStart; start != [3]float64{} {
		arena.SetBall(sim.BallState{Pos: mathx.Vec3{X: start[0], Y: start[1], Z: start[2]}})
	}
	return arena
}

func openGamepad(cfg config.GamepadConfig, sink control.ActionSink, bus *event.Bus) *control.Gamepad {
	dev, err := control.OpenEvdev(cfg.Device, cfg.PollInterval)
	if err != nil {
		slog.Warn("Gamepad unavailable, continuing without it", "device", cfg.Device, "error", err)
		return nil
	}
	pad := control.NewGamepad(dev, sink)
	pad.OnLost(func(err error) {
		bus.Publish(event.EventSourceLost, &event.SourceLostEvent{Source: "gamepad", Reason: err.Error()})
	})
	return pad
}

func openRecorder(ctx context.Context, cfg config.MetricsConfig) *telemetry.Recorder {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	rec, err := telemetry.Open(ctx, telemetry.Config{
		URL:        cfg.InfluxURL,
		Token:      cfg.Token,
		Org:        cfg.Org,
		Bucket:     cfg.Bucket,
		Every:      cfg.Every,
		BackupPath: cfg.BackupPath,
	})
	if err != nil {
		slog.Warn("Telemetry disabled", "error", err)
		return nil
	}
	return rec
}

func visualizerOptions(cfg *config.Config) visualizer.Options {
	return visualizer.Options{
		FPS:               cfg.Loop.FPS,
		TickSkip:          cfg.Loop.TickSkip,
		StepArena:         cfg.Loop.StepArena,
		OverwriteControls: cfg.Loop.OverwriteControls,
		DebugText:         cfg.Loop.DebugText,
		Camera: camera.Config{
			FOV:                cfg.Camera.FOV,
			Distance:           cfg.Camera.Distance,
			BaseAngle:          cfg.Camera.Angle,
			Height:             cfg.Camera.Height,
			MinFollowSpeed:     cfg.Camera.MinFollowSpeed,
			ElevationDamping:   cfg.Camera.ElevationDamping,
			SupersonicFOVBoost: cfg.Camera.SupersonicFOVBoost,
		},
	}
}
