// Package telemetry records per-tick measurements to InfluxDB.
package telemetry

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/Versifine/arenaview/internal/scene"
	"github.com/Versifine/arenaview/internal/visualizer"
)

const (
	MeasurementTick = "arenaview_tick"
	MeasurementCar  = "arenaview_car"
)

var ErrNoSink = errors.New("telemetry: no influx server and no backup path")

type Config struct {
	URL        string
	Token      string
	Org        string
	Bucket     string
	Every      int
	BackupPath string
}

// Recorder is a visualizer.Renderer that turns every Nth frame into
// InfluxDB points. When the server cannot be reached at Open, points are
// written as gzip line protocol to the backup file instead.
type Recorder struct {
	every  uint64
	logger *slog.Logger

	client influxdb2.Client
	writer influxdb2_api.WriteAPI

	mu         sync.Mutex
	closed     bool
	backup     *gzip.Writer
	backupFile *os.File
	now        func() time.Time
}

func Open(ctx context.Context, cfg Config) (*Recorder, error) {
	r := &Recorder{
		every:  uint64(max(cfg.Every, 1)),
		logger: slog.With("component", "telemetry"),
		now:    time.Now,
	}

	if cfg.URL != "" {
		client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token,
			influxdb2.DefaultOptions().
				SetBatchSize(500).
				SetFlushInterval(1000),
		)
		running, err := client.Ping(ctx)
		if err == nil && running {
			r.client = client
			r.writer = client.WriteAPI(cfg.Org, cfg.Bucket)
			go r.logWriteErrors(r.writer.Errors())
			r.logger.Info("InfluxDB recorder connected", "url", cfg.URL, "bucket", cfg.Bucket)
			return r, nil
		}
		client.Close()
		r.logger.Warn("InfluxDB unreachable, using backup file", "url", cfg.URL, "error", err)
	}

	if cfg.BackupPath == "" {
		return nil, ErrNoSink
	}
	file, err := os.OpenFile(cfg.BackupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create telemetry backup file: %w", err)
	}
	r.backupFile = file
	r.backup = gzip.NewWriter(file)
	r.logger.Info("Telemetry writing to backup file", "path", cfg.BackupPath)
	return r, nil
}

func (r *Recorder) logWriteErrors(errs <-chan error) {
	for err := range errs {
		r.logger.Error("Error sending data to InfluxDB", "error", err)
	}
}

// Connected reports whether points go to an InfluxDB server.
func (r *Recorder) Connected() bool { return r.writer != nil }

func (r *Recorder) Render(f visualizer.Frame) error {
	if f.Tick%r.every != 0 {
		return nil
	}
	points := FramePoints(f, r.now())

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	if r.writer != nil {
		for _, p := range points {
			r.writer.WritePoint(p)
		}
		return nil
	}
	for _, p := range points {
		line := influxdb2_write.PointToLineProtocol(p, time.Nanosecond)
		if _, err := r.backup.Write([]byte(line)); err != nil {
			return fmt.Errorf("write telemetry backup: %w", err)
		}
	}
	return nil
}

// Close flushes pending points and releases the sink.
// Later calls are no-ops.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true

	if r.writer != nil {
		r.writer.Flush()
		r.client.Close()
		return nil
	}
	return errors.Join(r.backup.Close(), r.backupFile.Close())
}

// FramePoints builds one tick point plus one point per car.
func FramePoints(f visualizer.Frame, ts time.Time) []*influxdb2_write.Point {
	ball := f.Ball.Transform.Position
	tick := influxdb2_write.NewPoint(MeasurementTick,
		map[string]string{"target": f.Target.String()},
		map[string]interface{}{
			"tick":     int64(f.Tick),
			"fps":      f.Stats.FPS,
			"drift_ms": float64(f.Stats.Drift) / float64(time.Millisecond),
			"work_ms":  float64(f.Stats.LastWork) / float64(time.Millisecond),
			"ball_x":   ball.X,
			"ball_y":   ball.Y,
			"ball_z":   ball.Z,
			"cars":     int64(len(f.Cars)),
		},
		ts,
	)

	points := make([]*influxdb2_write.Point, 0, len(f.Cars)+1)
	points = append(points, tick)
	for _, car := range f.Cars {
		points = append(points, carPoint(car, f, ts))
	}
	return points
}

func carPoint(car scene.Proxy, f visualizer.Frame, ts time.Time) *influxdb2_write.Point {
	pos := car.Transform.Position
	spectated := f.HasSpectated && f.Spectated == car.ID
	fields := map[string]interface{}{
		"x":         pos.X,
		"y":         pos.Y,
		"z":         pos.Z,
		"yaw":       car.Transform.Yaw,
		"spectated": spectated,
	}
	if spectated {
		fields["throttle"] = f.Controls.Throttle
		fields["steer"] = f.Controls.Steer
		fields["boost"] = f.Controls.Boost
	}
	return influxdb2_write.NewPoint(MeasurementCar,
		map[string]string{
			"car":  strconv.FormatUint(uint64(car.ID), 10),
			"team": car.Team.String(),
		},
		fields,
		ts,
	)
}
