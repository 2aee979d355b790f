package telemetry

import (
	"bufio"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Versifine/arenaview/internal/control"
	"github.com/Versifine/arenaview/internal/mathx"
	"github.com/Versifine/arenaview/internal/scene"
	"github.com/Versifine/arenaview/internal/scheduler"
	"github.com/Versifine/arenaview/internal/sim"
	"github.com/Versifine/arenaview/internal/visualizer"
)

var _ visualizer.Renderer = (*Recorder)(nil)

func testFrame(tick uint64) visualizer.Frame {
	return visualizer.Frame{
		Tick: tick,
		Cars: []scene.Proxy{
			{ID: 1, Kind: scene.KindCar, Team: sim.TeamBlue, Transform: scene.Transform{Position: mathx.Vec3{X: 10, Y: -20, Z: 17}}},
			{ID: 2, Kind: scene.KindCar, Team: sim.TeamOrange},
		},
		Ball:         scene.Proxy{Kind: scene.KindBall, Transform: scene.Transform{Position: mathx.Vec3{Z: 93}}},
		Spectated:    2,
		HasSpectated: true,
		Target:       scene.CarTarget(1),
		Controls:     control.Vector{Throttle: 1, Boost: true},
		Stats:        scheduler.Stats{FPS: 60, Drift: 2 * time.Millisecond},
	}
}

func TestFramePoints(t *testing.T) {
	ts := time.Unix(1700000000, 0)
	points := FramePoints(testFrame(7), ts)
	require.Len(t, points, 3)

	lines := make([]string, len(points))
	for i, p := range points {
		lines[i] = influxdb2_write.PointToLineProtocol(p, time.Second)
	}

	assert.True(t, strings.HasPrefix(lines[0], MeasurementTick+",target=car\\ 1 "), lines[0])
	assert.Contains(t, lines[0], "fps=60")
	assert.Contains(t, lines[0], "drift_ms=2")
	assert.Contains(t, lines[0], "cars=2i")
	assert.Contains(t, lines[0], "ball_z=93")
	assert.True(t, strings.HasSuffix(lines[0], " 1700000000\n") || strings.HasSuffix(lines[0], " 1700000000"), lines[0])

	assert.True(t, strings.HasPrefix(lines[1], MeasurementCar+",car=1,team=blue "), lines[1])
	assert.Contains(t, lines[1], "spectated=false")
	assert.NotContains(t, lines[1], "throttle")

	assert.True(t, strings.HasPrefix(lines[2], MeasurementCar+",car=2,team=orange "), lines[2])
	assert.Contains(t, lines[2], "spectated=true")
	assert.Contains(t, lines[2], "throttle=1")
	assert.Contains(t, lines[2], "boost=true")
}

func TestOpenWithoutSink(t *testing.T) {
	_, err := Open(context.Background(), Config{})
	assert.True(t, errors.Is(err, ErrNoSink))
}

func TestRecorderBackupFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ticks.lp.gz")
	rec, err := Open(context.Background(), Config{Every: 2, BackupPath: path})
	require.NoError(t, err)
	assert.False(t, rec.Connected())

	for tick := uint64(1); tick <= 4; tick++ {
		require.NoError(t, rec.Render(testFrame(tick)))
	}
	require.NoError(t, rec.Close())
	require.NoError(t, rec.Close())
	require.NoError(t, rec.Render(testFrame(6)), "render after close is a no-op")

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	zr, err := gzip.NewReader(f)
	require.NoError(t, err)

	var lines []string
	sc := bufio.NewScanner(zr)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	require.NoError(t, sc.Err())

	// ticks 2 and 4, three points each
	require.Len(t, lines, 6)
	assert.Contains(t, lines[0], "tick=2i")
	assert.Contains(t, lines[3], "tick=4i")
}

func TestOpenUnreachableServerFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ticks.lp.gz")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	rec, err := Open(ctx, Config{URL: "http://127.0.0.1:1", Bucket: "ticks", BackupPath: path})
	require.NoError(t, err)
	defer rec.Close()
	assert.False(t, rec.Connected())
}

func TestRecorderInfluxCloseTwice(t *testing.T) {
	var writes atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/write") {
			writes.Add(1)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	rec, err := Open(ctx, Config{URL: srv.URL, Org: "arenaview", Bucket: "ticks", Every: 1})
	require.NoError(t, err)
	require.True(t, rec.Connected())

	require.NoError(t, rec.Render(testFrame(1)))
	require.NoError(t, rec.Close())
	assert.Equal(t, int32(1), writes.Load(), "close flushes the pending batch")

	assert.NotPanics(t, func() {
		require.NoError(t, rec.Close())
		require.NoError(t, rec.Render(testFrame(2)))
	})
	assert.Equal(t, int32(1), writes.Load())
}
