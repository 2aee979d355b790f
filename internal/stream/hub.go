// Package stream serves rendered frames to websocket clients and accepts
// remote keyboard input from them.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Versifine/arenaview/internal/control"
	"github.com/Versifine/arenaview/internal/visualizer"
)

const (
	sendBuffer      = 8
	writeWait       = 5 * time.Second
	maxMessageSize  = 4096
	shutdownTimeout = 2 * time.Second
)

// Path is where Serve mounts the websocket endpoint.
const Path = "/ws"

// Hub broadcasts frames to connected clients. Render never blocks: a client
// whose buffer is full misses the frame.
type Hub struct {
	keys     control.KeyHandler
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
	view    ViewControl
}

// ViewControl receives manual orbit input from clients.
type ViewControl interface {
	SetManualOrbit(on bool)
	Orbit(dAzimuth, dElevation float64)
}

type client struct {
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	// Owned by the read pump.
	keysDown bool
	dragging bool
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// NewHub returns a hub forwarding remote key input to keys. keys may be nil,
// in which case client input is ignored.
func NewHub(keys control.KeyHandler) *Hub {
	return &Hub{
		keys: keys,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger:  slog.With("component", "stream"),
		clients: make(map[*client]struct{}),
	}
}

// SetViewControl routes client orbit messages to v. Without one they are
// ignored.
func (h *Hub) SetViewControl(v ViewControl) {
	h.mu.Lock()
	h.view = v
	h.mu.Unlock()
}

func (h *Hub) viewControl() ViewControl {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.view
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) Render(f visualizer.Frame) error {
	h.mu.Lock()
	if len(h.clients) == 0 {
		h.mu.Unlock()
		return nil
	}
	h.mu.Unlock()

	data, err := encodeFrame(f)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
		}
	}
	return nil
}

// Handler upgrades requests to websocket connections.
func (h *Hub) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Debug("Upgrade failed", "remote", r.RemoteAddr, "error", err)
			return
		}
		c := &client{
			conn: conn,
			send: make(chan []byte, sendBuffer),
			done: make(chan struct{}),
		}
		if !h.add(c) {
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
			conn.Close()
			return
		}
		h.logger.Info("Stream client connected", "remote", r.RemoteAddr)

		go h.writePump(c)
		h.readPump(c)

		// A dropped connection never sends its key-ups or drag end.
		h.release(c)
		h.remove(c)
		h.logger.Info("Stream client disconnected", "remote", r.RemoteAddr)
	})
}

func (h *Hub) release(c *client) {
	if h.keys != nil && c.keysDown {
		h.keys.Reset()
	}
	if view := h.viewControl(); view != nil && c.dragging {
		view.SetManualOrbit(false)
	}
}

func (h *Hub) add(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
}

func (h *Hub) writePump(c *client) {
	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.close()
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.logger.Debug("Stream write failed", "error", err)
				c.close()
				return
			}
		}
	}
}

func (h *Hub) readPump(c *client) {
	c.conn.SetReadLimit(maxMessageSize)
	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg ClientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			h.logger.Debug("Malformed client message", "error", err)
			continue
		}
		h.dispatch(c, msg)
	}
}

func (h *Hub) dispatch(c *client, msg ClientMessage) {
	switch msg.Type {
	case TypeKey:
		if h.keys == nil || msg.Key == "" {
			return
		}
		if msg.Down {
			c.keysDown = true
		}
		h.keys.HandleKey(control.KeyEvent{Key: msg.Key, Down: msg.Down, AutoRepeat: msg.Repeat})
	case TypeFocusLost:
		if h.keys == nil {
			return
		}
		c.keysDown = false
		h.keys.Reset()
	case TypeOrbit:
		view := h.viewControl()
		if view == nil {
			return
		}
		if !finite(msg.DAzimuth) || !finite(msg.DElevation) {
			h.logger.Debug("Dropped non-finite orbit delta")
			return
		}
		c.dragging = msg.Dragging
		view.SetManualOrbit(msg.Dragging)
		if msg.DAzimuth != 0 || msg.DElevation != 0 {
			view.Orbit(msg.DAzimuth, msg.DElevation)
		}
	default:
		h.logger.Debug("Unknown client message", "type", msg.Type)
	}
}

func finite(v float64) bool { return !math.IsInf(v, 0) && !math.IsNaN(v) }

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}

// Serve listens on addr until ctx is done.
func (h *Hub) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle(Path, h.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		h.logger.Info("Stream listening", "addr", addr, "path", Path)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("stream server: %w", err)
	case <-ctx.Done():
	}

	h.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("stream shutdown: %w", err)
	}
	return nil
}
