// Package ws streams live stats snapshots to WebSocket clients. The hub
// aggregates a configured watch list of (pipeline, service) targets on
// every tick and broadcasts the result to all connected clients. The
// watch list can be swapped at runtime (config hot reload).
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dockstats/dockstats/internal/api"
	"github.com/dockstats/dockstats/internal/config"
	"github.com/dockstats/dockstats/internal/stats"
)

const (
	// writeTimeout is the deadline for a single write to a client.
	writeTimeout = 10 * time.Second

	// pongWait is how long to wait for a pong response before treating the
	// connection as dead.
	pongWait = 60 * time.Second

	// pingPeriod controls how often the server sends WebSocket ping frames.
	// Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// sendBufSize is the per-client outgoing message buffer depth.
	sendBufSize = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Allow all origins — callers should apply CORS at the reverse-proxy level.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Message is the JSON envelope sent to clients on every broadcast tick.
type Message struct {
	Event string            `json:"event"`
	Data  api.StatsResponse `json:"data"`
}

// Hub manages WebSocket client connections and broadcasts a fresh stats
// snapshot of the watch list to all connected clients every interval.
type Hub struct {
	agg      *stats.Aggregator
	interval time.Duration

	mu      sync.RWMutex
	targets []config.Target
	clients map[*client]struct{}
}

// client represents one connected WebSocket client.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// New creates a Hub that aggregates targets every interval.
func New(agg *stats.Aggregator, interval time.Duration, targets []config.Target) *Hub {
	return &Hub{
		agg:      agg,
		interval: interval,
		targets:  targets,
		clients:  make(map[*client]struct{}),
	}
}

// SetTargets swaps the watch list. Takes effect on the next tick.
func (h *Hub) SetTargets(targets []config.Target) {
	h.mu.Lock()
	h.targets = targets
	h.mu.Unlock()
}

// Run starts the broadcast ticker loop. It sends a fresh snapshot to all
// connected clients every interval. Run blocks until ctx is cancelled, then
// closes all active connections.
func (h *Hub) Run(ctx context.Context) {
	t := time.NewTicker(h.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-t.C:
			h.broadcast(ctx)
		}
	}
}

// ServeHTTP upgrades the HTTP connection to WebSocket and serves the client.
// It sends a snapshot immediately on connect, then continues to receive
// broadcasts from the ticker loop. Blocks until the connection closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, sendBufSize),
	}
	h.register(c)
	defer h.unregister(c)

	// Send a snapshot immediately so the client has data right away.
	if data, ok := h.buildMessage(r.Context()); ok {
		select {
		case c.send <- data:
		default:
		}
	}

	go c.writePump()
	c.readPump() // blocks until connection closes
}

// Count returns the number of currently connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// --- internal ---------------------------------------------------------------

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *Hub) broadcast(ctx context.Context) {
	// Aggregating is runtime I/O — skip the tick when nobody is listening.
	if h.Count() == 0 {
		return
	}

	data, ok := h.buildMessage(ctx)
	if !ok {
		return
	}

	h.mu.RLock()
	conns := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		select {
		case c.send <- data:
		default:
			// Client's outgoing buffer is full — disconnect it.
			h.unregister(c)
		}
	}
}

// buildMessage aggregates the watch list and marshals the envelope.
// Returns ok=false when the watch list is empty or marshalling fails.
func (h *Hub) buildMessage(ctx context.Context) ([]byte, bool) {
	h.mu.RLock()
	watch := h.targets
	h.mu.RUnlock()

	if len(watch) == 0 {
		return nil, false
	}

	pipelines := make([]string, len(watch))
	services := make([]string, len(watch))
	for i, tgt := range watch {
		pipelines[i] = tgt.Pipeline
		services[i] = tgt.Service
	}

	msg := Message{
		Event: "stats",
		Data:  api.NewStatsResponse(h.agg.Aggregate(ctx, pipelines, services)),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, false
	}
	return data, true
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

// writePump drains the client's send channel and forwards messages to the
// WebSocket connection. It also sends periodic ping frames. Runs in its own
// goroutine per client.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				// Channel was closed (hub is shutting down or client removed).
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads frames from the connection to process control messages (pong,
// close) and detect disconnects. Blocks until the connection closes.
func (c *client) readPump() {
	defer c.conn.Close()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}
