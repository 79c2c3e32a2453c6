package ws_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dockstats/dockstats/internal/config"
	"github.com/dockstats/dockstats/internal/runtime"
	"github.com/dockstats/dockstats/internal/stats"
	wsHub "github.com/dockstats/dockstats/internal/ws"
)

const testInterval = 20 * time.Millisecond

// --- helpers ----------------------------------------------------------------

type fakeRuntime struct {
	mu     sync.Mutex
	byName map[string]runtime.Container
	sample runtime.Sample
}

func (f *fakeRuntime) Ping(ctx context.Context) error { return nil }

func (f *fakeRuntime) ListContainers(ctx context.Context, name string) ([]runtime.Container, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byName[name]
	if !ok {
		return nil, nil
	}
	return []runtime.Container{c}, nil
}

func (f *fakeRuntime) StatsSample(ctx context.Context, containerID string) (runtime.Sample, error) {
	return f.sample, nil
}

func newAggregator() *stats.Aggregator {
	rt := &fakeRuntime{
		byName: map[string]runtime.Container{
			"abc_web_1": {ID: "c1", Name: "abc_web_1", Running: true},
		},
		sample: runtime.Sample{
			CPU:    runtime.CPUSample{Total: 125_000_000, System: 1_000_000_000, OnlineCPUs: 1},
			Memory: runtime.MemorySample{Usage: 1024, Limit: 4096},
		},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return stats.NewAggregator(stats.NewFetcher(rt, time.Second, logger), 4, 5*time.Second, logger)
}

// startHub starts a test HTTP server with the hub as its handler.
// The hub's Run loop is started with a cancellable context.
func startHub(t *testing.T, targets []config.Target) (wsURL string, hub *wsHub.Hub) {
	t.Helper()

	hub = wsHub.New(newAggregator(), testInterval, targets)
	ctx, cancel := context.WithCancel(context.Background())

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeHTTP))
	go hub.Run(ctx)

	t.Cleanup(func() {
		cancel()
		srv.Close()
	})

	return "ws" + strings.TrimPrefix(srv.URL, "http"), hub
}

func dial(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]json.RawMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read message: %v", err)
	}
	var msg map[string]json.RawMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal envelope: %v (raw: %s)", err, data)
	}
	return msg
}

// --- tests ------------------------------------------------------------------

func TestHub_BroadcastsStats(t *testing.T) {
	wsURL, _ := startHub(t, []config.Target{{Pipeline: "abc", Service: "web"}})
	conn := dial(t, wsURL)

	msg := readMessage(t, conn)

	var event string
	if err := json.Unmarshal(msg["event"], &event); err != nil || event != "stats" {
		t.Errorf("event: got %q (%v)", event, err)
	}

	var data map[string]map[string]any
	if err := json.Unmarshal(msg["data"], &data); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
	web, ok := data["web"]
	if !ok {
		t.Fatalf("data missing web key: %v", data)
	}
	if web["cpu_percent"].(float64) != 12.5 {
		t.Errorf("cpu_percent: got %v, want 12.5", web["cpu_percent"])
	}
}

func TestHub_ClientCount(t *testing.T) {
	wsURL, hub := startHub(t, []config.Target{{Pipeline: "abc", Service: "web"}})

	if hub.Count() != 0 {
		t.Fatalf("count before connect: got %d, want 0", hub.Count())
	}

	conn := dial(t, wsURL)

	deadline := time.Now().Add(time.Second)
	for hub.Count() != 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if hub.Count() != 1 {
		t.Fatalf("count after connect: got %d, want 1", hub.Count())
	}

	conn.Close()
	deadline = time.Now().Add(time.Second)
	for hub.Count() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if hub.Count() != 0 {
		t.Errorf("count after close: got %d, want 0", hub.Count())
	}
}

func TestHub_SetTargets(t *testing.T) {
	wsURL, hub := startHub(t, []config.Target{{Pipeline: "abc", Service: "web"}})
	conn := dial(t, wsURL)

	// Drain the on-connect snapshot.
	readMessage(t, conn)

	hub.SetTargets([]config.Target{{Pipeline: "abc", Service: "db"}})

	// The next broadcasts should reflect the new watch list.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		msg := readMessage(t, conn)
		var data map[string]map[string]any
		if err := json.Unmarshal(msg["data"], &data); err != nil {
			t.Fatalf("unmarshal data: %v", err)
		}
		if db, ok := data["db"]; ok {
			if db["error"] != "not_found" {
				t.Errorf("db: got %v, want not_found", db)
			}
			return
		}
	}
	t.Fatal("never received a broadcast for the swapped watch list")
}
