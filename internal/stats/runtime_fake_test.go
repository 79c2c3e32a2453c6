package stats_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/dockstats/dockstats/internal/runtime"
)

// fakeContainer is one container known to the fake runtime, keyed by name.
type fakeContainer struct {
	id      string
	running bool
	sample  runtime.Sample
	delay   time.Duration // list call blocks this long (or until ctx expires)
}

// fakeRuntime implements runtime.Runtime for tests. It counts calls and
// tracks the high-water mark of concurrent list calls.
type fakeRuntime struct {
	mu          sync.Mutex
	byName      map[string]fakeContainer
	listCalls   int
	statsCalls  int
	inFlight    int
	maxInFlight int
	listErr     error
	pingErr     error
}

func newFakeRuntime() *fakeRuntime {
	return &fakeRuntime{byName: make(map[string]fakeContainer)}
}

func (f *fakeRuntime) add(name string, c fakeContainer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byName[name] = c
}

func (f *fakeRuntime) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeRuntime) ListContainers(ctx context.Context, name string) ([]runtime.Container, error) {
	f.mu.Lock()
	f.listCalls++
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	c, ok := f.byName[name]
	listErr := f.listErr
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if listErr != nil {
		return nil, listErr
	}
	if !ok {
		return nil, nil
	}
	return []runtime.Container{{ID: c.id, Name: name, Running: c.running}}, nil
}

func (f *fakeRuntime) StatsSample(ctx context.Context, containerID string) (runtime.Sample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statsCalls++
	for _, c := range f.byName {
		if c.id == containerID {
			return c.sample, nil
		}
	}
	return runtime.Sample{}, fmt.Errorf("no such container %s", containerID)
}

func (f *fakeRuntime) counts() (list, stats int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls, f.statsCalls
}

// webSample derives to cpu 12.5%, mem 50MB used / 512MB limit.
func webSample() runtime.Sample {
	return runtime.Sample{
		PreCPU: runtime.CPUSample{Total: 0, System: 0},
		CPU: runtime.CPUSample{
			Total:      125_000_000,
			System:     1_000_000_000,
			OnlineCPUs: 1,
		},
		Memory: runtime.MemorySample{
			Usage: 50 * 1024 * 1024,
			Limit: 512 * 1024 * 1024,
		},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
