package runtime

import "context"

// Container is one container descriptor as reported by the runtime.
type Container struct {
	ID      string
	Name    string
	Running bool
}

// CPUSample holds the cumulative CPU counters from one stats reading.
type CPUSample struct {
	// Total is the container's cumulative CPU time in nanoseconds.
	Total uint64

	// System is the host's cumulative CPU time in nanoseconds.
	System uint64

	// OnlineCPUs is the number of CPUs available to the container.
	// May be 0 on older daemons; PercpuCount is the fallback.
	OnlineCPUs uint32

	// PercpuCount is the length of the per-CPU usage list.
	PercpuCount int
}

// MemorySample holds the memory counters from one stats reading.
type MemorySample struct {
	// Usage is the total memory usage in bytes, including page cache.
	Usage uint64

	// Limit is the memory limit in bytes; the host total when the
	// container is unlimited.
	Limit uint64

	// Stats is the raw cgroup memory.stat map. Used to subtract the
	// inactive file cache from Usage.
	Stats map[string]uint64
}

// Sample is one point-in-time stats reading together with the previous
// reading's CPU counters, which the runtime supplies so that a rate can
// be derived from the delta.
type Sample struct {
	CPU    CPUSample
	PreCPU CPUSample
	Memory MemorySample
}

// Runtime is the interface the core consumes. Implementations must
// honour context cancellation on every call.
type Runtime interface {
	// Ping checks that the runtime endpoint is reachable.
	Ping(ctx context.Context) error

	// ListContainers returns all containers (running or not) whose name
	// matches name exactly. An empty slice means no match — not an error.
	ListContainers(ctx context.Context, name string) ([]Container, error)

	// StatsSample returns one fresh stats reading for the container,
	// with a valid pre-CPU baseline so CPU percentage can be derived.
	StatsSample(ctx context.Context, containerID string) (Sample, error)
}
