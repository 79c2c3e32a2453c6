package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	apiContainer "github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	dockerClient "github.com/docker/docker/client"
)

// Docker implements Runtime against the Docker Engine API.
type Docker struct {
	cli    *dockerClient.Client
	logger *slog.Logger
}

// NewDocker builds a Docker runtime. An empty endpoint uses the standard
// environment configuration (DOCKER_HOST etc.). The client is built once
// and reused for every call.
func NewDocker(endpoint string, logger *slog.Logger) (*Docker, error) {
	opts := []dockerClient.Opt{
		dockerClient.FromEnv,
		dockerClient.WithAPIVersionNegotiation(),
	}
	if endpoint != "" {
		opts = append(opts, dockerClient.WithHost(endpoint))
	}

	cli, err := dockerClient.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("runtime: create docker client: %w", err)
	}

	return &Docker{cli: cli, logger: logger}, nil
}

// Ping checks that the Docker daemon is reachable.
func (d *Docker) Ping(ctx context.Context) error {
	if _, err := d.cli.Ping(ctx); err != nil {
		return fmt.Errorf("runtime: ping docker daemon: %w", err)
	}
	return nil
}

// ListContainers returns all containers whose name matches name exactly.
// The daemon's name filter is a substring match, so results are narrowed
// to exact matches here ("/name" — the daemon prefixes names with a slash).
func (d *Docker) ListContainers(ctx context.Context, name string) ([]Container, error) {
	f := filters.NewArgs(filters.Arg("name", name))
	list, err := d.cli.ContainerList(ctx, apiContainer.ListOptions{All: true, Filters: f})
	if err != nil {
		return nil, fmt.Errorf("runtime: list containers: %w", err)
	}

	var out []Container
	for _, c := range list {
		for _, n := range c.Names {
			if n == "/"+name {
				out = append(out, Container{
					ID:      c.ID,
					Name:    name,
					Running: c.State == apiContainer.StateRunning,
				})
				break
			}
		}
	}
	return out, nil
}

// StatsSample returns one stats reading with a valid pre-CPU baseline.
//
// The daemon's one-shot stats frame carries zeroed pre-CPU counters, so a
// CPU rate cannot be derived from it. The streaming endpoint fills the
// pre-CPU fields from the previous frame, so this reads frames until one
// arrives with a baseline (at most two) and returns it.
func (d *Docker) StatsSample(ctx context.Context, containerID string) (Sample, error) {
	resp, err := d.cli.ContainerStats(ctx, containerID, true)
	if err != nil {
		return Sample{}, fmt.Errorf("runtime: container stats: %w", err)
	}
	defer resp.Body.Close()

	dec := json.NewDecoder(resp.Body)
	var stats apiContainer.StatsResponse
	for i := 0; i < 2; i++ {
		if err := dec.Decode(&stats); err != nil {
			return Sample{}, fmt.Errorf("runtime: decode stats frame: %w", err)
		}
		if stats.PreCPUStats.SystemUsage > 0 {
			break
		}
	}

	d.logger.DebugContext(ctx, "stats sample collected",
		"container_id", containerID,
		"cpu_total", stats.CPUStats.CPUUsage.TotalUsage,
		"mem_usage", stats.MemoryStats.Usage,
	)

	return sampleFrom(stats), nil
}

// sampleFrom converts a raw daemon stats frame into a Sample.
func sampleFrom(s apiContainer.StatsResponse) Sample {
	return Sample{
		CPU: CPUSample{
			Total:       s.CPUStats.CPUUsage.TotalUsage,
			System:      s.CPUStats.SystemUsage,
			OnlineCPUs:  s.CPUStats.OnlineCPUs,
			PercpuCount: len(s.CPUStats.CPUUsage.PercpuUsage),
		},
		PreCPU: CPUSample{
			Total:       s.PreCPUStats.CPUUsage.TotalUsage,
			System:      s.PreCPUStats.SystemUsage,
			OnlineCPUs:  s.PreCPUStats.OnlineCPUs,
			PercpuCount: len(s.PreCPUStats.CPUUsage.PercpuUsage),
		},
		Memory: MemorySample{
			Usage: s.MemoryStats.Usage,
			Limit: s.MemoryStats.Limit,
			Stats: s.MemoryStats.Stats,
		},
	}
}
