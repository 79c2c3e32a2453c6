package runtime

// CPU and memory derivations below follow
// https://github.com/docker/cli/blob/master/cli/command/container/stats_helpers.go

// CPUPercent derives the CPU utilization percentage from two consecutive
// readings. The result may exceed 100 on multi-core hosts. Returns 0 when
// either delta is non-positive (first reading, idle container, or counter
// reset).
func CPUPercent(pre, cur CPUSample) float64 {
	var (
		cpuDelta    = float64(cur.Total) - float64(pre.Total)
		systemDelta = float64(cur.System) - float64(pre.System)
		onlineCPUs  = float64(cur.OnlineCPUs)
	)

	if onlineCPUs == 0.0 {
		onlineCPUs = float64(cur.PercpuCount)
	}
	if systemDelta > 0.0 && cpuDelta > 0.0 {
		return (cpuDelta / systemDelta) * onlineCPUs * 100.0
	}
	return 0.0
}

// MemoryUsage returns the memory usage in bytes with the inactive file
// cache subtracted, matching what docker stats reports.
func MemoryUsage(mem MemorySample) uint64 {
	// cgroup v1
	if v, isCgroup1 := mem.Stats["total_inactive_file"]; isCgroup1 && v < mem.Usage {
		return mem.Usage - v
	}
	// cgroup v2
	if v := mem.Stats["inactive_file"]; v < mem.Usage {
		return mem.Usage - v
	}
	return mem.Usage
}
