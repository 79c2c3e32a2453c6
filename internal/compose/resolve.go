// Package compose encodes the compose-style container naming convention.
// A service running under a compose project ("pipeline") is published as
// {pipeline}_{service}_1, and that name is the only handle the rest of the
// system has on the container. The convention is a contract with the
// orchestration layer, so it lives in its own package.
package compose

import "fmt"

// Resolve maps a (pipeline, service) pair to the container name the
// orchestrator assigns to the service's first replica. Pure string
// composition — no I/O, cannot fail.
func Resolve(pipeline, service string) string {
	return fmt.Sprintf("%s_%s_1", pipeline, service)
}
