// Package runtime is the container-runtime collaborator boundary.
//
// runtime.go defines the narrow interface the core consumes (Ping,
// ListContainers, StatsSample) together with the raw counter types a
// stats sample carries. docker.go implements it against the Docker
// Engine API. calc.go holds the pure docker-cli derivation formulas
// (CPU percentage from counter deltas, memory usage excluding the page
// cache), kept free of I/O so fixtures can exercise them directly.
package runtime
