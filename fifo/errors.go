package fifo

import "errors"

var (
	// ErrNoExternalIndex is returned when an EXTERN_IN/EXTERN_OUT vertex has
	// no platform-registered external buffer index (spec.md §4.5).
	ErrNoExternalIndex = errors.New("fifo: vertex has no platform-registered external buffer index")

	// ErrCyclicGraph is returned when the graph passed to Allocate is not a
	// DAG; allocation order depends on a topological walk.
	ErrCyclicGraph = errors.New("fifo: graph is not a DAG")
)
