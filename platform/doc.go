// Package platform describes the hardware spider2 runs on: processing
// elements grouped into clusters, and the memory buses connecting them
// (spec.md §6 "Platform description API"). It is built once at startup
// and shared read-only afterward (spec.md §5 "the platform object is
// shared read-only after startup") — schedule and fifo only ever read
// it.
package platform
