// Package pisdf implements the PiSDF data model: vertices, edges, delays,
// and the graph that owns them (spec.md §3). It is the shape the rest of
// the pipeline — brv, srexpand, optimize, schedule, fifo — operates over.
package pisdf
