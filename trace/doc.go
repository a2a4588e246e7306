// Package trace provides the two forms of persisted state spec.md §6
// allows as optional, non-mandated output: a thin DOT export of an SR
// graph, and a YAML dump of recorded TRACE_* runtime events. Neither is
// a full exporter — DOT/SVG/XML rendering proper is out of scope per
// spec.md §1.
package trace
