// Package srexpand implements SR (single-rate) expansion: turning a
// PiSDF graph plus a resolved parameter environment into a flat graph of
// one vertex per firing and one edge per dataflow dependency (spec.md
// §4.2). Hierarchy is walked depth-first by Go recursion: one frame per
// level of PiSDF nesting, not one per SR firing.
package srexpand
