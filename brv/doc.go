// Package brv computes the Basic Repetition Vector of a PiSDF graph: the
// number of firings per iteration for every contained vertex (spec.md
// §4.1). It uses rational arithmetic over connected components, BFS in
// the same shape as lvlath's graph.BFS, followed by LCM integerization.
package brv
