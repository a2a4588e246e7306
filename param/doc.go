// Package param implements the PiSDF Parameter Environment: the per-graph
// table mapping parameter names to resolved values or unresolved
// expressions.
//
// Parameters come in four kinds (STATIC, DYNAMIC, DYNAMIC_DEPENDENT,
// INHERITED) but expose the same Value/Dynamic contract regardless of
// kind, so the rest of the runtime (brv, srexpand, schedule) never has
// to switch on kind itself.
package param
