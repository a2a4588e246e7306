// Package optimize rewrites a single-rate graph to remove routing
// vertices the SR expander introduces unnecessarily: chained FORK/JOIN
// pairs that could have been one vertex, FORK/JOIN pairs that cancel each
// other out entirely, and degenerate single-port FORK/JOIN/DUPLICATE
// vertices that only pass their tokens straight through (spec.md §4.3).
package optimize
