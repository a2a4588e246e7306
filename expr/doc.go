// Package expr implements the Expression contract spec.md §4.7 names as an
// out-of-scope external collaborator: compiling an arithmetic string over a
// parameter environment into a callable that evaluates to both a float64
// and an int64 (token-rate expressions are integers; timing expressions on
// a PE may be fractional).
//
// Static expressions (no identifier resolves to a dynamic parameter) are
// evaluated once at Compile time and cached; dynamic expressions compile
// to a small closure tree walked on every call against the caller-supplied
// environment. Either strategy satisfies the same Expression interface.
package expr
