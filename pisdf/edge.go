package pisdf

import "github.com/spider2/runtime/expr"

// Edge connects one output port of a source vertex to one input port of
// a sink vertex (spec.md §3 "Edge"). Rate expressions are duplicated on
// both endpoints (rather than shared) because after SR expansion they
// must be set independently equal per edge invariant, and source/sink
// may resolve against different parameter environments pre-expansion.
type Edge struct {
	ID string

	From     string // source vertex id
	FromPort int
	FromRate expr.Expression

	To     string // sink vertex id
	ToPort int
	ToRate expr.Expression

	Delay *Delay // nil if this edge carries no delay
}

// HasDelay reports whether this edge carries a Delay.
func (e *Edge) HasDelay() bool { return e.Delay != nil }
