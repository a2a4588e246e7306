package pisdf

import "github.com/spider2/runtime/expr"

// Delay is attached to exactly one Edge (spec.md §3 "Delay"). It carries
// the initial-tokens size, optional setter/getter actors, and whether its
// storage persists across iterations.
type Delay struct {
	Size expr.Expression

	SetterVertex string // vertex id, "" if none
	SetterPort   int

	GetterVertex string // vertex id, "" if none
	GetterPort   int

	Persistent bool
}

// HasSetter reports whether an explicit setter actor feeds initial tokens.
func (d *Delay) HasSetter() bool { return d.SetterVertex != "" }

// HasGetter reports whether an explicit getter actor consumes final tokens.
func (d *Delay) HasGetter() bool { return d.GetterVertex != "" }
