package pisdf

import "github.com/spider2/runtime/expr"

// Vertex is one actor of a PiSDF graph (spec.md §3 "Vertex"). Port counts
// are fixed at construction; port rates are expressions evaluated against
// the owning Graph's parameter environment once parameters resolve.
type Vertex struct {
	ID   string
	Name string
	Kind VertexKind

	inRates  []expr.Expression
	outRates []expr.Expression

	Kernel  Kernel       // nil for non-executable kinds
	Runtime *RuntimeInfo // mappable PE set + per-PE timing

	// Subgraph is set only for Kind == GraphVertex: the nested graph this
	// vertex represents in its parent, owning its own parameter environment.
	Subgraph *Graph

	// Repetition is the BRV-computed firing count for this vertex; it is
	// recomputed on every iteration and is not meaningful before brv.Solve
	// has run.
	Repetition int64
}

// NewVertex constructs a Vertex with the given input/output rate
// expressions. len(inRates) and len(outRates) fix the port counts.
func NewVertex(id, name string, kind VertexKind, inRates, outRates []expr.Expression) *Vertex {
	return &Vertex{
		ID:       id,
		Name:     name,
		Kind:     kind,
		inRates:  append([]expr.Expression(nil), inRates...),
		outRates: append([]expr.Expression(nil), outRates...),
	}
}

// InputPorts returns the input port count.
func (v *Vertex) InputPorts() int { return len(v.inRates) }

// OutputPorts returns the output port count.
func (v *Vertex) OutputPorts() int { return len(v.outRates) }

// InRate returns the rate expression of input port idx.
func (v *Vertex) InRate(idx int) expr.Expression { return v.inRates[idx] }

// OutRate returns the rate expression of output port idx.
func (v *Vertex) OutRate(idx int) expr.Expression { return v.outRates[idx] }

// AddInputPort appends a new input port with the given rate expression,
// returning its index. Used by the SR expander when synthesizing FORK/
// JOIN/DUPLICATE vertices whose arity is only known during expansion.
func (v *Vertex) AddInputPort(rate expr.Expression) int {
	v.inRates = append(v.inRates, rate)
	return len(v.inRates) - 1
}

// AddOutputPort appends a new output port with the given rate expression,
// returning its index.
func (v *Vertex) AddOutputPort(rate expr.Expression) int {
	v.outRates = append(v.outRates, rate)
	return len(v.outRates) - 1
}

// Dynamic reports whether any port rate on this vertex depends on a
// dynamic parameter.
func (v *Vertex) Dynamic() bool {
	for _, r := range v.inRates {
		if r != nil && r.Dynamic() {
			return true
		}
	}
	for _, r := range v.outRates {
		if r != nil && r.Dynamic() {
			return true
		}
	}
	return v.Kind == GraphVertex && v.Subgraph != nil && v.Subgraph.Dynamic()
}
