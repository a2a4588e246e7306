package optimize

import "github.com/spider2/runtime/expr"

// Synthesized routing vertices (merged FORK/JOIN) carry placeholder rates;
// concrete per-port rates live on the edges wired onto them, as with the
// SR expander's per-firing vertex clones (the expander's own FORK/JOIN
// vertices do carry concrete port rates).
var one = expr.MustCompileConst("1")

func passthroughOne() []expr.Expression { return []expr.Expression{one} }

func passthroughN(n int) []expr.Expression {
	out := make([]expr.Expression, n)
	for i := range out {
		out[i] = one
	}
	return out
}
