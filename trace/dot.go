package trace

import (
	"fmt"
	"strings"

	"github.com/spider2/runtime/pisdf"
)

// DOT renders g as a minimal Graphviz digraph: one node per vertex
// labeled with its kind, one edge per connection. It exists for quick
// visual sanity-checking of an SR graph, not as a general DOT exporter
// (spec.md §1 Non-goals explicitly exclude a fleshed-out one).
func DOT(g *pisdf.Graph) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "digraph %q {\n", g.ID)

	for _, vid := range g.Vertices() {
		v, err := g.Vertex(vid)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "\t%q [label=%q];\n", v.ID, v.ID+" ("+v.Kind.String()+")")
	}

	for _, eid := range g.Edges() {
		e, err := g.Edge(eid)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "\t%q -> %q [label=%q];\n", e.From, e.To, eid)
	}

	b.WriteString("}\n")
	return b.String(), nil
}
