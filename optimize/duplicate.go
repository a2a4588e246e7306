package optimize

import (
	"fmt"

	"github.com/spider2/runtime/pisdf"
)

// duplicateNormalizePass collapses a DUPLICATE feeding another DUPLICATE
// into one DUPLICATE broadcasting to the union of both's sinks: the same
// chain-collapse forkForkPass performs, specialized to DUPLICATE, whose
// output ports (unlike FORK's) all carry the same full rate rather than a
// split of it.
type duplicateNormalizePass struct{}

func (duplicateNormalizePass) Name() string { return "duplicate-normalize" }

func (duplicateNormalizePass) Apply(g *pisdf.Graph) (bool, error) {
	for _, vid := range g.Vertices() {
		inner, err := g.Vertex(vid)
		if err != nil {
			return false, err
		}
		if inner.Kind != pisdf.Duplicate {
			continue
		}
		inEdges := g.InEdges(vid)
		if len(inEdges) != 1 {
			continue
		}
		connecting, err := g.Edge(inEdges[0])
		if err != nil {
			return false, err
		}
		outer, err := g.Vertex(connecting.From)
		if err != nil {
			return false, err
		}
		if outer.Kind != pisdf.Duplicate {
			continue
		}
		if err := mergeDuplicates(g, outer, connecting, inner); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

func mergeDuplicates(g *pisdf.Graph, outer *pisdf.Vertex, connecting *pisdf.Edge, inner *pisdf.Vertex) error {
	outerIn := g.InEdges(outer.ID)
	if len(outerIn) != 1 {
		return fmt.Errorf("optimize: duplicate %q does not have exactly one input edge", outer.ID)
	}
	producerEdge, err := g.Edge(outerIn[0])
	if err != nil {
		return err
	}

	outerOut := g.OutEdges(outer.ID)
	innerOut := g.OutEdges(inner.ID)
	splice := connecting.FromPort

	newID := outer.ID + "+" + inner.ID
	newDup := pisdf.NewVertex(newID, newID, pisdf.Duplicate, passthroughOne(), passthroughN(len(outerOut)-1+len(innerOut)))
	if err := g.AddVertex(newDup); err != nil {
		return err
	}

	if err := g.RemoveEdge(producerEdge.ID); err != nil {
		return err
	}
	if err := g.AddEdge(&pisdf.Edge{
		ID: producerEdge.ID, From: producerEdge.From, FromPort: producerEdge.FromPort, FromRate: producerEdge.FromRate,
		To: newID, ToPort: 0, ToRate: producerEdge.ToRate,
	}); err != nil {
		return err
	}

	for _, eid := range outerOut {
		e, err := g.Edge(eid)
		if err != nil {
			return err
		}
		if e.FromPort == splice {
			continue
		}
		newPort := e.FromPort
		if e.FromPort > splice {
			newPort = e.FromPort + len(innerOut) - 1
		}
		if err := rewireSource(g, e, newID, newPort); err != nil {
			return err
		}
	}
	for _, eid := range innerOut {
		e, err := g.Edge(eid)
		if err != nil {
			return err
		}
		if err := rewireSource(g, e, newID, splice+e.FromPort); err != nil {
			return err
		}
	}

	if err := g.RemoveEdge(connecting.ID); err != nil {
		return err
	}
	if err := g.RemoveVertex(outer.ID); err != nil {
		return err
	}
	return g.RemoveVertex(inner.ID)
}
