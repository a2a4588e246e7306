package optimize

import (
	"fmt"

	"github.com/spider2/runtime/pisdf"
)

// forkForkPass merges a FORK that feeds another FORK into one FORK,
// preserving the surviving outputs of both in port order and splicing the
// second fork's outputs in at the slot the connecting edge used to occupy
// (original_source's PiSDFForkForkOptimizer).
type forkForkPass struct{}

func (forkForkPass) Name() string { return "fork-fork" }

func (forkForkPass) Apply(g *pisdf.Graph) (bool, error) {
	for _, vid := range g.Vertices() {
		secondFork, err := g.Vertex(vid)
		if err != nil {
			return false, err
		}
		if secondFork.Kind != pisdf.Fork {
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
		firstFork, err := g.Vertex(connecting.From)
		if err != nil {
			return false, err
		}
		if firstFork.Kind != pisdf.Fork {
			continue
		}
		if err := mergeForks(g, firstFork, connecting, secondFork); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// mergeForks replaces firstFork and secondFork with one new FORK vertex:
// firstFork's surviving output ports (everything but the one feeding
// secondFork) stay at their index, secondFork's outputs are spliced in at
// that index, and firstFork's ports after it shift up by
// secondFork.OutputPorts()-1.
func mergeForks(g *pisdf.Graph, firstFork *pisdf.Vertex, connecting *pisdf.Edge, secondFork *pisdf.Vertex) error {
	firstIn := g.InEdges(firstFork.ID)
	if len(firstIn) != 1 {
		return fmt.Errorf("optimize: fork %q does not have exactly one input edge", firstFork.ID)
	}
	producerEdge, err := g.Edge(firstIn[0])
	if err != nil {
		return err
	}

	firstOut := g.OutEdges(firstFork.ID)
	secondOut := g.OutEdges(secondFork.ID)
	splice := connecting.FromPort

	newID := firstFork.ID + "+" + secondFork.ID
	newFork := pisdf.NewVertex(newID, newID, pisdf.Fork, passthroughOne(), passthroughN(len(firstOut)-1+len(secondOut)))
	if err := g.AddVertex(newFork); err != nil {
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

	for _, eid := range firstOut {
		e, err := g.Edge(eid)
		if err != nil {
			return err
		}
		if e.FromPort == splice {
			continue // the connecting edge itself, dropped below
		}
		newPort := e.FromPort
		if e.FromPort > splice {
			newPort = e.FromPort + len(secondOut) - 1
		}
		if err := rewireSource(g, e, newID, newPort); err != nil {
			return err
		}
	}
	for _, eid := range secondOut {
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
	if err := g.RemoveVertex(firstFork.ID); err != nil {
		return err
	}
	return g.RemoveVertex(secondFork.ID)
}

// rewireSource removes e and re-adds it under the same id with a new
// source vertex/port, leaving its sink and rates untouched.
func rewireSource(g *pisdf.Graph, e *pisdf.Edge, newFrom string, newFromPort int) error {
	if err := g.RemoveEdge(e.ID); err != nil {
		return err
	}
	return g.AddEdge(&pisdf.Edge{
		ID: e.ID, From: newFrom, FromPort: newFromPort, FromRate: e.FromRate,
		To: e.To, ToPort: e.ToPort, ToRate: e.ToRate,
	})
}
