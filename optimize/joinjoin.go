package optimize

import (
	"fmt"

	"github.com/spider2/runtime/pisdf"
)

// joinJoinPass merges a JOIN that feeds another JOIN into one JOIN, the
// mirror image of forkForkPass over input ports instead of output ports.
type joinJoinPass struct{}

func (joinJoinPass) Name() string { return "join-join" }

func (joinJoinPass) Apply(g *pisdf.Graph) (bool, error) {
	for _, vid := range g.Vertices() {
		secondJoin, err := g.Vertex(vid)
		if err != nil {
			return false, err
		}
		if secondJoin.Kind != pisdf.Join {
			continue
		}
		outEdges := g.OutEdges(vid)
		if len(outEdges) != 1 {
			continue
		}
		connecting, err := g.Edge(outEdges[0])
		if err != nil {
			return false, err
		}
		firstJoin, err := g.Vertex(connecting.To)
		if err != nil {
			return false, err
		}
		if firstJoin.Kind != pisdf.Join {
			continue
		}
		if err := mergeJoins(g, firstJoin, connecting, secondJoin); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

func mergeJoins(g *pisdf.Graph, firstJoin *pisdf.Vertex, connecting *pisdf.Edge, secondJoin *pisdf.Vertex) error {
	firstOutEdges := g.OutEdges(firstJoin.ID)
	if len(firstOutEdges) != 1 {
		return fmt.Errorf("optimize: join %q does not have exactly one output edge", firstJoin.ID)
	}
	consumerEdge, err := g.Edge(firstOutEdges[0])
	if err != nil {
		return err
	}

	firstIn := g.InEdges(firstJoin.ID)
	secondIn := g.InEdges(secondJoin.ID)
	splice := connecting.ToPort

	newID := firstJoin.ID + "+" + secondJoin.ID
	newJoin := pisdf.NewVertex(newID, newID, pisdf.Join, passthroughN(len(firstIn)-1+len(secondIn)), passthroughOne())
	if err := g.AddVertex(newJoin); err != nil {
		return err
	}

	if err := g.RemoveEdge(consumerEdge.ID); err != nil {
		return err
	}
	if err := g.AddEdge(&pisdf.Edge{
		ID: consumerEdge.ID, From: newID, FromPort: 0, FromRate: consumerEdge.FromRate,
		To: consumerEdge.To, ToPort: consumerEdge.ToPort, ToRate: consumerEdge.ToRate,
	}); err != nil {
		return err
	}

	for _, eid := range firstIn {
		e, err := g.Edge(eid)
		if err != nil {
			return err
		}
		if e.ToPort == splice {
			continue
		}
		newPort := e.ToPort
		if e.ToPort > splice {
			newPort = e.ToPort + len(secondIn) - 1
		}
		if err := rewireSink(g, e, newID, newPort); err != nil {
			return err
		}
	}
	for _, eid := range secondIn {
		e, err := g.Edge(eid)
		if err != nil {
			return err
		}
		if err := rewireSink(g, e, newID, splice+e.ToPort); err != nil {
			return err
		}
	}

	if err := g.RemoveEdge(connecting.ID); err != nil {
		return err
	}
	if err := g.RemoveVertex(firstJoin.ID); err != nil {
		return err
	}
	return g.RemoveVertex(secondJoin.ID)
}

// rewireSink removes e and re-adds it under the same id with a new sink
// vertex/port, leaving its source and rates untouched.
func rewireSink(g *pisdf.Graph, e *pisdf.Edge, newTo string, newToPort int) error {
	if err := g.RemoveEdge(e.ID); err != nil {
		return err
	}
	return g.AddEdge(&pisdf.Edge{
		ID: e.ID, From: e.From, FromPort: e.FromPort, FromRate: e.FromRate,
		To: newTo, ToPort: newToPort, ToRate: e.ToRate,
	})
}
