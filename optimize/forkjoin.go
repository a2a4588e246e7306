package optimize

import "github.com/spider2/runtime/pisdf"

// forkJoinPass cancels a FORK immediately followed by a JOIN that
// recombines exactly what the fork split, port for port, in the same
// order: the pair is the identity and can be removed entirely, leaving a
// single direct edge from the fork's producer to the join's consumer.
type forkJoinPass struct{}

func (forkJoinPass) Name() string { return "fork-join" }

func (forkJoinPass) Apply(g *pisdf.Graph) (bool, error) {
	for _, vid := range g.Vertices() {
		fork, err := g.Vertex(vid)
		if err != nil {
			return false, err
		}
		if fork.Kind != pisdf.Fork {
			continue
		}
		join, cancel, err := cancellingJoin(g, fork)
		if err != nil {
			return false, err
		}
		if join == nil {
			continue
		}
		if len(g.InEdges(fork.ID)) != 1 || len(g.OutEdges(join.ID)) != 1 {
			continue // cancelForkJoin would leave the pair in place
		}
		if err := cancelForkJoin(g, fork, join, cancel); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// cancellingJoin reports the JOIN that exactly cancels fork, and the N
// connecting edges in fork-output-port order, or a nil join if fork's
// outputs don't all feed one JOIN at matching input port indices.
func cancellingJoin(g *pisdf.Graph, fork *pisdf.Vertex) (*pisdf.Vertex, []*pisdf.Edge, error) {
	outEdges := g.OutEdges(fork.ID)
	if len(outEdges) != fork.OutputPorts() {
		return nil, nil, nil
	}
	var join *pisdf.Vertex
	edges := make([]*pisdf.Edge, len(outEdges))
	for _, eid := range outEdges {
		e, err := g.Edge(eid)
		if err != nil {
			return nil, nil, err
		}
		sink, err := g.Vertex(e.To)
		if err != nil {
			return nil, nil, err
		}
		if sink.Kind != pisdf.Join {
			return nil, nil, nil
		}
		if join == nil {
			join = sink
		} else if join.ID != sink.ID {
			return nil, nil, nil // outputs scatter across more than one join
		}
		if e.FromPort != e.ToPort {
			return nil, nil, nil // not an index-preserving identity split/merge
		}
		edges[e.FromPort] = e
	}
	if join == nil || join.InputPorts() != len(outEdges) {
		return nil, nil, nil
	}
	if len(g.InEdges(join.ID)) != len(outEdges) {
		return nil, nil, nil // join has inputs from elsewhere too
	}
	return join, edges, nil
}

func cancelForkJoin(g *pisdf.Graph, fork, join *pisdf.Vertex, connecting []*pisdf.Edge) error {
	producerEdges := g.InEdges(fork.ID)
	consumerEdges := g.OutEdges(join.ID)
	if len(producerEdges) != 1 || len(consumerEdges) != 1 {
		return nil
	}
	producerEdge, err := g.Edge(producerEdges[0])
	if err != nil {
		return err
	}
	consumerEdge, err := g.Edge(consumerEdges[0])
	if err != nil {
		return err
	}

	if err := g.RemoveEdge(producerEdge.ID); err != nil {
		return err
	}
	if err := g.RemoveEdge(consumerEdge.ID); err != nil {
		return err
	}
	for _, e := range connecting {
		if err := g.RemoveEdge(e.ID); err != nil {
			return err
		}
	}
	if err := g.RemoveVertex(fork.ID); err != nil {
		return err
	}
	if err := g.RemoveVertex(join.ID); err != nil {
		return err
	}
	return g.AddEdge(&pisdf.Edge{
		ID: producerEdge.ID + "+" + consumerEdge.ID,
		From: producerEdge.From, FromPort: producerEdge.FromPort, FromRate: producerEdge.FromRate,
		To: consumerEdge.To, ToPort: consumerEdge.ToPort, ToRate: consumerEdge.ToRate,
	})
}
