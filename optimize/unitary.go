package optimize

import "github.com/spider2/runtime/pisdf"

// unitaryPass removes a FORK with exactly one output port, a JOIN with
// exactly one input port, or a DUPLICATE with exactly one output port:
// none of these route tokens anywhere, they're pure passthroughs left
// over from a vector-walk piece count of one.
type unitaryPass struct{}

func (unitaryPass) Name() string { return "unitary" }

func (unitaryPass) Apply(g *pisdf.Graph) (bool, error) {
	for _, vid := range g.Vertices() {
		v, err := g.Vertex(vid)
		if err != nil {
			return false, err
		}
		degenerate := (v.Kind == pisdf.Fork && v.OutputPorts() == 1) ||
			(v.Kind == pisdf.Join && v.InputPorts() == 1) ||
			(v.Kind == pisdf.Duplicate && v.OutputPorts() <= 1)
		if !degenerate {
			continue
		}
		if len(g.InEdges(vid)) != 1 || len(g.OutEdges(vid)) != 1 {
			continue // removePassthrough would leave it in place
		}
		if err := removePassthrough(g, v); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

func removePassthrough(g *pisdf.Graph, v *pisdf.Vertex) error {
	inEdges := g.InEdges(v.ID)
	outEdges := g.OutEdges(v.ID)
	if len(inEdges) != 1 || len(outEdges) != 1 {
		return nil
	}
	in, err := g.Edge(inEdges[0])
	if err != nil {
		return err
	}
	out, err := g.Edge(outEdges[0])
	if err != nil {
		return err
	}
	if err := g.RemoveEdge(in.ID); err != nil {
		return err
	}
	if err := g.RemoveEdge(out.ID); err != nil {
		return err
	}
	if err := g.RemoveVertex(v.ID); err != nil {
		return err
	}
	return g.AddEdge(&pisdf.Edge{
		ID: in.ID + "+" + out.ID,
		From: in.From, FromPort: in.FromPort, FromRate: in.FromRate,
		To: out.To, ToPort: out.ToPort, ToRate: out.ToRate,
	})
}
