package srexpand

import (
	"fmt"

	"github.com/spider2/runtime/brv"
	"github.com/spider2/runtime/expr"
	"github.com/spider2/runtime/param"
	"github.com/spider2/runtime/pisdf"
)

// Expand runs SR expansion over root starting from the given parameter
// environment, returning the flattened single-rate graph (spec.md §4.2).
// env must already have every DYNAMIC parameter reachable from root
// resolved (the caller — typically the runtime dispatcher's config phase
// — is responsible for the parameter-feedback loop of spec.md §2.8).
func Expand(root *pisdf.Graph, env *param.Env) (*pisdf.Graph, error) {
	sr := pisdf.NewGraph("sr", "single-rate")
	c := newClones()
	j := &job{graph: root, firing: 0, env: env, path: root.ID, sr: sr}
	if err := expandGraph(j, c); err != nil {
		return nil, err
	}
	return sr, nil
}

// expandGraph expands one firing of one graph into sr. GraphVertex firings
// are expanded depth-first, before this graph's own edges are wired: an
// edge crossing into or out of a GraphVertex resolves to the SR clone of
// the subgraph's first input (or output) interface, whatever the edge's
// port; further interfaces are not bridged. That clone must exist first (spec.md §4.2 steps 2-4 applied across a hierarchy
// boundary). A job per (graph, firing) pair is still the unit of work —
// this is one level of Go recursion per level of PiSDF nesting, which in
// practice is shallow, not one frame per SR firing.
func expandGraph(j *job, c *clones) error {
	rep, err := brv.Solve(j.graph, j.env)
	if err != nil {
		return err
	}

	var graphVertices []string
	for _, vid := range j.graph.Vertices() {
		v, err := j.graph.Vertex(vid)
		if err != nil {
			return err
		}
		n := int(rep[vid])
		if n == 0 {
			c.set(j, vid, nil)
			continue
		}
		if v.Kind == pisdf.GraphVertex && v.Subgraph != nil {
			// No SR clone of its own: the subgraph's interface clones,
			// registered under vid+".in"/vid+".out" below, stand in for it.
			graphVertices = append(graphVertices, vid)
			continue
		}

		srIDs := make([]string, n)
		for i := 0; i < n; i++ {
			id := j.srName(vid, i)
			srIDs[i] = id
			clone := pisdf.NewVertex(id, id, v.Kind, passthroughRates(v.InputPorts()), passthroughRates(v.OutputPorts()))
			clone.Kernel = v.Kernel
			clone.Runtime = v.Runtime
			if err := j.sr.AddVertex(clone); err != nil {
				return err
			}
		}
		c.set(j, vid, srIDs)
	}

	for _, vid := range graphVertices {
		v, err := j.graph.Vertex(vid)
		if err != nil {
			return err
		}
		if err := expandSubgraphFirings(j, c, v, int(rep[vid])); err != nil {
			return err
		}
	}

	for _, eid := range j.graph.Edges() {
		e, err := j.graph.Edge(eid)
		if err != nil {
			return err
		}
		if err := expandEdge(j, c, e, rep); err != nil {
			return err
		}
	}
	return nil
}

// expandSubgraphFirings expands the n firings of v's subgraph, then
// registers the per-firing input/output interface clones under vid+".in"
// and vid+".out" in the parent job's clone table, so the parent's own
// edges touching vid can resolve straight through to them.
func expandSubgraphFirings(j *job, c *clones, v *pisdf.Vertex, n int) error {
	var inIDs, outIDs []string
	for i := 0; i < n; i++ {
		subEnv, err := inheritEnv(v.Subgraph, j.env)
		if err != nil {
			return err
		}
		subJob := &job{graph: v.Subgraph, firing: i, env: subEnv, path: j.srName(v.ID, i), sr: j.sr}
		if err := expandGraph(subJob, c); err != nil {
			return err
		}

		if len(v.Subgraph.InputInterfaces) > 0 {
			ids := c.get(subJob, v.Subgraph.InputInterfaces[0])
			if len(ids) == 0 {
				return fmt.Errorf("srexpand: input interface %q of %q produced no SR clone", v.Subgraph.InputInterfaces[0], v.ID)
			}
			inIDs = append(inIDs, ids[0])
		}
		if len(v.Subgraph.OutputInterfaces) > 0 {
			ids := c.get(subJob, v.Subgraph.OutputInterfaces[0])
			if len(ids) == 0 {
				return fmt.Errorf("srexpand: output interface %q of %q produced no SR clone", v.Subgraph.OutputInterfaces[0], v.ID)
			}
			outIDs = append(outIDs, ids[0])
		}
	}
	c.set(j, v.ID+".in", inIDs)
	c.set(j, v.ID+".out", outIDs)
	return nil
}

// passthroughRates returns n placeholder rate-1 expressions; SR vertices
// carry concrete integer rates fixed by the edges wired onto them, not by
// their own per-port declarations, so this is only a port-count stand-in.
func passthroughRates(n int) []expr.Expression {
	out := make([]expr.Expression, n)
	for i := range out {
		out[i] = constRate(1)
	}
	return out
}

func expandEdge(j *job, c *clones, e *pisdf.Edge, rep brv.RepetitionVector) error {
	_, p, err := e.FromRate.Eval(j.env)
	if err != nil {
		return err
	}
	_, cRate, err := e.ToRate.Eval(j.env)
	if err != nil {
		return err
	}
	if p == 0 || cRate == 0 {
		return nil // zero-rate edges produce no SR-edges (spec.md §4.2 edge cases)
	}

	sourceKey, err := bridgeKey(j, e.From, true)
	if err != nil {
		return err
	}
	sinkKey, err := bridgeKey(j, e.To, false)
	if err != nil {
		return err
	}

	source, err := buildSourceVector(j, c, e, rep, sourceKey)
	if err != nil {
		return err
	}
	sink, err := buildSinkVector(j, c, e, rep, sinkKey)
	if err != nil {
		return err
	}
	pieces := walkVectors(source, sink)
	return wirePieces(j.sr, j.path+"."+e.ID, source, sink, pieces)
}

// bridgeKey returns the clone-table key to use when looking up an edge
// endpoint's SR clones: a GraphVertex has no clone of its own, only the
// ".in"/".out" registrations expandSubgraphFirings left behind, pointing
// straight at the subgraph's boundary interface clones.
func bridgeKey(j *job, vertexID string, isSource bool) (string, error) {
	v, err := j.graph.Vertex(vertexID)
	if err != nil {
		return "", err
	}
	if v.Kind != pisdf.GraphVertex {
		return vertexID, nil
	}
	if isSource {
		return vertexID + ".out", nil
	}
	return vertexID + ".in", nil
}

// inheritEnv returns the parameter environment for one firing of a nested
// graph: sub.Env itself, shared by every firing. Its INHERITED parameters
// are already bound to a parent Parameter by reference (param.Env.AddInherited);
// inheritEnv only checks that parentEnv declares each of their names.
func inheritEnv(sub *pisdf.Graph, parentEnv *param.Env) (*param.Env, error) {
	for _, name := range sub.Env.Names() {
		p, err := sub.Env.Get(name)
		if err != nil {
			return nil, err
		}
		if p.Kind != param.Inherited {
			continue
		}
		if _, err := parentEnv.Get(name); err != nil {
			return nil, fmt.Errorf("srexpand: inherited parameter %q has no parent binding: %w", name, err)
		}
	}
	return sub.Env, nil
}
