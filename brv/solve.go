package brv

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/spider2/runtime/param"
	"github.com/spider2/runtime/pisdf"
)

// ErrInconsistentRates is raised when a cycle within a connected component
// produces contradictory rational firing counts (spec.md §4.1 step 2).
var ErrInconsistentRates = errors.New("brv: inconsistent rates")

// ErrInvalidSpecialRepetition is raised when a DELAY or CONFIG vertex
// ends up with a repetition value other than 1 (spec.md §4.1 step 6).
var ErrInvalidSpecialRepetition = errors.New("brv: invalid special repetition")

// RepetitionVector maps vertex id to its per-iteration firing count.
type RepetitionVector map[string]int64

type rationals map[string]*big.Rat

// Solve computes the Basic Repetition Vector of g under the fully-resolved
// parameter environment env. env is typically g.Env but is taken
// explicitly so a caller can solve a subgraph against a snapshot taken at
// job-creation time (spec.md §4.2 "parameter snapshot π").
func Solve(g *pisdf.Graph, env *param.Env) (RepetitionVector, error) {
	adj, edgesByPair, err := buildAdjacency(g)
	if err != nil {
		return nil, err
	}

	q := make(rationals)
	rep := make(RepetitionVector)
	for _, comp := range components(g.Vertices(), adj) {
		if err := solveComponent(g, env, comp, adj, q); err != nil {
			return nil, err
		}
		if err := adjustForInterfaces(g, comp, q); err != nil {
			return nil, err
		}
		integerizeComponent(q, comp, rep)
	}

	if err := validate(g, env, rep, edgesByPair); err != nil {
		return nil, err
	}
	return rep, nil
}

// buildAdjacency returns, per vertex, the list of (neighbor, edge) pairs
// over every edge of g, and every edge keyed by id for later rate
// validation. Interface edges are kept in the adjacency so that an
// INPUT_IF/OUTPUT_IF vertex lands in the same component as the actors it
// feeds or drains, which is what lets adjustForInterfaces rescale that
// component; validate still skips them.
func buildAdjacency(g *pisdf.Graph) (map[string][]neighborEdge, map[string]*pisdf.Edge, error) {
	adj := make(map[string][]neighborEdge)
	byID := make(map[string]*pisdf.Edge)

	for _, vid := range g.Vertices() {
		adj[vid] = nil
	}
	for _, eid := range g.Edges() {
		e, err := g.Edge(eid)
		if err != nil {
			return nil, nil, err
		}
		byID[eid] = e
		adj[e.From] = append(adj[e.From], neighborEdge{vertex: e.To, edge: e})
		adj[e.To] = append(adj[e.To], neighborEdge{vertex: e.From, edge: e})
	}
	return adj, byID, nil
}

type neighborEdge struct {
	vertex string
	edge   *pisdf.Edge
}

func isInterfaceEdge(g *pisdf.Graph, e *pisdf.Edge) bool {
	from, err := g.Vertex(e.From)
	if err == nil && (from.Kind == pisdf.InputIf || from.Kind == pisdf.OutputIf) {
		return true
	}
	to, err := g.Vertex(e.To)
	if err == nil && (to.Kind == pisdf.InputIf || to.Kind == pisdf.OutputIf) {
		return true
	}
	return false
}

// components finds connected components via BFS over adj, visiting vertex
// ids in the stable order vertices were declared (same discipline as
// lvlath's graph.BFS queue-of-ids traversal) so results are deterministic.
func components(order []string, adj map[string][]neighborEdge) [][]string {
	visited := make(map[string]bool, len(order))
	var comps [][]string
	for _, start := range order {
		if visited[start] {
			continue
		}
		var comp []string
		queue := []string{start}
		visited[start] = true
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			comp = append(comp, id)
			for _, ne := range adj[id] {
				if !visited[ne.vertex] {
					visited[ne.vertex] = true
					queue = append(queue, ne.vertex)
				}
			}
		}
		comps = append(comps, comp)
	}
	return comps
}

// solveComponent propagates rational firing counts from an arbitrary seed
// (the first vertex in declaration order) across comp, failing with
// ErrInconsistentRates if a cycle disagrees.
func solveComponent(g *pisdf.Graph, env *param.Env, comp []string, adj map[string][]neighborEdge, q rationals) error {
	seed := comp[0]
	q[seed] = big.NewRat(1, 1)

	queue := []string{seed}
	visited := map[string]bool{seed: true}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, ne := range adj[id] {
			p, c, err := rateAt(g, env, ne.edge, id)
			if err != nil {
				return err
			}
			if p == 0 && c == 0 {
				if !visited[ne.vertex] {
					visited[ne.vertex] = true
					q[ne.vertex] = new(big.Rat).Set(q[id])
					queue = append(queue, ne.vertex)
				}
				continue
			}
			var want *big.Rat
			if ne.edge.From == id {
				// q[id] * p == q[neighbor] * c
				want = new(big.Rat).Mul(q[id], big.NewRat(p, 1))
				if c != 0 {
					want.Quo(want, big.NewRat(c, 1))
				}
			} else {
				want = new(big.Rat).Mul(q[id], big.NewRat(c, 1))
				if p != 0 {
					want.Quo(want, big.NewRat(p, 1))
				}
			}
			if visited[ne.vertex] {
				if q[ne.vertex].Cmp(want) != 0 {
					return fmt.Errorf("%w: vertex %q", ErrInconsistentRates, ne.vertex)
				}
				continue
			}
			visited[ne.vertex] = true
			q[ne.vertex] = want
			queue = append(queue, ne.vertex)
		}
	}
	return nil
}

// rateAt returns (producerRate, consumerRate) for e, evaluated against env.
// The rates are not reoriented: the caller compares e.From with the vertex
// it is expanding from to decide which side is which.
func rateAt(g *pisdf.Graph, env *param.Env, e *pisdf.Edge, from string) (int64, int64, error) {
	_, p, err := e.FromRate.Eval(env)
	if err != nil {
		return 0, 0, err
	}
	_, c, err := e.ToRate.Eval(env)
	if err != nil {
		return 0, 0, err
	}
	return p, c, nil
}

// adjustForInterfaces scales comp's rationals so that any contained
// INPUT_IF/OUTPUT_IF vertex ends up with firing count 1 (spec.md §4.1
// step 4).
func adjustForInterfaces(g *pisdf.Graph, comp []string, q rationals) error {
	var scale *big.Rat
	for _, id := range comp {
		v, err := g.Vertex(id)
		if err != nil {
			return err
		}
		if v.Kind != pisdf.InputIf && v.Kind != pisdf.OutputIf {
			continue
		}
		if scale == nil {
			scale = new(big.Rat).Set(q[id])
		}
	}
	if scale == nil || scale.Sign() == 0 {
		return nil
	}
	for _, id := range comp {
		q[id] = new(big.Rat).Quo(q[id], scale)
	}
	return nil
}

// integerizeComponent multiplies every rational belonging to comp by the
// LCM of comp's own denominators only, so each connected component is
// reduced to its own minimal integer solution independent of any other
// component's rates (spec.md §4.1 step 3: "Take LCM of all denominators
// within the component").
func integerizeComponent(q rationals, comp []string, rep RepetitionVector) {
	lcm := big.NewInt(1)
	for _, id := range comp {
		lcm = lcmBig(lcm, q[id].Denom())
	}
	for _, id := range comp {
		r := q[id]
		n := new(big.Int).Mul(r.Num(), new(big.Int).Quo(lcm, r.Denom()))
		rep[id] = n.Int64()
	}
}

func lcmBig(a, b *big.Int) *big.Int {
	if a.Sign() == 0 {
		return new(big.Int).Set(b)
	}
	if b.Sign() == 0 {
		return new(big.Int).Set(a)
	}
	gcd := new(big.Int).GCD(nil, nil, new(big.Int).Abs(a), new(big.Int).Abs(b))
	out := new(big.Int).Mul(a, b)
	out.Abs(out)
	return out.Quo(out, gcd)
}

// validate checks spec.md §3 invariants and the §4.1 step-6 special-kind
// repetition rule.
func validate(g *pisdf.Graph, env *param.Env, rep RepetitionVector, edges map[string]*pisdf.Edge) error {
	for eid, e := range edges {
		if isInterfaceEdge(g, e) {
			continue
		}
		_, p, err := e.FromRate.Eval(env)
		if err != nil {
			return err
		}
		_, c, err := e.ToRate.Eval(env)
		if err != nil {
			return err
		}
		if p*rep[e.From] != c*rep[e.To] {
			return fmt.Errorf("%w: edge %q: %d*%d != %d*%d", ErrInconsistentRates, eid, p, rep[e.From], c, rep[e.To])
		}
	}
	for id, v := range rep {
		vx, err := g.Vertex(id)
		if err != nil {
			return err
		}
		if (vx.Kind == pisdf.Config || vx.Kind == pisdf.DelayVertex) && v != 1 {
			return fmt.Errorf("%w: vertex %q has repetition %d", ErrInvalidSpecialRepetition, id, v)
		}
	}
	return nil
}
