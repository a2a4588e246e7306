package pisdf

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/spider2/runtime/param"
)

// Sentinel errors for graph construction and lookup.
var (
	ErrEmptyVertexID     = errors.New("pisdf: vertex ID is empty")
	ErrDuplicateVertex   = errors.New("pisdf: duplicate vertex ID")
	ErrVertexNotFound    = errors.New("pisdf: vertex not found")
	ErrDuplicateEdge     = errors.New("pisdf: duplicate edge ID")
	ErrEdgeNotFound      = errors.New("pisdf: edge not found")
	ErrPortIndexInUse    = errors.New("pisdf: port index already has an incident edge")
)

// Graph owns its vertices, edges, parameters, and interfaces exclusively
// (spec.md §3 "Ownership summary"). muVert and muEdgeAdj are separate
// locks, the same split lvlath's core.Graph uses, so concurrent readers of
// vertices and of edges do not contend. srexpand itself expands sibling
// subgraph firings one after another, not concurrently.
type Graph struct {
	ID   string
	Name string
	Env  *param.Env

	// Parent is nil for the top-level application graph; non-nil for a
	// nested graph reached through a GraphVertex in the parent.
	Parent *Graph

	muVert sync.RWMutex
	vertices map[string]*Vertex
	vertexOrder []string

	muEdgeAdj sync.RWMutex
	edges      map[string]*Edge
	edgeOrder  []string
	// outgoing/incoming index vertex id -> port index -> edge id, to
	// enforce the "unique port index per side" invariant in O(1).
	outPort map[string]map[int]string
	inPort  map[string]map[int]string

	InputInterfaces  []string // vertex ids, fire exactly once per firing
	OutputInterfaces []string
}

// NewGraph creates an empty Graph with its own Parameter Environment.
func NewGraph(id, name string) *Graph {
	return &Graph{
		ID:       id,
		Name:     name,
		Env:      param.NewEnv(),
		vertices: make(map[string]*Vertex),
		edges:    make(map[string]*Edge),
		outPort:  make(map[string]map[int]string),
		inPort:   make(map[string]map[int]string),
	}
}

// AddVertex registers v in the graph. v.ID must be non-empty and unique.
func (g *Graph) AddVertex(v *Vertex) error {
	if v.ID == "" {
		return ErrEmptyVertexID
	}
	g.muVert.Lock()
	defer g.muVert.Unlock()
	if _, exists := g.vertices[v.ID]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateVertex, v.ID)
	}
	g.vertices[v.ID] = v
	g.vertexOrder = append(g.vertexOrder, v.ID)
	return nil
}

// Vertex returns the vertex with the given id.
func (g *Graph) Vertex(id string) (*Vertex, error) {
	g.muVert.RLock()
	defer g.muVert.RUnlock()
	v, ok := g.vertices[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrVertexNotFound, id)
	}
	return v, nil
}

// Vertices returns vertex ids in declaration order.
func (g *Graph) Vertices() []string {
	g.muVert.RLock()
	defer g.muVert.RUnlock()
	out := make([]string, len(g.vertexOrder))
	copy(out, g.vertexOrder)
	return out
}

// VertexCount returns the number of vertices.
func (g *Graph) VertexCount() int {
	g.muVert.RLock()
	defer g.muVert.RUnlock()
	return len(g.vertices)
}

// AddEdge registers e in the graph, enforcing the unique-port-per-side
// invariant (spec.md §3 "Edge" invariant).
func (g *Graph) AddEdge(e *Edge) error {
	g.muEdgeAdj.Lock()
	defer g.muEdgeAdj.Unlock()

	if _, exists := g.edges[e.ID]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateEdge, e.ID)
	}
	if byPort, ok := g.outPort[e.From]; ok {
		if other, used := byPort[e.FromPort]; used {
			return fmt.Errorf("%w: vertex %q output port %d used by edge %q", ErrPortIndexInUse, e.From, e.FromPort, other)
		}
	}
	if byPort, ok := g.inPort[e.To]; ok {
		if other, used := byPort[e.ToPort]; used {
			return fmt.Errorf("%w: vertex %q input port %d used by edge %q", ErrPortIndexInUse, e.To, e.ToPort, other)
		}
	}

	g.edges[e.ID] = e
	g.edgeOrder = append(g.edgeOrder, e.ID)

	if g.outPort[e.From] == nil {
		g.outPort[e.From] = make(map[int]string)
	}
	g.outPort[e.From][e.FromPort] = e.ID

	if g.inPort[e.To] == nil {
		g.inPort[e.To] = make(map[int]string)
	}
	g.inPort[e.To][e.ToPort] = e.ID

	return nil
}

// RemoveVertex deletes the vertex with the given id. It does not touch
// incident edges; callers (the optimizer's rewrite passes) remove those
// explicitly before or after, since the right order depends on the
// rewrite being performed.
func (g *Graph) RemoveVertex(id string) error {
	g.muVert.Lock()
	defer g.muVert.Unlock()
	if _, ok := g.vertices[id]; !ok {
		return fmt.Errorf("%w: %q", ErrVertexNotFound, id)
	}
	delete(g.vertices, id)
	for i, vid := range g.vertexOrder {
		if vid == id {
			g.vertexOrder = append(g.vertexOrder[:i], g.vertexOrder[i+1:]...)
			break
		}
	}
	return nil
}

// RemoveEdge deletes the edge with the given id and frees its port-index
// reservations on both endpoints.
func (g *Graph) RemoveEdge(id string) error {
	g.muEdgeAdj.Lock()
	defer g.muEdgeAdj.Unlock()
	e, ok := g.edges[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrEdgeNotFound, id)
	}
	delete(g.edges, id)
	for i, eid := range g.edgeOrder {
		if eid == id {
			g.edgeOrder = append(g.edgeOrder[:i], g.edgeOrder[i+1:]...)
			break
		}
	}
	if byPort, ok := g.outPort[e.From]; ok {
		delete(byPort, e.FromPort)
	}
	if byPort, ok := g.inPort[e.To]; ok {
		delete(byPort, e.ToPort)
	}
	return nil
}

// Edge returns the edge with the given id.
func (g *Graph) Edge(id string) (*Edge, error) {
	g.muEdgeAdj.RLock()
	defer g.muEdgeAdj.RUnlock()
	e, ok := g.edges[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrEdgeNotFound, id)
	}
	return e, nil
}

// Edges returns edge ids in declaration order.
func (g *Graph) Edges() []string {
	g.muEdgeAdj.RLock()
	defer g.muEdgeAdj.RUnlock()
	out := make([]string, len(g.edgeOrder))
	copy(out, g.edgeOrder)
	return out
}

// OutEdges returns, in port-index ascending order, the ids of edges whose
// source is vertexID.
func (g *Graph) OutEdges(vertexID string) []string {
	g.muEdgeAdj.RLock()
	defer g.muEdgeAdj.RUnlock()
	return sortedByPort(g.outPort[vertexID])
}

// InEdges returns, in port-index ascending order, the ids of edges whose
// sink is vertexID.
func (g *Graph) InEdges(vertexID string) []string {
	g.muEdgeAdj.RLock()
	defer g.muEdgeAdj.RUnlock()
	return sortedByPort(g.inPort[vertexID])
}

func sortedByPort(byPort map[int]string) []string {
	ports := make([]int, 0, len(byPort))
	for p := range byPort {
		ports = append(ports, p)
	}
	sort.Ints(ports)
	out := make([]string, len(ports))
	for i, p := range ports {
		out[i] = byPort[p]
	}
	return out
}

// Dynamic reports whether any contained parameter is DYNAMIC, any vertex
// carries a dynamic rate, or any nested subgraph is dynamic (spec.md §3
// "Graph" derived properties).
func (g *Graph) Dynamic() bool {
	for _, name := range g.Env.Names() {
		if dyn, err := g.Env.Dynamic(name); err == nil && dyn {
			return true
		}
	}
	g.muVert.RLock()
	defer g.muVert.RUnlock()
	for _, id := range g.vertexOrder {
		if g.vertices[id].Dynamic() {
			return true
		}
	}
	return false
}
