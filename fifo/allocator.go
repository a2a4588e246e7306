package fifo

import (
	"fmt"
	"sync"

	"github.com/spider2/runtime/expr"
	"github.com/spider2/runtime/param"
	"github.com/spider2/runtime/pisdf"
	"github.com/spider2/runtime/platform"
)

// persistable is implemented by the Kernel attached to a synthesized
// INIT/END vertex when its originating Delay is persistent (spec.md §4.5).
// srexpand's delayKernel satisfies this by structure; fifo never imports
// srexpand.
type persistable interface {
	Persistent() bool
	PersistKey() string
}

// Context supplies per-run facts Allocate cannot derive from the graph
// alone: the parameter environment to evaluate rates against, the owning
// cluster of a vertex (so persistent/external buffers draw from that
// cluster's platform.MemoryInterface, spec.md §4.5 "for the owning
// cluster"), and the platform-registered external buffer index for
// EXTERN_IN/EXTERN_OUT vertices. Platform and ClusterOf may both be left
// nil — Allocate then falls back to plain heap buffers under a single
// unnamed cluster bucket, which is all a test or a single-cluster platform
// needs.
type Context struct {
	Env             *param.Env
	Platform        *platform.Platform
	ClusterOf       func(vertexID string) (clusterID string, ok bool)
	ExternalIndexOf func(vertexID string) (int, bool)
}

func (c Context) externalIndex(vertexID string) (int, bool) {
	if c.ExternalIndexOf == nil {
		return 0, false
	}
	return c.ExternalIndexOf(vertexID)
}

// clusterFor resolves vertexID's owning cluster id and MemoryInterface, or
// ("", nil) if Context carries no cluster resolution.
func (c Context) clusterFor(vertexID string) (string, *platform.MemoryInterface) {
	if c.ClusterOf == nil {
		return "", nil
	}
	clusterID, ok := c.ClusterOf(vertexID)
	if !ok {
		return "", nil
	}
	if c.Platform == nil {
		return clusterID, nil
	}
	cl, err := c.Platform.Cluster(clusterID)
	if err != nil {
		return clusterID, nil
	}
	return clusterID, cl.MemInterface
}

// Allocator resolves FIFO storage for SR graphs. It owns persistent delay
// and external buffers, indexed by owning cluster, across repeated
// Allocate calls for the same run — a single Allocator must be reused
// iteration to iteration (spec.md §4.5 "persistent delay buffers ...
// kept alive until shutdown").
type Allocator struct {
	mu         sync.Mutex
	persistent map[string]map[string][]byte // cluster id -> persist key -> buffer
	external   map[string]map[int][]byte    // cluster id -> external index -> buffer
}

// New returns an Allocator with empty persistent/external buffer tables.
func New() *Allocator {
	return &Allocator{
		persistent: make(map[string]map[string][]byte),
		external:   make(map[string]map[int][]byte),
	}
}

// Allocate resolves one FIFO per edge of g, keyed by edge id. Edges are
// visited in topological order of their producer vertex so FORK/DUPLICATE/
// REPEAT aliasing rules can read an already-resolved source FIFO.
func (a *Allocator) Allocate(g *pisdf.Graph, ctx Context) (map[string]*FIFO, error) {
	order, err := topoOrder(g)
	if err != nil {
		return nil, err
	}

	fifos := make(map[string]*FIFO, len(g.Edges()))
	for _, vid := range order {
		producer, err := g.Vertex(vid)
		if err != nil {
			return nil, err
		}
		for _, eid := range g.OutEdges(vid) {
			e, err := g.Edge(eid)
			if err != nil {
				return nil, err
			}
			f, err := a.allocateEdge(g, producer, e, ctx, fifos)
			if err != nil {
				return nil, err
			}
			fifos[eid] = f
		}
	}
	return fifos, nil
}

// allocateEdge applies spec.md §4.5's per-kind rule table: the producer
// kind picks a default (fresh buffer, alias, external, persistent), then
// the consumer kind may override it (EXTERN_OUT, persistent END).
func (a *Allocator) allocateEdge(g *pisdf.Graph, producer *pisdf.Vertex, e *pisdf.Edge, ctx Context, fifos map[string]*FIFO) (*FIFO, error) {
	consumer, err := g.Vertex(e.To)
	if err != nil {
		return nil, err
	}
	size, err := evalRate(e.FromRate, ctx.Env)
	if err != nil {
		return nil, err
	}

	f := newFIFO(e.ID, size)

	switch producer.Kind {
	case pisdf.InputIf:
		idx, ok := ctx.externalIndex(producer.ID)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrNoExternalIndex, producer.ID)
		}
		cluster, mem := ctx.clusterFor(producer.ID)
		f.Attribute = RWExt
		f.ExternalIndex = idx
		f.Backing = a.externalBuffer(cluster, idx, size, mem)

	case pisdf.Init:
		if pk, persistent := asPersistent(producer); persistent {
			cluster, mem := ctx.clusterFor(producer.ID)
			f.Attribute = RWOwn
			f.PersistKey = pk
			f.Backing = a.persistentBuffer(cluster, pk, size, mem)
		} else {
			f.Attribute = RWOwn
			f.Backing = make([]byte, size)
		}

	case pisdf.Fork, pisdf.Duplicate, pisdf.Repeat:
		if !a.alias(g, producer, e, size, ctx, fifos, f) {
			f.Attribute = RWOwn
			f.Backing = make([]byte, size)
		}

	default: // NORMAL, CONFIG, JOIN, HEAD, TAIL and any other kind: fresh owned buffer
		f.Attribute = RWOwn
		f.Backing = make([]byte, size)
	}

	switch consumer.Kind {
	case pisdf.OutputIf:
		idx, ok := ctx.externalIndex(consumer.ID)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrNoExternalIndex, consumer.ID)
		}
		cluster, mem := ctx.clusterFor(consumer.ID)
		f.Attribute = RWExt
		f.ExternalIndex = idx
		f.Backing = a.externalBuffer(cluster, idx, size, mem)

	case pisdf.End:
		if pk, persistent := asPersistent(consumer); persistent {
			cluster, mem := ctx.clusterFor(consumer.ID)
			f.Attribute = RWOwn
			f.PersistKey = pk
			f.Backing = a.persistentBuffer(cluster, pk, size, mem)
		}
	}

	return f, nil
}

// alias resolves the FORK/DUPLICATE/REPEAT aliasing rules. It reports
// whether an alias was established; false means the caller should fall
// back to a fresh buffer (REPEAT with mismatched rates, or a source FIFO
// not yet available).
func (a *Allocator) alias(g *pisdf.Graph, producer *pisdf.Vertex, e *pisdf.Edge, size int64, ctx Context, fifos map[string]*FIFO, f *FIFO) bool {
	src, ok := sourceFIFO(g, producer, fifos)
	if !ok {
		return false
	}

	switch producer.Kind {
	case pisdf.Fork:
		offset, err := forkOffset(producer, e.FromPort, ctx.Env)
		if err != nil || offset+size > int64(len(src.Backing)) {
			return false
		}
		f.Attribute = RWOnly
		f.Backing = src.Backing[offset : offset+size]
		return true

	case pisdf.Duplicate:
		if size > int64(len(src.Backing)) {
			return false
		}
		f.Attribute = RWOnly
		f.Backing = src.Backing[:size]
		return true

	case pisdf.Repeat:
		inSize, err := evalRate(producer.InRate(0), ctx.Env)
		if err != nil || inSize != size {
			return false
		}
		f.Attribute = RWOnly
		f.Backing = src.Backing[:size]
		return true
	}
	return false
}

// sourceFIFO returns the already-resolved FIFO of producer's single inbound
// edge. FORK/DUPLICATE/REPEAT are all single-input kinds, so there is at
// most one candidate; Allocate's topological visiting order guarantees it
// is already in fifos by the time producer's outgoing edges are processed.
func sourceFIFO(g *pisdf.Graph, producer *pisdf.Vertex, fifos map[string]*FIFO) (*FIFO, bool) {
	in := g.InEdges(producer.ID)
	if len(in) != 1 {
		return nil, false
	}
	src, ok := fifos[in[0]]
	return src, ok
}

// forkOffset sums the rates of producer's output ports preceding port k
// (spec.md §4.5 "FORK output k aliases the source buffer at a computed
// offset").
func forkOffset(producer *pisdf.Vertex, k int, env *param.Env) (int64, error) {
	var offset int64
	for j := 0; j < k; j++ {
		n, err := evalRate(producer.OutRate(j), env)
		if err != nil {
			return 0, err
		}
		offset += n
	}
	return offset, nil
}

func asPersistent(v *pisdf.Vertex) (key string, ok bool) {
	pk, isPersistable := v.Kernel.(persistable)
	if !isPersistable || !pk.Persistent() {
		return "", false
	}
	return pk.PersistKey(), true
}

// persistentBuffer returns cluster's buffer for key, allocating it from mem
// (or the heap, if mem is nil) on first use and reusing it on every later
// call — the mechanism that keeps an INIT and its paired END vertex, and
// every iteration's re-expansion of the same graph location, looking at
// the same storage.
func (a *Allocator) persistentBuffer(cluster, key string, size int64, mem *platform.MemoryInterface) []byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	bucket := a.persistent[cluster]
	if bucket == nil {
		bucket = make(map[string][]byte)
		a.persistent[cluster] = bucket
	}
	if buf, ok := bucket[key]; ok {
		return buf
	}
	buf := allocate(mem, size)
	bucket[key] = buf
	return buf
}

// externalBuffer returns cluster's buffer for external index idx, by the
// same allocate-once-reuse-after discipline as persistentBuffer.
func (a *Allocator) externalBuffer(cluster string, idx int, size int64, mem *platform.MemoryInterface) []byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	bucket := a.external[cluster]
	if bucket == nil {
		bucket = make(map[int][]byte)
		a.external[cluster] = bucket
	}
	if buf, ok := bucket[idx]; ok {
		return buf
	}
	buf := allocate(mem, size)
	bucket[idx] = buf
	return buf
}

func allocate(mem *platform.MemoryInterface, size int64) []byte {
	if mem != nil {
		return mem.Allocate(size)
	}
	return make([]byte, size)
}

func evalRate(e expr.Expression, env *param.Env) (int64, error) {
	if e == nil {
		return 0, nil
	}
	_, n, err := e.Eval(env)
	return n, err
}

// topoOrder returns g's vertex ids in an order where every vertex appears
// after all vertices with edges into it (Kahn's algorithm, processing ties
// in declaration/port order for determinism).
func topoOrder(g *pisdf.Graph) ([]string, error) {
	vertices := g.Vertices()
	inDegree := make(map[string]int, len(vertices))
	for _, vid := range vertices {
		inDegree[vid] = len(g.InEdges(vid))
	}

	queue := make([]string, 0, len(vertices))
	for _, vid := range vertices {
		if inDegree[vid] == 0 {
			queue = append(queue, vid)
		}
	}

	order := make([]string, 0, len(vertices))
	for len(queue) > 0 {
		vid := queue[0]
		queue = queue[1:]
		order = append(order, vid)
		for _, eid := range g.OutEdges(vid) {
			e, err := g.Edge(eid)
			if err != nil {
				return nil, err
			}
			inDegree[e.To]--
			if inDegree[e.To] == 0 {
				queue = append(queue, e.To)
			}
		}
	}
	if len(order) != len(vertices) {
		return nil, ErrCyclicGraph
	}
	return order, nil
}
