package platform

import (
	"fmt"
	"sync"
)

// Platform is the hardware description schedule and fifo map against.
// It is built once by the integrator (spec.md §6 "caller builds a
// Platform once") and shared read-only afterward, so its surface is
// construction methods plus lookups — no mutation once GRT starts
// iterating. The map-plus-insertion-order-slice shape mirrors
// pisdf.Graph's (core/adjacency_list.go's catalog-of-ids discipline).
type Platform struct {
	mu sync.RWMutex

	clusters     map[string]*Cluster
	clusterOrder []string

	pes map[string]*PE

	buses     map[string]*MemoryBus
	busOrder  []string
	busByPair map[[2]string][]*MemoryBus
}

// New builds an empty Platform. clusterCount/totalPECount from spec.md
// §6's createPlatform signature are capacity hints only — Go's maps grow
// on demand, so they're accepted for signature fidelity and otherwise
// unused.
func New(clusterCount, totalPECount int) *Platform {
	return &Platform{
		clusters:  make(map[string]*Cluster, clusterCount),
		pes:       make(map[string]*PE, totalPECount),
		buses:     make(map[string]*MemoryBus),
		busByPair: make(map[[2]string][]*MemoryBus),
	}
}

// AddCluster registers a cluster.
func (p *Platform) AddCluster(c *Cluster) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.clusters[c.ID]; ok {
		return fmt.Errorf("%w: cluster %q", ErrDuplicateID, c.ID)
	}
	p.clusters[c.ID] = c
	p.clusterOrder = append(p.clusterOrder, c.ID)
	return nil
}

// AddPE registers a PE and attaches it to its cluster.
func (p *Platform) AddPE(pe *PE) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.pes[pe.ID]; ok {
		return fmt.Errorf("%w: PE %q", ErrDuplicateID, pe.ID)
	}
	c, ok := p.clusters[pe.Cluster]
	if !ok {
		return fmt.Errorf("%w: %q (PE %q)", ErrClusterNotFound, pe.Cluster, pe.ID)
	}
	p.pes[pe.ID] = pe
	c.addPE(pe.ID)
	return nil
}

// AddBus registers a memory bus, indexed under its (From, To) pair for
// BusBetween lookups in that direction only; the reverse direction is
// found only if the caller registers a separate bus for it — spider2
// keeps a->b and b->a as distinct MemoryBus values with independent cost
// functions (spec.md §6 "busAtoB, busBtoA").
func (p *Platform) AddBus(b *MemoryBus) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.buses[b.ID]; ok {
		return fmt.Errorf("%w: bus %q", ErrDuplicateID, b.ID)
	}
	p.buses[b.ID] = b
	p.busOrder = append(p.busOrder, b.ID)
	key := [2]string{b.From, b.To}
	p.busByPair[key] = append(p.busByPair[key], b)
	return nil
}

// Cluster looks up a cluster by id.
func (p *Platform) Cluster(id string) (*Cluster, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	c, ok := p.clusters[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrClusterNotFound, id)
	}
	return c, nil
}

// PE looks up a PE by id.
func (p *Platform) PE(id string) (*PE, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	pe, ok := p.pes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrPENotFound, id)
	}
	return pe, nil
}

// Clusters returns registered cluster ids in registration order.
func (p *Platform) Clusters() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, len(p.clusterOrder))
	copy(out, p.clusterOrder)
	return out
}

// BusBetween returns the buses registered from cluster src to cluster
// dst, in registration order. Empty if src and dst are the same
// cluster's PEs talking over shared local memory (no bus needed).
func (p *Platform) BusBetween(src, dst string) []*MemoryBus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	buses := p.busByPair[[2]string{src, dst}]
	out := make([]*MemoryBus, len(buses))
	copy(out, buses)
	return out
}

// Bus looks up a memory bus by id.
func (p *Platform) Bus(id string) (*MemoryBus, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	b, ok := p.buses[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBusNotFound, id)
	}
	return b, nil
}
