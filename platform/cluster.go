package platform

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Cluster groups PEs that share a MemoryInterface. Concurrency caps the
// number of kernels the cluster can run at once; 0 means unbounded
// (Acquire never blocks). A cluster backed by a single shared accelerator
// behind several logical PE handles sets Concurrency below its PE count
// (spec.md §6 "createCluster(peCount, memoryInterface)"; SPEC_FULL.md
// §C.7).
type Cluster struct {
	ID           string
	MemInterface *MemoryInterface
	Concurrency  int

	pes   []string
	peSet map[string]bool
	sem   *semaphore.Weighted
}

// NewCluster builds a Cluster with the given concurrency cap. A
// non-positive concurrency means unbounded.
func NewCluster(id string, mem *MemoryInterface, concurrency int) *Cluster {
	c := &Cluster{ID: id, MemInterface: mem, Concurrency: concurrency, peSet: make(map[string]bool)}
	if concurrency > 0 {
		c.sem = semaphore.NewWeighted(int64(concurrency))
	}
	return c
}

func (c *Cluster) addPE(id string) {
	if c.peSet[id] {
		return
	}
	c.peSet[id] = true
	c.pes = append(c.pes, id)
}

// PEs returns the ids of PEs belonging to this cluster, in registration
// order.
func (c *Cluster) PEs() []string {
	out := make([]string, len(c.pes))
	copy(out, c.pes)
	return out
}

// Acquire blocks until a concurrency slot is free, or ctx is done. A
// cluster with no concurrency cap always succeeds immediately.
func (c *Cluster) Acquire(ctx context.Context) error {
	if c.sem == nil {
		return nil
	}
	return c.sem.Acquire(ctx, 1)
}

// Release frees the slot taken by a prior successful Acquire. A no-op on
// an uncapped cluster.
func (c *Cluster) Release() {
	if c.sem == nil {
		return
	}
	c.sem.Release(1)
}
