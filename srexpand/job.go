package srexpand

import (
	"fmt"

	"github.com/spider2/runtime/param"
	"github.com/spider2/runtime/pisdf"
)

// job is one unit of expansion work: one firing of one graph,
// expanded against a parameter snapshot (spec.md §4.2 "job {graph G,
// firing index f, parameter snapshot π, output SR-graph S}").
type job struct {
	graph  *pisdf.Graph
	firing int
	env    *param.Env
	path   string // unique naming prefix for SR vertices produced by this job
	sr     *pisdf.Graph
}

// srName returns the SR vertex id for firing i of vertex id within this
// job.
func (j *job) srName(vertexID string, i int) string {
	return fmt.Sprintf("%s.%s.%d.%d", j.path, vertexID, j.firing, i)
}

// clones tracks, per (job path, original vertex id), the ordered list of
// SR vertex ids produced for its firings — the lookup table the vector
// builder and delay wiring use to find a given firing's SR clone.
type clones struct {
	byVertex map[string][]string // key: job.path+"#"+vertex.ID
}

func newClones() *clones {
	return &clones{byVertex: make(map[string][]string)}
}

func (c *clones) key(j *job, vertexID string) string {
	return j.path + "#" + vertexID
}

func (c *clones) set(j *job, vertexID string, srIDs []string) {
	c.byVertex[c.key(j, vertexID)] = srIDs
}

func (c *clones) get(j *job, vertexID string) []string {
	return c.byVertex[c.key(j, vertexID)]
}
