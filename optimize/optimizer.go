package optimize

import (
	"sort"

	"github.com/spider2/runtime/pisdf"
)

// Pass rewrites g in place and reports whether it changed anything. Run
// applies passes repeatedly until a full round makes no change (spec.md
// §4.3 "iterate each rewrite to a fixed point").
type Pass interface {
	Name() string
	Apply(g *pisdf.Graph) (bool, error)
}

// passes runs in name-sorted order every round, the same deterministic,
// iterate-until-stable discipline builder's validators use over a
// generated graph.
var passes = sortedPasses([]Pass{
	forkForkPass{},
	forkJoinPass{},
	joinJoinPass{},
	unitaryPass{},
	duplicateNormalizePass{},
})

func sortedPasses(ps []Pass) []Pass {
	sort.Slice(ps, func(i, j int) bool { return ps[i].Name() < ps[j].Name() })
	return ps
}

// Run applies every registered pass to g, round after round, until none of
// them reports a change.
func Run(g *pisdf.Graph) error {
	for {
		changedThisRound := false
		for _, p := range passes {
			changed, err := p.Apply(g)
			if err != nil {
				return err
			}
			changedThisRound = changedThisRound || changed
		}
		if !changedThisRound {
			return nil
		}
	}
}
