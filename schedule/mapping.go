package schedule

import "time"

// MappingKind picks the objective used to choose among feasible PEs for
// one task (spec.md §4.4 "Mapping of a given task is configurable").
type MappingKind int

const (
	MappingBestFit MappingKind = iota
	MappingFirstFit
	MappingLeastLoaded
)

// candidate is one PE's evaluated cost for mapping a given task (spec.md
// §4.4 "Mapping a task t" steps 2-3).
type candidate struct {
	pe       string
	startOn  time.Duration
	execTime time.Duration
	commCost time.Duration
}

func (c candidate) total() time.Duration { return c.startOn + c.execTime + c.commCost }

// choose picks a winner among feasible candidates per the configured
// objective. FirstFit returns the first candidate in the order given (the
// mapper sorts feasible candidates by PE id before calling choose);
// BestFit minimizes total completion time; LeastLoaded minimizes the PE's
// accumulated busy time so far. Ties go to the earlier candidate.
func choose(kind MappingKind, candidates []candidate, stats map[string]*PEStats) candidate {
	switch kind {
	case MappingFirstFit:
		return candidates[0]
	case MappingLeastLoaded:
		best := candidates[0]
		bestLoad := loadOf(stats, best.pe)
		for _, c := range candidates[1:] {
			if l := loadOf(stats, c.pe); l < bestLoad {
				best, bestLoad = c, l
			}
		}
		return best
	default: // MappingBestFit
		best := candidates[0]
		for _, c := range candidates[1:] {
			if c.total() < best.total() {
				best = c
			}
		}
		return best
	}
}

func loadOf(stats map[string]*PEStats, pe string) time.Duration {
	if st, ok := stats[pe]; ok {
		return st.Load
	}
	return 0
}
