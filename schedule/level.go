package schedule

import (
	"container/heap"
	"math"
)

// LevelSentinel marks a task with no executable PE (spec.md §4.4
// "Non-executable tasks get a sentinel level that forces them to the
// tail and causes them to be pruned").
const LevelSentinel = math.MaxInt64

// Lookup resolves a parameter by name for Timing evaluation; param.Env
// satisfies this via its Lookup method.
type Lookup func(name string) (value float64, dynamic bool, ok bool)

// computeLevels assigns every task's Level in place: level(t) = max over
// predecessors p of (level(p) + minExecTime(p)) (spec.md §4.4 "Schedule
// level (LIST)"). Propagation runs over a min-heap shaped like
// dijkstra.nodePQ: each in-edge relaxation raises a successor's level,
// and a task is pushed once, when its last predecessor has been popped,
// so its level is final when it enters the heap.
func computeLevels(tasks map[string]*Task, lookup Lookup) error {
	inDegree := make(map[string]int, len(tasks))
	for id, t := range tasks {
		inDegree[id] = len(t.Preds)
		if !executable(t) {
			t.Level = LevelSentinel
		} else {
			t.Level = -1 // unset; first relaxation (or heap seed at 0) fixes it
		}
	}

	pq := make(levelPQ, 0, len(tasks))
	heap.Init(&pq)
	for id, t := range tasks {
		if inDegree[id] == 0 {
			if t.Level < 0 {
				t.Level = 0
			}
			heap.Push(&pq, &levelItem{id: id, level: t.Level})
		}
	}

	minExec := make(map[string]int64, len(tasks))
	visited := make(map[string]bool, len(tasks))
	for pq.Len() > 0 {
		item := heap.Pop(&pq).(*levelItem)
		if visited[item.id] {
			continue
		}
		visited[item.id] = true
		t := tasks[item.id]

		exec, ok := minExec[item.id]
		if !ok {
			var err error
			exec, err = minExecTime(t, lookup)
			if err != nil {
				return err
			}
			minExec[item.id] = exec
		}

		for _, succ := range t.Succs {
			s, ok := tasks[succ.TaskID]
			if !ok {
				continue
			}
			if t.Level != LevelSentinel {
				candidate := t.Level + exec
				if candidate > s.Level {
					s.Level = candidate
				}
			}
			inDegree[succ.TaskID]--
			if inDegree[succ.TaskID] == 0 {
				if s.Level < 0 {
					s.Level = 0
				}
				heap.Push(&pq, &levelItem{id: succ.TaskID, level: s.Level})
			}
		}
	}
	return nil
}

func executable(t *Task) bool {
	return t.Runtime != nil && len(t.Runtime.MappablePEs()) > 0
}

// minExecTime returns the minimum execution time of t over every PE it
// may be mapped onto.
func minExecTime(t *Task, lookup Lookup) (int64, error) {
	if !executable(t) {
		return 0, nil
	}
	var min int64 = -1
	for _, pe := range t.Runtime.MappablePEs() {
		timing, ok := t.Runtime.TimingFor(pe)
		if !ok {
			continue
		}
		nanos, err := timing.EvalNanos(lookup)
		if err != nil {
			return 0, err
		}
		if min < 0 || nanos < min {
			min = nanos
		}
	}
	if min < 0 {
		return 0, nil
	}
	return min, nil
}

// levelItem is one entry of levelPQ.
type levelItem struct {
	id    string
	level int64
}

// levelPQ is a min-heap of *levelItem ordered by level ascending, the
// same shape as dijkstra.nodePQ.
type levelPQ []*levelItem

func (pq levelPQ) Len() int            { return len(pq) }
func (pq levelPQ) Less(i, j int) bool  { return pq[i].level < pq[j].level }
func (pq levelPQ) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i] }
func (pq *levelPQ) Push(x interface{}) { *pq = append(*pq, x.(*levelItem)) }
func (pq *levelPQ) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}
