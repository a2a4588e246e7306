package schedule

import (
	"time"

	"github.com/spider2/runtime/pisdf"
)

// TransferDirection tags a synthesized SEND/RECEIVE task (spec.md §4.4
// "Inter-cluster transfer contract").
type TransferDirection int

const (
	NotTransfer TransferDirection = iota
	Send
	Receive
)

// TaskState is a task's position in its per-iteration lifecycle (spec.md
// §3 "Task" data model). Map only ever produces NotRunnable or Ready;
// Running/Skipped/Finished are set by the runtime package as it dispatches
// and executes a Schedule (runtime.GRT.Iterate).
type TaskState int

const (
	NotRunnable TaskState = iota
	Pending
	Ready
	Running
	Skipped
	Finished
)

// Dependency is one producer->consumer edge feeding a Task, carrying the
// token rate in bytes so bus cost can be evaluated (spec.md §4.4
// "commCost(q) = Σ over inputs i of bus-cost(..., rate(i))").
type Dependency struct {
	TaskID string
	Bytes  int64
}

// Task is one schedulable unit: an SR graph vertex, or a SEND/RECEIVE
// pseudo-task synthesized by the mapper when a winning PE crosses a
// cluster boundary from a predecessor's PE.
type Task struct {
	ID     string
	Vertex string // originating pisdf.Vertex ID; empty for SEND/RECEIVE
	Kind   pisdf.VertexKind

	Transfer TransferDirection
	BusID    string // set only when Transfer != NotTransfer

	Runtime *pisdf.RuntimeInfo // mappable PEs + timing; nil for SEND/RECEIVE
	execNs  int64              // not set by the mapper: SEND/RECEIVE times come from the bus cost

	State TaskState

	Preds []Dependency
	Succs []Dependency

	Level int64

	MappedPE  string
	MappedLRT string
	Start     time.Duration
	End       time.Duration
	ExecIndex int64

	// WaitSet maps an LRT id to the minimum exec index this task must
	// observe on that LRT before it may start (spec.md §4.4 "wait set").
	WaitSet map[string]int64
	// NotifySet is the set of LRT ids to notify once this task finishes
	// (spec.md §4.4 "notify set").
	NotifySet map[string]bool
}

// BusOverflow is a non-fatal signal: the bus serving a candidate PE
// reported saturation for the transfer size at hand, so the mapper
// treats that PE as infeasible for the task rather than failing outright
// (spec.md §4.4 "Failure semantics").
type BusOverflow struct {
	BusID string
	Bytes int64
}

// PEStats accumulates per-PE load for LeastLoaded mapping and for the
// final makespan report (spec.md §6 "ScheduleStats" via
// original_source's Stats class).
type PEStats struct {
	Start, End time.Duration
	Load       time.Duration
	JobCount   int
}

func (s *PEStats) commit(start, end time.Duration) {
	if s.JobCount == 0 || start < s.Start {
		s.Start = start
	}
	if end > s.End {
		s.End = end
	}
	s.Load += end - start
	s.JobCount++
}

// IdleTime returns the gap between the PE's first start and the
// makespan not spent executing a job.
func (s *PEStats) IdleTime() time.Duration {
	span := s.End - s.Start
	if span < 0 {
		return 0
	}
	return span - s.Load
}

// Schedule is the mapper's output: every task's commit (PE, LRT, start,
// end, synchronization plan) plus per-PE statistics.
type Schedule struct {
	Tasks map[string]*Task
	Order []string // commit order, for deterministic replay/printing
	Stats map[string]*PEStats
}

func newSchedule() *Schedule {
	return &Schedule{Tasks: make(map[string]*Task), Stats: make(map[string]*PEStats)}
}

func (s *Schedule) statsFor(pe string) *PEStats {
	st, ok := s.Stats[pe]
	if !ok {
		st = &PEStats{}
		s.Stats[pe] = st
	}
	return st
}

// Makespan returns the maximum end time across every PE touched.
func (s *Schedule) Makespan() time.Duration {
	var max time.Duration
	for _, st := range s.Stats {
		if st.End > max {
			max = st.End
		}
	}
	return max
}
