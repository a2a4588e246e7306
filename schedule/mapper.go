package schedule

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"time"

	"github.com/spider2/runtime/platform"
	"golang.org/x/sync/errgroup"
)

// Options configures one Map call.
type Options struct {
	Selection SelectionKind
	Mapping   MappingKind
	Lookup    Lookup

	// PEToLRT maps a PE id to the LRT id that services it; a PE absent
	// from the map is assumed to be its own LRT (spec.md §4.6 "each LRT
	// attached to one or more PEs" — the common case is one PE per LRT).
	PEToLRT map[string]string

	// ConcurrencyLimit bounds how many candidate PEs are evaluated in
	// parallel per task; 0 defaults to runtime.NumCPU().
	ConcurrencyLimit int
}

func (o Options) lrtOf(pe string) string {
	if lrt, ok := o.PEToLRT[pe]; ok {
		return lrt
	}
	return pe
}

// Map computes a Schedule for tasks against plat, per spec.md §4.4.
// tasks must form a DAG (an already SR-expanded and optimized graph);
// Map mutates the Task values in place (Level, MappedPE, ...) and also
// returns them reachable through the returned Schedule.
func Map(tasks map[string]*Task, plat *platform.Platform, opts Options) (*Schedule, error) {
	if err := computeLevels(tasks, opts.Lookup); err != nil {
		return nil, err
	}

	sched := newSchedule()
	lrtCounters := make(map[string]int64)

	inDegree := make(map[string]int, len(tasks))
	var ready []string
	for id, t := range tasks {
		inDegree[id] = len(t.Preds)
		if inDegree[id] == 0 {
			ready = append(ready, id)
		}
	}

	roundRobinCursor := 0
	limit := opts.ConcurrencyLimit
	if limit <= 0 {
		limit = runtime.NumCPU()
	}

	for len(ready) > 0 {
		ordered := order(opts.Selection, ready, tasks, &roundRobinCursor)
		ready = ready[:0]

		for _, id := range ordered {
			t := tasks[id]
			if !executable(t) {
				if err := prune(t, sched); err != nil {
					return nil, err
				}
			} else if err := mapTask(t, plat, opts, sched, lrtCounters, limit); err != nil {
				return nil, err
			}
			sched.Order = append(sched.Order, t.ID)

			for _, succ := range t.Succs {
				if _, ok := tasks[succ.TaskID]; !ok {
					continue
				}
				inDegree[succ.TaskID]--
				if inDegree[succ.TaskID] == 0 {
					ready = append(ready, succ.TaskID)
				}
			}
		}
	}

	computeNotifySets(sched)
	return sched, nil
}

// prune commits a non-executable task as a zero-duration passthrough so
// dependents can still read its finish time (spec.md §4.4 "forces them
// to the tail and causes them to be pruned").
func prune(t *Task, sched *Schedule) error {
	var end time.Duration
	for _, p := range t.Preds {
		pt, ok := sched.Tasks[p.TaskID]
		if !ok {
			return fmt.Errorf("schedule: predecessor %q of %q not yet committed", p.TaskID, t.ID)
		}
		if pt.End > end {
			end = pt.End
		}
	}
	t.Start, t.End = end, end
	t.State = NotRunnable
	sched.Tasks[t.ID] = t
	return nil
}

func mapTask(t *Task, plat *platform.Platform, opts Options, sched *Schedule, lrtCounters map[string]int64, limit int) error {
	var earliest time.Duration
	for _, p := range t.Preds {
		pt, ok := sched.Tasks[p.TaskID]
		if !ok {
			return fmt.Errorf("schedule: predecessor %q of %q not yet committed", p.TaskID, t.ID)
		}
		if pt.End > earliest {
			earliest = pt.End
		}
	}

	peIDs := t.Runtime.MappablePEs()
	candidates := make([]*candidate, len(peIDs))
	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(limit)
	for i, peID := range peIDs {
		i, peID := i, peID
		g.Go(func() error {
			c, feasible, err := evaluate(t, peID, earliest, plat, opts, sched)
			if err != nil {
				return err
			}
			if feasible {
				candidates[i] = c
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	feasible := make([]candidate, 0, len(candidates))
	for _, c := range candidates {
		if c != nil {
			feasible = append(feasible, *c)
		}
	}
	if len(feasible) == 0 {
		return fmt.Errorf("%w: %q", ErrUnmappableTask, t.ID)
	}
	sort.Slice(feasible, func(i, j int) bool { return feasible[i].pe < feasible[j].pe }) // deterministic order for FirstFit/tie-breaking
	winner := choose(opts.Mapping, feasible, sched.Stats)

	winnerPE, err := plat.PE(winner.pe)
	if err != nil {
		return err
	}
	for i, p := range t.Preds {
		pt := sched.Tasks[p.TaskID]
		if pt.MappedPE == "" {
			continue
		}
		predPE, err := plat.PE(pt.MappedPE)
		if err != nil {
			return err
		}
		if predPE.Cluster == winnerPE.Cluster {
			continue
		}
		recvID, err := insertTransfer(sched, plat, pt, p, predPE.Cluster, winnerPE.Cluster, t.ID, opts, lrtCounters)
		if err != nil {
			return err
		}
		t.Preds[i].TaskID = recvID
	}

	t.MappedPE = winner.pe
	t.MappedLRT = opts.lrtOf(winner.pe)
	t.Start = winner.startOn
	t.End = winner.startOn + winner.execTime + winner.commCost
	t.State = Ready
	lrtCounters[t.MappedLRT]++
	t.ExecIndex = lrtCounters[t.MappedLRT]

	sched.statsFor(winner.pe).commit(t.Start, t.End)
	sched.Tasks[t.ID] = t
	computeWaitSet(t, sched)
	return nil
}

// evaluate computes one PE's candidate cost for t, or feasible=false if
// the PE isn't registered, carries no timing for t, or a required bus
// is missing/saturated (spec.md §4.4 steps 2, "Failure semantics").
func evaluate(t *Task, peID string, earliest time.Duration, plat *platform.Platform, opts Options, sched *Schedule) (*candidate, bool, error) {
	pe, err := plat.PE(peID)
	if err != nil {
		return nil, false, nil
	}
	timing, ok := t.Runtime.TimingFor(peID)
	if !ok {
		return nil, false, nil
	}
	nanos, err := timing.EvalNanos(opts.Lookup)
	if err != nil {
		return nil, false, err
	}
	execTime := time.Duration(nanos)

	st := sched.Stats[peID]
	startOn := earliest
	if st != nil && st.End > startOn {
		startOn = st.End
	}

	var commCost time.Duration
	for _, p := range t.Preds {
		pt, ok := sched.Tasks[p.TaskID]
		if !ok || pt.MappedPE == "" {
			continue
		}
		predPE, err := plat.PE(pt.MappedPE)
		if err != nil {
			return nil, false, nil
		}
		if predPE.Cluster == pe.Cluster {
			continue
		}
		buses := plat.BusBetween(predPE.Cluster, pe.Cluster)
		if len(buses) == 0 {
			return nil, false, nil
		}
		cost, overflow := buses[0].Cost(p.Bytes)
		if overflow {
			return nil, false, nil
		}
		commCost += cost
	}

	return &candidate{pe: peID, startOn: startOn, execTime: execTime, commCost: commCost}, true, nil
}

// insertTransfer synthesizes a SEND task on producer's cluster and a
// RECEIVE task on consumer's cluster for one cross-cluster dependency,
// and returns the RECEIVE task's id — the new predecessor of consumerID
// for this edge (spec.md §4.4 step 3). Cost is attributed entirely to
// the RECEIVE leg: SEND only marks the buffer ready for the bus, the
// RECEIVE is what actually blocks the consumer, a deliberate
// simplification over modeling bus occupancy as its own resource.
func insertTransfer(sched *Schedule, plat *platform.Platform, pred *Task, dep Dependency, srcCluster, dstCluster, consumerID string, opts Options, lrtCounters map[string]int64) (string, error) {
	buses := plat.BusBetween(srcCluster, dstCluster)
	if len(buses) == 0 {
		return "", fmt.Errorf("schedule: no bus from cluster %q to %q", srcCluster, dstCluster)
	}
	bus := buses[0]
	cost, _ := bus.Cost(dep.Bytes)

	sendID := pred.ID + "->" + consumerID + ".send"
	recvID := pred.ID + "->" + consumerID + ".recv"
	sendPE := "bus:" + bus.ID + ":send"
	recvPE := "bus:" + bus.ID + ":recv"

	send := &Task{
		ID: sendID, Transfer: Send, BusID: bus.ID, State: Ready,
		Preds: []Dependency{{TaskID: pred.ID, Bytes: dep.Bytes}},
		Succs: []Dependency{{TaskID: recvID, Bytes: dep.Bytes}},
	}
	send.MappedPE, send.MappedLRT = sendPE, opts.lrtOf(sendPE)
	send.Start, send.End = pred.End, pred.End
	lrtCounters[send.MappedLRT]++
	send.ExecIndex = lrtCounters[send.MappedLRT]
	sched.statsFor(sendPE).commit(send.Start, send.End)
	sched.Tasks[sendID] = send

	recv := &Task{
		ID: recvID, Transfer: Receive, BusID: bus.ID, State: Ready,
		Preds: []Dependency{{TaskID: sendID, Bytes: dep.Bytes}},
		Succs: []Dependency{{TaskID: consumerID, Bytes: dep.Bytes}},
	}
	recv.MappedPE, recv.MappedLRT = recvPE, opts.lrtOf(recvPE)
	recv.Start = send.End
	recv.End = recv.Start + cost
	lrtCounters[recv.MappedLRT]++
	recv.ExecIndex = lrtCounters[recv.MappedLRT]
	sched.statsFor(recvPE).commit(recv.Start, recv.End)
	sched.Tasks[recvID] = recv

	for i, s := range pred.Succs {
		if s.TaskID == consumerID {
			pred.Succs[i].TaskID = sendID
		}
	}
	return recvID, nil
}

// computeWaitSet fills t.WaitSet right after t commits: for every LRT
// other than t's own serving a predecessor, the highest exec index seen
// on that LRT among t's predecessors (spec.md §4.4 "wait set").
func computeWaitSet(t *Task, sched *Schedule) {
	t.WaitSet = make(map[string]int64)
	for _, p := range t.Preds {
		pt, ok := sched.Tasks[p.TaskID]
		if !ok || pt.MappedLRT == "" || pt.MappedLRT == t.MappedLRT {
			continue
		}
		if cur, ok := t.WaitSet[pt.MappedLRT]; !ok || pt.ExecIndex > cur {
			t.WaitSet[pt.MappedLRT] = pt.ExecIndex
		}
	}
}

// computeNotifySets runs once after every task (including synthesized
// SEND/RECEIVE legs) is committed: for each task t, set the bit for
// every LRT hosting one of t's successors, other than t's own (spec.md
// §4.4 "notify set"). t.Succs is kept current through insertTransfer's
// rewiring, so this reads directly off it rather than the pre-mapping
// task set. A successor absent from sched.Tasks (not yet expanded — a
// dynamic subgraph) forces broadcast, per spec's "if any successor is
// unknown ... broadcast".
func computeNotifySets(sched *Schedule) {
	for _, t := range sched.Tasks {
		t.NotifySet = make(map[string]bool)
		broadcast := false
		for _, succ := range t.Succs {
			st, ok := sched.Tasks[succ.TaskID]
			if !ok {
				broadcast = true
				continue
			}
			if st.MappedLRT != "" && st.MappedLRT != t.MappedLRT {
				t.NotifySet[st.MappedLRT] = true
			}
		}
		if broadcast {
			for _, lrt := range allLRTs(sched) {
				t.NotifySet[lrt] = true
			}
		}
	}
}

func allLRTs(sched *Schedule) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range sched.Tasks {
		if t.MappedLRT != "" && !seen[t.MappedLRT] {
			seen[t.MappedLRT] = true
			out = append(out, t.MappedLRT)
		}
	}
	return out
}
