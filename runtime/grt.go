package runtime

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/spider2/runtime/fifo"
	"github.com/spider2/runtime/pisdf"
	"github.com/spider2/runtime/schedule"
)

// transferKernelID names the built-in kernel GRT registers for synthesized
// SEND/RECEIVE tasks (schedule.mapper's inter-cluster transfer legs):
// a byte-for-byte copy, matching spec.md §6's "routines are byte-in/
// byte-out pure C callable kernels with the uniform kernel signature".
const transferKernelID = "__transfer__"

func transferKernel(_, _ []int64, inputs, outputs [][]byte) error {
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil
	}
	copy(outputs[0], inputs[0])
	return nil
}

// GRT drives one iteration of a mapped SR graph: dispatch every task to
// its assigned LRT, await config-actor parameters for dynamic re-
// expansion, then close out the iteration (spec.md §4.6 "GRT iteration
// protocol"). Dynamic re-expansion itself (building and scheduling the
// run subgraph from resolved parameters) is the caller's responsibility —
// Iterate reports the collected ParamMessages and returns, leaving the
// caller to re-expand and invoke Iterate again for the run subgraph, the
// same split srexpand already makes between the config and run phases
// (srexpand's documented deferred config/run split).
type GRT struct {
	LRTIDs    []string
	Registry  *Registry
	Transport Transport
	Log       hclog.Logger
}

// NewGRT builds a GRT and registers the built-in transfer kernel. log may
// be nil, in which case a no-op hclog.Logger is used.
func NewGRT(lrtIDs []string, registry *Registry, transport Transport, log hclog.Logger) *GRT {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	registry.Register(transferKernelID, transferKernel)
	return &GRT{LRTIDs: lrtIDs, Registry: registry, Transport: transport, Log: log.Named("grt")}
}

// IterationResult is what Iterate observed from config actors during the
// iteration it drove (spec.md §4.6 step 3), plus every task id that ended
// up SKIPPED (spec.md §7 "iteration-level status").
type IterationResult struct {
	// CorrelationID tags every job this iteration dispatched
	// (runtime.CorrelationID), so an LRT's log line or an external trace
	// consumer can attribute activity back to the Iterate call that
	// produced it.
	CorrelationID string
	Params        []ParamMessage
	Skipped       []string
}

// Iterate runs one full GRT iteration protocol pass over sched (spec.md
// §4.6 steps 1-5): start, dispatch, collect config-actor parameters,
// end, await finish.
func (grt *GRT) Iterate(ctx context.Context, g *pisdf.Graph, sched *schedule.Schedule, fifos map[string]*fifo.FIFO, configTaskIDs []string) (*IterationResult, error) {
	corrID := CorrelationID()
	grt.Log.Info("starting iteration", "correlation_id", corrID)

	if err := grt.notifyAll(ctx, LrtStartIteration); err != nil {
		return nil, err
	}

	for _, taskID := range sched.Order {
		task := sched.Tasks[taskID]
		if task.MappedLRT == "" {
			continue // pruned (non-executable), see schedule.prune
		}
		task.State = schedule.Running
		msg, err := grt.jobMessageFor(g, task, fifos)
		if err != nil {
			return nil, err
		}
		msg.CorrelationID = corrID
		idx := grt.Transport.PushJob(task.MappedLRT, msg)
		if err := grt.Transport.Notify(ctx, task.MappedLRT, Notification{Kind: JobAdd, SenderID: grtID, Index: idx}); err != nil {
			return nil, err
		}
	}

	result := &IterationResult{CorrelationID: corrID}
	for range configTaskIDs {
		p, err := grt.Transport.Param(ctx)
		if err != nil {
			return nil, err
		}
		result.Params = append(result.Params, p)
	}

	if err := grt.notifyAll(ctx, LrtEndIteration); err != nil {
		return nil, err
	}
	if err := grt.awaitFinished(ctx); err != nil {
		return nil, err
	}

	// spec.md §7 "iteration continues but iteration-level status is set":
	// reconcile every task's final State against what was actually
	// SKIPPED this iteration (runtime.LRT.execute, on a recoverable
	// KERNEL_RUNTIME_ERROR or a SKIPPED predecessor).
	result.Skipped = grt.Transport.SkippedAndReset()
	skipped := make(map[string]bool, len(result.Skipped))
	for _, id := range result.Skipped {
		skipped[id] = true
		if t, ok := sched.Tasks[id]; ok {
			t.State = schedule.Skipped
		}
	}
	for _, taskID := range sched.Order {
		t := sched.Tasks[taskID]
		if t.MappedLRT == "" || skipped[taskID] {
			continue
		}
		t.State = schedule.Finished
	}
	return result, nil
}

// Stop sends the shutdown sequence to every LRT (spec.md §4.6
// "Cancellation / shutdown": clear then stop).
func (grt *GRT) Stop(ctx context.Context) error {
	if err := grt.notifyAll(ctx, LrtClearIteration); err != nil {
		return err
	}
	return grt.notifyAll(ctx, LrtStop)
}

func (grt *GRT) notifyAll(ctx context.Context, kind NotificationKind) error {
	for _, id := range grt.LRTIDs {
		if err := grt.Transport.Notify(ctx, id, Notification{Kind: kind, SenderID: grtID}); err != nil {
			return err
		}
	}
	return nil
}

// awaitFinished blocks until every LRT has reported LrtFinishedIteration.
func (grt *GRT) awaitFinished(ctx context.Context) error {
	remaining := make(map[string]bool, len(grt.LRTIDs))
	for _, id := range grt.LRTIDs {
		remaining[id] = true
	}
	for len(remaining) > 0 {
		n, err := grt.Transport.Receive(ctx, grtID)
		if err != nil {
			return err
		}
		if n.Kind != LrtFinishedIteration {
			continue
		}
		delete(remaining, n.SenderID)
	}
	return nil
}

// jobMessageFor builds the JobMessage for task, pulling the kernel id off
// the originating pisdf.Vertex and its in/out FIFOs off fifos by edge id
// (spec.md §4.6 "Job message").
func (grt *GRT) jobMessageFor(gr *pisdf.Graph, task *schedule.Task, fifos map[string]*fifo.FIFO) (JobMessage, error) {
	msg := JobMessage{
		TaskID:    task.ID,
		ExecIndex: task.ExecIndex,
	}
	for _, p := range task.Preds {
		msg.Preds = append(msg.Preds, p.TaskID)
	}
	for lrt, idx := range task.WaitSet {
		msg.Constraints = append(msg.Constraints, ExecConstraint{WaitLRT: lrt, WaitExecIndex: idx})
	}
	for lrt, on := range task.NotifySet {
		if on {
			msg.Notify = append(msg.Notify, lrt)
		}
	}

	if task.Transfer != schedule.NotTransfer {
		// SEND/RECEIVE are schedule-synthesized legs with no backing
		// pisdf.Vertex or edge of their own (schedule.insertTransfer);
		// wiring their FIFOs to the bus's actual transit buffer is left
		// to the platform.MemoryBus implementation driving the transfer,
		// not to this dispatcher.
		msg.KernelID = transferKernelID
		return msg, nil
	}

	v, err := gr.Vertex(task.Vertex)
	if err != nil {
		return JobMessage{}, err
	}
	if v.Kernel == nil {
		return JobMessage{}, fmt.Errorf("runtime: vertex %q has no kernel", v.ID)
	}
	msg.KernelID = v.Kernel.ID()
	msg.ExpectedParamsOut = v.Kernel.OutParams()

	for _, eid := range gr.InEdges(v.ID) {
		f, ok := fifos[eid]
		if !ok {
			return JobMessage{}, fmt.Errorf("runtime: no FIFO resolved for edge %q", eid)
		}
		msg.InputFIFOs = append(msg.InputFIFOs, f)
	}
	for _, eid := range gr.OutEdges(v.ID) {
		f, ok := fifos[eid]
		if !ok {
			return JobMessage{}, fmt.Errorf("runtime: no FIFO resolved for edge %q", eid)
		}
		msg.OutputFIFOs = append(msg.OutputFIFOs, f)
	}
	return msg, nil
}
