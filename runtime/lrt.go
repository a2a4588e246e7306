package runtime

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"
)

// LRT runs one LRT's reactor loop: wait for a notification, fold it into
// local state, then advance as far as possible through the local job
// queue (spec.md §4.6 "LRT main loop"). Jobs execute strictly
// sequentially in the order received (spec.md §5 ordering guarantee i) —
// LRT never reorders or skips ahead in its queue, even if a later job's
// constraints are already satisfied.
type LRT struct {
	ID        string
	Registry  *Registry
	Transport Transport
	Log       hclog.Logger

	queue      []JobMessage
	cursor     int
	localStamp map[string]int64 // observed job stamp per LRT id, including self
	repeating  bool
}

// NewLRT builds an LRT ready to Run. log may be nil, in which case a
// no-op hclog.Logger is used.
func NewLRT(id string, registry *Registry, transport Transport, log hclog.Logger) *LRT {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &LRT{
		ID:         id,
		Registry:   registry,
		Transport:  transport,
		Log:        log.Named("lrt-" + id),
		localStamp: make(map[string]int64),
	}
}

// Run drives the reactor loop until ctx is cancelled or an LrtStop
// notification is handled.
func (l *LRT) Run(ctx context.Context) error {
	for {
		n, err := l.Transport.Receive(ctx, l.ID)
		if err != nil {
			return err
		}
		stop, err := l.handle(ctx, n)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
		if err := l.drain(ctx); err != nil {
			return err
		}
	}
}

// handle folds one notification into local state (spec.md §4.6 step 2,
// step 4, and the control notifications it names). It reports whether
// the loop should stop.
func (l *LRT) handle(ctx context.Context, n Notification) (bool, error) {
	switch n.Kind {
	case JobAdd:
		msg, err := l.Transport.Job(l.ID, n.Index)
		if err != nil {
			return false, err
		}
		l.queue = append(l.queue, msg)

	case JobClearQueue:
		l.queue = nil
		l.cursor = 0
		l.localStamp = make(map[string]int64)

	case JobUpdateJobstamp:
		l.localStamp[n.SenderID] = n.Index

	case JobBroadcastJobstamp, JobDelayBroadcastJobstamp:
		// Go's transport delivers updates point-to-point as they occur;
		// there is no deferred broadcast batch to flush.

	case LrtRepeatIterationEn:
		l.repeating = true
	case LrtRepeatIterationDis:
		l.repeating = false

	case LrtRstIteration, LrtClearIteration:
		l.queue = nil
		l.cursor = 0
		l.localStamp = make(map[string]int64)

	case LrtEndIteration:
		if err := l.drain(ctx); err != nil {
			return false, err
		}
		if err := l.Transport.Notify(ctx, grtID, Notification{Kind: LrtFinishedIteration, SenderID: l.ID}); err != nil {
			return false, err
		}
		if !l.repeating {
			l.queue = nil
			l.cursor = 0
		} else {
			l.cursor = 0 // step 4 "reusing the last job queue"
		}

	case LrtPause, LrtResume:
		// No-op for the in-process driver: a paused LRT simply isn't
		// sent further JobAdd notifications by a well-behaved GRT.

	case LrtStop:
		return true, nil

	case LrtStartIteration:
		// Nothing to initialize; queue state carries over from any
		// prior repeated iteration per step 4.
	}
	return false, nil
}

// drain executes every queued job, starting at cursor, whose execution
// constraints are already satisfied, stopping at the first job that must
// still wait (spec.md §4.6 step 3).
func (l *LRT) drain(ctx context.Context) error {
	for l.cursor < len(l.queue) {
		job := l.queue[l.cursor]
		ready, err := l.constraintsSatisfied(job)
		if err != nil {
			return err
		}
		if !ready {
			return nil
		}
		if err := l.execute(ctx, job); err != nil {
			return err
		}
		l.cursor++
	}
	return nil
}

func (l *LRT) constraintsSatisfied(job JobMessage) (bool, error) {
	for _, c := range job.Constraints {
		if c.WaitLRT == l.ID && c.WaitExecIndex > job.ExecIndex {
			return false, fmt.Errorf("%w: %q job %d waits on self job %d", ErrBadJobIx, l.ID, job.ExecIndex, c.WaitExecIndex)
		}
		if l.localStamp[c.WaitLRT] < c.WaitExecIndex {
			return false, nil
		}
	}
	return true, nil
}

// execute runs job's kernel, then applies step 3's post-completion
// protocol: bump the local stamp, notify every LRT in job.Notify, and
// forward any output parameters to the GRT. A kernel error, or a SKIPPED
// predecessor, is recoverable (spec.md §7 "KERNEL_RUNTIME_ERROR ...
// logged, task marked SKIPPED, downstream tasks get SKIPPED propagated,
// iteration continues"): it never aborts the reactor loop, it only
// short-circuits this one job's kernel call.
func (l *LRT) execute(ctx context.Context, job JobMessage) error {
	for _, pred := range job.Preds {
		if l.Transport.IsSkipped(pred) {
			l.Log.Warn("skipping job: predecessor was skipped", "task", job.TaskID, "predecessor", pred, "correlation_id", job.CorrelationID)
			return l.finishSkipped(ctx, job)
		}
	}

	fn, err := l.Registry.Resolve(job.KernelID)
	if err != nil {
		return err
	}

	inputs := make([][]byte, len(job.InputFIFOs))
	for i, f := range job.InputFIFOs {
		inputs[i] = f.Backing
	}
	outputs := make([][]byte, len(job.OutputFIFOs))
	for i, f := range job.OutputFIFOs {
		outputs[i] = f.Backing
	}
	paramsOut := make([]int64, job.ExpectedParamsOut)

	l.Log.Debug("executing job", "task", job.TaskID, "exec_index", job.ExecIndex, "kernel", job.KernelID, "correlation_id", job.CorrelationID)
	if err := fn(job.ParamsIn, paramsOut, inputs, outputs); err != nil {
		l.Log.Warn("kernel runtime error, skipping task", "task", job.TaskID, "kernel", job.KernelID, "err", err, "correlation_id", job.CorrelationID)
		return l.finishSkipped(ctx, job)
	}

	for _, f := range job.InputFIFOs {
		f.Release()
	}

	l.localStamp[l.ID] = job.ExecIndex
	for _, receiver := range job.Notify {
		if err := l.Transport.Notify(ctx, receiver, Notification{Kind: JobUpdateJobstamp, SenderID: l.ID, Index: job.ExecIndex}); err != nil {
			return err
		}
	}
	if job.ExpectedParamsOut > 0 {
		if err := l.Transport.SendParam(ctx, ParamMessage{TaskID: job.TaskID, Values: paramsOut}); err != nil {
			return err
		}
	}
	return nil
}

// finishSkipped marks job's task SKIPPED and runs the same
// synchronization protocol execute would have run on success — release
// inputs, bump the local stamp, notify dependents, forward zero-valued
// output parameters — so the rest of the iteration can proceed exactly as
// if the job had completed, just without its kernel's side effects.
func (l *LRT) finishSkipped(ctx context.Context, job JobMessage) error {
	l.Transport.MarkSkipped(job.TaskID)

	for _, f := range job.InputFIFOs {
		f.Release()
	}

	l.localStamp[l.ID] = job.ExecIndex
	for _, receiver := range job.Notify {
		if err := l.Transport.Notify(ctx, receiver, Notification{Kind: JobUpdateJobstamp, SenderID: l.ID, Index: job.ExecIndex}); err != nil {
			return err
		}
	}
	if job.ExpectedParamsOut > 0 {
		if err := l.Transport.SendParam(ctx, ParamMessage{TaskID: job.TaskID, Values: make([]int64, job.ExpectedParamsOut)}); err != nil {
			return err
		}
	}
	return nil
}
