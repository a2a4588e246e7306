package runtime

import "github.com/spider2/runtime/fifo"

// ExecConstraint is one entry of a job's execution constraint array: the
// job must not start until the named LRT's local job stamp has reached
// WaitExecIndex (spec.md §4.6 "execution constraints", schedule.Task's
// WaitSet).
type ExecConstraint struct {
	WaitLRT       string
	WaitExecIndex int64
}

// JobMessage is the payload carried on an LRT's message queue for one
// JobAdd notification (spec.md §4.6 "Job message").
type JobMessage struct {
	TaskID    string
	TaskIndex int64
	ExecIndex int64
	KernelID  string

	ParamsIn []int64

	InputFIFOs  []*fifo.FIFO
	OutputFIFOs []*fifo.FIFO

	// Notify lists the LRT ids to send JobUpdateJobstamp to once this
	// job completes (schedule.Task.NotifySet materialized into an
	// ordered slice).
	Notify []string

	Constraints []ExecConstraint

	// Preds lists the TaskIDs this job depends on (schedule.Task.Preds),
	// so the executing LRT can check whether any of them was SKIPPED and
	// propagate that status instead of running the kernel on stale or
	// absent input (spec.md §7 "KERNEL_RUNTIME_ERROR ... downstream tasks
	// get SKIPPED propagated").
	Preds []string

	// ExpectedParamsOut is the count of output parameters the kernel is
	// expected to produce; a config actor's kernel fills that many
	// entries of paramsOut (spec.md §6 "Kernel signature").
	ExpectedParamsOut int

	// CorrelationID tags every job dispatched by the same GRT.Iterate
	// call, so a trace/log line from any LRT can be attributed back to
	// the iteration that produced it (runtime.CorrelationID).
	CorrelationID string
}

// ParamMessage is what an LRT hands to the GRT through
// Transport.SendParam once a config actor's job finishes: the resolved output parameter values, in
// declaration order (spec.md §4.6 step 3, §5 ordering guarantee iv).
type ParamMessage struct {
	TaskID string
	Values []int64
}
