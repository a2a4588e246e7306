package runtime_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spider2/runtime/expr"
	"github.com/spider2/runtime/fifo"
	"github.com/spider2/runtime/pisdf"
	"github.com/spider2/runtime/runtime"
	"github.com/spider2/runtime/schedule"
)

// stubKernel satisfies pisdf.Kernel for test vertices.
type stubKernel struct {
	id                   string
	inParams, outParams int
}

func (k stubKernel) ID() string     { return k.id }
func (k stubKernel) InParams() int  { return k.inParams }
func (k stubKernel) OutParams() int { return k.outParams }

func mustAddVertex(t *testing.T, g *pisdf.Graph, v *pisdf.Vertex) {
	t.Helper()
	require.NoError(t, g.AddVertex(v))
}

func mustAddEdge(t *testing.T, g *pisdf.Graph, e *pisdf.Edge) {
	t.Helper()
	require.NoError(t, g.AddEdge(e))
}

func waitGroupDone(t *testing.T, done <-chan error) {
	t.Helper()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("RunLRTs did not finish in time")
	}
}

// TestGRTIterationDispatchesAcrossTwoLRTs runs a producer on lrt0 and a
// consumer on lrt1 connected by one edge, verifying the consumer observes
// the producer's output through the shared FIFO backing, and that the
// consumer's exec constraint correctly waited on the producer's job stamp
// (spec.md §4.6 "LRT main loop" step 3, "GRT iteration protocol").
func TestGRTIterationDispatchesAcrossTwoLRTs(t *testing.T) {
	four := expr.MustCompileConst("4")

	g := pisdf.NewGraph("g", "g")
	a := pisdf.NewVertex("A", "A", pisdf.Normal, nil, []expr.Expression{four})
	a.Kernel = stubKernel{id: "kernel.A", outParams: 0}
	b := pisdf.NewVertex("B", "B", pisdf.Normal, []expr.Expression{four}, nil)
	b.Kernel = stubKernel{id: "kernel.B"}
	mustAddVertex(t, g, a)
	mustAddVertex(t, g, b)
	mustAddEdge(t, g, &pisdf.Edge{ID: "e1", From: "A", FromPort: 0, FromRate: four, To: "B", ToPort: 0, ToRate: four})

	fifos, err := fifo.New().Allocate(g, fifo.Context{})
	require.NoError(t, err)

	sched := &schedule.Schedule{
		Order: []string{"A", "B"},
		Tasks: map[string]*schedule.Task{
			"A": {ID: "A", Vertex: "A", MappedLRT: "lrt0", ExecIndex: 1, NotifySet: map[string]bool{"lrt1": true}},
			"B": {ID: "B", Vertex: "B", MappedLRT: "lrt1", ExecIndex: 1, WaitSet: map[string]int64{"lrt0": 1}},
		},
	}

	rt := runtime.New(nil, []string{"lrt0", "lrt1"}, nil, nil)

	var observedByB []byte
	rt.Registry.Register("kernel.A", func(_ []int64, _ []int64, _ [][]byte, outputs [][]byte) error {
		copy(outputs[0], []byte{1, 2, 3, 4})
		return nil
	})
	rt.Registry.Register("kernel.B", func(_ []int64, _ []int64, inputs [][]byte, _ [][]byte) error {
		observedByB = append([]byte(nil), inputs[0]...)
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- rt.RunLRTs(ctx) }()

	_, err = rt.GRT().Iterate(ctx, g, sched, fifos, nil)
	require.NoError(t, err)

	require.NoError(t, rt.GRT().Stop(ctx))
	waitGroupDone(t, done)

	assert.Equal(t, []byte{1, 2, 3, 4}, observedByB)
}

// TestKernelRuntimeErrorSkipsTaskAndPropagatesDownstream verifies a
// failing kernel is recoverable, not fatal (spec.md §7
// "KERNEL_RUNTIME_ERROR ... task marked SKIPPED, downstream tasks get
// SKIPPED propagated, iteration continues"): the reactor loop keeps
// running, the failed task's dependent never runs its kernel, and
// Iterate reports both as SKIPPED in the final Schedule.
func TestKernelRuntimeErrorSkipsTaskAndPropagatesDownstream(t *testing.T) {
	four := expr.MustCompileConst("4")

	g := pisdf.NewGraph("g", "g")
	a := pisdf.NewVertex("A", "A", pisdf.Normal, nil, []expr.Expression{four})
	a.Kernel = stubKernel{id: "kernel.A"}
	b := pisdf.NewVertex("B", "B", pisdf.Normal, []expr.Expression{four}, nil)
	b.Kernel = stubKernel{id: "kernel.B"}
	mustAddVertex(t, g, a)
	mustAddVertex(t, g, b)
	mustAddEdge(t, g, &pisdf.Edge{ID: "e1", From: "A", FromPort: 0, FromRate: four, To: "B", ToPort: 0, ToRate: four})

	fifos, err := fifo.New().Allocate(g, fifo.Context{})
	require.NoError(t, err)

	taskA := &schedule.Task{ID: "A", Vertex: "A", MappedLRT: "lrt0", ExecIndex: 1, NotifySet: map[string]bool{"lrt1": true}}
	taskB := &schedule.Task{ID: "B", Vertex: "B", MappedLRT: "lrt1", ExecIndex: 1, WaitSet: map[string]int64{"lrt0": 1}, Preds: []schedule.Dependency{{TaskID: "A", Bytes: 4}}}
	sched := &schedule.Schedule{
		Order: []string{"A", "B"},
		Tasks: map[string]*schedule.Task{"A": taskA, "B": taskB},
	}

	rt := runtime.New(nil, []string{"lrt0", "lrt1"}, nil, nil)

	bRan := false
	rt.Registry.Register("kernel.A", func(_ []int64, _ []int64, _ [][]byte, _ [][]byte) error {
		return fmt.Errorf("boom")
	})
	rt.Registry.Register("kernel.B", func(_ []int64, _ []int64, _ [][]byte, _ [][]byte) error {
		bRan = true
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- rt.RunLRTs(ctx) }()

	result, err := rt.GRT().Iterate(ctx, g, sched, fifos, nil)
	require.NoError(t, err)

	require.NoError(t, rt.GRT().Stop(ctx))
	waitGroupDone(t, done)

	assert.False(t, bRan, "B must not run its kernel once A was SKIPPED")
	assert.ElementsMatch(t, []string{"A", "B"}, result.Skipped)
	assert.Equal(t, schedule.Skipped, taskA.State)
	assert.Equal(t, schedule.Skipped, taskB.State)
}

// TestIterateTagsJobsWithCorrelationID verifies Iterate actually produces
// and consumes a runtime.CorrelationID: every job dispatched in the same
// iteration carries the same non-empty id, and IterationResult reports it.
func TestIterateTagsJobsWithCorrelationID(t *testing.T) {
	four := expr.MustCompileConst("4")

	g := pisdf.NewGraph("g", "g")
	a := pisdf.NewVertex("A", "A", pisdf.Normal, nil, []expr.Expression{four})
	a.Kernel = stubKernel{id: "kernel.A"}
	b := pisdf.NewVertex("B", "B", pisdf.Normal, []expr.Expression{four}, nil)
	b.Kernel = stubKernel{id: "kernel.B"}
	mustAddVertex(t, g, a)
	mustAddVertex(t, g, b)
	mustAddEdge(t, g, &pisdf.Edge{ID: "e1", From: "A", FromPort: 0, FromRate: four, To: "B", ToPort: 0, ToRate: four})

	fifos, err := fifo.New().Allocate(g, fifo.Context{})
	require.NoError(t, err)

	sched := &schedule.Schedule{
		Order: []string{"A", "B"},
		Tasks: map[string]*schedule.Task{
			"A": {ID: "A", Vertex: "A", MappedLRT: "lrt0", ExecIndex: 1, NotifySet: map[string]bool{"lrt1": true}},
			"B": {ID: "B", Vertex: "B", MappedLRT: "lrt1", ExecIndex: 1, WaitSet: map[string]int64{"lrt0": 1}},
		},
	}

	rt := runtime.New(nil, []string{"lrt0", "lrt1"}, nil, nil)

	rt.Registry.Register("kernel.A", func(_ []int64, _ []int64, _ [][]byte, _ [][]byte) error { return nil })
	rt.Registry.Register("kernel.B", func(_ []int64, _ []int64, _ [][]byte, _ [][]byte) error { return nil })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- rt.RunLRTs(ctx) }()

	result, err := rt.GRT().Iterate(ctx, g, sched, fifos, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, result.CorrelationID)

	result2, err := rt.GRT().Iterate(ctx, g, sched, fifos, nil)
	require.NoError(t, err)
	assert.NotEqual(t, result.CorrelationID, result2.CorrelationID, "each iteration must get its own correlation id")

	require.NoError(t, rt.GRT().Stop(ctx))
	waitGroupDone(t, done)
}

// TestLRTExecutesJobsStrictlySequentially verifies a later-queued job on
// the same LRT never runs ahead of an earlier one still waiting on an
// unmet constraint (spec.md §5 ordering guarantee i).
func TestLRTExecutesJobsStrictlySequentially(t *testing.T) {
	transport := runtime.NewChannelTransport([]string{"lrt0", "lrt1"}, 4)
	registry := runtime.NewRegistry()

	var order []string
	registry.Register("k1", func(_, _ []int64, _, _ [][]byte) error {
		order = append(order, "k1")
		return nil
	})
	registry.Register("k2", func(_, _ []int64, _, _ [][]byte) error {
		order = append(order, "k2")
		return nil
	})

	lrt := runtime.NewLRT("lrt0", registry, transport, nil)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- lrt.Run(ctx) }()

	// job2 (exec index 2) is pushed first and waits on lrt1's stamp
	// reaching 1; job3 (exec index 3) is pushed after it with no
	// constraint and must not run ahead of it.
	idx2 := transport.PushJob("lrt0", runtime.JobMessage{
		TaskID: "t2", ExecIndex: 2, KernelID: "k2",
		Constraints: []runtime.ExecConstraint{{WaitLRT: "lrt1", WaitExecIndex: 1}},
	})
	require.NoError(t, transport.Notify(ctx, "lrt0", runtime.Notification{Kind: runtime.JobAdd, SenderID: "test", Index: idx2}))
	idx3 := transport.PushJob("lrt0", runtime.JobMessage{TaskID: "t3", ExecIndex: 3, KernelID: "k1"})
	require.NoError(t, transport.Notify(ctx, "lrt0", runtime.Notification{Kind: runtime.JobAdd, SenderID: "test", Index: idx3}))

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, order, "neither job may run before job2's constraint is satisfied")

	require.NoError(t, transport.Notify(ctx, "lrt0", runtime.Notification{Kind: runtime.JobUpdateJobstamp, SenderID: "lrt1", Index: 1}))
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, []string{"k2", "k1"}, order)

	require.NoError(t, transport.Notify(ctx, "lrt0", runtime.Notification{Kind: runtime.LrtStop}))
	waitGroupDone(t, done)
}

func TestNotificationKindString(t *testing.T) {
	assert.Equal(t, "JOB_ADD", runtime.JobAdd.String())
	assert.Equal(t, "LRT_FINISHED_ITERATION", runtime.LrtFinishedIteration.String())
}
