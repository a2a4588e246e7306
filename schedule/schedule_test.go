package schedule_test

import (
	"testing"
	"time"

	"github.com/spider2/runtime/pisdf"
	"github.com/spider2/runtime/platform"
	"github.com/spider2/runtime/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// constTiming is a fixed-cost pisdf.Timing for tests; it ignores lookup.
type constTiming int64

func (c constTiming) EvalNanos(func(string) (float64, bool, bool)) (int64, error) {
	return int64(c), nil
}

func noLookup(string) (float64, bool, bool) { return 0, false, false }

func newPlatform(t *testing.T) *platform.Platform {
	t.Helper()
	p := platform.New(2, 2)
	require.NoError(t, p.AddCluster(platform.NewCluster("A", nil, 0)))
	require.NoError(t, p.AddCluster(platform.NewCluster("B", nil, 0)))
	require.NoError(t, p.AddPE(&platform.PE{ID: "peA0", Cluster: "A"}))
	require.NoError(t, p.AddPE(&platform.PE{ID: "peB0", Cluster: "B"}))
	require.NoError(t, p.AddBus(&platform.MemoryBus{ID: "A->B", From: "A", To: "B", Cost: platform.LinearCost(1, 0)}))
	return p
}

func runtimeInfo(pe string, ns int64) *pisdf.RuntimeInfo {
	r := pisdf.NewRuntimeInfo(pe)
	r.SetTiming(pe, constTiming(ns))
	return r
}

func TestMapCrossClusterInsertsSendReceive(t *testing.T) {
	p := newPlatform(t)

	producer := &schedule.Task{ID: "P", Runtime: runtimeInfo("peA0", 100), Succs: []schedule.Dependency{{TaskID: "C", Bytes: 100}}}
	consumer := &schedule.Task{ID: "C", Runtime: runtimeInfo("peB0", 50), Preds: []schedule.Dependency{{TaskID: "P", Bytes: 100}}}

	tasks := map[string]*schedule.Task{"P": producer, "C": consumer}
	sched, err := schedule.Map(tasks, p, schedule.Options{Selection: schedule.SelectionList, Mapping: schedule.MappingBestFit, Lookup: noLookup})
	require.NoError(t, err)

	assert.Equal(t, "peA0", producer.MappedPE)
	assert.Equal(t, time.Duration(0), producer.Start)
	assert.Equal(t, 100*time.Nanosecond, producer.End)

	assert.Equal(t, "peB0", consumer.MappedPE)
	assert.Equal(t, 100*time.Nanosecond, consumer.Start)     // earliest = producer.End
	assert.Equal(t, 250*time.Nanosecond, consumer.End)       // start + exec(50) + commCost(100)
	require.Len(t, consumer.Preds, 1)
	assert.Contains(t, consumer.Preds[0].TaskID, ".recv")

	recvID := consumer.Preds[0].TaskID
	recv, ok := sched.Tasks[recvID]
	require.True(t, ok)
	assert.Equal(t, schedule.Receive, recv.Transfer)
	assert.Equal(t, 100*time.Nanosecond, recv.Start)
	assert.Equal(t, 200*time.Nanosecond, recv.End)

	require.Len(t, producer.Succs, 1)
	sendID := producer.Succs[0].TaskID
	assert.Contains(t, sendID, ".send")
	send, ok := sched.Tasks[sendID]
	require.True(t, ok)
	assert.Equal(t, schedule.Send, send.Transfer)
	assert.Equal(t, recvID, send.Succs[0].TaskID)

	assert.True(t, producer.NotifySet[send.MappedLRT])
	assert.Equal(t, recv.ExecIndex, consumer.WaitSet[recv.MappedLRT])
}

func TestMapSameClusterNoTransfer(t *testing.T) {
	p := newPlatform(t)
	producer := &schedule.Task{ID: "P", Runtime: runtimeInfo("peA0", 100)}
	r2 := pisdf.NewRuntimeInfo("peA0")
	r2.SetTiming("peA0", constTiming(30))
	consumer := &schedule.Task{ID: "C", Runtime: r2, Preds: []schedule.Dependency{{TaskID: "P", Bytes: 10}}}
	producer.Succs = []schedule.Dependency{{TaskID: "C", Bytes: 10}}

	tasks := map[string]*schedule.Task{"P": producer, "C": consumer}
	_, err := schedule.Map(tasks, p, schedule.Options{Lookup: noLookup})
	require.NoError(t, err)

	assert.Equal(t, "peA0", consumer.MappedPE)
	assert.Equal(t, "P", consumer.Preds[0].TaskID) // untouched: no cluster crossing
	assert.Equal(t, 130*time.Nanosecond, consumer.End)
	assert.Equal(t, schedule.Ready, consumer.State)
	assert.Equal(t, schedule.Ready, producer.State)
}

func TestMapUnmappableTaskErrors(t *testing.T) {
	p := newPlatform(t)
	orphan := &schedule.Task{ID: "X", Runtime: pisdf.NewRuntimeInfo("peZZZ")}
	_, err := schedule.Map(map[string]*schedule.Task{"X": orphan}, p, schedule.Options{Lookup: noLookup})
	assert.ErrorIs(t, err, schedule.ErrUnmappableTask)
}

func TestMapPrunesNonExecutableTask(t *testing.T) {
	p := newPlatform(t)
	cfg := &schedule.Task{ID: "CFG"} // no Runtime: non-executable
	consumer := &schedule.Task{ID: "C", Runtime: runtimeInfo("peA0", 10), Preds: []schedule.Dependency{{TaskID: "CFG", Bytes: 0}}}
	cfg.Succs = []schedule.Dependency{{TaskID: "C", Bytes: 0}}

	tasks := map[string]*schedule.Task{"CFG": cfg, "C": consumer}
	sched, err := schedule.Map(tasks, p, schedule.Options{Lookup: noLookup})
	require.NoError(t, err)

	assert.Equal(t, schedule.LevelSentinel, cfg.Level)
	assert.Equal(t, "", cfg.MappedPE)
	assert.Equal(t, schedule.NotRunnable, cfg.State)
	assert.Equal(t, "peA0", consumer.MappedPE)
	assert.Equal(t, schedule.Ready, consumer.State)
	_ = sched
}

func TestMapBestFitPicksLowerTotal(t *testing.T) {
	p := newPlatform(t)
	require.NoError(t, p.AddPE(&platform.PE{ID: "peA1", Cluster: "A"}))

	r := pisdf.NewRuntimeInfo("peA0", "peA1")
	r.SetTiming("peA0", constTiming(100))
	r.SetTiming("peA1", constTiming(10))
	task := &schedule.Task{ID: "T", Runtime: r}

	sched, err := schedule.Map(map[string]*schedule.Task{"T": task}, p, schedule.Options{Mapping: schedule.MappingBestFit, Lookup: noLookup})
	require.NoError(t, err)
	assert.Equal(t, "peA1", task.MappedPE)
	assert.Equal(t, 10*time.Nanosecond, task.End)
	_ = sched
}
