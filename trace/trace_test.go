package trace_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spider2/runtime/expr"
	"github.com/spider2/runtime/pisdf"
	"github.com/spider2/runtime/trace"
)

func TestDOTRendersVerticesAndEdges(t *testing.T) {
	g := pisdf.NewGraph("g", "g")
	rate := expr.MustCompileConst("4")
	require.NoError(t, g.AddVertex(pisdf.NewVertex("A", "A", pisdf.Normal, nil, []expr.Expression{rate})))
	require.NoError(t, g.AddVertex(pisdf.NewVertex("B", "B", pisdf.Normal, []expr.Expression{rate}, nil)))
	require.NoError(t, g.AddEdge(&pisdf.Edge{ID: "e1", From: "A", FromPort: 0, FromRate: rate, To: "B", ToPort: 0, ToRate: rate}))

	dot, err := trace.DOT(g)
	require.NoError(t, err)
	assert.Contains(t, dot, `digraph "g"`)
	assert.Contains(t, dot, `"A" [label="A (NORMAL)"];`)
	assert.Contains(t, dot, `"A" -> "B" [label="e1"];`)
}

func TestRecorderRoundTripsThroughYAML(t *testing.T) {
	rec := trace.NewRecorder()
	rec.Record("TRACE_START", "lrt0", "taskA", 1)
	rec.Record("TRACE_END", "lrt0", "taskA", 1)

	var buf bytes.Buffer
	require.NoError(t, trace.DumpYAML(&buf, rec.Events()))

	loaded, err := trace.LoadYAML(&buf)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "TRACE_START", loaded[0].Kind)
	assert.Equal(t, "taskA", loaded[0].TaskID)
	assert.Equal(t, "TRACE_END", loaded[1].Kind)
}

func TestLoadYAMLEmptyInputReturnsNoEvents(t *testing.T) {
	events, err := trace.LoadYAML(&bytes.Buffer{})
	require.NoError(t, err)
	assert.Empty(t, events)
}
