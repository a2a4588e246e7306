package optimize_test

import (
	"testing"

	"github.com/spider2/runtime/expr"
	"github.com/spider2/runtime/optimize"
	"github.com/spider2/runtime/pisdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addVertex(t *testing.T, g *pisdf.Graph, id string, kind pisdf.VertexKind, in, out []expr.Expression) *pisdf.Vertex {
	t.Helper()
	v := pisdf.NewVertex(id, id, kind, in, out)
	require.NoError(t, g.AddVertex(v))
	return v
}

func addEdge(t *testing.T, g *pisdf.Graph, id, from string, fromPort int, fromRate expr.Expression, to string, toPort int, toRate expr.Expression) {
	t.Helper()
	require.NoError(t, g.AddEdge(&pisdf.Edge{ID: id, From: from, FromPort: fromPort, FromRate: fromRate, To: to, ToPort: toPort, ToRate: toRate}))
}

func edge(t *testing.T, g *pisdf.Graph, from string, fromPort int, to string, toPort int) bool {
	t.Helper()
	for _, eid := range g.Edges() {
		e, err := g.Edge(eid)
		require.NoError(t, err)
		if e.From == from && e.FromPort == fromPort && e.To == to && e.ToPort == toPort {
			return true
		}
	}
	return false
}

func rates(n int, r expr.Expression) []expr.Expression {
	out := make([]expr.Expression, n)
	for i := range out {
		out[i] = r
	}
	return out
}

func TestForkForkMerges(t *testing.T) {
	g := pisdf.NewGraph("g", "forkfork")
	one := expr.MustCompileConst("1")
	two := expr.MustCompileConst("2")
	three := expr.MustCompileConst("3")
	four := expr.MustCompileConst("4")
	six := expr.MustCompileConst("6")

	addVertex(t, g, "P", pisdf.Normal, nil, []expr.Expression{six})
	addVertex(t, g, "fork1", pisdf.Fork, rates(1, six), []expr.Expression{two, four})
	addVertex(t, g, "fork2", pisdf.Fork, rates(1, four), []expr.Expression{one, three})
	addVertex(t, g, "A", pisdf.Normal, []expr.Expression{two}, nil)
	addVertex(t, g, "B", pisdf.Normal, []expr.Expression{one}, nil)
	addVertex(t, g, "C", pisdf.Normal, []expr.Expression{three}, nil)

	addEdge(t, g, "eP", "P", 0, six, "fork1", 0, six)
	addEdge(t, g, "e0", "fork1", 0, two, "A", 0, two)
	addEdge(t, g, "e1", "fork1", 1, four, "fork2", 0, four)
	addEdge(t, g, "e2", "fork2", 0, one, "B", 0, one)
	addEdge(t, g, "e3", "fork2", 1, three, "C", 0, three)

	require.NoError(t, optimize.Run(g))

	assert.Equal(t, 5, g.VertexCount()) // P, A, B, C, merged fork
	assert.Len(t, g.Edges(), 4)

	merged := "fork1+fork2"
	_, err := g.Vertex(merged)
	require.NoError(t, err)
	_, err = g.Vertex("fork1")
	assert.Error(t, err)
	_, err = g.Vertex("fork2")
	assert.Error(t, err)

	assert.True(t, edge(t, g, "P", 0, merged, 0))
	assert.True(t, edge(t, g, merged, 0, "A", 0))
	assert.True(t, edge(t, g, merged, 1, "B", 0))
	assert.True(t, edge(t, g, merged, 2, "C", 0))
}

func TestForkForkConvergesAcrossMultipleRounds(t *testing.T) {
	g := pisdf.NewGraph("g", "chain")
	one := expr.MustCompileConst("1")
	two := expr.MustCompileConst("2")
	three := expr.MustCompileConst("3")
	four := expr.MustCompileConst("4")

	addVertex(t, g, "P", pisdf.Normal, nil, []expr.Expression{four})
	addVertex(t, g, "f1", pisdf.Fork, rates(1, four), []expr.Expression{one, three})
	addVertex(t, g, "f2", pisdf.Fork, rates(1, three), []expr.Expression{one, two})
	addVertex(t, g, "f3", pisdf.Fork, rates(1, two), []expr.Expression{one, one})
	addVertex(t, g, "A", pisdf.Normal, []expr.Expression{one}, nil)
	addVertex(t, g, "B", pisdf.Normal, []expr.Expression{one}, nil)
	addVertex(t, g, "C", pisdf.Normal, []expr.Expression{one}, nil)
	addVertex(t, g, "D", pisdf.Normal, []expr.Expression{one}, nil)

	addEdge(t, g, "eP", "P", 0, four, "f1", 0, four)
	addEdge(t, g, "e0", "f1", 0, one, "A", 0, one)
	addEdge(t, g, "e1", "f1", 1, three, "f2", 0, three)
	addEdge(t, g, "e2", "f2", 0, one, "B", 0, one)
	addEdge(t, g, "e3", "f2", 1, two, "f3", 0, two)
	addEdge(t, g, "e4", "f3", 0, one, "C", 0, one)
	addEdge(t, g, "e5", "f3", 1, one, "D", 0, one)

	require.NoError(t, optimize.Run(g))

	assert.Equal(t, 6, g.VertexCount()) // P, A, B, C, D, one merged fork
	assert.Len(t, g.Edges(), 5)

	merged := "f1+f2+f3"
	_, err := g.Vertex(merged)
	require.NoError(t, err)
	assert.True(t, edge(t, g, "P", 0, merged, 0))
	assert.True(t, edge(t, g, merged, 0, "A", 0))
	assert.True(t, edge(t, g, merged, 1, "B", 0))
	assert.True(t, edge(t, g, merged, 2, "C", 0))
	assert.True(t, edge(t, g, merged, 3, "D", 0))
}

func TestJoinJoinMerges(t *testing.T) {
	g := pisdf.NewGraph("g", "joinjoin")
	one := expr.MustCompileConst("1")
	two := expr.MustCompileConst("2")
	three := expr.MustCompileConst("3")
	six := expr.MustCompileConst("6")

	addVertex(t, g, "A", pisdf.Normal, nil, []expr.Expression{one})
	addVertex(t, g, "B", pisdf.Normal, nil, []expr.Expression{two})
	addVertex(t, g, "join2", pisdf.Join, []expr.Expression{one, two}, rates(1, three))
	addVertex(t, g, "C", pisdf.Normal, nil, []expr.Expression{three})
	addVertex(t, g, "join1", pisdf.Join, []expr.Expression{three, three}, rates(1, six))
	addVertex(t, g, "Q", pisdf.Normal, []expr.Expression{six}, nil)

	addEdge(t, g, "e0", "A", 0, one, "join2", 0, one)
	addEdge(t, g, "e1", "B", 0, two, "join2", 1, two)
	addEdge(t, g, "e2", "join2", 0, three, "join1", 0, three)
	addEdge(t, g, "e3", "C", 0, three, "join1", 1, three)
	addEdge(t, g, "e4", "join1", 0, six, "Q", 0, six)

	require.NoError(t, optimize.Run(g))

	assert.Equal(t, 5, g.VertexCount()) // A, B, C, Q, one merged join
	merged := "join1+join2"
	_, err := g.Vertex(merged)
	require.NoError(t, err)
	assert.True(t, edge(t, g, "A", 0, merged, 0))
	assert.True(t, edge(t, g, "B", 0, merged, 1))
	assert.True(t, edge(t, g, "C", 0, merged, 2))
	assert.True(t, edge(t, g, merged, 0, "Q", 0))
}

func TestForkJoinCancels(t *testing.T) {
	g := pisdf.NewGraph("g", "forkjoin")
	one := expr.MustCompileConst("1")
	two := expr.MustCompileConst("2")

	addVertex(t, g, "P", pisdf.Normal, nil, []expr.Expression{two})
	addVertex(t, g, "fork", pisdf.Fork, rates(1, two), []expr.Expression{one, one})
	addVertex(t, g, "join", pisdf.Join, []expr.Expression{one, one}, rates(1, two))
	addVertex(t, g, "Q", pisdf.Normal, []expr.Expression{two}, nil)

	addEdge(t, g, "eP", "P", 0, two, "fork", 0, two)
	addEdge(t, g, "e0", "fork", 0, one, "join", 0, one)
	addEdge(t, g, "e1", "fork", 1, one, "join", 1, one)
	addEdge(t, g, "eQ", "join", 0, two, "Q", 0, two)

	require.NoError(t, optimize.Run(g))

	assert.Equal(t, 2, g.VertexCount())
	assert.Len(t, g.Edges(), 1)
	assert.True(t, edge(t, g, "P", 0, "Q", 0))
}

func TestUnitaryForkRemoved(t *testing.T) {
	g := pisdf.NewGraph("g", "unitary")
	two := expr.MustCompileConst("2")

	addVertex(t, g, "P", pisdf.Normal, nil, []expr.Expression{two})
	addVertex(t, g, "fork", pisdf.Fork, rates(1, two), []expr.Expression{two})
	addVertex(t, g, "C", pisdf.Normal, []expr.Expression{two}, nil)

	addEdge(t, g, "e0", "P", 0, two, "fork", 0, two)
	addEdge(t, g, "e1", "fork", 0, two, "C", 0, two)

	require.NoError(t, optimize.Run(g))

	assert.Equal(t, 2, g.VertexCount())
	assert.Len(t, g.Edges(), 1)
	assert.True(t, edge(t, g, "P", 0, "C", 0))
}

func TestDuplicateNormalizeMerges(t *testing.T) {
	g := pisdf.NewGraph("g", "dupnorm")
	four := expr.MustCompileConst("4")

	addVertex(t, g, "P", pisdf.Normal, nil, []expr.Expression{four})
	addVertex(t, g, "dup1", pisdf.Duplicate, rates(1, four), rates(2, four))
	addVertex(t, g, "dup2", pisdf.Duplicate, rates(1, four), rates(2, four))
	addVertex(t, g, "A", pisdf.Normal, []expr.Expression{four}, nil)
	addVertex(t, g, "B", pisdf.Normal, []expr.Expression{four}, nil)
	addVertex(t, g, "C", pisdf.Normal, []expr.Expression{four}, nil)

	addEdge(t, g, "eP", "P", 0, four, "dup1", 0, four)
	addEdge(t, g, "e0", "dup1", 0, four, "A", 0, four)
	addEdge(t, g, "e1", "dup1", 1, four, "dup2", 0, four)
	addEdge(t, g, "e2", "dup2", 0, four, "B", 0, four)
	addEdge(t, g, "e3", "dup2", 1, four, "C", 0, four)

	require.NoError(t, optimize.Run(g))

	assert.Equal(t, 5, g.VertexCount()) // P, A, B, C, merged duplicate
	merged := "dup1+dup2"
	_, err := g.Vertex(merged)
	require.NoError(t, err)
	assert.True(t, edge(t, g, "P", 0, merged, 0))
	assert.True(t, edge(t, g, merged, 0, "A", 0))
	assert.True(t, edge(t, g, merged, 1, "B", 0))
	assert.True(t, edge(t, g, merged, 2, "C", 0))
}
