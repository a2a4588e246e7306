package platform_test

import (
	"context"
	"testing"
	"time"

	"github.com/spider2/runtime/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlatformRegistersClustersPEsAndBuses(t *testing.T) {
	p := platform.New(2, 4)

	memA := &platform.MemoryInterface{ID: "memA"}
	memB := &platform.MemoryInterface{ID: "memB"}
	clusterA := platform.NewCluster("clusterA", memA, 0)
	clusterB := platform.NewCluster("clusterB", memB, 1)
	require.NoError(t, p.AddCluster(clusterA))
	require.NoError(t, p.AddCluster(clusterB))

	require.NoError(t, p.AddPE(&platform.PE{ID: "peA0", Cluster: "clusterA", HwType: "cpu"}))
	require.NoError(t, p.AddPE(&platform.PE{ID: "peA1", Cluster: "clusterA", HwType: "cpu"}))
	require.NoError(t, p.AddPE(&platform.PE{ID: "peB0", Cluster: "clusterB", HwType: "dsp"}))

	err := p.AddPE(&platform.PE{ID: "peX", Cluster: "missing"})
	assert.ErrorIs(t, err, platform.ErrClusterNotFound)

	err = p.AddPE(&platform.PE{ID: "peA0", Cluster: "clusterA"})
	assert.ErrorIs(t, err, platform.ErrDuplicateID)

	got, err := p.Cluster("clusterA")
	require.NoError(t, err)
	assert.Equal(t, []string{"peA0", "peA1"}, got.PEs())

	assert.Equal(t, []string{"clusterA", "clusterB"}, p.Clusters())

	_, err = p.Cluster("nope")
	assert.ErrorIs(t, err, platform.ErrClusterNotFound)

	_, err = p.PE("nope")
	assert.ErrorIs(t, err, platform.ErrPENotFound)
}

func TestMemoryBusCostReportsOverflow(t *testing.T) {
	cost := platform.LinearCost(2.0, 1000)

	d, overflow := cost(100)
	assert.Equal(t, 200*time.Nanosecond, d)
	assert.False(t, overflow)

	d, overflow = cost(2000)
	assert.Equal(t, 4000*time.Nanosecond, d)
	assert.True(t, overflow)
}

func TestPlatformBusBetweenAndLookup(t *testing.T) {
	p := platform.New(2, 0)
	require.NoError(t, p.AddCluster(platform.NewCluster("a", nil, 0)))
	require.NoError(t, p.AddCluster(platform.NewCluster("b", nil, 0)))

	bus := &platform.MemoryBus{ID: "a->b", From: "a", To: "b", Cost: platform.LinearCost(1, 0)}
	require.NoError(t, p.AddBus(bus))

	buses := p.BusBetween("a", "b")
	require.Len(t, buses, 1)
	assert.Equal(t, "a->b", buses[0].ID)

	assert.Empty(t, p.BusBetween("b", "a"))

	got, err := p.Bus("a->b")
	require.NoError(t, err)
	assert.Same(t, bus, got)

	_, err = p.Bus("nope")
	assert.ErrorIs(t, err, platform.ErrBusNotFound)

	err = p.AddBus(bus)
	assert.ErrorIs(t, err, platform.ErrDuplicateID)
}

func TestClusterConcurrencyCap(t *testing.T) {
	c := platform.NewCluster("shared", nil, 1)
	ctx := context.Background()

	require.NoError(t, c.Acquire(ctx))

	ctx2, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	err := c.Acquire(ctx2)
	assert.Error(t, err)

	c.Release()
	require.NoError(t, c.Acquire(ctx))
	c.Release()
}

func TestClusterUncappedNeverBlocks(t *testing.T) {
	c := platform.NewCluster("unbounded", nil, 0)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, c.Acquire(ctx))
	}
	c.Release()
}
