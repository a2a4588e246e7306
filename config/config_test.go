package config_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spider2/runtime/config"
	"github.com/spider2/runtime/schedule"
)

func TestNewStartupConfigDefaults(t *testing.T) {
	c := config.NewStartupConfig()
	assert.False(t, c.Verbose)
	assert.False(t, c.Standalone)
	assert.Equal(t, config.AllocatorGeneric, c.GeneralStackPolicy)
	assert.Equal(t, 1<<20, c.GeneralStackSize)
	assert.False(t, c.ExportSRDAG)
	assert.False(t, c.ExportTrace)
}

func TestStartupOptionsApplyInOrder(t *testing.T) {
	c := config.NewStartupConfig(
		config.WithVerbose(true),
		config.WithStandalone(2),
		config.WithGeneralStack(config.AllocatorLinearStatic, 4096),
		config.WithSRDAGExport(true),
		config.WithTraceExport(true),
		config.WithAdaptiveStatic(true),
	)
	assert.True(t, c.Verbose)
	assert.True(t, c.Standalone)
	assert.Equal(t, 2, c.ClusterIndex)
	assert.Equal(t, config.AllocatorLinearStatic, c.GeneralStackPolicy)
	assert.Equal(t, 4096, c.GeneralStackSize)
	assert.True(t, c.ExportSRDAG)
	assert.True(t, c.ExportTrace)
	assert.True(t, c.AdaptiveStatic)
}

func TestNewGraphRuntimeConfigDefaults(t *testing.T) {
	c := config.NewGraphRuntimeConfig()
	assert.Equal(t, config.ModeLoop, c.Mode)
	assert.Equal(t, 1, c.LoopCount)
	assert.Equal(t, config.RuntimeJITMS, c.Runtime)
	assert.Equal(t, config.ExecutionDelayed, c.Execution)
	assert.Equal(t, schedule.SelectionList, c.Scheduling)
	assert.Equal(t, schedule.MappingBestFit, c.Mapping)
	assert.Equal(t, config.AllocatorGeneric, c.Allocator)
}

func TestGraphRuntimeOptionsApplyInOrder(t *testing.T) {
	c := config.NewGraphRuntimeConfig(
		config.WithMode(config.ModeInfinite, 0),
		config.WithExecutionPolicy(config.ExecutionJITSend),
		config.WithScheduling(schedule.SelectionRoundRobin),
		config.WithMapping(schedule.MappingLeastLoaded),
		config.WithAllocator(config.AllocatorLinearStatic),
	)
	assert.Equal(t, config.ModeInfinite, c.Mode)
	assert.Equal(t, 0, c.LoopCount)
	assert.Equal(t, config.ExecutionJITSend, c.Execution)
	assert.Equal(t, schedule.SelectionRoundRobin, c.Scheduling)
	assert.Equal(t, schedule.MappingLeastLoaded, c.Mapping)
	assert.Equal(t, config.AllocatorLinearStatic, c.Allocator)
}

func TestModeAndPolicyStringers(t *testing.T) {
	assert.Equal(t, "LOOP", config.ModeLoop.String())
	assert.Equal(t, "EXTERN_LOOP", config.ModeExternLoop.String())
	assert.Equal(t, "JITMS", config.RuntimeJITMS.String())
	assert.Equal(t, "DELAYED", config.ExecutionDelayed.String())
	assert.Equal(t, "JIT_SEND", config.ExecutionJITSend.String())
	assert.Equal(t, "GENERIC", config.AllocatorGeneric.String())
	assert.Equal(t, "LINEAR_STATIC", config.AllocatorLinearStatic.String())
}

func TestLoadStartupConfigFromYAML(t *testing.T) {
	r := strings.NewReader(`
verbose: true
standalone: true
cluster_index: 3
general_stack_policy: LINEAR_STATIC
general_stack_size: 8192
export_srdag: true
export_trace: false
adaptive_static: true
`)
	c, err := config.LoadStartupConfig(r)
	require.NoError(t, err)
	assert.True(t, c.Verbose)
	assert.True(t, c.Standalone)
	assert.Equal(t, 3, c.ClusterIndex)
	assert.Equal(t, config.AllocatorLinearStatic, c.GeneralStackPolicy)
	assert.Equal(t, 8192, c.GeneralStackSize)
	assert.True(t, c.ExportSRDAG)
	assert.False(t, c.ExportTrace)
	assert.True(t, c.AdaptiveStatic)
}

func TestLoadStartupConfigEmptyInputUsesDefaults(t *testing.T) {
	c, err := config.LoadStartupConfig(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, config.AllocatorGeneric, c.GeneralStackPolicy)
	assert.Equal(t, 1<<20, c.GeneralStackSize)
	assert.False(t, c.Standalone)
}
