package config

import "github.com/spider2/runtime/schedule"

// AllocatorPolicy selects how the general-purpose arena stacks are sized
// and reclaimed (original_source's SpiderAllocatorType: GENERIC is the
// dynamic default, LINEAR_STATIC the fixed-size bump variant arena.Stack
// itself implements).
type AllocatorPolicy int

const (
	AllocatorGeneric AllocatorPolicy = iota
	AllocatorLinearStatic
)

func (p AllocatorPolicy) String() string {
	switch p {
	case AllocatorGeneric:
		return "GENERIC"
	case AllocatorLinearStatic:
		return "LINEAR_STATIC"
	default:
		return "UNKNOWN"
	}
}

// Mode is the iteration driver for a graph (spec.md §6 "Mode ∈ {LOOP,
// INFINITE, EXTERN_LOOP}").
type Mode int

const (
	ModeLoop Mode = iota
	ModeInfinite
	ModeExternLoop
)

func (m Mode) String() string {
	switch m {
	case ModeLoop:
		return "LOOP"
	case ModeInfinite:
		return "INFINITE"
	case ModeExternLoop:
		return "EXTERN_LOOP"
	default:
		return "UNKNOWN"
	}
}

// RuntimeType names the dispatch strategy a Runtime implements. JITMS
// (just-in-time master-slave) is the only one spec.md names and the only
// one this module implements (package runtime).
type RuntimeType int

const (
	RuntimeJITMS RuntimeType = iota
)

func (t RuntimeType) String() string {
	switch t {
	case RuntimeJITMS:
		return "JITMS"
	default:
		return "UNKNOWN"
	}
}

// ExecutionPolicy controls when a mapped task's job message is pushed to
// its LRT (spec.md §6 "execution policy (DELAYED, JIT_SEND)").
type ExecutionPolicy int

const (
	ExecutionDelayed ExecutionPolicy = iota
	ExecutionJITSend
)

func (p ExecutionPolicy) String() string {
	switch p {
	case ExecutionDelayed:
		return "DELAYED"
	case ExecutionJITSend:
		return "JIT_SEND"
	default:
		return "UNKNOWN"
	}
}

// StartupConfig holds the process-wide flags spec.md §6 lists under
// "Startup configuration": verbose, standalone (runner-only, no GRT
// locally), the general-stack allocator policy and size, SRDAG/trace
// export toggles, adaptive-static scheduling, and the standalone
// cluster index a runner binary serves (spec.md §6 "Environment").
type StartupConfig struct {
	Verbose    bool
	Standalone bool

	GeneralStackPolicy AllocatorPolicy
	GeneralStackSize   int

	ExportSRDAG bool
	ExportTrace bool

	AdaptiveStatic bool

	// ClusterIndex is which cluster a standalone runner binary serves;
	// meaningless when Standalone is false.
	ClusterIndex int
}

// StartupOption configures a StartupConfig (lvlath's GraphOption
// pattern: core/types.go's GraphOption func(g *Graph)).
type StartupOption func(*StartupConfig)

func WithVerbose(v bool) StartupOption { return func(c *StartupConfig) { c.Verbose = v } }

func WithStandalone(clusterIndex int) StartupOption {
	return func(c *StartupConfig) {
		c.Standalone = true
		c.ClusterIndex = clusterIndex
	}
}

func WithGeneralStack(policy AllocatorPolicy, size int) StartupOption {
	return func(c *StartupConfig) {
		c.GeneralStackPolicy = policy
		c.GeneralStackSize = size
	}
}

func WithSRDAGExport(v bool) StartupOption { return func(c *StartupConfig) { c.ExportSRDAG = v } }

func WithTraceExport(v bool) StartupOption { return func(c *StartupConfig) { c.ExportTrace = v } }

func WithAdaptiveStatic(v bool) StartupOption { return func(c *StartupConfig) { c.AdaptiveStatic = v } }

// defaultGeneralStackSize matches arena.defaultCapacity (1 MiB); kept
// independent since config must not import arena's unexported default.
const defaultGeneralStackSize = 1 << 20

// NewStartupConfig builds a StartupConfig from defaults plus opts, applied
// in order.
func NewStartupConfig(opts ...StartupOption) *StartupConfig {
	c := &StartupConfig{
		GeneralStackPolicy: AllocatorGeneric,
		GeneralStackSize:   defaultGeneralStackSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GraphRuntimeConfig holds the per-graph execution policy spec.md §6
// lists under "Runtime configuration per graph".
type GraphRuntimeConfig struct {
	Mode      Mode
	LoopCount int

	Runtime   RuntimeType
	Execution ExecutionPolicy

	Scheduling schedule.SelectionKind
	Mapping    schedule.MappingKind

	Allocator AllocatorPolicy
}

// GraphRuntimeOption configures a GraphRuntimeConfig.
type GraphRuntimeOption func(*GraphRuntimeConfig)

func WithMode(m Mode, loopCount int) GraphRuntimeOption {
	return func(c *GraphRuntimeConfig) {
		c.Mode = m
		c.LoopCount = loopCount
	}
}

func WithExecutionPolicy(p ExecutionPolicy) GraphRuntimeOption {
	return func(c *GraphRuntimeConfig) { c.Execution = p }
}

func WithScheduling(s schedule.SelectionKind) GraphRuntimeOption {
	return func(c *GraphRuntimeConfig) { c.Scheduling = s }
}

func WithMapping(m schedule.MappingKind) GraphRuntimeOption {
	return func(c *GraphRuntimeConfig) { c.Mapping = m }
}

func WithAllocator(a AllocatorPolicy) GraphRuntimeOption {
	return func(c *GraphRuntimeConfig) { c.Allocator = a }
}

// NewGraphRuntimeConfig builds a GraphRuntimeConfig from defaults (LOOP
// mode, one iteration, JITMS/DELAYED, list scheduling, best-fit mapping,
// generic allocator) plus opts, applied in order.
func NewGraphRuntimeConfig(opts ...GraphRuntimeOption) *GraphRuntimeConfig {
	c := &GraphRuntimeConfig{
		Mode:       ModeLoop,
		LoopCount:  1,
		Runtime:    RuntimeJITMS,
		Execution:  ExecutionDelayed,
		Scheduling: schedule.SelectionList,
		Mapping:    schedule.MappingBestFit,
		Allocator:  AllocatorGeneric,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
