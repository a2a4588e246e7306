package runtime

import (
	"context"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/spider2/runtime/arena"
	"github.com/spider2/runtime/platform"
)

// Runtime is the top-level object an integrator constructs once per
// application run: the platform description, named scratch arenas, a
// kernel registry, and the transport every GRT/LRT pair is built against
// (spec.md §6 "Startup configuration" + §9 shared arena/platform design
// notes).
type Runtime struct {
	Platform  *platform.Platform
	Arenas    *arena.Set
	Registry  *Registry
	Transport Transport
	Log       hclog.Logger

	lrtIDs []string
	grt    *GRT
	lrts   map[string]*LRT
}

// New builds a Runtime with one LRT per PE id in lrtIDs, wired to a
// ChannelTransport, ready to run. log may be nil, in which case a
// no-op hclog.Logger is used.
func New(plat *platform.Platform, lrtIDs []string, arenaCfg arena.Config, log hclog.Logger) *Runtime {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	registry := NewRegistry()
	transport := NewChannelTransport(lrtIDs, 0)

	r := &Runtime{
		Platform:  plat,
		Arenas:    arena.NewSet(arenaCfg),
		Registry:  registry,
		Transport: transport,
		Log:       log,
		lrtIDs:    append([]string(nil), lrtIDs...),
		lrts:      make(map[string]*LRT, len(lrtIDs)),
	}
	r.grt = NewGRT(lrtIDs, registry, transport, log)
	for _, id := range lrtIDs {
		r.lrts[id] = NewLRT(id, registry, transport, log)
	}
	return r
}

// GRT returns the Runtime's GRT, ready to Iterate once LRTs are running.
func (r *Runtime) GRT() *GRT { return r.grt }

// RunLRTs starts every LRT's reactor loop concurrently and blocks until
// all have returned (ctx cancellation, an error, or LrtStop) — grounded
// on schedule/mapper.go's errgroup.WithContext fan-out shape, reused here
// for the LRT pool instead of per-task candidate evaluation.
func (r *Runtime) RunLRTs(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, id := range r.lrtIDs {
		lrt := r.lrts[id]
		g.Go(func() error { return lrt.Run(ctx) })
	}
	return g.Wait()
}

// CorrelationID returns a fresh id for tagging one iteration's trace
// events (SPEC_FULL.md trace correlation; spec.md carries no wire format
// of its own for this, so a random v4 UUID per iteration is this
// runtime's own bookkeeping device).
func CorrelationID() string {
	return uuid.NewString()
}
