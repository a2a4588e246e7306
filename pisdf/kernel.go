package pisdf

// Kernel is the uniform calling contract for user-supplied actor bodies
// (spec.md §6 "Kernel signature"). The runtime resolves a Kernel by ID at
// dispatch time, per the §9 "dynamic dispatch of kernels" design note —
// the job message carries only the ID, not a function pointer.
type Kernel interface {
	ID() string
	InParams() int
	OutParams() int
}

// RuntimeInfo holds a vertex's mappability and per-PE timing (spec.md §3
// "a runtime info record"). Each per-PE timing is a Timing evaluated
// against a parameter lookup at mapping time, since execution time may
// itself depend on a resolved parameter.
type RuntimeInfo struct {
	peIDs    []string
	timingBy map[string]Timing
}

// Timing is anything schedule can ask for an estimated execution time;
// it is an interface rather than an expr.Expression, so any cost model
// with this one method can be attached.
type Timing interface {
	// EvalNanos returns the estimated execution time in nanoseconds.
	EvalNanos(lookup func(name string) (float64, bool, bool)) (int64, error)
}

// NewRuntimeInfo builds a RuntimeInfo from the mappable PE id list.
func NewRuntimeInfo(peIDs ...string) *RuntimeInfo {
	return &RuntimeInfo{peIDs: append([]string(nil), peIDs...), timingBy: make(map[string]Timing)}
}

// MappablePEs returns the PE ids this vertex may be mapped onto.
func (r *RuntimeInfo) MappablePEs() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.peIDs))
	copy(out, r.peIDs)
	return out
}

// Mappable reports whether peID is in this vertex's mappable set.
func (r *RuntimeInfo) Mappable(peID string) bool {
	if r == nil {
		return false
	}
	for _, id := range r.peIDs {
		if id == peID {
			return true
		}
	}
	return false
}

// SetTiming attaches a per-PE timing expression.
func (r *RuntimeInfo) SetTiming(peID string, t Timing) {
	r.timingBy[peID] = t
}

// TimingFor returns the timing expression for peID, if any was set.
func (r *RuntimeInfo) TimingFor(peID string) (Timing, bool) {
	if r == nil {
		return nil, false
	}
	t, ok := r.timingBy[peID]
	return t, ok
}
