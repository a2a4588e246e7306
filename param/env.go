package param

import (
	"fmt"
	"sync"

	"github.com/spider2/runtime/expr"
)

// Env is a graph's Parameter Environment: the per-graph map from
// parameter name to value or unresolved expression (spec.md §2.1, §3).
// A single RWMutex guards the whole table, matching the locking
// granularity lvlath's core.Graph uses for its vertex catalog — parameter
// tables are small and short-lived (one per graph firing), so splitting
// locks further buys nothing.
type Env struct {
	mu     sync.RWMutex
	params map[string]*Parameter
	order  []string // insertion order, for deterministic iteration/printing
}

// NewEnv returns an empty Parameter Environment.
func NewEnv() *Env {
	return &Env{params: make(map[string]*Parameter)}
}

// AddStatic declares a STATIC parameter with a fixed value.
func (e *Env) AddStatic(name string, value int64) (*Parameter, error) {
	return e.add(&Parameter{Name: name, Kind: Static, value: value, resolved: true})
}

// AddDynamic declares a DYNAMIC parameter with no value yet; it is set
// once per iteration via Resolve, typically from a config actor's output.
func (e *Env) AddDynamic(name string) (*Parameter, error) {
	return e.add(&Parameter{Name: name, Kind: Dynamic})
}

// AddDependent declares a DYNAMIC_DEPENDENT parameter whose value is an
// expression over other parameters already present in this Env.
func (e *Env) AddDependent(name, source string) (*Parameter, error) {
	compiled, err := expr.Compile(source, e)
	if err != nil {
		return nil, fmt.Errorf("param: compiling %q: %w", name, err)
	}
	return e.add(&Parameter{Name: name, Kind: DynamicDependent, expression: compiled})
}

// AddInherited declares an INHERITED parameter that shares parent's value
// by reference. parent is typically owned by the enclosing graph's Env.
func (e *Env) AddInherited(name string, parent *Parameter) (*Parameter, error) {
	parent.addRef()
	p, err := e.add(&Parameter{Name: name, Kind: Inherited, inherited: parent})
	if err != nil {
		parent.release()
		return nil, err
	}
	return p, nil
}

func (e *Env) add(p *Parameter) (*Parameter, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.params[p.Name]; exists {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateParameter, p.Name)
	}
	e.params[p.Name] = p
	e.order = append(e.order, p.Name)
	return p, nil
}

// Get returns the named Parameter, or ErrUnknownParameter.
func (e *Env) Get(name string) (*Parameter, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	p, ok := e.params[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownParameter, name)
	}
	return p, nil
}

// Value looks up and evaluates the named parameter's current value.
func (e *Env) Value(name string) (int64, error) {
	p, err := e.Get(name)
	if err != nil {
		return 0, err
	}
	return p.Value(e)
}

// Dynamic reports whether the named parameter is dynamic.
func (e *Env) Dynamic(name string) (bool, error) {
	p, err := e.Get(name)
	if err != nil {
		return false, err
	}
	return p.Dynamic(), nil
}

// Resolve sets the value of a DYNAMIC parameter, as happens when a config
// actor's output is read back by the GRT (spec.md §2.8, §4.6 JOB_SENT_PARAM).
// It is an error to resolve a non-Dynamic parameter.
func (e *Env) Resolve(name string, value int64) error {
	p, err := e.Get(name)
	if err != nil {
		return err
	}
	if p.Kind != Dynamic {
		return fmt.Errorf("param: %q is %s, not DYNAMIC", name, p.Kind)
	}
	e.mu.Lock()
	p.value = value
	p.resolved = true
	e.mu.Unlock()
	return nil
}

// Names returns parameter names in declaration order.
func (e *Env) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, len(e.order))
	copy(out, e.order)
	return out
}

// Lookup implements expr.Environment so expressions can reference this
// Env's parameters directly (used by AddDependent and by edge rate
// expressions compiled against the owning graph's Env).
func (e *Env) Lookup(name string) (value float64, dynamic bool, ok bool) {
	p, err := e.Get(name)
	if err != nil {
		return 0, false, false
	}
	v, verr := p.Value(e)
	if verr != nil {
		// Unresolved DYNAMIC parameter: still a known, dynamic identifier.
		return 0, true, true
	}
	return float64(v), p.Dynamic(), true
}
