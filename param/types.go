package param

import (
	"errors"
	"sync/atomic"

	"github.com/spider2/runtime/expr"
)

// Kind tags the four parameter flavors of spec.md §3.
type Kind int

const (
	// Static parameters are constant integers fixed at graph construction.
	Static Kind = iota
	// Dynamic parameters are set once per iteration by a config actor.
	Dynamic
	// DynamicDependent parameters are an expression over other parameters
	// in the same environment.
	DynamicDependent
	// Inherited parameters share a reference to a parameter of the
	// enclosing graph.
	Inherited
)

func (k Kind) String() string {
	switch k {
	case Static:
		return "STATIC"
	case Dynamic:
		return "DYNAMIC"
	case DynamicDependent:
		return "DYNAMIC_DEPENDENT"
	case Inherited:
		return "INHERITED"
	default:
		return "UNKNOWN"
	}
}

// Sentinel errors for parameter operations.
var (
	ErrDuplicateParameter = errors.New("param: duplicate parameter name in scope")
	ErrUnresolvedParameter = errors.New("param: parameter has no value yet")
	ErrUnknownParameter    = errors.New("param: unknown parameter")
)

// Parameter is one entry of a graph's Parameter Environment. All four
// kinds expose the same value(env)/dynamic() contract (spec.md §3); the
// kind only changes how the value gets there.
type Parameter struct {
	Name string
	Kind Kind

	value    int64
	resolved bool // true once a DYNAMIC parameter has received a value

	expression expr.Expression // DynamicDependent only
	inherited  *Parameter      // Inherited only: the parent's Parameter
	refs       int32           // Inherited only: reference count on inherited
}

// Value returns the parameter's current integer value. For Dynamic
// parameters not yet resolved this returns ErrUnresolvedParameter.
func (p *Parameter) Value(env *Env) (int64, error) {
	switch p.Kind {
	case Static:
		return p.value, nil
	case Dynamic:
		if !p.resolved {
			return 0, ErrUnresolvedParameter
		}
		return p.value, nil
	case DynamicDependent:
		_, i, err := p.expression.Eval(env)
		if err != nil {
			return 0, err
		}
		return i, nil
	case Inherited:
		return p.inherited.Value(env)
	default:
		return 0, ErrUnknownParameter
	}
}

// Dynamic reports whether this parameter (or, transitively, anything it
// depends on) is resolved at runtime rather than at construction time.
func (p *Parameter) Dynamic() bool {
	switch p.Kind {
	case Static:
		return false
	case Dynamic:
		return true
	case DynamicDependent:
		return p.expression.Dynamic()
	case Inherited:
		return p.inherited.Dynamic()
	default:
		return false
	}
}

// addRef increments the reference count on a shared Parameter. Called on
// the parent when a new Inherited wrapper is created pointing at it, so
// sibling graph firings can each hold their own Inherited Parameter
// without racing on the parent's lifetime.
func (p *Parameter) addRef() {
	atomic.AddInt32(&p.refs, 1)
}

// release decrements the reference count, returning true once it reaches
// zero (the caller may then drop its handle to the parent).
func (p *Parameter) release() bool {
	return atomic.AddInt32(&p.refs, -1) <= 0
}
