package expr

import (
	"errors"
	"fmt"
	"math"
)

// Environment resolves identifiers referenced by a compiled Expression.
// param.Env implements this interface; expr never imports param so the
// expression compiler stays usable as a standalone black box.
type Environment interface {
	// Lookup returns the current value of name, whether it is dynamic
	// (not yet fixed for the remainder of the run), and whether it is
	// known at all. Compile validates every identifier by calling Lookup
	// on the compile-time environment; ok == false there fails the
	// compile with ErrUnknownIdentifier.
	Lookup(name string) (value float64, dynamic bool, ok bool)
}

// Expression is a compiled arithmetic expression over a parameter
// environment, per spec.md §4.7.
type Expression interface {
	// Eval evaluates the expression against env, returning both a float64
	// and a truncated int64 (token rates are integers; PE timings may be
	// fractional).
	Eval(env Environment) (float64, int64, error)

	// Dynamic reports whether any referenced identifier is dynamic.
	Dynamic() bool

	// String returns the original source text.
	String() string
}

// ErrUnbalancedParens is returned for mismatched parentheses.
var ErrUnbalancedParens = errors.New("expr: unbalanced parentheses")

// ErrUnknownIdentifier is returned when an identifier is not known to the
// environment it is bound or evaluated against (including a nil
// environment), or when a call names a function the compiler does not
// provide.
var ErrUnknownIdentifier = errors.New("expr: unknown identifier")

// ErrArity is returned when a function call has the wrong argument count.
var ErrArity = errors.New("expr: wrong number of arguments")

type evalError struct {
	op  string
	err error
}

func (e *evalError) Error() string { return fmt.Sprintf("expr: %s: %v", e.op, e.err) }
func (e *evalError) Unwrap() error { return e.err }

// node is the AST produced by parse(); every node can evaluate itself
// against an Environment. bind resolves identifiers against the
// compile-time environment so dynamic() reflects each referenced
// parameter's actual kind rather than merely "is an identifier".
type node interface {
	eval(env Environment) (float64, error)
	bind(env Environment) error
	dynamic() bool
	String() string
}

// compiled wraps a parsed node and implements Expression. Static
// expressions precompute their value once, per the design note in
// spec.md §9 ("Expression closures").
type compiled struct {
	src    string
	root   node
	isDyn  bool
	static float64
	hasVal bool
}

func (c *compiled) String() string { return c.src }
func (c *compiled) Dynamic() bool  { return c.isDyn }

func (c *compiled) Eval(env Environment) (float64, int64, error) {
	if c.hasVal {
		return c.static, int64(math.Trunc(c.static)), nil
	}
	v, err := c.root.eval(env)
	if err != nil {
		return 0, 0, err
	}
	return v, int64(math.Trunc(v)), nil
}

// Compile parses src and binds every identifier it references against env
// (the parameter vector, per spec.md §4.7 — "compiles an input string plus
// a parameter vector"). env may be nil only if src contains no
// identifiers (use CompileConst for that case). An expression that
// references no dynamic parameter is evaluated once here and its value
// cached, per the §9 "Expression closures" design note; an expression with
// any dynamic reference is walked in full on every Eval (static
// subexpressions inside it are not folded).
func Compile(src string, env Environment) (Expression, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	root, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.toks) {
		return nil, fmt.Errorf("%w: trailing input at %q", ErrUnbalancedParens, p.toks[p.pos].text)
	}
	if err := root.bind(env); err != nil {
		return nil, err
	}

	c := &compiled{src: src, root: root, isDyn: root.dynamic()}
	if !c.isDyn {
		v, err := root.eval(env)
		if err != nil {
			return nil, err
		}
		c.hasVal = true
		c.static = v
	}
	return c, nil
}

// CompileConst compiles a literal expression that references no
// parameters (e.g. a fixed port rate "4" or "2*3").
func CompileConst(src string) (Expression, error) {
	return Compile(src, nil)
}

// MustCompile is Compile but panics on error; useful for literal constant
// rate expressions baked in by tests and examples.
func MustCompile(src string, env Environment) Expression {
	e, err := Compile(src, env)
	if err != nil {
		panic(err)
	}
	return e
}

// MustCompileConst is CompileConst but panics on error.
func MustCompileConst(src string) Expression {
	e, err := CompileConst(src)
	if err != nil {
		panic(err)
	}
	return e
}
