package calc

import (
	"io"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/zephyrtronium/bigfloat"
)

// DefaultMaxExp is the default limit on the binary exponent of any value
// computed in a context.
const DefaultMaxExp = 4096

// Context is a context for evaluating expressions. It is not safe to use a
// Context concurrently.
type Context struct {
	stack  []*big.Float
	nums   map[string]*big.Float
	names  map[string]*big.Float
	prec   uint
	maxexp int
	err    error
	busy   bool
}

// ContextOption is an option used when creating a context.
type ContextOption interface {
	ctxOption()
}

type (
	varopt struct {
		name string
		val  *big.Float
	}
	varsopt   map[string]*big.Float
	precopt   uint
	maxexpopt int
)

func (varopt) ctxOption()    {}
func (varsopt) ctxOption()   {}
func (precopt) ctxOption()   {}
func (maxexpopt) ctxOption() {}

// SetVar sets the value of a variable in the context.
func SetVar(name string, val *big.Float) ContextOption {
	return varopt{name, val}
}

// SetVars sets the values of any number of variables in the context.
func SetVars(vars map[string]*big.Float) ContextOption {
	return varsopt(vars)
}

// Prec sets the precision of calculations. A precision of 53 rounds every
// operation the way IEEE-754 double precision does.
func Prec(prec uint) ContextOption {
	return precopt(prec)
}

// MaxExp sets the largest binary exponent a value may have. Operations
// producing larger magnitudes fail with an OverflowError. Magnitudes smaller
// than 2**-exp become zero.
func MaxExp(exp int) ContextOption {
	return maxexpopt(exp)
}

// NewContext creates a new evaluation context. If no precision is given, the
// default is 64.
func NewContext(opts ...ContextOption) *Context {
	ctx := Context{nums: make(map[string]*big.Float), prec: 64, maxexp: DefaultMaxExp}
	return ctx.Clone(opts...)
}

// Eval evaluates an expression and returns the result. If an error occurs,
// e.g. a missing variable definition or an argument to a function is outside
// the function's domain, then the result is nil and ctx.Err returns the error.
// The context may be reused for another expression after an error.
func (ctx *Context) Eval(e *Expr) *big.Float {
	if ctx.busy {
		panic("calc: Eval during Eval")
	}
	if len(ctx.stack) > 0 {
		// Keep the previous result valid for whoever holds it.
		ctx.stack[0] = new(big.Float).SetPrec(ctx.prec)
	}
	ctx.stack = ctx.stack[:0]
	ctx.busy = true
	err := e.n.eval(ctx)
	ctx.busy = false
	ctx.err = err
	if err != nil {
		ctx.stack = ctx.stack[:0]
		return nil
	}
	return ctx.Result()
}

// Eval is a shortcut for ctx.Eval(e).
func (e *Expr) Eval(ctx *Context) *big.Float {
	return ctx.Eval(e)
}

// Result returns the result obtained after evaluating an expression. Returns
// nil if no expression has been evaluated or if an error occurred during
// evaluation.
func (ctx *Context) Result() *big.Float {
	if ctx.err != nil {
		return nil
	}
	switch len(ctx.stack) {
	case 0:
		return nil
	case 1:
		return ctx.stack[0]
	default:
		panic("calc: inconsistent stack: " + strconv.Itoa(len(ctx.stack)) + " items (bad AST?)")
	}
}

// Err returns the error from the last expression evaluated with ctx, if any.
func (ctx *Context) Err() error {
	return ctx.err
}

// Set sets the value of a variable. Returns ctx for chaining. Calling Set
// while the context is being used to evaluate an expression panics.
func (ctx *Context) Set(name string, value *big.Float) *Context {
	if ctx.busy {
		panic("calc: Set on in-use context")
	}
	if ctx.names == nil {
		ctx.names = make(map[string]*big.Float)
	}
	ctx.names[name] = new(big.Float).SetPrec(ctx.prec).Set(value)
	return ctx
}

// Lookup returns a copy of the value of a variable. If there is no such
// variable in the context, then the result is nil.
func (ctx *Context) Lookup(name string) *big.Float {
	v := ctx.names[name]
	if v == nil {
		return nil
	}
	return new(big.Float).Copy(v)
}

// Prec returns the precision to which values are computed in the context.
func (ctx *Context) Prec() uint {
	return ctx.prec
}

// MaxExp returns the largest binary exponent allowed in the context.
func (ctx *Context) MaxExp() int {
	return ctx.maxexp
}

// Clone creates a copy of a context and applies options to it. The returned
// context has no Result and is safe to use to evaluate an expression.
func (ctx *Context) Clone(opts ...ContextOption) *Context {
	n := Context{
		stack:  make([]*big.Float, 0, cap(ctx.stack)),
		nums:   make(map[string]*big.Float, len(ctx.nums)),
		names:  make(map[string]*big.Float, len(ctx.names)),
		prec:   ctx.prec,
		maxexp: ctx.maxexp,
	}
	// First, check for a precision setting. Loop backward so we apply the last
	// precision.
	for i := len(opts) - 1; i >= 0; i-- {
		if p, ok := opts[i].(precopt); ok {
			n.prec = uint(p)
			break
		}
	}
	// Cached literals are only reusable at the same precision.
	if n.prec == ctx.prec {
		for k, v := range ctx.nums {
			n.nums[k] = v
		}
	}
	// Copy variables. (We always need a copy in case of Set.) If we have the
	// same precision, we can just copy pointers.
	if n.prec == ctx.prec {
		for name, val := range ctx.names {
			n.names[name] = val
		}
	} else {
		for name, val := range ctx.names {
			n.names[name] = new(big.Float).SetPrec(n.prec).Set(val)
		}
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		switch opt := opt.(type) {
		case varopt:
			n.names[opt.name] = new(big.Float).SetPrec(n.prec).Set(opt.val)
		case varsopt:
			for k, v := range opt {
				n.names[k] = new(big.Float).SetPrec(n.prec).Set(v)
			}
		case maxexpopt:
			n.maxexp = int(opt)
		case precopt:
			// Already done. Do nothing.
		default:
			panic("calc: unknown option type")
		}
	}
	return &n
}

// push ensures a settable value on the stack.
func (ctx *Context) push() *big.Float {
	if len(ctx.stack) < cap(ctx.stack) {
		ctx.stack = ctx.stack[:len(ctx.stack)+1]
		if ctx.stack[len(ctx.stack)-1] == nil {
			ctx.stack[len(ctx.stack)-1] = new(big.Float).SetPrec(ctx.prec)
		}
	} else {
		ctx.stack = append(ctx.stack, new(big.Float).SetPrec(ctx.prec))
	}
	return ctx.stack[len(ctx.stack)-1]
}

// pop removes the top from the stack and returns it. The returned value may be
// modified by future node evaluations.
func (ctx *Context) pop() *big.Float {
	r := ctx.stack[len(ctx.stack)-1]
	ctx.stack = ctx.stack[:len(ctx.stack)-1]
	return r
}

// top is a shortcut to get the top element of the stack.
func (ctx *Context) top() *big.Float {
	return ctx.stack[len(ctx.stack)-1]
}

// num gets a possibly cached number from its text.
func (ctx *Context) num(s string) (*big.Float, error) {
	if r := ctx.nums[s]; r != nil {
		return r, nil
	}
	r, _, err := new(big.Float).SetPrec(ctx.prec).Parse(s, 10)
	switch {
	case err == nil: // do nothing
	case err.Error() == "exponent overflow",
		strings.HasSuffix(err.Error(), ": value out of range"):
		// There isn't realistically any better way to detect this error.
		return nil, &OverflowError{Func: s}
	default:
		panic("calc: invalid number: " + s + " (" + err.Error() + ")")
	}
	if err := ctx.settle(r, s); err != nil {
		return nil, err
	}
	ctx.nums[s] = r
	return r, nil
}

// settle checks that v is within the context's exponent range. Overlarge
// values are an OverflowError attributed to op. Tiny values flush to zero.
func (ctx *Context) settle(v *big.Float, op string) error {
	if v.IsInf() {
		return &OverflowError{Func: op}
	}
	if v.Sign() == 0 {
		return nil
	}
	switch exp := v.MantExp(nil); {
	case exp > ctx.maxexp:
		return &OverflowError{Func: op}
	case exp < -ctx.maxexp:
		v.SetInt64(0)
	}
	return nil
}

// operands evaluates the children of a binary node and returns the left
// operand, which receives the result, and the right operand.
func (n *node) operands(ctx *Context) (l, r *big.Float, err error) {
	if err := n.left.eval(ctx); err != nil {
		return nil, nil, err
	}
	if err := n.right.eval(ctx); err != nil {
		return nil, nil, err
	}
	r = ctx.pop()
	l = ctx.top()
	return l, r, nil
}

// eval pushes the node's value to the context's stack.
func (n *node) eval(ctx *Context) error {
	switch n.kind {
	case nodeNum:
		v, err := ctx.num(n.name)
		if err != nil {
			return err
		}
		ctx.push().Set(v)
	case nodeName:
		v := ctx.names[n.name]
		if v == nil {
			return &NameError{Name: n.name}
		}
		ctx.push().Set(v)
	case nodeCall:
		r := ctx.push()
		k := len(ctx.stack)
		for l := n.right; l != nil; l = l.right {
			if err := l.left.eval(ctx); err != nil {
				return err
			}
		}
		invoc := ctx.stack[k:len(ctx.stack):len(ctx.stack)]
		if err := n.fn.Call(ctx, invoc, r); err != nil {
			return err
		}
		ctx.stack = ctx.stack[:k]
		return ctx.settle(r, n.name)
	case nodeArg:
		panic("calc: eval on nodeArg")
	case nodeNeg:
		if err := n.left.eval(ctx); err != nil {
			return err
		}
		v := ctx.top()
		v.Neg(v)
	case nodeNop:
		if err := n.left.eval(ctx); err != nil {
			return err
		}
	case nodeAdd:
		l, r, err := n.operands(ctx)
		if err != nil {
			return err
		}
		l.Add(l, r)
		return ctx.settle(l, "+")
	case nodeSub:
		l, r, err := n.operands(ctx)
		if err != nil {
			return err
		}
		l.Sub(l, r)
		return ctx.settle(l, "-")
	case nodeMul:
		l, r, err := n.operands(ctx)
		if err != nil {
			return err
		}
		l.Mul(l, r)
		return ctx.settle(l, "*")
	case nodeDiv:
		l, r, err := n.operands(ctx)
		if err != nil {
			return err
		}
		if r.Sign() == 0 {
			return &ZeroDivisionError{Func: "/"}
		}
		l.Quo(l, r)
		return ctx.settle(l, "/")
	case nodeFloorDiv:
		l, r, err := n.operands(ctx)
		if err != nil {
			return err
		}
		if r.Sign() == 0 {
			return &ZeroDivisionError{Func: "//"}
		}
		q, _ := floorDivMod(l, r)
		l.SetInt(q)
		return ctx.settle(l, "//")
	case nodeMod:
		l, r, err := n.operands(ctx)
		if err != nil {
			return err
		}
		if r.Sign() == 0 {
			return &ZeroDivisionError{Func: "%"}
		}
		// The result takes the sign of the divisor.
		_, m := floorDivMod(l, r)
		l.SetRat(m)
		return ctx.settle(l, "%")
	case nodePow:
		l, r, err := n.operands(ctx)
		if err != nil {
			return err
		}
		return ctx.pow(l, r)
	default:
		panic("calc: invalid AST node " + n.kind.String())
	}
	return nil
}

// pow sets l to l**r.
func (ctx *Context) pow(l, r *big.Float) error {
	switch {
	case r.Sign() == 0:
		// Including 0**0.
		l.SetInt64(1)
		return nil
	case l.Sign() == 0:
		if r.Sign() < 0 {
			return &ZeroDivisionError{Func: "**"}
		}
		l.SetInt64(0)
		return nil
	case !r.IsInt() && l.Signbit():
		return &DomainError{X: new(big.Float).Copy(l), Func: "**"}
	}
	// Decide overflow before doing any work, since the exponent may be huge.
	rf, _ := r.Float64()
	switch est := rf * log2abs(l); {
	case est > float64(ctx.maxexp)+1:
		return &OverflowError{Func: "**"}
	case est < -float64(ctx.maxexp)-1:
		l.SetInt64(0)
		return nil
	}
	if !r.IsInt() {
		bigfloat.Pow(l, l, r)
		return ctx.settle(l, "**")
	}
	n, _ := new(big.Float).Abs(r).Int(nil)
	// Square and multiply with guard bits so that results representable in
	// the context's precision come out exact.
	x := new(big.Float).SetPrec(ctx.prec + 64).Set(l)
	z := new(big.Float).SetPrec(ctx.prec + 64).SetInt64(1)
	for i := n.BitLen() - 1; i >= 0; i-- {
		z.Mul(z, z)
		if n.Bit(i) != 0 {
			z.Mul(z, x)
		}
	}
	if r.Sign() < 0 {
		z.Quo(new(big.Float).SetPrec(z.Prec()).SetInt64(1), z)
	}
	l.Set(z)
	return ctx.settle(l, "**")
}

// log2abs approximates log2(|x|) for nonzero x.
func log2abs(x *big.Float) float64 {
	var m big.Float
	exp := x.MantExp(&m)
	f, _ := m.Float64()
	return float64(exp) + math.Log2(math.Abs(f))
}

// floorDivMod returns floor(l/r) and l - r*floor(l/r), both exact. Rounding
// each to the context's precision gives what Python's // and % give for
// floats at that precision. r must be nonzero.
func floorDivMod(l, r *big.Float) (*big.Int, *big.Rat) {
	x, _ := l.Rat(nil)
	y, _ := r.Rat(nil)
	z := new(big.Rat).Quo(x, y)
	// Denominators are positive, so Euclidean division is floor division.
	q := new(big.Int).Div(z.Num(), z.Denom())
	m := new(big.Rat).SetInt(q)
	m.Sub(x, m.Mul(m, y))
	return q, m
}

// floor sets x to the greatest integer no greater than x.
func floor(x *big.Float) {
	if x.IsInt() {
		return
	}
	i, _ := x.Int(nil)
	if x.Sign() < 0 {
		i.Sub(i, big.NewInt(1))
	}
	x.SetInt(i)
}

// ceil sets x to the least integer no less than x.
func ceil(x *big.Float) {
	if x.IsInt() {
		return
	}
	i, _ := x.Int(nil)
	if x.Sign() > 0 {
		i.Add(i, big.NewInt(1))
	}
	x.SetInt(i)
}

// Eval is a shortcut to parse an expression and return its result using the
// default functions.
func Eval(src io.RuneScanner, opts ...ContextOption) (*big.Float, error) {
	ctx := NewContext(opts...)
	a, err := Parse(src)
	if err != nil {
		return nil, err
	}
	ctx.Eval(a)
	return ctx.Result(), ctx.Err()
}

// EvalString is a shortcut to parse and evaluate a string expression.
func EvalString(src string, opts ...ContextOption) (*big.Float, error) {
	return Eval(strings.NewReader(src), opts...)
}

// NameError is an error from a lookup for a variable that is missing from the
// evaluation context.
type NameError struct {
	// Name is the name that was missing.
	Name string
}

func (err *NameError) Error() string {
	return "undefined variable: " + strconv.Quote(err.Name)
}

// ZeroDivisionError is an error from dividing by zero, including raising zero
// to a negative power.
type ZeroDivisionError struct {
	// Func is the operator or function that divided.
	Func string
}

func (err *ZeroDivisionError) Error() string {
	return "division by zero in " + err.Func
}

// OverflowError is an error from a result too large for the context.
type OverflowError struct {
	// Func is the operator, function, or literal that overflowed.
	Func string
}

func (err *OverflowError) Error() string {
	return "result of " + err.Func + " out of range"
}
