package calc

import (
	"errors"
	"math"
	"math/big"
	"strconv"

	"github.com/zephyrtronium/bigfloat"
)

// Func is a function from reals to reals. Functions may but generally should
// not look up variables. The function should set r to its result and should
// not use the value of r otherwise.
type Func interface {
	// Call evaluates the function. The function arguments are passed in invoc.
	// The function may but generally should not look up variables. The
	// function must set r to its result and should not use the value of r
	// otherwise. invoc has a length for which CanCall returned true. Call may
	// modify the elements of invoc.
	Call(ctx *Context, invoc []*big.Float, r *big.Float) error

	// CanCall returns whether the function can be called with n arguments.
	// A function for which CanCall(0) is true may be written without an
	// argument list, like pi. Any other call needs a bracketed list.
	CanCall(n int) bool
}

// MaxFactorial is the largest argument factorial accepts before reporting
// overflow without computing anything.
const MaxFactorial = 1 << 14

var globalfuncs = map[string]Func{
	"exp":   Monadic(expfn),
	"ln":    Monadic(lnfn),
	"log":   logfn{},
	"sqrt":  Monadic((*big.Float).Sqrt),
	"floor": Monadic(floorfn),
	"ceil":  Monadic(ceilfn),
	"abs":   Monadic((*big.Float).Abs),
	"neg":   Monadic((*big.Float).Neg),

	"factorial": Monadic(factorial),

	// constants
	"pi": Niladic(bigfloat.Pi),
	"e": Niladic(func(out *big.Float) *big.Float {
		var one big.Float
		one.SetFloat64(1)
		return bigfloat.Exp(out, &one)
	}),
}

// Lookup returns the default function with the given name, or nil if there
// is none.
func Lookup(name string) Func {
	return globalfuncs[name]
}

func expfn(out, in *big.Float) *big.Float {
	// e**x overflows 2**max exactly when x > max*ln 2. Check against the
	// largest exponent any context allows before doing the work.
	switch f, _ := in.Float64(); {
	case f > math.MaxInt32*math.Ln2:
		panic(&OverflowError{Func: "exp"})
	case f < -math.MaxInt32*math.Ln2:
		return out.SetInt64(0)
	}
	return bigfloat.Exp(out, in)
}

func lnfn(out, in *big.Float) *big.Float {
	if in.Sign() <= 0 {
		panic(&DomainError{X: new(big.Float).Copy(in), Func: "ln"})
	}
	return bigfloat.Log(out, in)
}

func floorfn(out, in *big.Float) *big.Float {
	out.Set(in)
	floor(out)
	return out
}

func ceilfn(out, in *big.Float) *big.Float {
	out.Set(in)
	ceil(out)
	return out
}

func factorial(out, in *big.Float) *big.Float {
	if !in.IsInt() || in.Sign() < 0 {
		panic(&DomainError{X: new(big.Float).Copy(in), Func: "factorial"})
	}
	n, acc := in.Int64()
	if acc != big.Exact || n > MaxFactorial {
		panic(&OverflowError{Func: "factorial"})
	}
	if n < 2 {
		return out.SetInt64(1)
	}
	return out.SetInt(new(big.Int).MulRange(1, n))
}

// logfn is the common logarithm log(x) or the logarithm to any base,
// log(x, b).
type logfn struct{}

func (logfn) Call(ctx *Context, invoc []*big.Float, r *big.Float) error {
	x := invoc[0]
	if x.Sign() <= 0 {
		return &DomainError{X: new(big.Float).Copy(x), Arg: 1, Func: "log"}
	}
	base := new(big.Float).SetPrec(ctx.Prec()).SetInt64(10)
	if len(invoc) == 2 {
		base.Set(invoc[1])
		if base.Sign() <= 0 {
			return &DomainError{X: new(big.Float).Copy(base), Arg: 2, Func: "log"}
		}
	}
	r.SetPrec(ctx.Prec())
	bigfloat.Log(r, x)
	bigfloat.Log(base, base)
	if base.Sign() == 0 {
		return &ZeroDivisionError{Func: "log"}
	}
	r.Quo(r, base)
	return nil
}

func (logfn) CanCall(n int) bool {
	return n == 1 || n == 2
}

type monadic struct {
	f func(out, in *big.Float) *big.Float
}

func (m monadic) Call(ctx *Context, invoc []*big.Float, r *big.Float) (err error) {
	in := invoc[0]
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		err = r.(error) // panic if not error
		var (
			de *DomainError
			oe *OverflowError
			ze *ZeroDivisionError
		)
		if errors.As(err, &de) || errors.As(err, &oe) || errors.As(err, &ze) || errors.As(err, new(big.ErrNaN)) {
			return
		}
		panic(err)
	}()
	r.SetPrec(ctx.Prec())
	m.f(r, in)
	return nil
}

func (m monadic) CanCall(n int) bool {
	return n == 1
}

// Monadic wraps a function of one variable into a Func. f must set out to its
// result, to the precision of out; its return value is always ignored. If f is
// called on an argument outside f's domain, it should panic with a
// *DomainError or big.ErrNaN. It may also panic with *OverflowError or
// *ZeroDivisionError.
func Monadic(f func(out, in *big.Float) *big.Float) Func {
	return monadic{f}
}

type niladic struct {
	f func(out *big.Float) *big.Float
}

func (n niladic) Call(ctx *Context, invoc []*big.Float, r *big.Float) (err error) {
	r.SetPrec(ctx.Prec())
	n.f(r)
	return nil
}

func (n niladic) CanCall(k int) bool {
	return k == 0
}

// Niladic wraps a function of zero variables, generally a function which
// computes a constant, into a Func. f must set out to its result; its return
// value is always ignored. Unlike Monadic, the wrapped function is expected
// never to panic.
func Niladic(f func(out *big.Float) *big.Float) Func {
	return niladic{f}
}

// DomainError is an error returned when a function is called on arguments
// outside its domain. DomainError unwraps to big.ErrNaN.
type DomainError struct {
	// X is the out-of-domain argument.
	X *big.Float
	// Arg is the 1-based index of the argument.
	Arg int
	// Func is a name identifying the function.
	Func string
}

func (err *DomainError) Error() string {
	r := err.X.String() + " outside domain"
	if err.Func != "" {
		r += " of " + err.Func
	}
	if err.Arg > 0 {
		r += " (argument " + strconv.Itoa(err.Arg) + ")"
	}
	return r
}

func (err *DomainError) Unwrap() error {
	return big.ErrNaN{}
}
