package equations

import (
	"unicode"

	"github.com/zephyrtronium/equations/calc"
)

// Unary is a function of one argument that may wrap groups of operands in
// generated expressions. Name is written into the expression text, and Func
// evaluates it.
type Unary struct {
	// Name is the function name as it appears in expressions. It must be a
	// valid identifier.
	Name string
	// Func evaluates the function. It must accept one argument.
	Func calc.Func
	// Limited marks functions whose applications are capped by
	// MaxFactorials, because each application can grow results enormously.
	Limited bool
}

// Predefined unary functions.
var (
	Abs       = Unary{Name: "abs", Func: calc.Lookup("abs")}
	Neg       = Unary{Name: "neg", Func: calc.Lookup("neg")}
	Floor     = Unary{Name: "floor", Func: calc.Lookup("floor")}
	Ceil      = Unary{Name: "ceil", Func: calc.Lookup("ceil")}
	Sqrt      = Unary{Name: "sqrt", Func: calc.Lookup("sqrt")}
	Factorial = Unary{Name: "factorial", Func: calc.Lookup("factorial"), Limited: true}
)

// LookupUnary returns the predefined unary function with the given name.
func LookupUnary(name string) (Unary, bool) {
	for _, u := range []Unary{Abs, Neg, Floor, Ceil, Sqrt, Factorial} {
		if u.Name == name {
			return u, true
		}
	}
	return Unary{}, false
}

// check reports why u cannot be used, or nil if it can.
func (u Unary) check() error {
	if u.Name == "" {
		return &ConfigError{Field: "unary", Reason: "empty name"}
	}
	for i, r := range u.Name {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return &ConfigError{Field: "unary", Reason: "name " + u.Name + " is not an identifier"}
	}
	if u.Func == nil || !u.Func.CanCall(1) {
		return &ConfigError{Field: "unary", Reason: u.Name + " cannot be called with one argument"}
	}
	return nil
}
