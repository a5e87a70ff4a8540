package equations

import (
	"context"
	"errors"
	"math"
	"math/big"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zephyrtronium/equations/calc"
)

// Fault is the reason a candidate expression failed to evaluate.
type Fault int8

const (
	FaultNone Fault = iota
	// FaultZeroDivision is division or modulo by zero, or zero to a negative
	// power.
	FaultZeroDivision
	// FaultSyntax is an expression that does not parse, such as "01+2" or
	// "1.2.3".
	FaultSyntax
	// FaultType is a misapplied call, such as "3(1+2)".
	FaultType
	// FaultName is a reference to an undefined name.
	FaultName
	// FaultDomain is an argument outside a function's domain, such as a
	// negative base with a fractional exponent.
	FaultDomain
	// FaultOverflow is a result too large to represent.
	FaultOverflow
)

var faultNames = [...]string{
	FaultNone:         "none",
	FaultZeroDivision: "zero division",
	FaultSyntax:       "syntax",
	FaultType:         "type",
	FaultName:         "name",
	FaultDomain:       "domain",
	FaultOverflow:     "overflow",
}

func (f Fault) String() string {
	if f < 0 || int(f) >= len(faultNames) {
		return "Fault(" + strconv.Itoa(int(f)) + ")"
	}
	return faultNames[f]
}

// classify determines the fault for an error from parsing or evaluation.
func classify(err error) Fault {
	var (
		zd   *calc.ZeroDivisionError
		over *calc.OverflowError
		dom  *calc.DomainError
		name *calc.NameError
		call *calc.CallError
		adj  *calc.AdjacentError
	)
	switch {
	case errors.As(err, &zd):
		return FaultZeroDivision
	case errors.As(err, &over):
		return FaultOverflow
	case errors.As(err, &dom), errors.As(err, new(big.ErrNaN)):
		return FaultDomain
	case errors.As(err, &name):
		return FaultName
	case errors.As(err, &call):
		return FaultType
	case errors.As(err, &adj) && adj.Text == calc.OpenBracket:
		// A bracket after a term reads as calling the term.
		return FaultType
	default:
		return FaultSyntax
	}
}

// outcome is the result of evaluating one candidate: a value, or the fault
// that prevented one.
type outcome struct {
	value *big.Float
	fault Fault
}

// Result is the outcome of a Solve.
type Result struct {
	// Hits maps each goal to the expressions equal to it, in generation
	// order. Every goal has an entry, even if no expression reaches it.
	Hits map[float64][]string
	// Candidates is the number of expressions evaluated.
	Candidates int
	// Faults counts the candidates that failed to evaluate, by reason.
	Faults map[Fault]int
}

// matcher evaluates candidates and collects those equal to a goal. Each
// matcher belongs to one goroutine.
type matcher struct {
	ctx    *calc.Context
	parse  []calc.ParseOption
	goals  map[float64]int
	hits   [][]string
	cands  int
	faults [len(faultNames)]int
}

func (s *Solver) newMatcher(goals []float64) *matcher {
	m := matcher{
		ctx:   calc.NewContext(calc.Prec(s.prec)),
		parse: s.parse,
		goals: make(map[float64]int, len(goals)),
		hits:  make([][]string, len(goals)),
	}
	for i, g := range goals {
		m.goals[g] = i
	}
	return &m
}

func (m *matcher) eval(expr string) outcome {
	e, err := calc.ParseString(expr, m.parse...)
	if err != nil {
		return outcome{fault: classify(err)}
	}
	v := m.ctx.Eval(e)
	if v == nil {
		return outcome{fault: classify(m.ctx.Err())}
	}
	return outcome{value: v}
}

func (m *matcher) match(expr string) error {
	m.cands++
	o := m.eval(expr)
	if o.fault != FaultNone {
		m.faults[o.fault]++
		return nil
	}
	// A value equals a goal exactly only if it converts to it exactly.
	f, acc := o.value.Float64()
	if acc != big.Exact {
		return nil
	}
	if i, ok := m.goals[f]; ok {
		m.hits[i] = append(m.hits[i], expr)
	}
	return nil
}

// normalizeGoals removes duplicate goals, keeping the first of each.
func normalizeGoals(goals []float64) ([]float64, error) {
	if len(goals) == 0 {
		return nil, &ConfigError{Field: "goals", Reason: "no goals"}
	}
	r := make([]float64, 0, len(goals))
	for _, g := range goals {
		if math.IsNaN(g) || math.IsInf(g, 0) {
			return nil, &ConfigError{Field: "goals", Reason: "goal " + strconv.FormatFloat(g, 'g', -1, 64) + " is not finite"}
		}
		if !containsFloat(r, g) {
			r = append(r, g)
		}
	}
	return r, nil
}

func containsFloat(s []float64, x float64) bool {
	for _, v := range s {
		if v == x {
			return true
		}
	}
	return false
}

// Solve evaluates every candidate expression for the operands and returns
// those equal to each goal. Candidates that fail to evaluate are counted and
// skipped. Only invalid configuration, cancellation, and exceeding
// MaxCandidates are errors.
func (s *Solver) Solve(ctx context.Context, goals []float64, numbers []string) (*Result, error) {
	p, err := s.plan(numbers)
	if err != nil {
		return nil, err
	}
	goals, err = normalizeGoals(goals)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	var parts []*matcher
	if s.workers <= 1 || len(p.orderings) == 1 {
		m := s.newMatcher(goals)
		if err := p.each(ctx, m.match); err != nil {
			return nil, err
		}
		parts = []*matcher{m}
	} else {
		// Each operand order is a separate job so that merging in order
		// reproduces the sequential result exactly.
		parts = make([]*matcher, len(p.orderings))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.workers)
		for i, ord := range p.orderings {
			i, ord := i, ord
			g.Go(func() error {
				m := s.newMatcher(goals)
				parts[i] = m
				return p.ordering(gctx, ord, m.match)
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}
	r := Result{
		Hits:   make(map[float64][]string, len(goals)),
		Faults: make(map[Fault]int),
	}
	for i, g := range goals {
		r.Hits[g] = []string{}
		for _, m := range parts {
			r.Hits[g] = append(r.Hits[g], m.hits[i]...)
		}
	}
	for _, m := range parts {
		r.Candidates += m.cands
		for f, n := range m.faults {
			if n != 0 {
				r.Faults[Fault(f)] += n
			}
		}
	}
	s.logResult(&r, time.Since(start))
	return &r, nil
}

func (s *Solver) logResult(r *Result, d time.Duration) {
	if ce := s.log.Check(zap.DebugLevel, "solved"); ce != nil {
		hits := 0
		for _, v := range r.Hits {
			hits += len(v)
		}
		fields := []zap.Field{
			zap.Int("candidates", r.Candidates),
			zap.Int("hits", hits),
			zap.Duration("elapsed", d),
		}
		for f := FaultZeroDivision; int(f) < len(faultNames); f++ {
			if n := r.Faults[f]; n != 0 {
				fields = append(fields, zap.Int("faults."+f.String(), n))
			}
		}
		ce.Write(fields...)
	}
}

// Solve returns the expressions for the operands that equal each goal using
// a new Solver with the given options.
func Solve(goals []float64, numbers []string, opts ...Option) (map[float64][]string, error) {
	r, err := New(opts...).Solve(context.Background(), goals, numbers)
	if err != nil {
		return nil, err
	}
	return r.Hits, nil
}
