package equations

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/zephyrtronium/equations/calc"
)

// Option configures a Solver.
type Option interface {
	option()
}

type (
	opsopt     []string
	unaryopt   Unary
	singlesopt bool
	parensopt  bool
	fixedopt   bool
	powersopt  int
	factsopt   int
	candsopt   int
	workersopt int
	precopt    uint
	loggeropt  struct{ l *zap.Logger }
	cacheopt   struct{ c *Cache }
)

func (opsopt) option()     {}
func (unaryopt) option()   {}
func (singlesopt) option() {}
func (parensopt) option()  {}
func (fixedopt) option()   {}
func (powersopt) option()  {}
func (factsopt) option()   {}
func (candsopt) option()   {}
func (workersopt) option() {}
func (precopt) option()    {}
func (loggeropt) option()  {}
func (cacheopt) option()   {}

// KnownOperators is the set of binary operators that may appear between
// operands. The empty string concatenates adjacent operands into one number,
// and "." joins them with a decimal point.
var KnownOperators = []string{"+", "-", "*", "/", "", ".", "**", "%", "//"}

// DefaultOperators is the operator alphabet used when none is given.
var DefaultOperators = []string{"+", "-", "*", "/"}

// Operators sets the operator alphabet. Each operator must be one of
// KnownOperators. Repeated operators are ignored.
func Operators(ops ...string) Option {
	return opsopt(ops)
}

// WithUnary sets a unary function to wrap groups of operands.
func WithUnary(u Unary) Option {
	return unaryopt(u)
}

// Singles sets whether the unary function may also wrap single operands.
func Singles(on bool) Option {
	return singlesopt(on)
}

// InsertParens sets whether to search over bracket placements. Even without
// it, the unary function still brings its own brackets. The default is true.
func InsertParens(on bool) Option {
	return parensopt(on)
}

// FixedOrder sets whether to use operands only in the given order rather
// than in every distinct permutation.
func FixedOrder(on bool) Option {
	return fixedopt(on)
}

// MaxConsecutivePowers sets the longest allowed run of ** operators. The
// default is 1.
func MaxConsecutivePowers(n int) Option {
	return powersopt(n)
}

// MaxFactorials sets the most applications of a Limited unary function in
// one expression. The default is 1.
func MaxFactorials(n int) Option {
	return factsopt(n)
}

// MaxCandidates sets the most candidate expressions a request may generate
// before failing with ErrSearchSpaceTooLarge. Zero means no limit.
func MaxCandidates(n int) Option {
	return candsopt(n)
}

// Workers sets the number of goroutines Solve uses to evaluate candidates.
// The default is 1.
func Workers(n int) Option {
	return workersopt(n)
}

// Prec sets the precision in bits of evaluation. The default of 53 rounds
// every operation like IEEE-754 double precision.
func Prec(bits uint) Option {
	return precopt(bits)
}

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(l *zap.Logger) Option {
	return loggeropt{l}
}

// WithCache sets the cache of bracket structures and layouts. By default, all
// solvers share one unbounded cache.
func WithCache(c *Cache) Option {
	return cacheopt{c}
}

// Solver generates and solves equations with a fixed configuration. A Solver
// is safe for concurrent use.
type Solver struct {
	ops     []string
	unary   *Unary
	singles bool
	parens  bool
	fixed   bool
	powers  int
	facts   int
	cands   int
	workers int
	prec    uint
	log     *zap.Logger
	cache   *Cache
	parse   []calc.ParseOption

	// err is the first configuration error among the options.
	err error
}

// New creates a Solver. Invalid options are reported by the Solver's
// methods.
func New(opts ...Option) *Solver {
	s := Solver{
		ops:     DefaultOperators,
		parens:  true,
		powers:  1,
		facts:   1,
		workers: 1,
		prec:    53,
		log:     zap.NewNop(),
		cache:   defaultCache,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		switch opt := opt.(type) {
		case opsopt:
			s.ops = nil
			for _, op := range opt {
				if !isKnown(op) {
					s.fail(&ConfigError{Field: "operators", Reason: "unknown operator " + strconv.Quote(op)})
					continue
				}
				if !contains(s.ops, op) {
					s.ops = append(s.ops, op)
				}
			}
		case unaryopt:
			u := Unary(opt)
			if err := u.check(); err != nil {
				s.fail(err)
				continue
			}
			s.unary = &u
		case singlesopt:
			s.singles = bool(opt)
		case parensopt:
			s.parens = bool(opt)
		case fixedopt:
			s.fixed = bool(opt)
		case powersopt:
			s.powers = s.count("max consecutive powers", int(opt))
		case factsopt:
			s.facts = s.count("max factorials", int(opt))
		case candsopt:
			s.cands = s.count("max candidates", int(opt))
		case workersopt:
			s.workers = int(opt)
			if s.workers < 1 {
				s.fail(&ConfigError{Field: "workers", Reason: "need at least one worker"})
			}
		case precopt:
			s.prec = uint(opt)
			if s.prec == 0 {
				s.fail(&ConfigError{Field: "precision", Reason: "must be positive"})
			}
		case loggeropt:
			if opt.l != nil {
				s.log = opt.l
			}
		case cacheopt:
			if opt.c != nil {
				s.cache = opt.c
			}
		default:
			panic("equations: unknown option type")
		}
	}
	if s.unary != nil {
		s.parse = []calc.ParseOption{calc.ParsingPreset(calc.ParseFunc(s.unary.Name, s.unary.Func))}
	}
	return &s
}

func (s *Solver) fail(err error) {
	if s.err == nil {
		s.err = err
	}
}

// count validates a non-negative limit.
func (s *Solver) count(field string, n int) int {
	if n < 0 {
		s.fail(&ConfigError{Field: field, Reason: "negative limit " + strconv.Itoa(n)})
		return 0
	}
	return n
}

func isKnown(op string) bool {
	return contains(KnownOperators, op)
}

func contains(s []string, x string) bool {
	for _, v := range s {
		if v == x {
			return true
		}
	}
	return false
}
