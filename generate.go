package equations

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"sync/atomic"

	"go.uber.org/zap"
)

// plan is the expanded search space for one request.
type plan struct {
	// orderings are the operand orders to use, in generation order.
	orderings [][]string
	// assignments are the allowed choices of operator for each gap.
	assignments [][]string
	// layouts are the bracket and unary splices, one per structure and
	// unary selection.
	layouts [][]Splice
	// budget bounds the number of candidates.
	budget *budget
}

// budget counts candidates across every goroutine working on a request.
type budget struct {
	max int64
	n   atomic.Int64
}

func (b *budget) take() error {
	n := b.n.Add(1)
	if b.max > 0 && n > b.max {
		return ErrSearchSpaceTooLarge
	}
	return nil
}

// plan validates a request and expands its search space.
func (s *Solver) plan(numbers []string) (*plan, error) {
	if s.err != nil {
		return nil, s.err
	}
	if len(numbers) == 0 {
		return nil, &ConfigError{Field: "numbers", Reason: "no operands"}
	}
	for i, v := range numbers {
		if v == "" {
			return nil, &ConfigError{Field: "numbers", Reason: "empty operand at index " + strconv.Itoa(i)}
		}
	}
	n := len(numbers)
	if n > 1 && len(s.ops) == 0 {
		return nil, &ConfigError{Field: "operators", Reason: "no operators for " + strconv.Itoa(n) + " operands"}
	}
	p := plan{
		orderings:   orderings(numbers, s.fixed),
		assignments: assignments(s.ops, n-1, s.powers),
		budget:      &budget{max: int64(s.cands)},
	}
	before := s.cache.Stats()
	structs := []Structure{{}}
	if s.parens {
		structs = s.cache.Brackets(n)
	}
	for _, st := range structs {
		if s.unary == nil {
			p.layouts = append(p.layouts, s.cache.render(st, n))
			continue
		}
		anchors := s.anchors(st, n)
		limit := len(anchors)
		if s.unary.Limited && s.facts < limit {
			limit = s.facts
		}
		for k := 0; k <= limit; k++ {
			combinations(len(anchors), k, func(idx []int) {
				sel := make([]Pair, len(idx))
				for i, j := range idx {
					sel[i] = anchors[j]
				}
				p.layouts = append(p.layouts, s.cache.renderUnary(st, NewStructure(sel...), s.unary.Name, n))
			})
		}
	}
	// Counts include lookups by other solvers sharing the cache.
	after := s.cache.Stats()
	s.log.Debug("planned search",
		zap.Int("operands", n),
		zap.Int("orderings", len(p.orderings)),
		zap.Int("assignments", len(p.assignments)),
		zap.Int("structures", len(structs)),
		zap.Int("layouts", len(p.layouts)),
		zap.Int64("cache.hits", after.Hits-before.Hits),
		zap.Int64("cache.misses", after.Misses-before.Misses),
	)
	return &p, nil
}

// anchors lists the places the unary function may go for one structure: its
// pairs, then the whole expression, then each operand if singles are on.
func (s *Solver) anchors(st Structure, n int) []Pair {
	r := st.Pairs()
	add := func(p Pair) {
		if !slices.Contains(r, p) {
			r = append(r, p)
		}
	}
	add(Pair{0, n})
	if s.singles {
		for i := 0; i < n; i++ {
			add(Pair{i, i + 1})
		}
	}
	return r
}

// each calls fn with every candidate in generation order.
func (p *plan) each(ctx context.Context, fn func(string) error) error {
	for _, ord := range p.orderings {
		if err := p.ordering(ctx, ord, fn); err != nil {
			return err
		}
	}
	return nil
}

// ordering calls fn with every candidate using one operand order.
func (p *plan) ordering(ctx context.Context, ord []string, fn func(string) error) error {
	n := len(ord)
	base := make([]string, 0, 2*n-1)
	for _, ops := range p.assignments {
		if err := ctx.Err(); err != nil {
			return err
		}
		base = base[:0]
		for i, v := range ord {
			if i > 0 {
				base = append(base, ops[i-1])
			}
			base = append(base, v)
		}
		for _, l := range p.layouts {
			if err := p.budget.take(); err != nil {
				return err
			}
			tokens := make([]string, len(base), len(base)+len(l))
			copy(tokens, base)
			if err := fn(splice(tokens, l)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Each calls fn with every candidate expression for the operands, in a
// deterministic order. If fn returns an error, Each stops and returns it,
// except that ErrStop stops without error.
func (s *Solver) Each(ctx context.Context, numbers []string, fn func(string) error) error {
	p, err := s.plan(numbers)
	if err != nil {
		return err
	}
	err = p.each(ctx, fn)
	if errors.Is(err, ErrStop) {
		return nil
	}
	return err
}

// Equations returns every candidate expression for the operands.
func (s *Solver) Equations(ctx context.Context, numbers []string) ([]string, error) {
	var r []string
	err := s.Each(ctx, numbers, func(e string) error {
		r = append(r, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Equations returns every candidate expression for the operands using a new
// Solver with the given options.
func Equations(numbers []string, opts ...Option) ([]string, error) {
	return New(opts...).Equations(context.Background(), numbers)
}

// Ints formats integers as operands.
func Ints(ns ...int) []string {
	r := make([]string, len(ns))
	for i, n := range ns {
		r[i] = strconv.Itoa(n)
	}
	return r
}

// orderings returns the distinct permutations of tokens in lexicographic
// order, or only tokens itself if fixed.
func orderings(tokens []string, fixed bool) [][]string {
	p := slices.Clone(tokens)
	if fixed {
		return [][]string{p}
	}
	slices.Sort(p)
	var r [][]string
	for {
		r = append(r, slices.Clone(p))
		if !nextPermutation(p) {
			return r
		}
	}
}

// nextPermutation rearranges p into the next greater permutation and reports
// whether there is one. Equal elements are never swapped with each other, so
// only distinct permutations are produced.
func nextPermutation(p []string) bool {
	i := len(p) - 2
	for i >= 0 && p[i] >= p[i+1] {
		i--
	}
	if i < 0 {
		return false
	}
	j := len(p) - 1
	for p[j] <= p[i] {
		j--
	}
	p[i], p[j] = p[j], p[i]
	slices.Reverse(p[i+1:])
	return true
}

// assignments returns every choice of operator for each of the gaps, with the
// last gap varying fastest, except those with more than maxPow ** in a row.
func assignments(ops []string, gaps, maxPow int) [][]string {
	if gaps == 0 {
		return [][]string{{}}
	}
	var r [][]string
	idx := make([]int, gaps)
	for {
		a := make([]string, gaps)
		run, long := 0, false
		for i, k := range idx {
			a[i] = ops[k]
			if a[i] == "**" {
				run++
				long = long || run > maxPow
			} else {
				run = 0
			}
		}
		if !long {
			r = append(r, a)
		}
		i := gaps - 1
		for i >= 0 {
			idx[i]++
			if idx[i] < len(ops) {
				break
			}
			idx[i] = 0
			i--
		}
		if i < 0 {
			return r
		}
	}
}

// combinations calls fn with each k-element subset of [0, n) as increasing
// indices, in lexicographic order. fn must not keep idx.
func combinations(n, k int, fn func(idx []int)) {
	if k > n {
		return
	}
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for {
		fn(idx)
		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}
