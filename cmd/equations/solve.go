package main

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zephyrtronium/equations"
)

var (
	// Search flags, shared by solve and list. Each overrides the config only
	// when given.
	opsFlag       string
	unaryFlag     string
	singlesFlag   bool
	noParensFlag  bool
	fixedFlag     bool
	powersFlag    int
	factsFlag     int
	candsFlag     int
	workersFlag   int
	precFlag      uint
	searchTimeout time.Duration

	countOnly bool
	listLimit int
)

var solveCmd = &cobra.Command{
	Use:   "solve goals number...",
	Short: "Find the expressions that equal each goal",
	Long: `Evaluates every expression built from the numbers and prints those equal to
each goal. Goals are a comma-separated list of numbers and inclusive integer
ranges, like "6" or "0..20,49".`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSolve,
}

var listCmd = &cobra.Command{
	Use:   "list number...",
	Short: "Print every candidate expression without evaluating it",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runList,
}

var bracketsCmd = &cobra.Command{
	Use:   "brackets n",
	Short: "Print every way to bracket n operands",
	Args:  cobra.ExactArgs(1),
	RunE:  runBrackets,
}

func addSearchFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&opsFlag, "ops", "+,-,*,/", `Comma-separated operators, or "all"; an empty item concatenates`)
	f.StringVarP(&unaryFlag, "unary", "u", "", "Unary function: abs, neg, floor, ceil, sqrt, factorial")
	f.BoolVar(&singlesFlag, "singles", false, "Also apply the unary function to single numbers")
	f.BoolVar(&noParensFlag, "no-parens", false, "Don't search over brackets")
	f.BoolVar(&fixedFlag, "fixed", false, "Keep the numbers in the given order")
	f.IntVar(&powersFlag, "max-powers", 1, "Most ** operators in a row")
	f.IntVar(&factsFlag, "max-factorials", 1, "Most factorials in one expression")
	f.IntVar(&candsFlag, "max-candidates", 0, "Fail if the search exceeds this many expressions (0 for no limit)")
	f.IntVar(&workersFlag, "workers", 1, "Goroutines evaluating expressions")
	f.UintVar(&precFlag, "prec", 53, "Precision of evaluation in bits")
	f.DurationVar(&searchTimeout, "timeout", 0, "Give up after this long (0 for no limit)")
}

// applyFlags copies the search flags that were given on the command line into
// the config.
func applyFlags(cmd *cobra.Command) error {
	f := cmd.Flags()
	if f.Changed("ops") {
		cfg.Operators = parseOps(opsFlag)
	}
	if f.Changed("unary") {
		cfg.Unary = unaryFlag
	}
	if f.Changed("singles") {
		cfg.Singles = singlesFlag
	}
	if f.Changed("no-parens") {
		cfg.Parens = !noParensFlag
	}
	if f.Changed("fixed") {
		cfg.FixedOrder = fixedFlag
	}
	if f.Changed("max-powers") {
		cfg.Limits.MaxConsecutivePowers = powersFlag
	}
	if f.Changed("max-factorials") {
		cfg.Limits.MaxFactorials = factsFlag
	}
	if f.Changed("max-candidates") {
		cfg.Limits.MaxCandidates = candsFlag
	}
	if f.Changed("workers") {
		cfg.Limits.Workers = workersFlag
	}
	if f.Changed("prec") {
		cfg.Eval.Precision = precFlag
	}
	return cfg.Validate()
}

func parseOps(s string) []string {
	if s == "all" {
		return append([]string(nil), equations.KnownOperators...)
	}
	return strings.Split(s, ",")
}

// parseGoals parses a comma-separated list of numbers and inclusive integer
// ranges written as "lo..hi".
func parseGoals(s string) ([]float64, error) {
	var r []float64
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if lo, hi, ok := strings.Cut(item, ".."); ok {
			a, err := strconv.Atoi(lo)
			if err != nil {
				return nil, fmt.Errorf("bad goal range %q: %w", item, err)
			}
			b, err := strconv.Atoi(hi)
			if err != nil {
				return nil, fmt.Errorf("bad goal range %q: %w", item, err)
			}
			if a > b {
				return nil, fmt.Errorf("bad goal range %q: empty", item)
			}
			for i := a; i <= b; i++ {
				r = append(r, float64(i))
			}
			continue
		}
		v, err := strconv.ParseFloat(item, 64)
		if err != nil {
			return nil, fmt.Errorf("bad goal %q: %w", item, err)
		}
		r = append(r, v)
	}
	return r, nil
}

// searchContext returns the command's context with the search timeout.
func searchContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if searchTimeout > 0 {
		return context.WithTimeout(ctx, searchTimeout)
	}
	return context.WithCancel(ctx)
}

func newSolver(cmd *cobra.Command) (*equations.Solver, error) {
	if err := applyFlags(cmd); err != nil {
		return nil, err
	}
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	opts = append(opts, equations.WithLogger(logger))
	return equations.New(opts...), nil
}

func runSolve(cmd *cobra.Command, args []string) error {
	goals, err := parseGoals(args[0])
	if err != nil {
		return err
	}
	s, err := newSolver(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := searchContext(cmd)
	defer cancel()

	numbers := args[1:]
	logger.Info("Solving", zap.Strings("numbers", numbers), zap.Float64s("goals", goals))
	r, err := s.Solve(ctx, goals, numbers)
	if err != nil {
		return err
	}
	fields := []zap.Field{zap.Int("candidates", r.Candidates)}
	for f, n := range r.Faults {
		fields = append(fields, zap.Int(f.String(), n))
	}
	logger.Info("Solved", fields...)

	out := cmd.OutOrStdout()
	seen := make(map[float64]bool, len(goals))
	for _, g := range goals {
		if seen[g] {
			continue
		}
		seen[g] = true
		hits := r.Hits[g]
		if countOnly {
			fmt.Fprintf(out, "%s: %d\n", formatGoal(g), len(hits))
			continue
		}
		fmt.Fprintln(out, formatGoal(g))
		for _, e := range hits {
			fmt.Fprintln(out, e)
		}
		fmt.Fprintln(out)
	}
	return nil
}

func formatGoal(g float64) string {
	if g == math.Trunc(g) && math.Abs(g) < 1e15 {
		return strconv.FormatFloat(g, 'f', -1, 64)
	}
	return strconv.FormatFloat(g, 'g', -1, 64)
}

func runList(cmd *cobra.Command, args []string) error {
	s, err := newSolver(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := searchContext(cmd)
	defer cancel()

	out := cmd.OutOrStdout()
	n := 0
	err = s.Each(ctx, args, func(e string) error {
		if _, err := fmt.Fprintln(out, e); err != nil {
			return err
		}
		n++
		if listLimit > 0 && n >= listLimit {
			return equations.ErrStop
		}
		return nil
	})
	if err != nil {
		return err
	}
	logger.Debug("Listed", zap.Int("expressions", n))
	return nil
}

func runBrackets(cmd *cobra.Command, args []string) error {
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("bad operand count: %w", err)
	}
	if n < 0 {
		return fmt.Errorf("bad operand count %d", n)
	}
	out := cmd.OutOrStdout()
	for _, s := range equations.NewCache(0).Brackets(n) {
		fmt.Fprintln(out, s)
	}
	return nil
}
