package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zephyrtronium/equations/calc"
)

var (
	evalIn    string
	evalVerb  string
	evalGiven []string
	evalPrec  uint
	evalLines bool
	evalEcho  bool
)

var evalCmd = &cobra.Command{
	Use:   "eval [expression...]",
	Short: "Evaluate expressions with the calculator used to check candidates",
	Long: `Evaluates each expression given as an argument, or read from --in or
standard input when there are no arguments. Errors in evaluation are printed
in place of results.`,
	RunE: runEval,
}

func addEvalFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&evalIn, "in", "", "Input file (default stdin if no args given)")
	f.StringVar(&evalVerb, "fmt", "%g", "Result formatting string")
	f.StringArrayVar(&evalGiven, "given", nil, "name=value variable definition (any number of times)")
	f.UintVarP(&evalPrec, "prec", "p", 64, "Precision of calculations in bits")
	f.BoolVarP(&evalLines, "lines", "n", false, "Parse separate input lines as separate expressions")
	f.BoolVar(&evalEcho, "echo", false, "Print parse trees")
}

func runEval(cmd *cobra.Command, args []string) error {
	if evalPrec == 0 {
		return errors.New("precision must be positive")
	}
	var ins []io.RuneScanner
	f, closer, err := evalInput(cmd, evalIn, len(args) == 0)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}
	if f != nil {
		ins = append(ins, f)
	}
	for _, arg := range args {
		ins = append(ins, strings.NewReader(arg))
	}

	ctx := calc.NewContext(calc.Prec(evalPrec))
	for _, d := range evalGiven {
		nm, vl, ok := strings.Cut(d, "=")
		if !ok {
			return fmt.Errorf(`variable definitions must be "name=value", not %q`, d)
		}
		nm = strings.TrimSpace(nm)
		r, err := calc.EvalString(strings.TrimSpace(vl), calc.Prec(evalPrec))
		if err != nil {
			return fmt.Errorf("setting %s: %w", nm, err)
		}
		ctx.Set(nm, r)
	}

	var opts []calc.ParseOption
	if evalLines {
		opts = append(opts, calc.StopOn('\n'))
	}
	var p []*calc.Expr
	for _, in := range ins {
		for {
			// Check whether the input is done before parsing another
			// expression from it.
			if _, _, err := in.ReadRune(); err != nil {
				if err == io.EOF {
					break
				}
				return err
			}
			in.UnreadRune()
			a, err := calc.Parse(in, opts...)
			if err != nil {
				return err
			}
			p = append(p, a)
		}
	}

	out := cmd.OutOrStdout()
	verb := evalVerb + "\n"
	for _, a := range p {
		if evalEcho {
			fmt.Fprintf(out, "%v : ", a)
		}
		r := ctx.Eval(a)
		if r == nil {
			logger.Debug("Evaluation failed", zap.Stringer("expr", a), zap.Error(ctx.Err()))
			fmt.Fprintln(out, ctx.Err())
			continue
		}
		fmt.Fprintf(out, verb, r)
	}
	return nil
}

// evalInput opens the input named by the --in flag. Standard input is used
// for "-", or if std is set and no file is named.
func evalInput(cmd *cobra.Command, name string, std bool) (io.RuneScanner, io.Closer, error) {
	switch {
	case name != "" && name != "-":
		f, err := os.Open(name)
		if err != nil {
			return nil, nil, err
		}
		return bufio.NewReader(f), f, nil
	case name == "-", std:
		return bufio.NewReader(cmd.InOrStdin()), nil, nil
	}
	return nil, nil, nil
}
