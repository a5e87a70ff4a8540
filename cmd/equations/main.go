// Command equations searches for arithmetic expressions that combine a set of
// numbers into goal values.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/zephyrtronium/equations/internal/config"
)

var (
	// Global flags
	verbose    bool
	configPath string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "equations",
	Short: "Find arithmetic expressions that make a goal from a set of numbers",
	Long: `equations enumerates every expression that combines a set of numbers
using a given set of operators, in every order and with every useful placement
of brackets, and reports the ones that equal each goal.

Example:
  equations solve 49 100 23 56 40 6
  equations solve 0..20 4 4 4 4 --ops all --unary sqrt --singles`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg = config.DefaultConfig()
		if configPath != "" {
			cfg, err = config.Load(configPath)
			if err != nil {
				return err
			}
		}
		logger, err = buildLogger(cfg, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func buildLogger(cfg *config.Config, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Logging.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	lvl, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return zc.Build()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")

	addSearchFlags(solveCmd)
	solveCmd.Flags().BoolVar(&countOnly, "count", false, "Print only the number of expressions for each goal")
	addSearchFlags(listCmd)
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "Stop after this many expressions (0 for all)")
	addEvalFlags(evalCmd)

	rootCmd.AddCommand(solveCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(bracketsCmd)
	rootCmd.AddCommand(evalCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
