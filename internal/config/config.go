// Package config loads search settings for the equations command from YAML.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/zephyrtronium/equations"
)

// Config holds the settings for a search.
type Config struct {
	// Operators is the operator alphabet. "" concatenates operands and "."
	// joins them with a decimal point.
	Operators []string `yaml:"operators"`
	// Unary names a predefined unary function, or is empty for none.
	Unary   string `yaml:"unary"`
	Singles bool   `yaml:"singles"`
	// Parens enables the search over bracket placements.
	Parens     bool `yaml:"parens"`
	FixedOrder bool `yaml:"fixed_order"`

	Limits  LimitsConfig  `yaml:"limits"`
	Eval    EvalConfig    `yaml:"eval"`
	Logging LoggingConfig `yaml:"logging"`
}

// LimitsConfig bounds the size of a search.
type LimitsConfig struct {
	MaxConsecutivePowers int `yaml:"max_consecutive_powers"`
	MaxFactorials        int `yaml:"max_factorials"`
	MaxCandidates        int `yaml:"max_candidates"` // 0 is unlimited
	Workers              int `yaml:"workers"`
	CacheSize            int `yaml:"cache_size"` // 0 is unbounded
}

// EvalConfig configures evaluation of candidates.
type EvalConfig struct {
	Precision uint `yaml:"precision"` // bits
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Operators: append([]string(nil), equations.DefaultOperators...),
		Parens:    true,
		Limits: LimitsConfig{
			MaxConsecutivePowers: 1,
			MaxFactorials:        1,
			Workers:              1,
		},
		Eval: EvalConfig{
			Precision: 53,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads configuration from a YAML file. Settings missing from the file
// keep their defaults. A file that doesn't exist gives the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks the settings that the solver cannot check itself.
func (c *Config) Validate() error {
	if c.Unary != "" {
		if _, ok := equations.LookupUnary(c.Unary); !ok {
			return fmt.Errorf("unknown unary function %q", c.Unary)
		}
	}
	if c.Limits.CacheSize < 0 {
		return fmt.Errorf("negative cache size %d", c.Limits.CacheSize)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("unknown log format %q", c.Logging.Format)
	}
	return nil
}

// Level returns the configured log level.
func (c *Config) Level() (zapcore.Level, error) {
	l, err := zapcore.ParseLevel(c.Logging.Level)
	if err != nil {
		return l, fmt.Errorf("bad log level: %w", err)
	}
	return l, nil
}

// Options converts the configuration to solver options.
func (c *Config) Options() ([]equations.Option, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	opts := []equations.Option{
		equations.Operators(c.Operators...),
		equations.Singles(c.Singles),
		equations.InsertParens(c.Parens),
		equations.FixedOrder(c.FixedOrder),
		equations.MaxConsecutivePowers(c.Limits.MaxConsecutivePowers),
		equations.MaxFactorials(c.Limits.MaxFactorials),
		equations.MaxCandidates(c.Limits.MaxCandidates),
		equations.Workers(c.Limits.Workers),
		equations.Prec(c.Eval.Precision),
	}
	if c.Unary != "" {
		u, _ := equations.LookupUnary(c.Unary)
		opts = append(opts, equations.WithUnary(u))
	}
	if c.Limits.CacheSize > 0 {
		opts = append(opts, equations.WithCache(equations.NewCache(c.Limits.CacheSize)))
	}
	return opts, nil
}
