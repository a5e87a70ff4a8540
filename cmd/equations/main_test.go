package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zephyrtronium/equations/internal/config"
)

// setup resets the globals that PersistentPreRunE would set and returns a
// command that writes to a buffer.
func setup(t *testing.T) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	logger = zap.NewNop()
	cfg = config.DefaultConfig()
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	return cmd, &buf
}

func TestParseGoals(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []float64
		err  bool
	}{
		{"one", "6", []float64{6}, false},
		{"list", "6, 7,2.5", []float64{6, 7, 2.5}, false},
		{"range", "0..3", []float64{0, 1, 2, 3}, false},
		{"negative", "-2..0", []float64{-2, -1, 0}, false},
		{"mixed", "49,0..1", []float64{49, 0, 1}, false},
		{"backwards", "3..0", nil, true},
		{"junk", "six", nil, true},
		{"bad-range", "0..x", nil, true},
		{"empty", "", nil, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := parseGoals(c.in)
			if c.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestParseOps(t *testing.T) {
	assert.Equal(t, []string{"+", "-"}, parseOps("+,-"))
	assert.Equal(t, []string{"+", "", "."}, parseOps("+,,."))
	assert.Len(t, parseOps("all"), 9)
}

func TestRunSolve(t *testing.T) {
	cmd, buf := setup(t)
	cfg.FixedOrder = true
	require.NoError(t, runSolve(cmd, []string{"6", "1", "2", "3"}))
	want := "6\n1+2+3\n(1+2)+3\n1+(2+3)\n1*2*3\n(1*2)*3\n1*(2*3)\n\n"
	assert.Equal(t, want, buf.String())
}

func TestRunSolveCount(t *testing.T) {
	cmd, buf := setup(t)
	countOnly = true
	defer func() { countOnly = false }()
	require.NoError(t, runSolve(cmd, []string{"6,7,6,1000", "1", "2", "3"}))
	assert.Equal(t, "6: 48\n7: 8\n1000: 0\n", buf.String())
}

func TestRunSolveErrors(t *testing.T) {
	cmd, _ := setup(t)
	assert.Error(t, runSolve(cmd, []string{"x", "1", "2"}))
	cfg.Operators = []string{"^"}
	assert.Error(t, runSolve(cmd, []string{"1", "1", "2"}))
	cfg = config.DefaultConfig()
	cfg.Limits.MaxCandidates = 3
	assert.Error(t, runSolve(cmd, []string{"1", "1", "2", "3"}))
}

func TestRunList(t *testing.T) {
	cmd, buf := setup(t)
	listLimit = 3
	defer func() { listLimit = 0 }()
	require.NoError(t, runList(cmd, []string{"1", "2", "3"}))
	assert.Equal(t, "1+2+3\n(1+2)+3\n1+(2+3)\n", buf.String())
}

func TestRunBrackets(t *testing.T) {
	cmd, buf := setup(t)
	require.NoError(t, runBrackets(cmd, []string{"3"}))
	assert.Equal(t, "{}\n{(0,2)}\n{(1,3)}\n", buf.String())
	assert.Error(t, runBrackets(cmd, []string{"-1"}))
	assert.Error(t, runBrackets(cmd, []string{"three"}))
}

func TestRunEval(t *testing.T) {
	cmd, buf := setup(t)
	require.NoError(t, runEval(cmd, []string{"1+2", "2**10", "1/0", "7//2"}))
	lines := strings.Split(buf.String(), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "3", lines[0])
	assert.Equal(t, "1024", lines[1])
	assert.Contains(t, lines[2], "division by zero")
	assert.Equal(t, "3", lines[3])
}

func TestRunEvalGiven(t *testing.T) {
	cmd, buf := setup(t)
	evalGiven = []string{"x = 3", "y=x"}
	defer func() { evalGiven = nil }()
	err := runEval(cmd, []string{"x*x"})
	assert.Error(t, err, "y=x refers to an undefined variable")

	buf.Reset()
	evalGiven = []string{"x = 3"}
	require.NoError(t, runEval(cmd, []string{"x*x"}))
	assert.Equal(t, "9\n", buf.String())

	evalGiven = []string{"x"}
	assert.Error(t, runEval(cmd, []string{"x"}))
}

func TestRunEvalInput(t *testing.T) {
	cmd, buf := setup(t)
	evalLines = true
	defer func() { evalLines = false }()
	cmd.SetIn(strings.NewReader("1+1\n2*3\n"))
	require.NoError(t, runEval(cmd, nil))
	assert.Equal(t, "2\n6\n", buf.String())

	buf.Reset()
	path := filepath.Join(t.TempDir(), "in.txt")
	require.NoError(t, os.WriteFile(path, []byte("sqrt(16)\n"), 0644))
	evalIn = path
	defer func() { evalIn = "" }()
	require.NoError(t, runEval(cmd, nil))
	assert.Equal(t, "4\n", buf.String())
}

func TestExecuteWithConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "equations.yaml")
	src := "operators: [\"+\"]\nfixed_order: true\nlogging: {level: error}\n"
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))
	defer func() {
		countOnly = false
		configPath = ""
	}()

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"--config", path, "solve", "--count", "6", "1", "2", "3"})
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "6: 3\n", buf.String())
}
