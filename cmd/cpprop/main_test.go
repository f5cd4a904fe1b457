package main

import (
	"bytes"
	"io"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitrdm/gokanprop/pkg/cp"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func model(name string) string { return filepath.Join("testdata", name+".yaml") }

func assertGolden(t *testing.T, name, out string) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(out))
}

func TestCommandPresence(t *testing.T) {
	cmd := newRootCommand()
	for _, name := range []string{"propagate", "portfolio", "strategies", "version"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}

	lvl := cmd.PersistentFlags().Lookup("log-level")
	require.NotNil(t, lvl)
	assert.Equal(t, "warn", lvl.DefValue)
}

func TestPropagate(t *testing.T) {
	tests := []struct {
		golden  string
		args    []string
		wantErr bool
	}{
		{"propagate_tour", []string{"propagate", "-f", model("tour")}, false},
		{"propagate_tour_override", []string{"propagate", "-f", model("tour"), "--strategy", "one-queue-with-props"}, false},
		{"propagate_conflict", []string{"propagate", "-f", model("conflict")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.golden, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			if tt.wantErr {
				assert.ErrorIs(t, err, errReported)
			} else {
				require.NoError(t, err)
			}
			assertGolden(t, tt.golden, out)
		})
	}
}

func TestPropagate_StatsAndMetrics(t *testing.T) {
	out, err := execute(t, "propagate", "-f", model("tour"), "--stats", "--metrics", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "stats: coarse=")
	assert.Contains(t, out, "cpprop_fixpoints_total 1")
	assert.Contains(t, out, `cpprop_propagations_total{kind="full"} 4`)
}

func TestPropagate_IterationLimit(t *testing.T) {
	_, err := execute(t, "propagate", "-f", model("tour"), "--max-iterations", "1")
	assert.ErrorIs(t, err, cp.ErrIterationLimit)
}

func TestPropagate_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing file flag", []string{"propagate"}, `required flag(s) "file" not set`},
		{"missing file", []string{"propagate", "-f", model("missing")}, "failed to read model file"},
		{"unknown strategy", []string{"propagate", "-f", model("tour"), "--strategy", "nope"}, "unknown propagation strategy"},
		{"bad log level", []string{"propagate", "-f", model("tour"), "--log-level", "loud"}, "invalid log level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestPortfolio(t *testing.T) {
	tests := []struct {
		golden string
		args   []string
	}{
		{"portfolio_tour", []string{"portfolio", "-f", model("tour"), "--strategies", "gecode,one-queue-with-vars", "--workers", "2"}},
		{"portfolio_conflict", []string{"portfolio", "-f", model("conflict"), "--strategies", "two-queues-with-arcs,priority-queues-with-props"}},
	}
	for _, tt := range tests {
		t.Run(tt.golden, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			require.NoError(t, err)
			assertGolden(t, tt.golden, out)
		})
	}
}

func TestPortfolio_AllStrategies(t *testing.T) {
	out, err := execute(t, "portfolio", "-f", model("tour"), "--stats")
	require.NoError(t, err)
	for _, name := range cp.StrategyNames() {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "confluent: true")
}

func TestStrategies(t *testing.T) {
	out, err := execute(t, "strategies")
	require.NoError(t, err)
	assertGolden(t, "strategies", out)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "cpprop "+cp.Version)
}
