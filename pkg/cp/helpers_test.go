package cp

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// testCause is a Cause that is not a propagator.
type testCause int

func (c testCause) ID() int        { return int(c) }
func (c testCause) String() string { return fmt.Sprintf("test#%d", int(c)) }

// requireInvariant runs fn and requires it to panic with an *InvariantError.
func requireInvariant(t *testing.T, fn func()) *InvariantError {
	t.Helper()
	var got *InvariantError
	func() {
		defer func() {
			r := recover()
			require.NotNil(t, r, "expected a panic")
			err, ok := r.(error)
			require.True(t, ok, "panic value %v is not an error", r)
			require.True(t, errors.As(err, &got), "panic value %v is not an *InvariantError", r)
		}()
		fn()
	}()
	return got
}

func mustPost(t *testing.T, m *Model, c *Constraint, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NoError(t, m.Post(c))
}

func propagate(t *testing.T, m *Model, opts ...SolverOption) (*Solver, error) {
	t.Helper()
	s, err := NewSolver(m, opts...)
	require.NoError(t, err)
	return s, s.Propagate(context.Background())
}

// snapshot renders every domain of m.
func snapshot(m *Model) []string {
	out := make([]string, len(m.Vars()))
	for i, v := range m.Vars() {
		out[i] = v.String()
	}
	return out
}
