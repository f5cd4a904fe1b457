package cp

import (
	"errors"
	"fmt"
)

// ErrContradiction matches every *Contradiction with errors.Is.
var ErrContradiction = errors.New("contradiction")

// ErrIterationLimit is returned when a propagation pass exceeds the
// configured number of scheduler iterations.
var ErrIterationLimit = errors.New("propagation iteration limit reached")

// ErrNodeOutOfRange is returned by graph operations naming a node outside
// the variable's node set. It is a usage error, not a contradiction.
var ErrNodeOutOfRange = errors.New("node out of range")

// Contradiction signals that the current domain state is infeasible. It is
// returned by the first narrowing operation that would break an invariant
// and travels unchanged up to the caller of Solver.Propagate, which is
// expected to backtrack.
type Contradiction struct {
	Var    Variable
	Op     string
	Detail string
	Cause  Cause
}

// Error implements error.
func (c *Contradiction) Error() string {
	name := "<nil>"
	if c.Var != nil {
		name = c.Var.Name()
	}
	cause := "<none>"
	if c.Cause != nil {
		cause = c.Cause.String()
	}
	return fmt.Sprintf("contradiction on %s: %s %s (cause %s)", name, c.Op, c.Detail, cause)
}

// Is makes errors.Is(err, ErrContradiction) hold.
func (c *Contradiction) Is(target error) bool { return target == ErrContradiction }

// IsContradiction reports whether err is or wraps a Contradiction.
func IsContradiction(err error) bool { return errors.Is(err, ErrContradiction) }

// InvariantError reports a defect in a propagator or in its precomputed
// inputs. It is raised with panic and is never recovered by the engine.
type InvariantError struct {
	Where  string
	Detail string
}

// Error implements error.
func (e *InvariantError) Error() string {
	return fmt.Sprintf("internal invariant violated in %s: %s", e.Where, e.Detail)
}

func invariant(where, format string, args ...any) {
	panic(&InvariantError{Where: where, Detail: fmt.Sprintf(format, args...)})
}
