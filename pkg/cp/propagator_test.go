package cp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubsetEq_Scenario(t *testing.T) {
	m := NewModel("t")
	x, _ := m.NewSetVar("X", []int{1}, []int{1, 2})
	y, _ := m.NewSetVar("Y", nil, []int{1})
	c, err := Subset(x, y)
	mustPost(t, m, c, err)

	_, err = propagate(t, m)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, y.Kernel())
	assert.Equal(t, []int{1}, x.Envelope())
	assert.Equal(t, EntailTrue, c.IsEntailed())
	assert.True(t, c.Propagators()[0].Base().IsPassive())
}

func TestSubsetEq_Incremental(t *testing.T) {
	m := NewModel("t")
	x, _ := m.NewSetVar("X", nil, []int{1, 2, 3, 4})
	y, _ := m.NewSetVar("Y", nil, []int{1, 2, 3, 4})
	c, err := Subset(x, y)
	mustPost(t, m, c, err)
	s, err := propagate(t, m)
	require.NoError(t, err)

	m.Push()
	_, err = x.AddToKernel(2, Decision)
	require.NoError(t, err)
	_, err = y.RemoveFromEnvelope(4, Decision)
	require.NoError(t, err)
	require.NoError(t, s.Propagate(context.Background()))
	assert.Equal(t, []int{2}, y.Kernel())
	assert.Equal(t, []int{1, 2, 3}, x.Envelope())
	assert.Equal(t, EntailUndefined, c.IsEntailed())

	_, err = y.RemoveFromEnvelope(2, Decision)
	assert.True(t, IsContradiction(err), "2 is in kernel(Y)")

	require.NoError(t, m.Pop())
	assert.Empty(t, y.Kernel())
	assert.Equal(t, []int{1, 2, 3, 4}, x.Envelope())
}

func TestSubsetEq_Entailment(t *testing.T) {
	m := NewModel("t")
	x, _ := m.NewSetVar("X", []int{3}, []int{3})
	y, _ := m.NewSetVar("Y", nil, []int{1})
	p, err := NewSubsetEq(x, y)
	require.NoError(t, err)
	assert.Equal(t, EntailFalse, p.IsEntailed())
	assert.Equal(t, EventAddToKernel, p.PropagationConditions(0))
	assert.Equal(t, EventRemoveFromEnvelope, p.PropagationConditions(1))
	assert.Equal(t, "X ⊆ Y", p.String())

	c := NewConstraint("subset", p)
	require.NoError(t, m.Post(c))
	_, err = propagate(t, m)
	assert.True(t, IsContradiction(err))
}

func TestGreaterOrEqualXYC_Scenario(t *testing.T) {
	m := NewModel("t")
	x, _ := m.NewIntVar("X", 0, 3)
	y, _ := m.NewIntVar("Y", 0, 3)
	c, err := GreaterOrEqual(x, y, 5)
	mustPost(t, m, c, err)

	_, err = propagate(t, m)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, []int{x.LB(), x.UB()})
	assert.Equal(t, []int{2, 3}, []int{y.LB(), y.UB()})
	assert.Equal(t, EntailUndefined, c.IsEntailed())
	assert.True(t, c.Propagators()[0].Base().IsActive())
}

func TestGreaterOrEqualXYC_Entailment(t *testing.T) {
	tests := []struct {
		name   string
		x, y   [2]int
		c      int
		expect Entailment
	}{
		{"always true", [2]int{3, 4}, [2]int{2, 9}, 5, EntailTrue},
		{"never", [2]int{0, 1}, [2]int{0, 2}, 5, EntailFalse},
		{"open", [2]int{0, 3}, [2]int{0, 3}, 5, EntailUndefined},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewModel("t")
			x, _ := m.NewIntVar("x", tt.x[0], tt.x[1])
			y, _ := m.NewIntVar("y", tt.y[0], tt.y[1])
			p, err := NewGreaterOrEqualXYC(x, y, tt.c)
			require.NoError(t, err)
			assert.Equal(t, tt.expect, p.IsEntailed())
		})
	}
}

func TestGreaterOrEqualXYC_PassiveUndoneOnBacktrack(t *testing.T) {
	m := NewModel("t")
	x, _ := m.NewIntVar("x", 0, 3)
	y, _ := m.NewIntVar("y", 0, 3)
	c, err := GreaterOrEqual(x, y, 5)
	mustPost(t, m, c, err)
	s, err := propagate(t, m)
	require.NoError(t, err)
	p := c.Propagators()[0]

	m.Push()
	_, err = x.UpdateLowerBound(3, Decision)
	require.NoError(t, err)
	require.NoError(t, s.Propagate(context.Background()))
	assert.Equal(t, 2, y.LB())
	assert.True(t, p.Base().IsPassive())

	require.NoError(t, m.Pop())
	assert.True(t, p.Base().IsActive(), "passivity is undone on backtrack")
}

func TestMemberBound_Scenario(t *testing.T) {
	m := NewModel("t")
	v, _ := m.NewIntVar("V", -5, 10)
	c, err := Member(v, 0, 7)
	mustPost(t, m, c, err)

	_, err = propagate(t, m)
	require.NoError(t, err)
	assert.Equal(t, "V ∈ [0,7]", v.String())
	p := c.Propagators()[0]
	assert.True(t, p.Base().IsPassive())
	assert.False(t, p.Base().ReactsOnFineEvents())
	assert.Equal(t, EntailTrue, p.IsEntailed())
	assert.Equal(t, "V in [0,7]", p.String())
}

func TestMemberBound_Entailment(t *testing.T) {
	m := NewModel("t")
	v, _ := m.NewIntVar("v", 8, 9)
	p, err := NewMemberBound(v, 0, 7)
	require.NoError(t, err)
	assert.Equal(t, EntailFalse, p.IsEntailed())

	w, _ := m.NewIntVar("w", 5, 9)
	p, err = NewMemberBound(w, 0, 7)
	require.NoError(t, err)
	assert.Equal(t, EntailUndefined, p.IsEntailed())
}

func TestPosInTour_Path(t *testing.T) {
	for _, condense := range []bool{false, true} {
		m, _, pos := tourModel(t, 4, []Arc{{0, 1}, {1, 2}, {2, 3}}, condense)
		_, err := propagate(t, m)
		require.NoError(t, err)
		for i, p := range pos {
			require.True(t, p.IsInstantiated(), "p%d condense=%v", i, condense)
			assert.Equal(t, i, p.Value())
		}
	}
}

func TestPosInTour_CondensationTightens(t *testing.T) {
	env := []Arc{{0, 1}, {0, 2}, {1, 2}, {2, 1}, {1, 3}, {2, 3}, {3, 4}}

	m, _, _ := tourModel(t, 5, env, false)
	_, err := propagate(t, m)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"g ∈ [{}, {0->1,0->2,1->2,1->3,2->1,2->3,3->4}]",
		"p0 ∈ [0,1]", "p1 ∈ [1,2]", "p2 ∈ [1,2]", "p3 ∈ [2,3]", "p4 ∈ [3,4]",
	}, snapshot(m))

	m, _, _ = tourModel(t, 5, env, true)
	_, err = propagate(t, m)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"g ∈ [{}, {0->1,0->2,1->2,1->3,2->1,2->3,3->4}]",
		"p0 = 0", "p1 ∈ [1,2]", "p2 ∈ [1,2]", "p3 = 3", "p4 = 4",
	}, snapshot(m))
}

func TestPosInTour_IncrementalMatchesFresh(t *testing.T) {
	m, g, pos := tourModel(t, 4, diamond, false)
	s, err := propagate(t, m)
	require.NoError(t, err)
	before := snapshot(m)
	assert.Equal(t, []string{"p0 ∈ [0,1]", "p1 ∈ [1,2]", "p2 ∈ [1,2]", "p3 ∈ [2,3]"}, before[1:])

	m.Push()
	_, err = g.RemoveArc(0, 2, Decision)
	require.NoError(t, err)
	_, err = g.RemoveArc(1, 3, Decision)
	require.NoError(t, err)
	require.NoError(t, s.Propagate(context.Background()))
	for i, p := range pos {
		require.True(t, p.IsInstantiated())
		assert.Equal(t, i, p.Value())
	}

	fresh, _, _ := tourModel(t, 4, []Arc{{0, 1}, {1, 2}, {2, 1}, {2, 3}}, false)
	_, err = propagate(t, fresh)
	require.NoError(t, err)
	assert.Equal(t, snapshot(fresh), snapshot(m))

	require.NoError(t, m.Pop())
	assert.Equal(t, before, snapshot(m))
}

func TestPosInTour_ArcReactions(t *testing.T) {
	m := NewModel("t")
	g, _ := m.NewGraphVar("g", 4, nil, diamond)
	pos := make([]*IntVar, 4)
	for i := range pos {
		pos[i], _ = m.NewIntVar("", 0, 3)
	}
	p, err := NewPosInTourGraphReactor(g, pos, nil)
	require.NoError(t, err)

	// enforced arc 1->2 orders the two positions
	_, _ = pos[1].UpdateLowerBound(1, Decision)
	_, err = g.EnforceArc(1, 2, Decision)
	require.NoError(t, err)
	require.NoError(t, p.PropagateOn(0, EventEnforceArc))
	assert.Equal(t, "v2 ∈ [1,2]", pos[1].String())
	assert.Equal(t, "v3 ∈ [2,3]", pos[2].String())

	// removed arc 0->1 with node 0 placed first: node 1 cannot be second
	_, _ = pos[0].InstantiateTo(0, Decision)
	_, err = g.RemoveArc(0, 1, Decision)
	require.NoError(t, err)
	require.NoError(t, p.PropagateOn(0, EventRemoveArc))
	assert.Equal(t, "v2 = 2", pos[1].String())
}

func TestPosInTour_KernelArcsTieOnEveryPass(t *testing.T) {
	setup := func(mask EventType) []*IntVar {
		m := NewModel("t")
		g, _ := m.NewGraphVar("g", 4, []Arc{{1, 2}}, diamond)
		pos := make([]*IntVar, 4)
		for i := range pos {
			pos[i], _ = m.NewIntVar("p"+string(rune('0'+i)), 0, 3)
		}
		_, _ = pos[1].UpdateLowerBound(1, Decision)
		_, _ = pos[2].UpdateUpperBound(2, Decision)
		p, err := NewPosInTourGraphReactor(g, pos, nil)
		require.NoError(t, err)
		require.NoError(t, p.Propagate(mask))
		assert.Equal(t, EntailUndefined, p.IsEntailed())
		return pos
	}

	for _, mask := range []EventType{EventFullPropagation, EventCustomPropagation} {
		pos := setup(mask)
		assert.Equal(t, "p0 ∈ [0,1]", pos[0].String())
		assert.Equal(t, "p1 = 1", pos[1].String(), "kernel arc 1->2")
		assert.Equal(t, "p2 = 2", pos[2].String())
		assert.Equal(t, "p3 ∈ [2,3]", pos[3].String())
	}
}

// openTour is a 5-node graph where every arc i->j (i != j) is possible
// except those into node 0 or out of node 4, with 1->2 mandatory.
func openTour(t *testing.T, p2Max int) (*Model, []*IntVar) {
	t.Helper()
	var env []Arc
	for i := range 4 {
		for j := 1; j < 5; j++ {
			if i != j {
				env = append(env, Arc{i, j})
			}
		}
	}
	m := NewModel("open")
	g, err := m.NewGraphVar("g", 5, []Arc{{1, 2}}, env)
	require.NoError(t, err)
	pos := make([]*IntVar, 5)
	for i := range pos {
		ub := 4
		if i == 2 {
			ub = p2Max
		}
		pos[i], err = m.NewIntVar("p"+string(rune('0'+i)), 0, ub)
		require.NoError(t, err)
	}
	c, err := PosInTour(g, pos, false)
	mustPost(t, m, c, err)
	return m, pos
}

func TestPosInTour_FixpointIsIdempotent(t *testing.T) {
	m, _ := openTour(t, 4)
	_, err := propagate(t, m)
	require.NoError(t, err)
	fix := snapshot(m)
	assert.Equal(t, []string{
		"p0 ∈ [0,3]", "p1 ∈ [1,2]", "p2 ∈ [2,3]", "p3 ∈ [1,3]", "p4 ∈ [1,4]",
	}, fix[1:])

	p := m.Propagators()[0]
	require.NoError(t, p.Propagate(EventFullPropagation))
	assert.Equal(t, fix, snapshot(m), "a full run at the fixpoint narrows nothing")
	require.NoError(t, p.Propagate(EventCustomPropagation))
	assert.Equal(t, fix, snapshot(m))
}

func TestPosInTour_IncrementalMatchesFreshWithKernel(t *testing.T) {
	m, pos := openTour(t, 4)
	s, err := propagate(t, m)
	require.NoError(t, err)
	before := snapshot(m)

	m.Push()
	_, err = pos[2].UpdateUpperBound(2, Decision)
	require.NoError(t, err)
	require.NoError(t, s.Propagate(context.Background()))
	assert.Equal(t, "p1 = 1", pos[1].String())
	assert.Equal(t, "p2 = 2", pos[2].String())

	fresh, _ := openTour(t, 2)
	_, err = propagate(t, fresh)
	require.NoError(t, err)
	assert.Equal(t, snapshot(fresh), snapshot(m))

	require.NoError(t, m.Pop())
	assert.Equal(t, before, snapshot(m))
}

func TestPosInTour_Entailment(t *testing.T) {
	path := []Arc{{0, 1}, {1, 2}}
	m := NewModel("fixed")
	g, _ := m.NewGraphVar("g", 3, path, path)
	pos := make([]*IntVar, 3)
	for i := range pos {
		pos[i], _ = m.NewIntVar("p"+string(rune('0'+i)), 0, 2)
	}
	c, err := PosInTour(g, pos, false)
	mustPost(t, m, c, err)
	_, err = propagate(t, m)
	require.NoError(t, err)
	for i, p := range pos {
		assert.Equal(t, i, p.Value())
	}
	assert.Equal(t, EntailTrue, c.IsEntailed())
	assert.Equal(t, EntailTrue, m.IsSatisfied())

	tests := []struct {
		name   string
		kernel []Arc
		env    []Arc
		want   Entailment
	}{
		{"arc skips a position", []Arc{{0, 2}}, []Arc{{0, 2}}, EntailFalse},
		{"arc goes backwards", []Arc{{2, 1}}, []Arc{{2, 1}}, EntailFalse},
		{"graph still open", []Arc{{0, 1}}, path, EntailUndefined},
		{"consecutive", path, path, EntailTrue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewModel("t")
			g, err := m.NewGraphVar("g", 3, tt.kernel, tt.env)
			require.NoError(t, err)
			pos := make([]*IntVar, 3)
			for i := range pos {
				pos[i], _ = m.NewIntVar("", i, i)
			}
			p, err := NewPosInTourGraphReactor(g, pos, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.IsEntailed())
		})
	}
}

func TestPosInTour_Errors(t *testing.T) {
	m := NewModel("t")
	g, _ := m.NewGraphVar("g", 3, nil, []Arc{{0, 1}, {1, 2}})
	a, _ := m.NewIntVar("a", 0, 2)
	_, err := NewPosInTourGraphReactor(g, []*IntVar{a}, nil)
	require.Error(t, err)

	other := NewModel("other")
	b, _ := other.NewIntVar("b", 0, 2)
	c, _ := other.NewIntVar("c", 0, 2)
	_, err = NewPosInTourGraphReactor(g, []*IntVar{a, b, c}, nil)
	require.Error(t, err, "variables from two models")

	rg := Condense(other.Trail(), g.Envelope())
	d, _ := m.NewIntVar("d", 0, 2)
	e, _ := m.NewIntVar("e", 0, 2)
	_, err = NewPosInTourGraphReactor(g, []*IntVar{a, d, e}, rg)
	require.NoError(t, err)
	small, _ := m.NewGraphVar("s", 2, nil, nil)
	_, err = NewPosInTourGraphReactor(small, []*IntVar{a, d}, rg)
	require.Error(t, err, "condensation size mismatch")
}

func TestPosInTour_ContradictionOnEnforcedBackArc(t *testing.T) {
	m, g, pos := tourModel(t, 3, []Arc{{0, 1}, {1, 2}, {2, 1}}, false)
	s, err := propagate(t, m)
	require.NoError(t, err)
	assert.Equal(t, 2, pos[2].Value())

	m.Push()
	_, err = g.EnforceArc(2, 1, Decision)
	require.NoError(t, err)
	err = s.Propagate(context.Background())
	require.Error(t, err)
	assert.True(t, IsContradiction(err))
	require.NoError(t, m.Pop())
	require.NoError(t, s.Propagate(context.Background()))
}

func TestPosInTour_BrokenCondensationPanics(t *testing.T) {
	m := NewModel("t")
	g, _ := m.NewGraphVar("g", 2, nil, []Arc{{0, 1}})
	a, _ := m.NewIntVar("a", 0, 1)
	b, _ := m.NewIntVar("b", 0, 1)
	rg := Condense(m.Trail(), g.Envelope())
	require.NoError(t, rg.SetLinks([]int{0, 1}, []int{1, 0}, []int{1, 0}))
	p, err := NewPosInTourGraphReactor(g, []*IntVar{a, b}, rg)
	require.NoError(t, err)
	require.NoError(t, m.Post(NewConstraint("pos", p)))
	s, err := NewSolver(m)
	require.NoError(t, err)

	ie := requireInvariant(t, func() { _ = s.Propagate(context.Background()) })
	assert.Equal(t, "PosInTourGraphReactor.bfsSCC", ie.Where)
}
