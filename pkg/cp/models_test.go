package cp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// geqModel is x, y ∈ [0,3] with x + y ≥ 5 and x ∈ [0,2].
func geqModel(t *testing.T) (*Model, *IntVar, *IntVar) {
	t.Helper()
	m := NewModel("geq")
	x, err := m.NewIntVar("x", 0, 3)
	require.NoError(t, err)
	y, err := m.NewIntVar("y", 0, 3)
	require.NoError(t, err)
	c, err := GreaterOrEqual(x, y, 5)
	mustPost(t, m, c, err)
	c, err = Member(x, 0, 2)
	mustPost(t, m, c, err)
	return m, x, y
}

// tourModel builds a graph over n nodes with the given envelope and one
// position variable in [0,n-1] per node.
func tourModel(t *testing.T, n int, envelope []Arc, condense bool) (*Model, *GraphVar, []*IntVar) {
	t.Helper()
	m := NewModel("tour")
	g, err := m.NewGraphVar("g", n, nil, envelope)
	require.NoError(t, err)
	pos := make([]*IntVar, n)
	for i := range pos {
		pos[i], err = m.NewIntVar("p"+string(rune('0'+i)), 0, n-1)
		require.NoError(t, err)
	}
	c, err := PosInTour(g, pos, condense)
	mustPost(t, m, c, err)
	return m, g, pos
}

// diamond is 0 → {1,2} → 3 with 1 ⇄ 2: two Hamiltonian paths.
var diamond = []Arc{{0, 1}, {0, 2}, {1, 2}, {2, 1}, {1, 3}, {2, 3}}

// mixedModel exercises every propagator kind at once.
func mixedModel(t *testing.T) *Model {
	t.Helper()
	m := NewModel("mixed")
	x, _ := m.NewIntVar("x", 0, 3)
	y, _ := m.NewIntVar("y", 0, 3)
	a, _ := m.NewSetVar("a", []int{1}, []int{1, 2, 3})
	b, _ := m.NewSetVar("b", nil, []int{1, 2})
	c, _ := m.NewSetVar("c", nil, []int{1, 2, 3, 4})
	g, _ := m.NewGraphVar("g", 4, nil, diamond)
	pos := make([]*IntVar, 4)
	for i := range pos {
		pos[i], _ = m.NewIntVar("p"+string(rune('0'+i)), 0, 3)
	}

	con, err := GreaterOrEqual(x, y, 5)
	mustPost(t, m, con, err)
	con, err = Subset(a, b)
	mustPost(t, m, con, err)
	con, err = Member(x, 0, 2)
	mustPost(t, m, con, err)
	con, err = PosInTour(g, pos, false)
	mustPost(t, m, con, err)
	con, err = Subset(b, c)
	mustPost(t, m, con, err)
	con, err = Member(pos[0], 0, 0)
	mustPost(t, m, con, err)
	return m
}

var mixedFixpoint = []string{
	"x = 2",
	"y = 3",
	"a ∈ [{1}, {1,2}]",
	"b ∈ [{1}, {1,2}]",
	"c ∈ [{1}, {1,2,3,4}]",
	"g ∈ [{}, {0->1,0->2,1->2,1->3,2->1,2->3}]",
	"p0 = 0",
	"p1 ∈ [1,2]",
	"p2 ∈ [1,2]",
	"p3 ∈ [2,3]",
}
