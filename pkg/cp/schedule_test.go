package cp

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLeaf struct {
	schedNode
	name  string
	log   *[]string
	onRun func() error
}

func (l *fakeLeaf) execute() error {
	*l.log = append(*l.log, l.name)
	if l.onRun != nil {
		return l.onRun()
	}
	return nil
}

func (l *fakeLeaf) flush()         { l.scheduled = false }
func (l *fakeLeaf) String() string { return l.name }

func leaves(log *[]string, names ...string) []*fakeLeaf {
	out := make([]*fakeLeaf, len(names))
	for i, n := range names {
		out[i] = &fakeLeaf{name: n, log: log}
	}
	return out
}

func drain(t *testing.T, g *Group) {
	t.Helper()
	for !g.empty() {
		require.NoError(t, g.execute())
	}
}

func TestQueue_FIFO(t *testing.T) {
	var log []string
	ls := leaves(&log, "a", "b", "c")
	q := Queue(ls[0], ls[1], ls[2])

	schedule(ls[2])
	schedule(ls[0])
	schedule(ls[2])
	assert.Equal(t, 2, q.size(), "scheduling twice keeps one entry")
	assert.True(t, ls[2].Pending())

	drain(t, q)
	assert.Equal(t, []string{"c", "a"}, log)
	assert.False(t, ls[2].Pending())
}

func TestSort_FixedOrder(t *testing.T) {
	var log []string
	ls := leaves(&log, "a", "b", "c")
	s := Sort(ls[0], ls[1], ls[2])

	schedule(ls[2])
	schedule(ls[0])
	schedule(ls[1])
	drain(t, s)
	assert.Equal(t, []string{"a", "b", "c"}, log)
}

func TestGroup_ClearOutRunsNewlyScheduled(t *testing.T) {
	var log []string
	ls := leaves(&log, "a", "b")
	q := Queue(ls[0], ls[1])
	ls[0].onRun = func() error {
		if len(log) < 3 {
			schedule(ls[1])
			schedule(ls[0])
		}
		return nil
	}
	schedule(ls[0])
	require.NoError(t, q.execute())
	assert.True(t, q.empty())
	assert.Equal(t, []string{"a", "b", "a"}, log)
}

func TestGroup_PickOneYields(t *testing.T) {
	var log []string
	ls := leaves(&log, "a", "b", "c")
	inner := Queue(ls[0], ls[1]).PickOne()
	top := Queue(inner, ls[2])

	schedule(ls[0])
	schedule(ls[1])
	schedule(ls[2])
	assert.True(t, inner.Pending())
	drain(t, top)
	assert.Equal(t, []string{"a", "c", "b"}, log)
	assert.False(t, inner.Pending())
}

func TestGroup_SortPrefersEarlierGroups(t *testing.T) {
	var log []string
	ls := leaves(&log, "fine1", "fine2", "coarse1", "coarse2")
	fine := Queue(ls[0], ls[1])
	coarse := Queue(ls[2], ls[3]).PickOne()
	top := Sort(fine, coarse)

	// Each coarse run produces fine work that must be drained before the
	// next coarse element runs.
	ls[2].onRun = func() error { schedule(ls[0]); return nil }
	ls[3].onRun = func() error { schedule(ls[1]); return nil }
	schedule(ls[2])
	schedule(ls[3])
	drain(t, top)
	assert.Equal(t, []string{"coarse1", "fine1", "coarse2", "fine2"}, log)
}

func TestGroup_ErrorStopsAndFlushClears(t *testing.T) {
	var log []string
	ls := leaves(&log, "a", "b", "c")
	q := Queue(ls[0], ls[1], ls[2])
	boom := errors.New("boom")
	ls[0].onRun = func() error { return boom }

	schedule(ls[0])
	schedule(ls[1])
	schedule(ls[2])
	assert.ErrorIs(t, q.execute(), boom)
	assert.Equal(t, []string{"a"}, log)
	assert.False(t, q.empty())

	q.flush()
	assert.True(t, q.empty())
	assert.False(t, ls[1].Pending())

	schedule(ls[2])
	drain(t, q)
	assert.Equal(t, []string{"a", "c"}, log)
}

func TestGroup_ChildHasOneParent(t *testing.T) {
	var log []string
	ls := leaves(&log, "a")
	Queue(ls[0])
	assert.Panics(t, func() { Sort(ls[0]) })
}

func TestGroup_String(t *testing.T) {
	g := Queue().Named("coarses").PickOne()
	assert.Equal(t, "coarses[0].pickOne", g.String())
	assert.Equal(t, 0, g.Len())
}
