package cp

import "github.com/google/btree"

const intSetDegree = 8

// intSet is an ordered set of integers. Iteration is always ascending, which
// keeps traversal-based propagators deterministic.
type intSet struct {
	tree *btree.BTreeG[int]
}

func newIntSet(values ...int) intSet {
	s := intSet{tree: btree.NewOrderedG[int](intSetDegree)}
	for _, v := range values {
		s.tree.ReplaceOrInsert(v)
	}
	return s
}

func (s intSet) has(v int) bool {
	_, ok := s.tree.Get(v)
	return ok
}

// add inserts v and reports whether it was absent.
func (s intSet) add(v int) bool {
	_, found := s.tree.ReplaceOrInsert(v)
	return !found
}

// remove deletes v and reports whether it was present.
func (s intSet) remove(v int) bool {
	_, found := s.tree.Delete(v)
	return found
}

func (s intSet) len() int { return s.tree.Len() }

// first returns the smallest element or -1 when empty.
func (s intSet) first() int {
	if v, ok := s.tree.Min(); ok {
		return v
	}
	return -1
}

// values returns the elements in ascending order. The slice is a copy, so
// callers may narrow domains while ranging over it.
func (s intSet) values() []int {
	out := make([]int, 0, s.tree.Len())
	s.tree.Ascend(func(v int) bool {
		out = append(out, v)
		return true
	})
	return out
}

func (s intSet) clone() intSet { return intSet{tree: s.tree.Clone()} }
