package trail

// Cell is a reversible value. Its first write in each world instance saves the
// previous value on the trail; later writes in the same world are free.
type Cell[T comparable] struct {
	t     *Trail
	v     T
	stamp uint64
	saved bool
}

// Int is a reversible integer.
type Int = Cell[int]

// Bool is a reversible boolean.
type Bool = Cell[bool]

// NewCell creates a reversible cell holding v.
func NewCell[T comparable](t *Trail, v T) *Cell[T] {
	return &Cell[T]{t: t, v: v}
}

// NewInt creates a reversible integer holding v.
func NewInt(t *Trail, v int) *Int { return NewCell(t, v) }

// NewBool creates a reversible boolean holding v.
func NewBool(t *Trail, v bool) *Bool { return NewCell(t, v) }

// Get returns the current value.
func (c *Cell[T]) Get() T { return c.v }

// Set writes v, saving the previous value if needed.
func (c *Cell[T]) Set(v T) {
	if c.v == v {
		return
	}
	if !c.saved || c.stamp != c.t.stamp {
		old, oldStamp, oldSaved := c.v, c.stamp, c.saved
		c.t.Record(func() {
			c.v = old
			c.stamp = oldStamp
			c.saved = oldSaved
		})
		c.stamp = c.t.stamp
		c.saved = true
	}
	c.v = v
}

// Trail returns the trail the cell records on.
func (c *Cell[T]) Trail() *Trail { return c.t }

// CopyTo creates an independent cell on another trail holding the current
// value. Used when duplicating solver state.
func (c *Cell[T]) CopyTo(t *Trail) *Cell[T] {
	return NewCell(t, c.v)
}

// Add increments a reversible integer by d and returns the new value.
func Add(c *Int, d int) int {
	c.Set(c.Get() + d)
	return c.Get()
}
