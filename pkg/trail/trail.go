// Package trail provides the reversible state used by the propagation kernel.
//
// A Trail is a stack of worlds. Every reversible write made while at least one
// world is open records an undo action; popping a world replays those actions
// in reverse order, restoring every cell to the value it held when the world
// was pushed. Writes made at the root world (before any Push) are permanent.
//
// Each Push and Pop advances the trail stamp. Stamps are never reused, so a
// cell or log that remembers the stamp of its last save can tell whether it
// already saved its value in the current world instance.
//
// Trails are not safe for concurrent use. Independent solver instances own
// independent trails.
package trail

import (
	"errors"
	"fmt"
)

// ErrRootWorld is returned when popping a trail that has no open world.
var ErrRootWorld = errors.New("trail: no world to pop")

// Trail records undo actions grouped by world.
type Trail struct {
	undo  []func()
	marks []int
	stamp uint64
	peak  int
}

// New creates an empty trail positioned at the root world.
func New() *Trail {
	return &Trail{
		undo:  make([]func(), 0, 256),
		marks: make([]int, 0, 32),
	}
}

// World returns the current world depth. The root world is 0.
func (t *Trail) World() int { return len(t.marks) }

// Stamp returns the identity of the current world instance.
func (t *Trail) Stamp() uint64 { return t.stamp }

// Size returns the number of undo actions currently recorded.
func (t *Trail) Size() int { return len(t.undo) }

// Peak returns the largest number of undo actions recorded at once.
func (t *Trail) Peak() int { return t.peak }

// Push opens a new world.
func (t *Trail) Push() {
	t.marks = append(t.marks, len(t.undo))
	t.stamp++
}

// Pop undoes every write made since the matching Push.
func (t *Trail) Pop() error {
	if len(t.marks) == 0 {
		return ErrRootWorld
	}
	mark := t.marks[len(t.marks)-1]
	t.marks = t.marks[:len(t.marks)-1]
	for i := len(t.undo) - 1; i >= mark; i-- {
		t.undo[i]()
		t.undo[i] = nil
	}
	t.undo = t.undo[:mark]
	t.stamp++
	return nil
}

// PopTo pops worlds until the trail is at the given depth.
func (t *Trail) PopTo(world int) error {
	if world < 0 || world > t.World() {
		return fmt.Errorf("trail: cannot pop to world %d from world %d", world, t.World())
	}
	for t.World() > world {
		if err := t.Pop(); err != nil {
			return err
		}
	}
	return nil
}

// Record registers an undo action for the current world. At the root world
// nothing can be undone, so the action is dropped.
func (t *Trail) Record(undo func()) {
	if len(t.marks) == 0 {
		return
	}
	t.undo = append(t.undo, undo)
	if len(t.undo) > t.peak {
		t.peak = len(t.undo)
	}
}
