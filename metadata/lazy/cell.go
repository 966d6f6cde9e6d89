// Package lazy provides the write-once binding cell used to attach one
// table's data onto entities resolved by an earlier table. A cell starts
// empty and accepts exactly one write; a second write fails rather than
// silently overwriting, because duplicate annotation means the metadata
// itself is malformed.
package lazy

import (
	"errors"
	"sync"
)

// ErrAlreadySet is returned by Set when the cell already holds a value.
// Callers wrap it with the location of the duplicate annotation.
var ErrAlreadySet = errors.New("binding cell already set")

// Cell is a write-once slot. The zero value is an empty, usable cell.
// Concurrent setters are safe: exactly one wins, the rest get
// ErrAlreadySet. Reads taken after the loading schedule completes need no
// further synchronization.
type Cell[T any] struct {
	mu    sync.Mutex
	set   bool
	value T
}

// Set stores v. It fails with ErrAlreadySet if a value is already present.
func (c *Cell[T]) Set(v T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.set {
		return ErrAlreadySet
	}
	c.value = v
	c.set = true
	return nil
}

// Get returns the stored value and whether one has been set.
func (c *Cell[T]) Get() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value, c.set
}

// OrZero returns the stored value, or the zero value when the cell is
// still empty.
func (c *Cell[T]) OrZero() T {
	v, _ := c.Get()
	return v
}

// IsSet reports whether the cell holds a value.
func (c *Cell[T]) IsSet() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.set
}
