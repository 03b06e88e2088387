// Package cell provides deferred in-place construction for a single value,
// standing in for the uninitialised storage a heap-free runtime needs for
// fields it cannot construct until spawn time.
//
// Go has no unsafe "declared but not yet constructed" memory the way
// MaybeUninit<T> does in the original design — every Go value is zero-valued
// the moment its containing struct exists. Cell keeps the same three-
// operation contract anyway (Write, Get, Drop) because callers reason about
// it the same way: write exactly once before use, read only after writing,
// drop exactly once. The cell always tracks whether it holds a value
// (Written); the assertions that turn a misuse into a panic are compiled in
// only under chrono_debug and are no-ops in the default build.
package cell

// Cell holds a single deferred-construction value of type T.
//
// The zero Cell is not ready for use; call Write before any Get.
type Cell[T any] struct {
	value   T
	written bool
}

// Write constructs the cell's value in place. The caller guarantees this is
// not called twice without an intervening Drop.
func (c *Cell[T]) Write(v T) {
	assertf(!c.written, "cell: Write called on an already-written cell")
	c.value = v
	c.written = true
}

// Get returns a pointer to the cell's value. The caller guarantees Write has
// already run.
func (c *Cell[T]) Get() *T {
	assertf(c.written, "cell: Get called before Write")
	return &c.value
}

// Take reads and clears the cell, leaving it ready for another Write. The
// caller guarantees Write has already run.
func (c *Cell[T]) Take() T {
	assertf(c.written, "cell: Take called before Write")
	v := c.value
	var zero T
	c.value = zero
	c.written = false
	return v
}

// Drop clears the cell without returning the value, dropping it in place.
// The caller guarantees Write has already run.
func (c *Cell[T]) Drop() {
	assertf(c.written, "cell: Drop called before Write")
	var zero T
	c.value = zero
	c.written = false
}

// Written reports whether the cell currently holds a constructed value.
func (c *Cell[T]) Written() bool {
	return c.written
}
