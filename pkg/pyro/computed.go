package pyro

// Computed is the accessor object for a derived, read-only slot. The
// deriving function is shared per type; the cached value and its
// validity flag live on each instance.
type Computed struct {
	name string
	fn   func(*Model) any
}

// Name returns the slot name.
func (c *Computed) Name() string { return c.name }

// computedCache is the per-instance state of one computed slot.
type computedCache struct {
	value any
	valid bool

	// has distinguishes "never computed" from "cached nil": the first
	// evaluation must not notify dependents.
	has bool
}

// Value returns the computed's current value on m, re-deriving it only
// when the cache is invalid.
//
// A re-derivation runs inside a fresh tracking frame: the previous
// dependency edges are discarded first, and every atom or computed read
// during the run registers a fresh edge. Entering a slot already on the
// evaluation stack panics with *CycleError. When the derived value
// differs from the prior cache, this computed's own dependents are
// notified in turn.
func (c *Computed) Value(m *Model) any {
	trackRead(m, c.name)

	cc := m.cache(c.name)
	if cc.valid {
		return cc.value
	}

	if cycle := pushEval(m, c.name); cycle != nil {
		panic(cycle)
	}
	m.clearEdges(c.name)

	var value any
	func() {
		defer popEval()
		value = c.fn(m)
	}()

	prev, had := cc.value, cc.has
	cc.value = value
	cc.valid = true
	cc.has = true

	if had && !Equal(prev, value) {
		m.notify(c.name, value)
	}
	return value
}
