package reactive

// ============================================================================
// INPUT — externally set value
// ============================================================================

// Input is a value set from outside the graph (a UI control).
type Input[T any] struct {
	*base
	value T
	equal func(a, b T) bool
}

// NewInput registers an input compared with ==.
func NewInput[T comparable](g *Graph, name string, initial T) *Input[T] {
	return NewInputFunc(g, name, initial, func(a, b T) bool { return a == b })
}

// NewInputFunc registers an input with a custom equality.
func NewInputFunc[T any](g *Graph, name string, initial T, equal func(a, b T) bool) *Input[T] {
	return &Input[T]{
		base:  g.register(name, nil),
		value: initial,
		equal: equal,
	}
}

// Get returns the current value.
func (in *Input[T]) Get() T { return in.value }

// Set updates the value. Direct dependents become stale only when the
// value differs from the current one. Returns whether it changed.
func (in *Input[T]) Set(v T) bool {
	if in.equal != nil && in.equal(in.value, v) {
		return false
	}
	in.value = v
	in.runs++
	in.markDependentsStale()
	return true
}

// ============================================================================
// CALC — derived value with declared dependencies
// ============================================================================

// Calc is a memoized derived value. The compute function may read only the
// nodes passed as deps; it runs once per cycle in which one of them changed.
type Calc[T any] struct {
	*base
	fn        func() Maybe[T]
	last      Maybe[T]
	equal     func(a, b T) bool
	observers []func(T)
}

// NewCalc registers a derived node. It starts stale, so the first Flush
// computes it.
func NewCalc[T any](g *Graph, name string, fn func() Maybe[T], deps ...Node) *Calc[T] {
	c := &Calc[T]{
		base: g.register(name, deps),
		fn:   fn,
	}
	c.stale = true
	c.base.recompute = c.recompute
	return c
}

// WithEqual sets the equality used to decide whether a recomputed value
// changed. Without it every successful recomputation counts as a change.
func (c *Calc[T]) WithEqual(equal func(a, b T) bool) *Calc[T] {
	c.equal = equal
	return c
}

// Observe registers fn to receive every changed value.
func (c *Calc[T]) Observe(fn func(T)) {
	c.observers = append(c.observers, fn)
}

// Get returns the current value, or None while the node is suspended or
// has never been computed.
func (c *Calc[T]) Get() Maybe[T] {
	if c.suspended {
		return None[T]()
	}
	return c.last
}

// Last returns the last successfully computed value, even while suspended.
func (c *Calc[T]) Last() Maybe[T] { return c.last }

func (c *Calc[T]) recompute() (bool, bool) {
	next := c.fn()
	v, ok := next.Get()
	if !ok {
		return false, false
	}

	prev, had := c.last.Get()
	c.last = next
	changed := !had || c.equal == nil || !c.equal(prev, v)
	if changed {
		for _, obs := range c.observers {
			obs(v)
		}
	}
	return changed, true
}
