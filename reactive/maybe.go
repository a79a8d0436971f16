package reactive

// Maybe is an optional value. A computation that cannot run because a
// required input is missing returns None instead of an error; dependents
// treat that as "do not update", never as a failure.
type Maybe[T any] struct {
	value T
	ok    bool
}

// Some wraps a present value.
func Some[T any](v T) Maybe[T] {
	return Maybe[T]{value: v, ok: true}
}

// None returns an absent value.
func None[T any]() Maybe[T] {
	return Maybe[T]{}
}

// Get returns the value and whether it is present.
func (m Maybe[T]) Get() (T, bool) {
	return m.value, m.ok
}

// OK reports whether the value is present.
func (m Maybe[T]) OK() bool { return m.ok }

// OrElse returns the value, or def when absent.
func (m Maybe[T]) OrElse(def T) T {
	if !m.ok {
		return def
	}
	return m.value
}

// Req is the required-input guard: it returns None when cond is false and
// Some(fn()) otherwise.
func Req[T any](cond bool, fn func() T) Maybe[T] {
	if !cond {
		return None[T]()
	}
	return Some(fn())
}
