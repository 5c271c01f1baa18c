package schema

// Option holds a value that may be absent.
type Option[T any] struct {
	value T
	ok    bool
}

// Some wraps a present value.
func Some[T any](v T) Option[T] { return Option[T]{value: v, ok: true} }

// None returns an absent value.
func None[T any]() Option[T] { return Option[T]{} }

// Get returns the value and whether it is present.
func (o Option[T]) Get() (T, bool) { return o.value, o.ok }

// IsSome reports whether the value is present.
func (o Option[T]) IsSome() bool { return o.ok }

// OrElse returns the value, or d when absent.
func (o Option[T]) OrElse(d T) T {
	if o.ok {
		return o.value
	}
	return d
}

// Lookup returns a field of inst as an Option. It is None when the field is
// absent or not of type T.
//
//	height := schema.Lookup[float64](inst, "height")
//	if h, ok := height.Get(); ok { ... }
func Lookup[T any](inst *Instance, name string) Option[T] {
	v, ok := inst.Get(name)
	if !ok {
		return None[T]()
	}
	t, ok := v.(T)
	if !ok {
		return None[T]()
	}
	return Some(t)
}
