package wirebox

import "fmt"

// Option is a two-variant value: [Some] carrying a value, or [Nothing]
// carrying a diagnostic message. It is used for every lookup that may fail
// without being exceptional, so that "no value" and "value that happens to
// be nil" stay distinguishable.
type Option[T any] struct {
	value   T
	message string
	some    bool
}

// Some returns an Option holding the given value.
func Some[T any](value T) Option[T] {
	return Option[T]{value: value, some: true}
}

// Nothing returns an empty Option carrying a diagnostic message.
func Nothing[T any](message string) Option[T] {
	return Option[T]{message: message}
}

// IsSome reports whether the Option holds a value.
func (o Option[T]) IsSome() bool {
	return o.some
}

// IsNothing reports whether the Option is empty.
func (o Option[T]) IsNothing() bool {
	return !o.some
}

// Value returns the held value and whether it is present.
func (o Option[T]) Value() (T, bool) {
	return o.value, o.some
}

// MustValue returns the held value, panicking with the Nothing message if
// the Option is empty.
func (o Option[T]) MustValue() T {
	if !o.some {
		panic(fmt.Sprintf("wirebox: no value: %s", o.Message()))
	}
	return o.value
}

// OrElse returns the held value, or def if the Option is empty.
func (o Option[T]) OrElse(def T) T {
	if !o.some {
		return def
	}
	return o.value
}

// Message returns the diagnostic message of an empty Option.
func (o Option[T]) Message() string {
	if o.some {
		return ""
	}
	if o.message == "" {
		return "no value"
	}
	return o.message
}

// Match dispatches exhaustively on the two variants.
func (o Option[T]) Match(onSome func(T), onNothing func(message string)) {
	if o.some {
		onSome(o.value)
		return
	}
	onNothing(o.Message())
}

func (o Option[T]) String() string {
	if o.some {
		return fmt.Sprintf("Some(%v)", o.value)
	}
	if o.message == "" {
		return "Nothing()"
	}
	return fmt.Sprintf("Nothing(%s)", o.message)
}
