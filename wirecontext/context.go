// Package wirecontext stores a [wirebox.Container] on a [context.Context]
// so code deep in a call tree can resolve dependencies without threading the
// container through every signature.
package wirecontext

import (
	"context"
	"reflect"

	"github.com/wirebox/wirebox"
	"github.com/wirebox/wirebox/internal/errs"
)

type containerContextKey struct{}

// WithContainer returns a new [context.Context] carrying the container.
func WithContainer(ctx context.Context, c *wirebox.Container) context.Context {
	return context.WithValue(ctx, containerContextKey{}, c)
}

// From returns the [wirebox.Container] stored on the context, if present.
func From(ctx context.Context) *wirebox.Container {
	if c, ok := ctx.Value(containerContextKey{}).(*wirebox.Container); ok {
		return c
	}
	return nil
}

// Get resolves a dependency of type T from the container stored on the
// context.
func Get[T any](ctx context.Context, opts ...wirebox.ResolveOption) (T, error) {
	var val T

	c := From(ctx)
	if c == nil {
		return val, errs.Errorf("get %s from context: container not found on context", reflect.TypeFor[T]())
	}

	return wirebox.Get[T](ctx, c, opts...)
}

// MustGet resolves a dependency of type T from the container stored on the
// context, panicking on failure.
func MustGet[T any](ctx context.Context, opts ...wirebox.ResolveOption) T {
	val, err := Get[T](ctx, opts...)
	if err != nil {
		panic(err)
	}
	return val
}
