package wirebox

import (
	"context"
	"reflect"

	"github.com/wirebox/wirebox/internal/errs"
)

// FactoryOption configures a factory when calling [Registry.AddFactory] or
// [WithDefaultFactory].
type FactoryOption interface {
	applyFactory(*factory) error
}

// For forces the type a factory provides or an instance is stored under.
// Use when the concrete type is narrower than the type it should be
// registered for.
func For[T any]() TypeOption {
	return ForType(reflect.TypeFor[T]())
}

// ForType is the non-generic form of [For].
func ForType(t reflect.Type) TypeOption {
	return TypeOption{t: t}
}

// TypeOption overrides the registered type. It can be used with
// [Registry.AddFactory], [WithDefaultFactory], and [Container.Add].
type TypeOption struct {
	t reflect.Type
}

func (o TypeOption) applyFactory(f *factory) error {
	f.t = o.t
	return nil
}

func (o TypeOption) applyAdd(cfg *addConfig) error {
	cfg.forType = o.t
	return nil
}

// Async marks a factory or hook callback as asynchronous. Asynchronous
// factories make every chain that includes them asynchronous; synchronous
// callers resolve such chains through the shared resolver worker.
func Async() AsyncOption {
	return AsyncOption{}
}

// AsyncOption marks a factory or hook as asynchronous. It can be used with
// [Registry.AddFactory], [Registry.AddHook], and [WithDefaultFactory].
type AsyncOption struct{}

func (AsyncOption) applyFactory(f *factory) error {
	f.async = true
	return nil
}

func (AsyncOption) applyHook(e *hookEntry) error {
	e.async = true
	return nil
}

// factory wraps a registered constructor function: the type it provides, the
// dependency types declared by its parameters, and whether it is
// asynchronous.
type factory struct {
	t          reflect.Type
	fn         reflect.Value
	fnType     reflect.Type
	deps       []reflect.Type
	async      bool
	returnsErr bool
}

// newFactory builds a factory from any function. The provided type is
// inferred from the first return value; parameters are declared
// dependencies, except context.Context and *Container which are supplied by
// the engine. The function must return T or (T, error).
func newFactory(fn any, opts ...FactoryOption) (*factory, error) {
	if fn == nil {
		return nil, errs.New("factory function is nil")
	}

	fnType := reflect.TypeOf(fn)
	if fnType.Kind() != reflect.Func {
		return nil, errs.Errorf("expected a function, got %T", fn)
	}
	if fnType.IsVariadic() {
		return nil, errs.New("variadic factory functions are not supported")
	}

	var t reflect.Type
	switch {
	case fnType.NumOut() == 1 && fnType.Out(0) != typeError:
		t = fnType.Out(0)
	case fnType.NumOut() == 2 && fnType.Out(1) == typeError:
		t = fnType.Out(0)
	default:
		return nil, errs.New("factory function must return T or (T, error)")
	}

	// A factory returning any cannot be registered without an explicit
	// ForType; the registry gives the FactoryMissingType hook a chance to
	// supply one.
	if t == typeAny {
		t = nil
	}

	var deps []reflect.Type
	for i := range fnType.NumIn() {
		in := fnType.In(i)
		if in == typeContext || in == typeContainer || in == typeRegistry {
			continue
		}
		deps = append(deps, in)
	}

	f := &factory{
		t:          t,
		fn:         reflect.ValueOf(fn),
		fnType:     fnType,
		deps:       deps,
		returnsErr: fnType.NumOut() == 2,
	}

	err := applyOptions(opts, func(o FactoryOption) error {
		return o.applyFactory(f)
	})
	if err != nil {
		return nil, err
	}

	if f.t != nil {
		if err := validateDependencyType(f.t); err != nil {
			return nil, err
		}
	}

	return f, nil
}

// invoke calls the factory function, resolving its declared dependencies
// from the container on the same visiting stack so cycles surface with the
// full path.
func (f *factory) invoke(ctx context.Context, c *Container, visitor *resolveVisitor) (any, error) {
	key := f.visitKey()
	if err := visitor.enter(key); err != nil {
		return nil, err
	}
	defer visitor.leave(key)

	in := make([]reflect.Value, f.fnType.NumIn())
	for i := range f.fnType.NumIn() {
		inType := f.fnType.In(i)

		switch inType {
		case typeContext:
			in[i] = reflect.ValueOf(ctx)
		case typeContainer:
			in[i] = reflect.ValueOf(c)
		case typeRegistry:
			in[i] = reflect.ValueOf(c.registry)
		default:
			dep, err := c.resolveDependency(ctx, inType, visitor, f.name())
			if err != nil {
				return nil, err
			}
			in[i] = safeReflectValue(inType, dep)
		}
	}

	out := f.fn.Call(in)

	val := out[0].Interface()
	if f.returnsErr {
		if err, _ := out[1].Interface().(error); err != nil {
			// Factory errors propagate unchanged.
			return nil, err
		}
	}

	return val, nil
}

// visitKey identifies this factory on the visiting stack. Factories with a
// known provided type use the type key so cycle reports name types.
func (f *factory) visitKey() instanceKey {
	if f.t != nil {
		return typeKey(f.t)
	}
	return factoryKey(f.fn)
}

func (f *factory) name() string {
	return funcName(f.fn)
}

func (f *factory) String() string {
	return f.fnType.String()
}
