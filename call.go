package wirebox

import (
	"context"
	"reflect"
	"slices"

	"github.com/wirebox/wirebox/internal/errs"
)

type callChainKey struct{}

// callChain returns the names of Call targets currently on the stack,
// outermost first.
func callChain(ctx context.Context) []string {
	chain, _ := ctx.Value(callChainKey{}).([]string)
	return chain
}

// Call invokes fn with its parameters resolved from the container. fn is a
// plain function, bound with defaults, or an [*Injectable] built with
// [BindFunc]. Anything else is offered to the MissingInjectable hook, which
// may supply the binding.
//
// Positional args fill parameters left to right when assignable;
// context.Context, *Container, and *Registry parameters are always supplied
// by the engine. The remaining parameters are injected according to the
// binding's strategy. fn may return nothing, a value, an error, or a value
// and an error.
func (c *Container) Call(ctx context.Context, fn any, args ...any) (any, error) {
	inj, err := c.injectable(ctx, fn)
	if err != nil {
		return nil, errs.Wrap(err, "wirebox.Container.Call")
	}

	val, err := c.call(ctx, inj, args)
	return val, errs.Wrapf(err, "wirebox.Container.Call %s", inj.name)
}

func (c *Container) injectable(ctx context.Context, fn any) (*Injectable, error) {
	switch v := fn.(type) {
	case nil:
		return nil, errs.New("fn is nil")
	case *Injectable:
		return v, nil
	}

	if reflect.TypeOf(fn).Kind() == reflect.Func {
		return BindFunc(fn)
	}

	hc := &HookContext{Kind: MissingInjectable, Chain: callChain(ctx)}
	res, err := c.registry.hookManager(MissingInjectable).Handle(ctx, c, fn, hc)
	if err != nil {
		return nil, err
	}
	if v, ok := res.Value(); ok {
		inj, ok := v.(*Injectable)
		if !ok {
			return nil, errs.Errorf("MissingInjectable hook returned %T, want *wirebox.Injectable", v)
		}
		return inj, nil
	}

	return nil, errs.Errorf("cannot call %T: not a function", fn)
}

func (c *Container) call(ctx context.Context, inj *Injectable, args []any) (any, error) {
	chain := append(slices.Clone(callChain(ctx)), inj.name)
	ctx = context.WithValue(ctx, callChainKey{}, chain)

	in := make([]reflect.Value, inj.fnType.NumIn())
	next := 0

	for i := range inj.fnType.NumIn() {
		paramType := inj.fnType.In(i)

		switch paramType {
		case typeContext:
			in[i] = reflect.ValueOf(ctx)
			continue
		case typeContainer:
			in[i] = reflect.ValueOf(c)
			continue
		case typeRegistry:
			in[i] = reflect.ValueOf(c.registry)
			continue
		}

		if next < len(args) && assignableArg(args[next], paramType) {
			in[i] = safeReflectValue(paramType, args[next])
			next++
			continue
		}

		val, err := c.injectParam(ctx, inj, i, paramType, chain)
		if err != nil {
			return nil, err
		}
		in[i] = safeReflectValue(paramType, val)
	}

	if next < len(args) {
		return nil, errs.Errorf("%d positional argument(s) did not match any parameter", len(args)-next)
	}

	out := inj.fn.Call(in)
	val, err := splitResults(out)
	if err != nil {
		return nil, err
	}

	hc := &HookContext{Kind: PostInjectionCall, Function: inj.name, Chain: chain}
	return c.registry.hookManager(PostInjectionCall).Filter(ctx, c, val, hc)
}

// injectParam resolves one parameter. The InjectionRequest hook may supply
// the value outright; otherwise it resolves from the container. Every
// injected value passes through the InjectionResponse filter.
func (c *Container) injectParam(ctx context.Context, inj *Injectable, i int, paramType reflect.Type, chain []string) (any, error) {
	name := inj.paramName(i)

	hc := &HookContext{
		Kind:      InjectionRequest,
		Type:      paramType,
		Function:  inj.name,
		Parameter: name,
		Chain:     chain,
	}

	res, err := c.registry.hookManager(InjectionRequest).Handle(ctx, c, nil, hc)
	if err != nil {
		return nil, err
	}

	val, supplied := res.Value()
	if !supplied {
		if !inj.shouldInject(i) {
			if inj.optional(i) {
				return zeroValue(paramType), nil
			}
			return nil, errs.Errorf("parameter %q (%s) was not passed and is not injected", name, paramType)
		}

		opts := append(slices.Clone(inj.resolveOpts(i)), withCaller(name, inj.name, chain))
		val, err = c.Find(paramType, opts...).Get(ctx)
		if err != nil {
			if inj.optional(i) {
				return zeroValue(paramType), nil
			}
			return nil, errs.Wrapf(err, "parameter %q (%s)", name, paramType)
		}
	}

	hc = &HookContext{
		Kind:      InjectionResponse,
		Type:      paramType,
		Function:  inj.name,
		Parameter: name,
		Chain:     chain,
	}
	return c.registry.hookManager(InjectionResponse).Filter(ctx, c, val, hc)
}

func assignableArg(arg any, paramType reflect.Type) bool {
	if arg == nil {
		k := paramType.Kind()
		return k == reflect.Interface || k == reflect.Ptr
	}
	return reflect.TypeOf(arg).AssignableTo(paramType)
}

func zeroValue(t reflect.Type) any {
	return reflect.Zero(t).Interface()
}

// splitResults maps a call's return values onto (value, error): functions
// may return nothing, a value, an error, or a value and an error.
func splitResults(out []reflect.Value) (any, error) {
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		if out[0].Type() == typeError {
			err, _ := out[0].Interface().(error)
			return nil, err
		}
		return out[0].Interface(), nil
	case 2:
		if out[1].Type() != typeError {
			return nil, errs.Errorf("unsupported return signature: second value is %s, want error", out[1].Type())
		}
		if err, _ := out[1].Interface().(error); err != nil {
			return nil, err
		}
		return out[0].Interface(), nil
	default:
		return nil, errs.Errorf("unsupported return signature: %d values", len(out))
	}
}
