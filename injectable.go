package wirebox

import (
	"reflect"
	"runtime"
	"strconv"
	"strings"

	"github.com/wirebox/wirebox/internal/errs"
)

// InjectionStrategy controls which parameters of a bound function
// [Container.Call] fills in.
type InjectionStrategy uint8

const (
	// AnyNotPassed injects every parameter not covered by a positional
	// argument. This is the default.
	AnyNotPassed InjectionStrategy = iota

	// RequestedOnly injects only parameters explicitly configured with
	// [WithParam], [WithParamName], or [WithOptionalParam].
	RequestedOnly

	// OnlyListed injects only the parameters named when binding; everything
	// else must be passed positionally.
	OnlyListed
)

// Injectable binds a function for dependency-injected invocation through
// [Container.Call]. Build one with [BindFunc] when the defaults need
// adjusting; plain functions passed to Call are bound with defaults.
type Injectable struct {
	fn     reflect.Value
	fnType reflect.Type
	name   string

	strategy InjectionStrategy
	strict   bool

	params map[int]*paramConfig
	listed map[int]struct{}
}

type paramConfig struct {
	name     string
	optional bool
	opts     []ResolveOption
}

// BindOption configures [BindFunc].
type BindOption interface {
	applyBind(*Injectable) error
}

type bindOption func(*Injectable) error

func (o bindOption) applyBind(inj *Injectable) error {
	return o(inj)
}

// WithName overrides the function name reported in errors and hook contexts.
func WithName(name string) BindOption {
	return bindOption(func(inj *Injectable) error {
		inj.name = name
		return nil
	})
}

// WithParamName names parameter i for error text and hook contexts.
func WithParamName(i int, name string) BindOption {
	return bindOption(func(inj *Injectable) error {
		p, err := inj.param(i)
		if err != nil {
			return err
		}
		p.name = name
		return nil
	})
}

// WithParam attaches resolve options to parameter i, such as
// [WithQualifier] or [WithDefault]. It also marks the parameter as listed.
func WithParam(i int, opts ...ResolveOption) BindOption {
	return bindOption(func(inj *Injectable) error {
		p, err := inj.param(i)
		if err != nil {
			return err
		}
		p.opts = append(p.opts, opts...)
		return nil
	})
}

// WithOptionalParam marks parameter i optional: if it cannot be resolved it
// is passed as its zero value instead of failing the call.
func WithOptionalParam(i int) BindOption {
	return bindOption(func(inj *Injectable) error {
		p, err := inj.param(i)
		if err != nil {
			return err
		}
		p.optional = true
		return nil
	})
}

// WithStrategy sets the injection strategy; the default is [AnyNotPassed].
func WithStrategy(s InjectionStrategy) BindOption {
	return bindOption(func(inj *Injectable) error {
		inj.strategy = s
		return nil
	})
}

// NonStrict makes every unresolvable parameter fall back to its zero value
// instead of failing the call.
func NonStrict() BindOption {
	return bindOption(func(inj *Injectable) error {
		inj.strict = false
		return nil
	})
}

// BindFunc binds fn for injected invocation. fn must be a non-variadic
// function.
func BindFunc(fn any, opts ...BindOption) (*Injectable, error) {
	if fn == nil {
		return nil, errs.New("wirebox.BindFunc: fn is nil")
	}

	fnVal := reflect.ValueOf(fn)
	fnType := fnVal.Type()
	if fnType.Kind() != reflect.Func {
		return nil, errs.Errorf("wirebox.BindFunc: expected a function, got %T", fn)
	}
	if fnType.IsVariadic() {
		return nil, errs.New("wirebox.BindFunc: variadic functions are not supported")
	}

	inj := &Injectable{
		fn:       fnVal,
		fnType:   fnType,
		name:     funcName(fnVal),
		strategy: AnyNotPassed,
		strict:   true,
		params:   make(map[int]*paramConfig),
		listed:   make(map[int]struct{}),
	}

	err := applyOptions(opts, func(o BindOption) error {
		return o.applyBind(inj)
	})
	if err != nil {
		return nil, errs.Wrap(err, "wirebox.BindFunc")
	}

	return inj, nil
}

// MustBindFunc is [BindFunc] but panics on error.
func MustBindFunc(fn any, opts ...BindOption) *Injectable {
	inj, err := BindFunc(fn, opts...)
	if err != nil {
		panic(err)
	}
	return inj
}

// Name returns the bound function's name.
func (inj *Injectable) Name() string {
	return inj.name
}

func (inj *Injectable) param(i int) (*paramConfig, error) {
	if i < 0 || i >= inj.fnType.NumIn() {
		return nil, errs.Errorf("%s has no parameter %d", inj.name, i)
	}
	p, ok := inj.params[i]
	if !ok {
		p = &paramConfig{name: "arg" + strconv.Itoa(i)}
		inj.params[i] = p
	}
	inj.listed[i] = struct{}{}
	return p, nil
}

// paramName returns the configured name for parameter i. Go reflection
// cannot recover parameter names, so unnamed parameters report as "arg0",
// "arg1", and so on.
func (inj *Injectable) paramName(i int) string {
	if p, ok := inj.params[i]; ok && p.name != "" {
		return p.name
	}
	return "arg" + strconv.Itoa(i)
}

// shouldInject reports whether parameter i gets injected when no positional
// argument covers it.
func (inj *Injectable) shouldInject(i int) bool {
	switch inj.strategy {
	case RequestedOnly, OnlyListed:
		_, ok := inj.listed[i]
		return ok
	default:
		return true
	}
}

func (inj *Injectable) optional(i int) bool {
	if !inj.strict {
		return true
	}
	p, ok := inj.params[i]
	return ok && p.optional
}

func (inj *Injectable) resolveOpts(i int) []ResolveOption {
	if p, ok := inj.params[i]; ok {
		return p.opts
	}
	return nil
}

func funcName(fn reflect.Value) string {
	name := runtime.FuncForPC(fn.Pointer()).Name()
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	return name
}
