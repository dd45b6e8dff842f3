package wirebox

import (
	"context"
	"reflect"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/wirebox/wirebox/internal/errs"
)

// DefaultResolveTimeout bounds how long a synchronous caller waits when
// bridging into asynchronous resolution.
const DefaultResolveTimeout = 30 * time.Second

// Registry stores factories and hooks shared by a tree of containers.
//
// A Registry is expected to be fully populated at startup and is then safe
// to share read-only across goroutines. Calling AddFactory or AddHook
// concurrently with active resolutions is unsupported.
type Registry struct {
	factories []*factory
	hooks     map[HookKind]*HookManager
	analyzer  *analyzer

	log     zerolog.Logger
	timeout time.Duration
	single  *singleflight.Group
}

// RegistryOption configures a new [Registry].
type RegistryOption interface {
	applyRegistry(*Registry)
}

type registryOption func(*Registry)

func (o registryOption) applyRegistry(r *Registry) {
	o(r)
}

// WithDebugLogger enables debug tracing of resolution steps.
func WithDebugLogger(log zerolog.Logger) RegistryOption {
	return registryOption(func(r *Registry) {
		r.log = log
	})
}

// WithResolveTimeout overrides [DefaultResolveTimeout] for synchronous
// callers bridging into asynchronous resolution.
func WithResolveTimeout(d time.Duration) RegistryOption {
	return registryOption(func(r *Registry) {
		r.timeout = d
	})
}

// WithSingleflight makes first-time instance creation at-most-once per cache
// key across concurrent callers. Without it, concurrent first-time
// resolutions of the same type may invoke the factory more than once, with
// the last writer winning the cache entry.
func WithSingleflight() RegistryOption {
	return registryOption(func(r *Registry) {
		r.single = &singleflight.Group{}
	})
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		hooks:   make(map[HookKind]*HookManager),
		log:     zerolog.Nop(),
		timeout: DefaultResolveTimeout,
	}
	r.analyzer = newAnalyzer(r)

	for _, opt := range opts {
		opt.applyRegistry(r)
	}

	return r
}

// AddFactory registers fn as the factory for its provided type, inferred
// from the function's first return value or forced with [For] / [ForType].
//
// Lookup matches by assignability in registration order: a request for type
// T uses the first registered factory whose type T is assignable to, so
// registration order is significant. Registering the same type again
// replaces the earlier factory in place.
//
// Available options:
//   - [For] / [ForType] force the provided type.
//   - [Async] marks the factory asynchronous.
func (r *Registry) AddFactory(fn any, opts ...FactoryOption) error {
	f, err := newFactory(fn, opts...)
	if err != nil {
		return errs.Wrap(err, "wirebox.Registry.AddFactory")
	}

	if f.t == nil {
		t, err := r.inferMissingType(fn)
		if err != nil {
			return errs.Wrap(err, "wirebox.Registry.AddFactory")
		}
		f.t = t
	}

	r.log.Debug().
		Stringer("type", f.t).
		Bool("async", f.async).
		Msg("factory registered")

	defer r.analyzer.invalidateAll()

	for i, existing := range r.factories {
		if existing.t == f.t {
			// Last call on the same key overwrites, keeping its position.
			r.factories[i] = f
			return nil
		}
	}

	r.factories = append(r.factories, f)
	return nil
}

// inferMissingType fires the FactoryMissingType hook for a factory whose
// provided type could not be inferred. A responding hook supplies the type.
func (r *Registry) inferMissingType(fn any) (reflect.Type, error) {
	res, err := r.hooks[FactoryMissingType].Handle(
		context.Background(), nil, fn, &HookContext{Kind: FactoryMissingType},
	)
	if err != nil {
		return nil, err
	}

	if v, ok := res.Value(); ok {
		t, ok := v.(reflect.Type)
		if !ok {
			return nil, errs.Errorf("FactoryMissingType hook returned %T, want reflect.Type", v)
		}
		return t, nil
	}

	return nil, errs.Errorf("%w: cannot infer provided type of %T", ErrInvalidDependency, fn)
}

// AddHook appends a callback to the given hook kind, creating the kind's
// manager on first use.
//
// Available options:
//   - [Async] marks the callback asynchronous; synchronous callers bridge
//     it through the shared resolver worker.
func (r *Registry) AddHook(kind HookKind, fn HookFunc, opts ...HookOption) error {
	if fn == nil {
		return errs.New("wirebox.Registry.AddHook: fn is nil")
	}

	entry := hookEntry{fn: fn}
	err := applyOptions(opts, func(o HookOption) error {
		return o.applyHook(&entry)
	})
	if err != nil {
		return errs.Wrap(err, "wirebox.Registry.AddHook")
	}

	mgr, ok := r.hooks[kind]
	if !ok {
		mgr = &HookManager{}
		r.hooks[kind] = mgr
	}
	mgr.add(entry)

	r.log.Debug().Stringer("kind", kind).Bool("async", entry.async).Msg("hook registered")
	return nil
}

// NewContainer creates a new root [Container] bound to this Registry.
func (r *Registry) NewContainer() *Container {
	return newContainer(r, nil)
}

// InvalidateChain drops the analyzer's cached chain for one target type.
func (r *Registry) InvalidateChain(t reflect.Type) {
	r.analyzer.invalidate(t)
}

// InvalidateChains drops every cached dependency chain.
func (r *Registry) InvalidateChains() {
	r.analyzer.invalidateAll()
}

// factoryFor returns the first registered factory matching the requested
// type, in registration order. The requested type must be a valid lookup
// key.
func (r *Registry) factoryFor(t reflect.Type) (Option[*factory], error) {
	if err := validateDependencyType(t); err != nil {
		return Nothing[*factory](""), err
	}

	for _, f := range r.factories {
		if t == f.t || t.AssignableTo(f.t) {
			return Some(f), nil
		}
	}

	return Nothing[*factory]("no factory registered for " + t.String()), nil
}

func (r *Registry) hookManager(kind HookKind) *HookManager {
	return r.hooks[kind]
}

func (r *Registry) hasAsyncHooks(kinds ...HookKind) bool {
	for _, kind := range kinds {
		if r.hooks[kind].hasAsync() {
			return true
		}
	}
	return false
}
