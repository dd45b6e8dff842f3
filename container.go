package wirebox

import (
	"context"
	"reflect"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/wirebox/wirebox/internal/errs"
)

// Container is a per-scope instance cache backed by a shared [Registry].
//
// Containers form a tree: [Container.Branch] creates a child that reads
// through to this container's cache but writes only into its own, so a
// branch's additions stay invisible to the parent and to sibling branches.
//
// The instance cache deliberately takes no per-key locks: concurrent
// first-time resolutions of the same type may invoke a factory more than
// once, with the last writer winning the cache entry. Register the registry
// with [WithSingleflight] when at-most-once creation is required.
type Container struct {
	id        string
	registry  *Registry
	parent    *Container
	instances *xsync.MapOf[instanceKey, any]
}

func newContainer(r *Registry, parent *Container) *Container {
	c := &Container{
		id:        uuid.NewString()[:8],
		registry:  r,
		parent:    parent,
		instances: xsync.NewMapOf[instanceKey, any](),
	}

	// A container resolves itself and its registry without registration.
	c.instances.Store(typeKey(typeContainer), c)
	c.instances.Store(typeKey(typeRegistry), r)

	return c
}

// Registry returns the registry this container is bound to.
func (c *Container) Registry() *Registry {
	return c.registry
}

// Parent returns the parent container, or nil for a root container.
func (c *Container) Parent() *Container {
	return c.parent
}

// Branch creates a child container sharing this container's registry. The
// child sees entries already present in this container but its own additions
// stay isolated. No instances are copied.
func (c *Container) Branch() *Container {
	c.registry.log.Debug().Str("parent", c.id).Msg("container branched")
	return newContainer(c.registry, c)
}

func (c *Container) String() string {
	return "wirebox.Container(" + c.id + ")"
}

// AddOption configures [Container.Add].
//
// Available options:
//   - [For] / [ForType] store the instance under a wider type.
//   - [WithQualifier] stores the instance under a qualifier.
type AddOption interface {
	applyAdd(*addConfig) error
}

type addConfig struct {
	forType   reflect.Type
	qualifier string
}

// Add stores an instance in this container's cache, by default under the
// instance's own type.
func (c *Container) Add(instance any, opts ...AddOption) error {
	if isNil(instance) {
		return errs.New("wirebox.Container.Add: instance is nil")
	}

	cfg := &addConfig{}
	err := applyOptions(opts, func(o AddOption) error {
		return o.applyAdd(cfg)
	})
	if err != nil {
		return errs.Wrap(err, "wirebox.Container.Add")
	}

	t := cfg.forType
	if t == nil {
		t = reflect.TypeOf(instance)
	}
	if err := validateDependencyType(t); err != nil {
		return errs.Wrap(err, "wirebox.Container.Add")
	}
	if cfg.forType != nil && !reflect.TypeOf(instance).AssignableTo(cfg.forType) {
		return errs.Errorf("wirebox.Container.Add: %T is not assignable to %s", instance, cfg.forType)
	}

	key := typeKey(t)
	if cfg.qualifier != "" {
		key = qualifiedKey(t, cfg.qualifier)
	}

	c.instances.Store(key, instance)
	c.registry.log.Debug().
		Str("container", c.id).
		Stringer("key", key).
		Msg("instance added")

	return nil
}

// Find returns a lazy Resolution for the requested type. Use
// [Resolution.Get] in synchronous contexts and [Resolution.Await] in
// asynchronous ones; both agree on outcome.
func (c *Container) Find(t reflect.Type, opts ...ResolveOption) *Resolution {
	cfg, err := newResolveConfig(opts)
	return &Resolution{c: c, t: t, cfg: cfg, err: err}
}

// Get resolves an instance of the requested type synchronously. If the
// dependency chain or a hook on the path is asynchronous, execution bridges
// through the shared resolver worker, bounded by the registry's resolve
// timeout.
func (c *Container) Get(ctx context.Context, t reflect.Type, opts ...ResolveOption) (any, error) {
	val, err := c.Find(t, opts...).Get(ctx)
	return val, errs.Wrapf(err, "wirebox.Container.Get %s", typeName(t))
}

// GetAsync resolves an instance of the requested type on the caller's
// goroutine, blocking at each asynchronous factory. It behaves identically
// to [Container.Get] in outcome.
func (c *Container) GetAsync(ctx context.Context, t reflect.Type, opts ...ResolveOption) (any, error) {
	val, err := c.Find(t, opts...).Await(ctx)
	return val, errs.Wrapf(err, "wirebox.Container.GetAsync %s", typeName(t))
}

// resolveDependency resolves a factory parameter on the current visiting
// stack.
func (c *Container) resolveDependency(ctx context.Context, t reflect.Type, visitor *resolveVisitor, function string) (any, error) {
	res := c.Find(t, withCaller("", function, nil))
	return res.awaitWith(ctx, visitor)
}

// lookupExact returns this container's cache entry for the exact key.
func (c *Container) lookupExact(key instanceKey) (any, bool) {
	return c.instances.Load(key)
}

// lookupLocal finds an instance for the requested type in this container
// only: an exact type entry, or an entry stored under a type the request is
// assignable to. Qualified and factory-cached entries never match.
func (c *Container) lookupLocal(t reflect.Type) Option[any] {
	if v, ok := c.instances.Load(typeKey(t)); ok {
		return Some(v)
	}

	var found any
	ok := false
	c.instances.Range(func(key instanceKey, v any) bool {
		if !key.isPlainType() || key.typ == t {
			return true
		}
		if t.AssignableTo(key.typ) {
			found = v
			ok = true
			return false
		}
		return true
	})

	if ok {
		return Some(found)
	}
	return Nothing[any]("no instance of " + t.String())
}

// lookupChain finds an instance for the requested type in this container or
// any ancestor.
func (c *Container) lookupChain(t reflect.Type) Option[any] {
	for scope := c; scope != nil; scope = scope.parent {
		if res := scope.lookupLocal(t); res.IsSome() {
			return res
		}
	}
	return Nothing[any]("no instance of " + t.String())
}

// lookupQualifiedChain finds a qualified entry in this container or any
// ancestor.
func (c *Container) lookupQualifiedChain(t reflect.Type, qualifier string) (any, bool) {
	key := qualifiedKey(t, qualifier)
	for scope := c; scope != nil; scope = scope.parent {
		if v, ok := scope.instances.Load(key); ok {
			return v, true
		}
	}
	return nil, false
}

// factoryCacheLookup finds a factory-result entry in this container or any
// ancestor.
func (c *Container) factoryCacheLookup(key instanceKey) (any, bool) {
	for scope := c; scope != nil; scope = scope.parent {
		if v, ok := scope.instances.Load(key); ok {
			return v, true
		}
	}
	return nil, false
}

// Get resolves an instance of type T from the container.
func Get[T any](ctx context.Context, c *Container, opts ...ResolveOption) (T, error) {
	var val T

	anyVal, err := c.Get(ctx, reflect.TypeFor[T](), opts...)
	if err != nil {
		return val, err
	}

	val, ok := anyVal.(T)
	if !ok && anyVal != nil {
		return val, errs.Errorf("wirebox.Get: resolved %T is not %s", anyVal, reflect.TypeFor[T]())
	}
	return val, nil
}

// MustGet resolves an instance of type T from the container, panicking on
// failure.
func MustGet[T any](ctx context.Context, c *Container, opts ...ResolveOption) T {
	val, err := Get[T](ctx, c, opts...)
	if err != nil {
		panic(err)
	}
	return val
}

// Await resolves an instance of type T on the caller's goroutine.
func Await[T any](ctx context.Context, c *Container, opts ...ResolveOption) (T, error) {
	var val T

	anyVal, err := c.GetAsync(ctx, reflect.TypeFor[T](), opts...)
	if err != nil {
		return val, err
	}

	val, ok := anyVal.(T)
	if !ok && anyVal != nil {
		return val, errs.Errorf("wirebox.Await: resolved %T is not %s", anyVal, reflect.TypeFor[T]())
	}
	return val, nil
}
