package wirebox

import (
	"context"
	"reflect"

	"github.com/wirebox/wirebox/internal/bridge"
	"github.com/wirebox/wirebox/internal/errs"
)

// Resolution is a lazy handle for one dependency lookup, created by
// [Container.Find]. Nothing happens until [Resolution.Get] or
// [Resolution.Await] is called.
//
// Get and Await agree on outcome for any given state; they differ only in
// execution model. Await runs the resolution on the calling goroutine,
// blocking at each asynchronous step. Get detects asynchronous chains and
// hooks up front and runs those resolutions on the shared resolver worker,
// bounded by the registry's resolve timeout.
type Resolution struct {
	c   *Container
	t   reflect.Type
	cfg *resolveConfig
	err error
}

// Type returns the requested dependency type.
func (r *Resolution) Type() reflect.Type {
	return r.t
}

// Await resolves on the calling goroutine.
func (r *Resolution) Await(ctx context.Context) (any, error) {
	return r.awaitWith(ctx, newResolveVisitor())
}

// Get resolves synchronously, bridging through the shared resolver worker
// when the dependency chain or a registered hook is asynchronous.
func (r *Resolution) Get(ctx context.Context) (any, error) {
	if r.err != nil {
		return nil, r.err
	}

	if !r.needsBridge() {
		return r.Await(ctx)
	}

	r.c.registry.log.Debug().
		Stringer("type", r.t).
		Str("container", r.c.id).
		Msg("bridging asynchronous resolution")

	return bridge.Run(ctx, r.c.registry.timeout, func(ctx context.Context) (any, error) {
		return r.awaitWith(ctx, newResolveVisitor())
	})
}

// needsBridge reports whether Get must run this resolution on the resolver
// worker. Asynchronous lookup hooks bridge every resolution, cached or not,
// because they fire on every lookup. Without them, a cached instance resolves
// inline, and an explicit default factory overrides the registered chain's
// classification.
func (r *Resolution) needsBridge() bool {
	reg := r.c.registry

	if r.cfg.fromConfig != "" {
		return false
	}
	if reg.hasAsyncHooks(GetInstance, GotInstance, CreateInstance, CreatedInstance, HandleUnsupportedDependency) {
		return true
	}
	if r.cfg.defFactory != nil {
		return r.cfg.defFactory.async
	}
	if r.cfg.qualifier != "" {
		// Qualified lookups never invoke registered factories.
		return false
	}
	if validateDependencyType(r.t) != nil {
		return false
	}
	if r.c.lookupChain(r.t).IsSome() {
		return false
	}

	ci, err := reg.analyzer.analyze(r.t)
	if err != nil {
		// Let Await surface the error on the caller's goroutine.
		return false
	}
	return ci.HasAsync
}

// awaitWith is the single source of truth for resolution. The lookup order
// is: qualified entry, explicit default factory, GetInstance hook, this
// container's cache, ancestor caches, the caller's default, and finally
// instance creation. Every resolved value passes through the GotInstance
// filter and is cached under its type key, except hook-supplied values
// (the hook owns caching) and caller defaults (never cached).
func (r *Resolution) awaitWith(ctx context.Context, visitor *resolveVisitor) (any, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.cfg.fromConfig != "" {
		return nil, errs.Errorf("%w: FromConfig(%q)", ErrNotImplemented, r.cfg.fromConfig)
	}
	if err := validateDependencyType(r.t); err != nil {
		// Container and Registry are reserved for registration, but every
		// container seeds itself and its registry into its own cache, so a
		// plain request for either resolves from there.
		if r.cfg.qualifier == "" && r.cfg.defFactory == nil && (r.t == typeContainer || r.t == typeRegistry) {
			if v, ok := r.c.lookupChain(r.t).Value(); ok {
				return v, nil
			}
		}
		return nil, err
	}

	if r.cfg.qualifier != "" {
		return r.awaitQualified(ctx, visitor)
	}
	if r.cfg.defFactory != nil {
		return r.awaitDefaultFactory(ctx, visitor)
	}

	c := r.c
	reg := c.registry

	var val any
	skipCache := false

	res, err := reg.hookManager(GetInstance).Handle(ctx, c, nil, r.hookContext(GetInstance))
	if err != nil {
		return nil, err
	}

	switch {
	case res.IsSome():
		val, _ = res.Value()
		skipCache = true
		reg.log.Debug().Stringer("type", r.t).Msg("instance supplied by hook")

	default:
		if found, ok := c.lookupChain(r.t).Value(); ok {
			val = found
		} else if r.cfg.hasDefault {
			// Defaults pass through the GotInstance filter but are never
			// cached.
			val = r.cfg.def
			skipCache = true
		} else {
			val, err = r.createInstance(ctx, visitor)
			if err != nil {
				return nil, err
			}
		}
	}

	val, err = reg.hookManager(GotInstance).Filter(ctx, c, val, r.hookContext(GotInstance))
	if err != nil {
		return nil, err
	}

	if !skipCache {
		c.instances.Store(typeKey(r.t), val)
	}
	return val, nil
}

// awaitQualified looks up a qualified entry in this container and its
// ancestors. Registered factories are never consulted for qualified
// requests; only an explicit default factory creates.
func (r *Resolution) awaitQualified(ctx context.Context, visitor *resolveVisitor) (any, error) {
	c := r.c
	key := qualifiedKey(r.t, r.cfg.qualifier)

	if v, ok := c.lookupQualifiedChain(r.t, r.cfg.qualifier); ok {
		return v, nil
	}

	if f := r.cfg.defFactory; f != nil {
		fk := factoryKey(f.fn)
		if r.cfg.cacheFactory {
			if v, ok := c.factoryCacheLookup(fk); ok {
				return v, nil
			}
		}

		val, err := f.invoke(ctx, c, visitor)
		if err != nil {
			return nil, err
		}
		if r.cfg.cacheFactory {
			// Cached under both keys: call sites sharing the factory
			// function converge, and later qualified lookups hit directly.
			c.instances.Store(fk, val)
			c.instances.Store(key, val)
		}
		return val, nil
	}

	if r.cfg.hasDefault {
		return r.cfg.def, nil
	}

	return nil, &ResolutionError{
		Type:      r.t,
		Qualifier: r.cfg.qualifier,
		Parameter: r.cfg.parameter,
		Reason:    "no qualified instance registered",
	}
}

// awaitDefaultFactory resolves through the caller-supplied factory instead
// of normal resolution. Results are cached under the factory function's
// identity unless caching was disabled; a hit found in an ancestor is copied
// into this container for faster access next time.
func (r *Resolution) awaitDefaultFactory(ctx context.Context, visitor *resolveVisitor) (any, error) {
	c := r.c
	f := r.cfg.defFactory
	fk := factoryKey(f.fn)

	if r.cfg.cacheFactory {
		if v, ok := c.lookupExact(fk); ok {
			return v, nil
		}
		for scope := c.parent; scope != nil; scope = scope.parent {
			if v, ok := scope.lookupExact(fk); ok {
				c.instances.Store(fk, v)
				return v, nil
			}
		}
	}

	val, err := f.invoke(ctx, c, visitor)
	if err != nil {
		return nil, err
	}

	if r.cfg.cacheFactory {
		c.instances.Store(fk, val)
	}
	return val, nil
}

// createInstance builds a new instance for the requested type. With
// [WithSingleflight] set on the registry, concurrent first-time creations of
// the same type share one execution.
func (r *Resolution) createInstance(ctx context.Context, visitor *resolveVisitor) (any, error) {
	reg := r.c.registry

	if reg.single == nil {
		return r.create(ctx, visitor)
	}

	val, err, _ := reg.single.Do(typeKey(r.t).String(), func() (any, error) {
		return r.create(ctx, visitor)
	})
	return val, err
}

// create is the creation pipeline: the CreateInstance hook may supply the
// instance outright; otherwise the analyzed dependency chain decides between
// direct invocation and two-phase chain execution. Every created value
// passes through the CreatedInstance filter.
func (r *Resolution) create(ctx context.Context, visitor *resolveVisitor) (any, error) {
	c := r.c
	reg := c.registry

	res, err := reg.hookManager(CreateInstance).Handle(ctx, c, nil, r.hookContext(CreateInstance))
	if err != nil {
		return nil, err
	}
	if val, ok := res.Value(); ok {
		return reg.hookManager(CreatedInstance).Filter(ctx, c, val, r.hookContext(CreatedInstance))
	}

	ci, err := reg.analyzer.analyze(r.t)
	if err != nil {
		return nil, err
	}

	f := ci.FactoryFor(r.t)
	if f == nil {
		res, err := reg.hookManager(HandleUnsupportedDependency).Handle(ctx, c, nil, r.hookContext(HandleUnsupportedDependency))
		if err != nil {
			return nil, err
		}
		if val, ok := res.Value(); ok {
			return reg.hookManager(CreatedInstance).Filter(ctx, c, val, r.hookContext(CreatedInstance))
		}

		return nil, &ResolutionError{
			Type:      r.t,
			Parameter: r.cfg.parameter,
			Reason:    "no factory registered and no handler answered",
		}
	}

	var val any
	if ci.HasAsync {
		val, err = r.executeChain(ctx, ci, visitor)
	} else {
		val, err = f.invoke(ctx, c, visitor)
	}
	if err != nil {
		return nil, err
	}

	return reg.hookManager(CreatedInstance).Filter(ctx, c, val, r.hookContext(CreatedInstance))
}

// executeChain resolves an asynchronous dependency chain in two phases:
// asynchronous factories first, in dependency order, then the remaining
// synchronous ones. Types already present anywhere in the container chain
// are skipped, and each created instance is cached so later phases and
// nested invocations reuse it.
func (r *Resolution) executeChain(ctx context.Context, ci *ChainInfo, visitor *resolveVisitor) (any, error) {
	c := r.c
	reg := c.registry

	for _, asyncPhase := range [2]bool{true, false} {
		for _, t := range ci.ResolutionOrder {
			f := ci.FactoryFor(t)
			if f == nil || f.async != asyncPhase {
				continue
			}
			if c.lookupChain(t).IsSome() {
				continue
			}

			reg.log.Debug().
				Stringer("type", t).
				Bool("async", f.async).
				Msg("executing chain step")

			val, err := f.invoke(ctx, c, visitor)
			if err != nil {
				return nil, errs.Wrapf(err, "resolving chain for %s at %s", typeName(ci.Target), typeName(t))
			}
			c.instances.Store(typeKey(t), val)
		}
	}

	if val, ok := c.lookupChain(r.t).Value(); ok {
		return val, nil
	}
	return nil, &ResolutionError{
		Type:   r.t,
		Reason: "dependency chain execution produced no instance",
	}
}

func (r *Resolution) hookContext(kind HookKind) *HookContext {
	return &HookContext{
		Kind:      kind,
		Type:      r.t,
		Qualifier: r.cfg.qualifier,
		Function:  r.cfg.function,
		Parameter: r.cfg.parameter,
		Chain:     r.cfg.chain,
		Values:    r.cfg.values,
	}
}
