package wirebox

import (
	"reflect"
	"slices"

	"github.com/puzpuzpuz/xsync/v3"
)

// ChainInfo describes the transitive set of factories needed to construct a
// target type.
type ChainInfo struct {
	Target       reflect.Type
	Factories    map[reflect.Type]*factory
	Dependencies map[reflect.Type][]reflect.Type

	// AsyncTypes holds every type whose factory is asynchronous or that
	// transitively depends on one; asynchrony is contagious upward.
	AsyncTypes map[reflect.Type]struct{}
	HasAsync   bool

	// ResolutionOrder lists types in traversal completion order: a type
	// appears only after all of its own dependencies, so iterating in order
	// is safe to resolve.
	ResolutionOrder []reflect.Type
}

// FactoryFor returns the chain's factory for a type, or nil.
func (ci *ChainInfo) FactoryFor(t reflect.Type) *factory {
	return ci.Factories[t]
}

func (ci *ChainInfo) isAsync(t reflect.Type) bool {
	_, ok := ci.AsyncTypes[t]
	return ok
}

// analyzer walks factory dependency chains ahead of resolution to detect
// cycles and classify chains as synchronous or asynchronous. Computed chains
// are cached per target type until the registry's factories change.
type analyzer struct {
	registry *Registry
	cache    *xsync.MapOf[reflect.Type, *ChainInfo]
}

func newAnalyzer(r *Registry) *analyzer {
	return &analyzer{
		registry: r,
		cache:    xsync.NewMapOf[reflect.Type, *ChainInfo](),
	}
}

// analyze builds (or returns the cached) dependency chain for a target type.
// Types with no matching factory are left out of the chain; whether that is
// an error is the caller's decision, since hooks may still supply them.
func (a *analyzer) analyze(target reflect.Type) (*ChainInfo, error) {
	if ci, ok := a.cache.Load(target); ok {
		return ci, nil
	}

	tr := &traversal{
		registry:   a.registry,
		visited:    make(map[reflect.Type]bool),
		factories:  make(map[reflect.Type]*factory),
		deps:       make(map[reflect.Type][]reflect.Type),
		asyncTypes: make(map[reflect.Type]struct{}),
	}

	hasAsync, err := tr.visit(target, nil)
	if err != nil {
		return nil, err
	}

	ci := &ChainInfo{
		Target:          target,
		Factories:       tr.factories,
		Dependencies:    tr.deps,
		AsyncTypes:      tr.asyncTypes,
		HasAsync:        hasAsync,
		ResolutionOrder: tr.order,
	}

	a.cache.Store(target, ci)

	a.registry.log.Debug().
		Stringer("target", target).
		Bool("async", hasAsync).
		Int("factories", len(ci.Factories)).
		Msg("dependency chain analyzed")

	return ci, nil
}

func (a *analyzer) invalidate(t reflect.Type) {
	a.cache.Delete(t)
}

func (a *analyzer) invalidateAll() {
	a.cache.Clear()
}

type traversal struct {
	registry   *Registry
	visited    map[reflect.Type]bool
	factories  map[reflect.Type]*factory
	deps       map[reflect.Type][]reflect.Type
	asyncTypes map[reflect.Type]struct{}
	order      []reflect.Type
}

// visit walks the dependency graph from t and reports whether t's chain is
// asynchronous. stack holds the types currently being visited on this path;
// meeting one of them again is a cycle.
func (tr *traversal) visit(t reflect.Type, stack []reflect.Type) (bool, error) {
	if i := slices.Index(stack, t); i >= 0 {
		cycle := append(slices.Clone(stack[i:]), t)
		return false, &CycleError{Cycle: cycle}
	}

	if async, seen := tr.visited[t]; seen {
		return async, nil
	}

	res, err := tr.registry.factoryFor(t)
	if err != nil {
		return false, err
	}

	f, ok := res.Value()
	if !ok {
		// No factory; the type may still resolve from a cache entry or a
		// hook at execution time.
		tr.visited[t] = false
		return false, nil
	}

	tr.factories[t] = f
	tr.deps[t] = f.deps

	stack = append(stack, t)
	async := f.async
	for _, dep := range f.deps {
		depAsync, err := tr.visit(dep, stack)
		if err != nil {
			return false, err
		}
		async = async || depAsync
	}

	if async {
		tr.asyncTypes[t] = struct{}{}
	}
	tr.visited[t] = async
	tr.order = append(tr.order, t)

	return async, nil
}
