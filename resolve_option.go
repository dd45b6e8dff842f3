package wirebox

import (
	"github.com/wirebox/wirebox/internal/errs"
)

// ResolveOption configures a single resolution when calling [Container.Get],
// [Container.GetAsync], [Container.Find], or the generic helpers.
type ResolveOption interface {
	applyResolve(*resolveConfig) error
}

type resolveConfig struct {
	qualifier  string
	def        any
	hasDefault bool

	defFactory   *factory
	cacheFactory bool

	fromConfig string

	// parameter and function name the resolution, for error text and hook
	// context; set by Call when injecting parameters.
	parameter string
	function  string
	chain     []string

	values map[string]any
}

func newResolveConfig(opts []ResolveOption) (*resolveConfig, error) {
	cfg := &resolveConfig{cacheFactory: true}

	err := applyOptions(opts, func(o ResolveOption) error {
		return o.applyResolve(cfg)
	})
	if err != nil {
		return nil, errs.Wrap(err, "resolve options")
	}

	return cfg, nil
}

type resolveOption func(*resolveConfig) error

func (o resolveOption) applyResolve(cfg *resolveConfig) error {
	return o(cfg)
}

// WithQualifier requests the instance registered under the given qualifier.
// It can also be used with [Container.Add] to register a qualified instance.
func WithQualifier(qualifier string) QualifierOption {
	return QualifierOption{qualifier: qualifier}
}

// QualifierOption names a qualified instance. It can be used when adding and
// when resolving.
type QualifierOption struct {
	qualifier string
}

func (o QualifierOption) applyResolve(cfg *resolveConfig) error {
	cfg.qualifier = o.qualifier
	return nil
}

func (o QualifierOption) applyAdd(cfg *addConfig) error {
	cfg.qualifier = o.qualifier
	return nil
}

// WithDefault supplies a fallback returned, uncached, when the dependency
// cannot be resolved.
func WithDefault(def any) ResolveOption {
	return resolveOption(func(cfg *resolveConfig) error {
		cfg.def = def
		cfg.hasDefault = true
		return nil
	})
}

// WithDefaultFactory supplies a factory used instead of normal resolution.
// The result is cached under the factory function's identity, so call sites
// sharing the same function converge on one instance. The factory's own
// parameters are injected.
//
// An explicitly supplied synchronous factory forces synchronous resolution
// even if the registered factory for the type is asynchronous; mark it with
// [Async] to force asynchronous resolution instead.
func WithDefaultFactory(fn any, opts ...FactoryOption) ResolveOption {
	return resolveOption(func(cfg *resolveConfig) error {
		f, err := newFactory(fn, opts...)
		if err != nil {
			return errs.Wrap(err, "with default factory")
		}
		cfg.defFactory = f
		return nil
	})
}

// WithoutFactoryCaching disables caching of the default factory's result, so
// every call site gets a fresh instance.
func WithoutFactoryCaching() ResolveOption {
	return resolveOption(func(cfg *resolveConfig) error {
		cfg.cacheFactory = false
		return nil
	})
}

// FromConfig is declared for configuration-backed dependencies. The core
// does not implement it: resolving with this option set returns
// [ErrNotImplemented] rather than silently ignoring it.
func FromConfig(key string) ResolveOption {
	return resolveOption(func(cfg *resolveConfig) error {
		cfg.fromConfig = key
		return nil
	})
}

// WithContextValue attaches an extra value to the HookContext seen by hooks
// fired during this resolution.
func WithContextValue(key string, value any) ResolveOption {
	return resolveOption(func(cfg *resolveConfig) error {
		if cfg.values == nil {
			cfg.values = make(map[string]any)
		}
		cfg.values[key] = value
		return nil
	})
}

// withCaller names the parameter and function a resolution is being
// performed for.
func withCaller(parameter, function string, chain []string) ResolveOption {
	return resolveOption(func(cfg *resolveConfig) error {
		cfg.parameter = parameter
		cfg.function = function
		cfg.chain = chain
		return nil
	})
}
