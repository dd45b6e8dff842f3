package wirehttp

import (
	"github.com/wirebox/wirebox"
)

// ScopeMiddlewareOption configures [RequestScopeMiddleware].
type ScopeMiddlewareOption interface {
	applyScopeMiddleware(*scopeMiddleware)
}

type scopeMiddlewareOption func(*scopeMiddleware)

func (o scopeMiddlewareOption) applyScopeMiddleware(m *scopeMiddleware) {
	o(m)
}

// WithAddErrorHandler sets the error handler for when the request cannot be
// added to the request branch.
func WithAddErrorHandler(fn AddErrorHandler) ScopeMiddlewareOption {
	return scopeMiddlewareOption(func(m *scopeMiddleware) {
		m.addHandler = fn
	})
}

// WithBranchSetup registers a function run on each new request branch before
// the handler, for seeding request-scoped instances. A returned error is
// passed to the add error handler and the request is not served.
func WithBranchSetup(fn func(*wirebox.Container) error) ScopeMiddlewareOption {
	return scopeMiddlewareOption(func(m *scopeMiddleware) {
		m.setup = append(m.setup, fn)
	})
}
