package wirehttp

import (
	"log/slog"
	"net/http"

	"github.com/wirebox/wirebox"
	"github.com/wirebox/wirebox/wirecontext"
)

// RequestScopeMiddleware branches the container for each request, so
// instances resolved while handling a request are cached in that request's
// branch only.
//
// The current [*http.Request] is added to the branch and can be injected
// into request-scoped factories.
//
// The branch is stored on the request context and is accessed with
// [wirecontext.From], [wirecontext.Get], or [wirecontext.MustGet].
//
// Available options:
//   - WithBranchSetup: seed each request branch before the handler runs.
//   - WithAddErrorHandler: set the error handler for when the branch cannot
//     be prepared.
func RequestScopeMiddleware(c *wirebox.Container, opts ...ScopeMiddlewareOption) func(http.Handler) http.Handler {
	mw := &scopeMiddleware{
		c:          c,
		addHandler: defaultAddErrorHandler,
	}
	for _, opt := range opts {
		opt.applyScopeMiddleware(mw)
	}

	return func(next http.Handler) http.Handler {
		mw.next = next
		return mw
	}
}

// AddErrorHandler writes an error response to the client. It is called by
// the scope middleware when the request cannot be added to the new branch.
//
// The default handler logs the error to [slog.Default] and writes a 500
// Internal Server Error response.
type AddErrorHandler = func(w http.ResponseWriter, r *http.Request, err error)

func defaultAddErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "error adding request to HTTP request scope", "error", err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

type scopeMiddleware struct {
	c          *wirebox.Container
	setup      []func(*wirebox.Container) error
	addHandler AddErrorHandler
	next       http.Handler
}

func (m *scopeMiddleware) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	branch := m.c.Branch()

	if err := branch.Add(r); err != nil {
		if m.addHandler != nil {
			m.addHandler(w, r, err)
		}
		return
	}

	for _, setup := range m.setup {
		if err := setup(branch); err != nil {
			if m.addHandler != nil {
				m.addHandler(w, r, err)
			}
			return
		}
	}

	ctx := wirecontext.WithContainer(r.Context(), branch)
	m.next.ServeHTTP(w, r.WithContext(ctx))
}
