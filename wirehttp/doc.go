/*
Package wirehttp provides HTTP middleware that branches a [wirebox.Container]
for each request, so request-scoped instances stay isolated between requests.

Example:

	package main

	import (
		"net/http"

		"github.com/wirebox/wirebox"
		"github.com/wirebox/wirebox/wirecontext"
		"github.com/wirebox/wirebox/wirehttp"
	)

	func main() {
		r := wirebox.NewRegistry()
		r.AddFactory(NewService)
		r.AddFactory(NewRequestLog)

		c := r.NewContainer()

		handler := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			log := wirecontext.MustGet[*RequestLog](req.Context())
			log.Handle(w, req)
		})

		http.Handle("/", wirehttp.RequestScopeMiddleware(c)(handler))
		http.ListenAndServe(":8080", nil)
	}
*/
package wirehttp
