// Package router registers method-qualified routes on an http.ServeMux and
// runs each route through a middleware chain.
package router

import (
	"net/http"
	"slices"
)

// Middleware wraps a handler.
type Middleware func(http.Handler) http.Handler

// Router is a ServeMux plus the middleware every route registered through
// it receives. Groups share the mux and extend the chain.
type Router struct {
	mux   *http.ServeMux
	chain []Middleware
}

// New returns a Router whose routes all run through middleware, outermost
// first.
func New(middleware ...Middleware) *Router {
	return &Router{mux: http.NewServeMux(), chain: middleware}
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) Get(pattern string, h http.HandlerFunc, mw ...Middleware) {
	r.Handle(http.MethodGet, pattern, h, mw...)
}

func (r *Router) Post(pattern string, h http.HandlerFunc, mw ...Middleware) {
	r.Handle(http.MethodPost, pattern, h, mw...)
}

func (r *Router) Put(pattern string, h http.HandlerFunc, mw ...Middleware) {
	r.Handle(http.MethodPut, pattern, h, mw...)
}

func (r *Router) Delete(pattern string, h http.HandlerFunc, mw ...Middleware) {
	r.Handle(http.MethodDelete, pattern, h, mw...)
}

// Handle registers h for "METHOD pattern". Route middleware runs inside the
// router's chain.
func (r *Router) Handle(method, pattern string, h http.Handler, mw ...Middleware) {
	r.mux.Handle(method+" "+pattern, r.wrap(h, mw))
}

func (r *Router) wrap(h http.Handler, mw []Middleware) http.Handler {
	all := append(slices.Clone(r.chain), mw...)
	for i := len(all) - 1; i >= 0; i-- {
		h = all[i](h)
	}
	return h
}

// Group returns a Router on the same mux with middleware appended to the
// chain.
func (r *Router) Group(middleware ...Middleware) *Router {
	return &Router{mux: r.mux, chain: append(slices.Clone(r.chain), middleware...)}
}
