package navigation

import (
	"context"
	"errors"
	"sync"
)

// Route is a named navigation target.
type Route string

const (
	Login     Route = "/login"
	Dashboard Route = "/dashboard"
)

// ErrUnknownRoute is returned when navigating to a route that was not registered.
var ErrUnknownRoute = errors.New("unknown route")

// Navigator moves the client to a route.
type Navigator interface {
	Navigate(ctx context.Context, to Route) error
}

// Router is an in-process Navigator over a fixed route table. It records the
// current target and the history of visited routes.
type Router struct {
	mu      sync.RWMutex
	routes  map[Route]struct{}
	current Route
	history []Route
}

// NewRouter registers routes and starts at initial. Login and Dashboard are
// always registered.
func NewRouter(initial Route, routes ...Route) *Router {
	r := &Router{
		routes: map[Route]struct{}{
			Login:     {},
			Dashboard: {},
		},
	}
	for _, route := range routes {
		r.routes[route] = struct{}{}
	}
	r.routes[initial] = struct{}{}
	r.current = initial
	r.history = []Route{initial}
	return r
}

// Navigate sets the current target to to and notifies listeners.
func (r *Router) Navigate(ctx context.Context, to Route) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	if _, ok := r.routes[to]; !ok {
		r.mu.Unlock()
		return ErrUnknownRoute
	}
	r.current = to
	r.history = append(r.history, to)
	r.mu.Unlock()
	return nil
}

// Current returns the current navigation target.
func (r *Router) Current() Route {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// History returns every route visited, oldest first.
func (r *Router) History() []Route {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Route(nil), r.history...)
}
