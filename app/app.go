package app

import (
	"context"
	"errors"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/navigation"
)

// ErrNoNavigatorInScope is returned when a context carries no navigator.
var ErrNoNavigatorInScope = errors.New("no navigator in scope")

type navigatorContextKey struct{}

// WithNavigator returns a context carrying n.
func WithNavigator(ctx context.Context, n navigation.Navigator) context.Context {
	return context.WithValue(ctx, navigatorContextKey{}, n)
}

// NavigatorFromContext returns the navigator attached with WithNavigator.
func NavigatorFromContext(ctx context.Context) (navigation.Navigator, error) {
	n, _ := ctx.Value(navigatorContextKey{}).(navigation.Navigator)
	if n == nil {
		return nil, ErrNoNavigatorInScope
	}
	return n, nil
}

// View is what Render resolved: the route shown and the session it was
// rendered for.
type View struct {
	Route   navigation.Route
	Session goSession.Session
}

// App binds one session store to one router.
type App struct {
	store     *goSession.Store
	router    *navigation.Router
	protected map[navigation.Route]struct{}
}

// New returns an App. Dashboard is protected; more routes can be added with Protect.
func New(store *goSession.Store, router *navigation.Router) (*App, error) {
	if store == nil {
		return nil, goSession.ErrStoreNotReady
	}
	if router == nil {
		router = navigation.NewRouter(navigation.Login)
	}
	return &App{
		store:  store,
		router: router,
		protected: map[navigation.Route]struct{}{
			navigation.Dashboard: {},
		},
	}, nil
}

// Protect marks routes as requiring an authenticated session.
func (a *App) Protect(routes ...navigation.Route) {
	for _, r := range routes {
		a.protected[r] = struct{}{}
	}
}

// Router returns the app router.
func (a *App) Router() *navigation.Router {
	return a.router
}

// Mount builds the provider scope. Everything derived from the returned
// context reaches the same store and navigator.
func (a *App) Mount(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = goSession.WithStore(ctx, a.store)
	return WithNavigator(ctx, a.router)
}

// Render resolves the view for the current route. A protected route viewed
// without an authenticated session redirects to Login.
func (a *App) Render(ctx context.Context) (View, error) {
	store, err := goSession.StoreFromContext(ctx)
	if err != nil {
		return View{}, err
	}

	sess := store.Current()
	route := a.router.Current()
	if _, ok := a.protected[route]; ok && !sess.Authenticated() {
		if err := a.router.Navigate(ctx, navigation.Login); err != nil {
			return View{}, err
		}
		route = navigation.Login
	}
	return View{Route: route, Session: sess}, nil
}
