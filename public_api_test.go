package goSession_test

import (
	"context"
	"net/http"
	"testing"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/app"
	"github.com/MrEthical07/goSession/middleware"
	"github.com/MrEthical07/goSession/navigation"
)

// This test guards public API compile-compat for consumers.
func TestPublicAPISurfaceCompile(t *testing.T) {
	_ = goSession.New
	_ = goSession.DefaultConfig
	_ = goSession.LoadConfigFile

	var _ *goSession.Store
	var _ goSession.Config
	var _ goSession.Session
	var _ goSession.SessionState = goSession.Unauthenticated{}
	var _ goSession.SessionState = goSession.Authenticated{}
	var _ goSession.IdentityProvider = goSession.IdentityProviderFunc(nil)
	var _ goSession.SessionPersister
	var _ goSession.AuditSink
	var _ navigation.Navigator = (*navigation.Router)(nil)

	var _ error = goSession.ErrAuthenticationFailed
	var _ error = goSession.ErrInvalidCredentials
	var _ error = goSession.ErrNetworkUnavailable
	var _ error = goSession.ErrTimeout
	var _ error = goSession.ErrLoginRateLimited
	var _ error = goSession.ErrSessionExpired
	var _ error = goSession.ErrTokenInvalid
	var _ error = goSession.ErrStoreClosed
	var _ error = goSession.ErrNoStoreInScope

	var _ func(*goSession.Store) func(http.Handler) http.Handler = middleware.Scope
	var _ func(string) func(http.Handler) http.Handler = middleware.RequireAuthenticated
	var _ func() func(http.Handler) http.Handler = middleware.RequireBearer

	var _ func(*goSession.Store, context.Context, goSession.Credentials) error = (*goSession.Store).Login
	var _ func(*goSession.Store, context.Context) error = (*goSession.Store).Logout
	var _ func(*goSession.Store, context.Context) error = (*goSession.Store).Restore
	var _ func(*goSession.Store, context.Context) error = (*goSession.Store).Refresh
	var _ func(*goSession.Store) goSession.Session = (*goSession.Store).Current
	var _ func(*goSession.Store, goSession.Listener) func() = (*goSession.Store).Subscribe

	var _ func(app.LoginPage, context.Context, goSession.Credentials) error = app.LoginPage.Activate
}
