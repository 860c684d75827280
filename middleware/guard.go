package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"net"
	"net/http"
	"strings"

	goSession "github.com/MrEthical07/goSession"
)

type sessionContextKey struct{}

// SessionFromContext returns the session snapshot a guard admitted the
// request with.
func SessionFromContext(ctx context.Context) (goSession.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey{}).(goSession.Session)
	return sess, ok
}

// Scope attaches store to every request context, together with the client
// IP and user agent used for throttling and audit.
func Scope(store *goSession.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(scopeContext(r.Context(), store, remoteIP(r.RemoteAddr), r.UserAgent())))
		})
	}
}

// RequireAuthenticated redirects (303) to loginPath unless the store in scope
// holds an authenticated session. It expects [Scope] earlier in the chain.
func RequireAuthenticated(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := admit(r.Context())
			if err != nil {
				if errors.Is(err, goSession.ErrNoStoreInScope) {
					http.Error(w, "session unavailable", http.StatusInternalServerError)
					return
				}
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireBearer admits requests carrying the current session token as a
// bearer credential and rejects everything else with 401.
func RequireBearer() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := admit(r.Context())
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			a, _ := sess.State.(goSession.Authenticated)
			if !ok || a.Token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(a.Token)) != 1 {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

var errNotAuthenticated = errors.New("not authenticated")

// admit collects an expired session and returns the current one when it is
// authenticated.
func admit(ctx context.Context) (goSession.Session, error) {
	store, err := goSession.StoreFromContext(ctx)
	if err != nil {
		return goSession.Session{}, err
	}
	_ = store.Refresh(ctx)

	sess := store.Current()
	if !sess.Authenticated() {
		return goSession.Session{}, errNotAuthenticated
	}
	return sess, nil
}

func scopeContext(ctx context.Context, store *goSession.Store, ip, userAgent string) context.Context {
	ctx = goSession.WithStore(ctx, store)
	if ip != "" {
		ctx = goSession.WithClientIP(ctx, ip)
	}
	if userAgent != "" {
		ctx = goSession.WithUserAgent(ctx, userAgent)
	}
	return ctx
}

func remoteIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
