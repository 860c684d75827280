package goSession

import "context"

type storeContextKey struct{}
type clientIPContextKey struct{}
type tenantIDContextKey struct{}
type userAgentContextKey struct{}

// WithStore returns a context carrying s. Everything derived from the returned
// context shares the same session store, which is how the application shell
// makes the session reachable from any page without threading it explicitly.
func WithStore(ctx context.Context, s *Store) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, storeContextKey{}, s)
}

// StoreFromContext returns the store attached with [WithStore].
func StoreFromContext(ctx context.Context) (*Store, error) {
	if ctx == nil {
		return nil, ErrNoStoreInScope
	}
	s, _ := ctx.Value(storeContextKey{}).(*Store)
	if s == nil {
		return nil, ErrNoStoreInScope
	}
	return s, nil
}

// MustStoreFromContext is like [StoreFromContext] but panics when no store is in scope.
func MustStoreFromContext(ctx context.Context) *Store {
	s, err := StoreFromContext(ctx)
	if err != nil {
		panic(err)
	}
	return s
}

// WithClientIP attaches the caller’s IP address to ctx. The store uses it for
// per-IP login throttling and audit events.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// WithTenantID attaches a tenant identifier to ctx. Identity providers that do
// not resolve a tenant themselves fall back to it.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantIDContextKey{}, tenantID)
}

// WithUserAgent attaches the client user agent to ctx for audit metadata.
func WithUserAgent(ctx context.Context, userAgent string) context.Context {
	return context.WithValue(ctx, userAgentContextKey{}, userAgent)
}

// TenantIDFromContext returns the tenant attached with [WithTenantID], or "0".
func TenantIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return "0"
	}

	tenantID, _ := ctx.Value(tenantIDContextKey{}).(string)
	if tenantID == "" {
		return "0"
	}

	return tenantID
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}

func userAgentFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	userAgent, _ := ctx.Value(userAgentContextKey{}).(string)
	return userAgent
}
