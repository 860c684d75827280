package goSession

import (
	"context"
	"time"

	"github.com/MrEthical07/goSession/session"
)

// Identity describes the user behind an authenticated session.
type Identity struct {
	UserID     string
	TenantID   string
	Username   string
	Role       string
	Attributes map[string]string
}

func (i Identity) clone() Identity {
	if i.Attributes == nil {
		return i
	}
	attrs := make(map[string]string, len(i.Attributes))
	for k, v := range i.Attributes {
		attrs[k] = v
	}
	i.Attributes = attrs
	return i
}

// Credentials are handed to the [IdentityProvider] on Login. The zero value is
// valid and is what a credential-less login control sends.
type Credentials struct {
	Identifier string
	Secret     string
	Metadata   map[string]string
}

// IdentityProvider verifies credentials against an external identity source.
//
// Implementations should return errors wrapping [ErrInvalidCredentials],
// [ErrNetworkUnavailable] or [ErrTimeout] so the UI boundary can choose a
// recovery; any other error is wrapped in [ErrAuthenticationFailed] by the store.
type IdentityProvider interface {
	Authenticate(ctx context.Context, creds Credentials) (Identity, error)
}

// IdentityProviderFunc adapts a function to [IdentityProvider].
type IdentityProviderFunc func(ctx context.Context, creds Credentials) (Identity, error)

// Authenticate calls f.
func (f IdentityProviderFunc) Authenticate(ctx context.Context, creds Credentials) (Identity, error) {
	return f(ctx, creds)
}

// Revoker is optionally implemented by an [IdentityProvider] that can end the
// upstream session on Logout.
type Revoker interface {
	Revoke(ctx context.Context, user Identity) error
}

// Listener observes every state transition of a [Store]. Listeners run
// synchronously on the goroutine that performed the transition and must not
// call Login or Logout. An expiry first noticed by [Store.Current] is
// delivered by the next mutation or [Store.Refresh].
type Listener func(Session)

// SessionPersister keeps the session record across process restarts.
// Load returns [session.ErrNotFound] when nothing is stored under key and
// otherwise the record as saved, expired or not; the store judges expiry
// with its own clock.
type SessionPersister interface {
	Save(ctx context.Context, key string, rec *session.Record, ttl time.Duration) error
	Load(ctx context.Context, key string) (*session.Record, error)
	Delete(ctx context.Context, key string) error
}
