package identity

import (
	"context"

	goSession "github.com/MrEthical07/goSession"
)

// Func adapts a plain function to goSession.IdentityProvider.
type Func = goSession.IdentityProviderFunc

// Static authenticates every call, credentials included or not, as one identity.
type Static struct {
	identity goSession.Identity
}

// NewStatic returns a provider that always yields id.
func NewStatic(id goSession.Identity) *Static {
	return &Static{identity: id}
}

// Authenticate returns the configured identity unless ctx is already done.
func (s *Static) Authenticate(ctx context.Context, _ goSession.Credentials) (goSession.Identity, error) {
	if err := ctx.Err(); err != nil {
		return goSession.Identity{}, err
	}
	id := s.identity
	if id.Attributes != nil {
		attrs := make(map[string]string, len(id.Attributes))
		for k, v := range id.Attributes {
			attrs[k] = v
		}
		id.Attributes = attrs
	}
	return id, nil
}
