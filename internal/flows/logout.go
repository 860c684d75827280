package flows

import "context"

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	PersistEnabled bool
	PersistKey     func(Principal) string
	Persister      Persister
	// Revoke ends the upstream session; nil when the provider cannot revoke.
	Revoke func(context.Context, Principal) error
}

// LogoutResult reports best-effort cleanup failures. Logout itself never fails.
type LogoutResult struct {
	PersistErr error
	RevokeErr  error
}

// RunLogout removes the persisted record for p and revokes it upstream.
func RunLogout(ctx context.Context, p Principal, deps LogoutDeps) LogoutResult {
	var res LogoutResult
	if deps.PersistEnabled && deps.Persister != nil {
		res.PersistErr = deps.Persister.Delete(ctx, deps.PersistKey(p))
	}
	if deps.Revoke != nil {
		res.RevokeErr = deps.Revoke(ctx, p)
	}
	return res
}
