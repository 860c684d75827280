package flows

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goSession/session"
)

// RestoreErrors carries host-level sentinel errors used by the restore flow.
type RestoreErrors struct {
	SessionExpired error
	TokenInvalid   error
	PersistFailed  error
}

// RestoreDeps captures restore flow dependencies.
type RestoreDeps struct {
	Key       string
	Persister Persister
	Now       func() time.Time
	// VerifyToken checks that a stored token is valid and was issued for
	// want's session. Nil when token signing is disabled.
	VerifyToken func(token string, want Principal, sessionID string) error

	Errors RestoreErrors
}

// RestoreResult is the restore flow outcome. Found is false when no record
// exists; Principal and Record are set only on success. An unusable record
// is deleted and reported through Err.
type RestoreResult struct {
	Found     bool
	Principal Principal
	Record    *session.Record
	Err       error
}

// RunRestore loads and verifies the persisted record under deps.Key.
func RunRestore(ctx context.Context, deps RestoreDeps) RestoreResult {
	if deps.Persister == nil {
		return RestoreResult{}
	}

	rec, err := deps.Persister.Load(ctx, deps.Key)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return RestoreResult{}
		}
		return RestoreResult{Err: fmt.Errorf("%w: %w", deps.Errors.PersistFailed, err)}
	}

	if rec.Expired(deps.Now()) {
		return discard(ctx, deps, deps.Errors.SessionExpired)
	}

	principal := Principal{
		UserID:   rec.UserID,
		TenantID: rec.TenantID,
		Username: rec.Username,
		Role:     rec.Role,
	}

	if deps.VerifyToken != nil {
		if rec.Token == "" {
			return discard(ctx, deps, deps.Errors.TokenInvalid)
		}
		if err := deps.VerifyToken(rec.Token, principal, rec.SessionID); err != nil {
			return discard(ctx, deps, deps.Errors.TokenInvalid)
		}
	}

	return RestoreResult{Found: true, Principal: principal, Record: rec}
}

func discard(ctx context.Context, deps RestoreDeps, cause error) RestoreResult {
	res := RestoreResult{Found: true, Err: cause}
	if err := deps.Persister.Delete(ctx, deps.Key); err != nil && !errors.Is(err, session.ErrNotFound) {
		res.Err = errors.Join(cause, fmt.Errorf("%w: %w", deps.Errors.PersistFailed, err))
	}
	return res
}
