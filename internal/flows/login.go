package flows

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/MrEthical07/goSession/session"
)

// LoginErrors carries host-level sentinel errors used by the login flow.
type LoginErrors struct {
	AuthenticationFailed error
	InvalidCredentials   error
	NetworkUnavailable   error
	Timeout              error
	RateLimited          error
}

// LoginInput is the per-call login request.
type LoginInput struct {
	Identifier string
	IP         string
	// Authenticate performs the identity provider round-trip.
	Authenticate func(context.Context) (Principal, error)
}

// LoginDeps captures login dependencies.
type LoginDeps struct {
	Timeout         time.Duration
	ThrottleEnabled bool
	Lifetime        time.Duration
	PersistEnabled  bool

	Now        func() time.Time
	NewID      func() string
	IssueToken func(p Principal, sessionID string, issuedAt, expiresAt time.Time) (string, error)

	CheckLoginRate     func(context.Context, string, string) error
	IncrementLoginRate func(context.Context, string, string) error
	ResetLoginRate     func(context.Context, string, string) error
	// IsRateLimited reports whether a limiter error means the budget is spent.
	IsRateLimited func(error) bool

	PersistKey func(Principal) string
	Persister  Persister

	Errors LoginErrors
}

// LoginResult is the flow outcome. On success Record holds the new session
// and IssuedAt/ExpiresAt carry its times at full clock precision; PersistErr
// reports a best-effort persistence failure that did not fail the login.
type LoginResult struct {
	Principal Principal
	Record    *session.Record
	IssuedAt  time.Time
	ExpiresAt time.Time
	// Called is true once the identity provider was contacted.
	Called      bool
	Latency     time.Duration
	RateLimited bool
	PersistErr  error
	Err         error
}

// RunLogin authenticates in, issues the session and persists it.
func RunLogin(ctx context.Context, in LoginInput, deps LoginDeps) LoginResult {
	if deps.ThrottleEnabled && deps.CheckLoginRate != nil {
		if err := deps.CheckLoginRate(ctx, in.Identifier, in.IP); err != nil {
			return rateError(err, deps)
		}
	}

	authCtx := ctx
	if deps.Timeout > 0 {
		var cancel context.CancelFunc
		authCtx, cancel = context.WithTimeout(ctx, deps.Timeout)
		defer cancel()
	}

	start := deps.Now()
	principal, err := in.Authenticate(authCtx)
	latency := deps.Now().Sub(start)
	if err != nil {
		res := LoginResult{Called: true, Latency: latency, Err: classify(err, deps.Errors)}
		if deps.ThrottleEnabled && deps.IncrementLoginRate != nil &&
			errors.Is(res.Err, deps.Errors.InvalidCredentials) {
			if rerr := deps.IncrementLoginRate(ctx, in.Identifier, in.IP); rerr != nil &&
				deps.IsRateLimited != nil && deps.IsRateLimited(rerr) {
				res.RateLimited = true
			}
		}
		return res
	}

	now := deps.Now()
	var expiresAt time.Time
	if deps.Lifetime > 0 {
		expiresAt = now.Add(deps.Lifetime)
	}

	rec := &session.Record{
		SchemaVersion: session.CurrentSchemaVersion,
		SessionID:     deps.NewID(),
		UserID:        principal.UserID,
		TenantID:      principal.TenantID,
		Username:      principal.Username,
		Role:          principal.Role,
		CreatedAt:     now.UnixMilli(),
	}
	if !expiresAt.IsZero() {
		rec.ExpiresAt = expiresAt.UnixMilli()
	}

	if deps.IssueToken != nil {
		token, err := deps.IssueToken(principal, rec.SessionID, now, expiresAt)
		if err != nil {
			return LoginResult{Called: true, Latency: latency, Err: errors.Join(deps.Errors.AuthenticationFailed, err)}
		}
		rec.Token = token
	}

	if deps.ThrottleEnabled && deps.ResetLoginRate != nil {
		_ = deps.ResetLoginRate(ctx, in.Identifier, in.IP)
	}

	res := LoginResult{
		Principal: principal,
		Record:    rec,
		IssuedAt:  now,
		ExpiresAt: expiresAt,
		Called:    true,
		Latency:   latency,
	}
	if deps.PersistEnabled && deps.Persister != nil {
		res.PersistErr = deps.Persister.Save(ctx, deps.PersistKey(principal), rec, rec.TTL(now))
	}
	return res
}

func rateError(err error, deps LoginDeps) LoginResult {
	if deps.IsRateLimited != nil && deps.IsRateLimited(err) {
		return LoginResult{RateLimited: true, Err: deps.Errors.RateLimited}
	}
	// Limiter backend unreachable: fail closed.
	return LoginResult{Err: deps.Errors.NetworkUnavailable}
}

func classify(err error, e LoginErrors) error {
	switch {
	case errors.Is(err, e.AuthenticationFailed):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return e.Timeout
	case errors.Is(err, context.Canceled):
		return errors.Join(e.AuthenticationFailed, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return e.Timeout
		}
		return e.NetworkUnavailable
	}
	return errors.Join(e.AuthenticationFailed, err)
}
