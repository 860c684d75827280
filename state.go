package goSession

import "time"

// SessionState is the closed set of states a [Session] can be in:
// [Unauthenticated] or [Authenticated]. Consumers type-switch on it.
type SessionState interface {
	isSessionState()
}

// Unauthenticated is the initial state and the state after Logout.
type Unauthenticated struct{}

func (Unauthenticated) isSessionState() {}

// Authenticated carries the identity established by a successful Login or Restore.
type Authenticated struct {
	User      Identity
	SessionID string
	// Token is the signed session token; empty when token signing is disabled.
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

func (Authenticated) isSessionState() {}

// Expired reports whether the session lifetime has elapsed at now.
// A zero ExpiresAt never expires.
func (a Authenticated) Expired(now time.Time) bool {
	return !a.ExpiresAt.IsZero() && !now.Before(a.ExpiresAt)
}

// Session is the read-only view of the store state handed to consumers.
//
// Version increases by one on every state transition, so two consumers holding
// views with the same Version observed the same state.
type Session struct {
	State   SessionState
	Version uint64
}

// Authenticated reports whether the session is in the [Authenticated] state.
func (s Session) Authenticated() bool {
	_, ok := s.State.(Authenticated)
	return ok
}

// User returns the authenticated identity, if any.
func (s Session) User() (Identity, bool) {
	a, ok := s.State.(Authenticated)
	if !ok {
		return Identity{}, false
	}
	return a.User.clone(), true
}

func unauthenticatedSession(version uint64) *Session {
	return &Session{State: Unauthenticated{}, Version: version}
}
