package goSession

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthenticationFailed is the umbrella error for any login that did not
	// produce an identity. More specific login errors wrap it.
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrInvalidCredentials is returned when the identity provider rejected the credentials.
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrAuthenticationFailed)
	// ErrNetworkUnavailable is returned when the identity provider or a session backend could not be reached.
	ErrNetworkUnavailable = fmt.Errorf("%w: network unavailable", ErrAuthenticationFailed)
	// ErrTimeout is returned when the identity provider did not answer before the context deadline.
	ErrTimeout = fmt.Errorf("%w: timeout", ErrAuthenticationFailed)
	// ErrLoginRateLimited is returned when too many failed logins were recorded for the identifier or client IP.
	ErrLoginRateLimited = fmt.Errorf("%w: login rate limited", ErrAuthenticationFailed)

	// ErrSessionExpired is returned when a persisted or active session outlived its lifetime.
	ErrSessionExpired = errors.New("session expired")
	// ErrTokenInvalid is returned when a persisted session token fails verification.
	ErrTokenInvalid = errors.New("invalid session token")
	// ErrSessionPersistFailed is returned when the session record could not be written or read.
	ErrSessionPersistFailed = errors.New("session persistence failed")

	// ErrStoreClosed is returned by mutations after Close.
	ErrStoreClosed = errors.New("session store closed")
	// ErrStoreNotReady is returned when a nil or unbuilt store is used.
	ErrStoreNotReady = errors.New("session store not initialized")
	// ErrNoStoreInScope is returned when a context carries no session store.
	ErrNoStoreInScope = errors.New("no session store in scope")
)
