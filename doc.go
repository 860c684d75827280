// Package goSession provides the authentication session of a client process:
// one [Store] holding Unauthenticated or Authenticated state, with Login and
// Logout as the only transitions.
//
// A store is built once with [Builder.Build] and handed to consumers through
// [WithStore] / [StoreFromContext] (the provider scope) or explicitly. Every
// consumer reads the same state through [Store.Current] and can observe
// transitions with [Store.Subscribe].
//
// # Architecture boundaries
//
// goSession is the public surface. It exposes [Store], [Builder], [Config],
// the [SessionState] sum type and the pluggable [IdentityProvider] and
// [SessionPersister] interfaces. Flow orchestration, rate limiting and audit
// dispatch live under internal/ and are never exported.
//
// # What this package must NOT do
//
//   - Keep global mutable state. Two stores never share a session.
//   - Define an identity-provider wire protocol; see package identity for adapters.
//   - Import any sub-package that re-imports goSession (no import cycles).
//
// # Performance contract
//
// Current is the hot path: one atomic load and no locks. Login performs one
// identity-provider round-trip plus at most one persister write and three
// limiter calls.
package goSession
