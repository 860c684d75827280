// Package middleware exposes net/http and gin adapters that put a goSession
// store in scope for every request and guard routes on the session state.
//
// # Adapters
//
//   - [Scope] / [GinScope] attach the store, client IP and user agent to the
//     request context.
//   - [RequireAuthenticated] / [GinRequireAuthenticated] redirect to the login
//     page when the session is not authenticated.
//   - [RequireBearer] rejects API calls whose bearer token is not the current
//     session token.
//
// # What this package must NOT do
//
//   - Call Login or Logout (pages own transitions).
//   - Parse or create session tokens directly (the store owns them).
package middleware
