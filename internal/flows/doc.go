// Package flows contains the orchestration behind every Store mutation.
//
// Each flow function (RunLogin, RunLogout, RunRestore) accepts a typed
// dependency struct and returns a result describing what happened. The
// Store owns the state, the listeners, audit and metrics; flows only decide.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goSession (to avoid import cycles).
//   - Touch the session state directly; the caller applies the result.
package flows
