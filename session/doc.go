// Package session persists the client session record so an authenticated
// session survives a process restart.
//
// # Binary encoding
//
// Records are stored as a compact binary blob (schema versions v1–v2) with
// forward migration on read. The encoder is append-only: new versions add
// fields but never reinterpret old ones.
//
// # Backends
//
// [RedisStore] keeps records in Redis with a TTL equal to the remaining session
// lifetime. [MemoryStore] is an in-process map for tests and single-process
// tools. [FileStore] writes one file per key for desktop and CLI clients.
//
// Backends never judge expiry. Load returns what was stored and the caller
// compares [Record.ExpiresAt] with its own clock. The one exception is the
// Redis TTL: once Redis evicts the key the record is simply gone.
//
// # What this package must NOT do
//
//   - Import goSession or jwt (no upward imports).
//   - Verify tokens or decide whether a session is authenticated.
package session
