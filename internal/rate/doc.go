// Package rate implements failed-login throttling for the session store.
//
// [Limiter] counts failures in Redis with fixed-window TTLs so several client
// processes sharing a backend share one budget. [Local] keeps token buckets in
// process memory for stores built without Redis.
//
// Both enforce the same contract: once MaxLoginAttempts failures are recorded
// for an identifier (or client IP, when enabled) inside the cooldown window,
// CheckLogin returns [ErrRateLimited] until the window passes or ResetLogin
// is called after a successful login.
package rate
