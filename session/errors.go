package session

import "errors"

var (
	// ErrNotFound is returned by Load when no live record is stored under the key.
	ErrNotFound = errors.New("session record not found")
	// ErrRedisUnavailable wraps Redis transport failures.
	ErrRedisUnavailable = errors.New("redis unavailable")
	// ErrInvalidKey is returned for empty keys or keys that cannot name a file.
	ErrInvalidKey = errors.New("invalid session key")
)
