package session

import "time"

// Record is the persisted form of an authenticated session.
type Record struct {
	SchemaVersion uint8
	SessionID     string
	UserID        string
	TenantID      string
	Username      string
	Role          string
	Token         string

	// Unix milliseconds. A zero ExpiresAt never expires.
	CreatedAt int64
	ExpiresAt int64
}

// Expired reports whether the record lifetime has elapsed at now.
func (r *Record) Expired(now time.Time) bool {
	return r.ExpiresAt > 0 && now.UnixMilli() >= r.ExpiresAt
}

// TTL returns the remaining lifetime at now, or zero when the record never expires.
func (r *Record) TTL(now time.Time) time.Duration {
	if r.ExpiresAt <= 0 {
		return 0
	}
	return time.UnixMilli(r.ExpiresAt).Sub(now)
}
