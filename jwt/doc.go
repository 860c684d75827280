// Package jwt issues and verifies signed session tokens. A token binds the
// session ID to the identity it was issued for, so a persisted session can be
// checked for tampering before it is restored.
package jwt
