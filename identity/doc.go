// Package identity adapts identity sources to goSession.IdentityProvider.
//
// Static always succeeds with a fixed identity and stands in for a
// credential-less login control. Password verifies Argon2id hashes from a
// Directory. OAuth2 delegates to an authorization server through the
// resource-owner password grant.
//
// Providers return errors wrapping goSession.ErrInvalidCredentials,
// goSession.ErrNetworkUnavailable or goSession.ErrTimeout so the UI boundary
// can pick a recovery.
package identity
