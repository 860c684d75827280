// Package password hashes and verifies secrets with Argon2id.
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// [Argon2.NeedsRehash] reports hashes produced with weaker parameters so a
// directory can upgrade them after the next successful login.
//
// This package owns hashing only. It must not store secrets, import other
// goSession packages, or log plaintext.
package password
